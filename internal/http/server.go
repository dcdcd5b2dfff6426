// Package http arma el servidor de la API: lifecycle e instrumentación.
// Las rutas viven en router, los endpoints en controllers y handlers.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"
)

// Server envuelve http.Server con timeouts de producción y shutdown ordenado.
type Server struct {
	srv *http.Server
}

// NewServer crea el servidor HTTP para el handler dado.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Start sirve hasta que el contexto se cancela y después apaga con gracia,
// esperando hasta 10s a que drenen los requests en vuelo.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Named("http")

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
