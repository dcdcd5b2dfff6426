// Package logger expone un *zap.Logger singleton para todo el servicio.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(
//		logger.Layer("service"),
//		logger.Component("social.google"),
//		logger.Op("Callback"),
//	)
//	log.Info("token issued", logger.UserID(user.ID))
//
// El middleware de logging inyecta un logger "scoped" (request_id, method,
// path) en el contexto; From(ctx) lo recupera o cae al singleton.
package logger
