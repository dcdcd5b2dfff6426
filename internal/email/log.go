package email

import "github.com/ShubhamDalvi1999/authbridge/internal/observability/logger"

// LogSender implementa Sender escribiendo el correo al log en lugar de
// enviarlo. Para dev sin SMTP: el link de reset queda visible en la salida
// del servicio.
type LogSender struct{}

func (LogSender) Send(to, subject, _, textBody string) error {
	logger.Named("email").Info("email (log-only sender)",
		logger.String("to", to),
		logger.String("subject", subject),
		logger.String("body", textBody),
	)
	return nil
}
