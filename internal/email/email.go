// Package email envía los correos transaccionales del servicio (hoy solo el
// de reset de password). Sin SMTP configurado se usa LogSender, que deja el
// contenido en los logs en lugar de enviarlo.
package email

// Sender es la interfaz para enviar emails.
// Implementada por SMTPSender y LogSender.
type Sender interface {
	// Send envía un email con contenido HTML y texto plano.
	// El destinatario recibe ambas versiones como multipart/alternative.
	Send(to string, subject string, htmlBody string, textBody string) error
}
