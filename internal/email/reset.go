package email

import (
	"fmt"
	"html/template"
	"strings"
	texttpl "text/template"
	"time"
)

// ResetVars son las variables del template de reset de password.
type ResetVars struct {
	Link string
	TTL  string
}

const resetSubject = "Reset your password"

var (
	resetHTML = template.Must(template.New("reset_html").Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif;">
    <p>We received a request to reset your password.</p>
    <p><a href="{{.Link}}">Reset password</a></p>
    <p>The link expires in {{.TTL}}. If you did not request this, you can ignore this email.</p>
  </body>
</html>
`))
	resetText = texttpl.Must(texttpl.New("reset_txt").Parse(`We received a request to reset your password.

Open this link to choose a new one:

{{.Link}}

The link expires in {{.TTL}}. If you did not request this, you can ignore this email.
`))
)

// RenderReset arma subject, HTML y texto plano del email de reset.
func RenderReset(link string, ttl time.Duration) (subject, htmlBody, textBody string, err error) {
	vars := ResetVars{Link: link, TTL: formatTTL(ttl)}

	var hb strings.Builder
	if err := resetHTML.Execute(&hb, vars); err != nil {
		return "", "", "", fmt.Errorf("render reset html: %w", err)
	}
	var tb strings.Builder
	if err := resetText.Execute(&tb, vars); err != nil {
		return "", "", "", fmt.Errorf("render reset text: %w", err)
	}
	return resetSubject, hb.String(), tb.String(), nil
}

func formatTTL(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
