package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// Message is a rendered email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var resetHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Hi {{.Name}},</p>
	<p>You are receiving this email because you (or someone else) requested a password reset.</p>
	<p><a href="{{.URL}}">Reset your password</a></p>
	<p style="word-break: break-all; font-size: 12px; color: #666;">{{.URL}}</p>
	<p><strong>This link will expire in {{.Validity}}.</strong></p>
	<p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>
`))

// renderPasswordReset builds the reset email. The HTML part is escaped by html/template.
func renderPasswordReset(name, resetURL string, expiresAt time.Time) Message {
	validity := formatValidity(time.Until(expiresAt))

	var html bytes.Buffer
	_ = resetHTML.Execute(&html, struct{ Name, URL, Validity string }{name, resetURL, validity})

	text := fmt.Sprintf(`Hi %s,

You are receiving this email because you (or someone else) requested a password reset.

Open the link below to choose a new password:
%s

This link will expire in %s.

If you did not request this, you can safely ignore this email.
`, name, resetURL, validity)

	return Message{
		Subject: "Password reset token",
		HTML:    html.String(),
		Text:    text,
	}
}

// formatValidity renders d rounded up to whole minutes.
func formatValidity(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
