package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPSender delivers mail over a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

// Send implements common.EmailSender.
func (s SMTPSender) Send(to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("smtp: recipient is required")
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.From, to, subject, body)
	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", to, err)
	}
	return nil
}
