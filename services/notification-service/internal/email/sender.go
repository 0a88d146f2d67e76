package email

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

type Sender interface {
	Send(to string, subject string, body string) error
	ProviderID() string
}

// SMTPSender sends email via unauthenticated SMTP (Mailpit-compatible).
type SMTPSender struct {
	addr string
	from string
	now  func() time.Time
}

func NewSMTPSender(host string, port string, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@courtbook.local"
	}
	addr := ""
	if host != "" {
		addr = fmt.Sprintf("%s:%s", host, port)
	}
	return &SMTPSender{
		addr: addr,
		from: from,
		now:  time.Now,
	}
}

func (s *SMTPSender) ProviderID() string {
	return "smtp"
}

func (s *SMTPSender) Send(to string, subject string, body string) error {
	if s.addr == "" {
		return errors.New("smtp host not configured")
	}
	msg := buildMessage(s.from, to, subject, body, s.now())
	return smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg))
}

func buildMessage(from, to, subject, body string, sentAt time.Time) string {
	// Minimal RFC 5322 message; enough for Mailpit and most SMTP relays.
	return fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from,
		to,
		subject,
		sentAt.UTC().Format(time.RFC1123Z),
		strings.ReplaceAll(body, "\n", "\r\n"),
	)
}
