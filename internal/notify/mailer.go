package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Mailer delivers one flat message. There is no templating layer; the
// dispatcher hands it subject and body already rendered as plain text.
type Mailer interface {
	Send(ctx context.Context, to Recipient, subject, body string) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) Send(_ context.Context, to Recipient, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: QA Manager <%s>\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("\r\n")
	msg.WriteString(body)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to.Email}, []byte(msg.String()))
}

// LogMailer stands in when no SMTP relay is configured.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, to Recipient, subject, _ string) error {
	log.Printf("[notify] mail to=%s subject=%q (smtp disabled)", to.Email, subject)
	return nil
}
