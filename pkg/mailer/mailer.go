// Package mailer sends transactional email over SMTP or the SendGrid API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
)

// Message is one outgoing email. HTML is optional.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if m.To == "" {
		return errors.New("recipient email address cannot be empty")
	}
	if m.Subject == "" {
		return errors.New("email subject cannot be empty")
	}
	if m.Text == "" && m.HTML == "" {
		return errors.New("email body cannot be empty")
	}
	return nil
}

// SMTPConfig configures SMTPMailer.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// SMTPMailer sends mail through an SMTP relay with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a mailer for the given relay.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("SMTP host cannot be empty")
	}
	if cfg.From == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}, nil
}

// Send delivers msg. net/smtp has no context support, so ctx is only checked up front.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := msg.validate(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{msg.To}, buildMIME(m.cfg.From, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildMIME renders the message. HTML wins over text when both are set.
func buildMIME(from string, msg Message) []byte {
	contentType := "text/plain; charset=UTF-8"
	body := msg.Text
	if msg.HTML != "" {
		contentType = "text/html; charset=UTF-8"
		body = msg.HTML
	}
	to := msg.To
	if msg.ToName != "" {
		to = fmt.Sprintf("%s <%s>", msg.ToName, msg.To)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: %s\r\n", contentType)
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
