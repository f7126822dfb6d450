package notify

import (
	"errors"

	"reviewly-backend-go/internal/config"
	"reviewly-backend-go/pkg/mailer"
)

// ErrNoMailer is returned when neither SendGrid nor SMTP is configured.
var ErrNoMailer = errors.New("no mail transport configured")

const senderName = "Reviewly"

// MailerFromConfig picks SendGrid when an API key is set, else SMTP.
func MailerFromConfig(cfg *config.Config) (mailer.Mailer, error) {
	switch {
	case cfg.SendGridAPIKey != "":
		m, err := mailer.NewSendGridMailer(cfg.SendGridAPIKey, senderName, cfg.MailFrom, "")
		if err != nil {
			return nil, err
		}
		return m, nil
	case cfg.SMTPHost != "":
		m, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.MailFrom,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, ErrNoMailer
}
