package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer returns a mailer using apiKey. baseURL overrides the API
// endpoint when non-empty.
func NewSendGridMailer(apiKey, fromName, fromEmail, baseURL string) (*SendGridMailer, error) {
	if apiKey == "" {
		return nil, errors.New("SENDGRID_API_KEY is not set")
	}
	if fromEmail == "" {
		return nil, errors.New("sender email address cannot be empty")
	}
	client := sendgrid.NewSendClient(apiKey)
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	return &SendGridMailer{client: client, from: mail.NewEmail(fromName, fromEmail)}, nil
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	text := msg.Text
	if text == "" {
		text = msg.HTML
	}
	message := mail.NewSingleEmail(m.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email to %s: status %d: %s", msg.To, resp.StatusCode, resp.Body)
	}
	return nil
}
