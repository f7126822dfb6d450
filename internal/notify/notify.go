// Package notify turns domain events into emails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/pkg/mailer"
)

var bodies = template.Must(template.New("notify").Parse(`
{{define "business.registered"}}Welcome to Reviewly, {{.BusinessName}}!

Your public review page is live at {{.Link}}.
{{if not .TrialEndsAt.IsZero}}Your free trial runs until {{.TrialEndsAt.Format "2 Jan 2006"}}.
{{end}}{{end}}
{{define "review.submitted"}}{{.BusinessName}} received a new {{.Rating}}-star review at {{.BranchName}}.
{{if .CustomerName}}
From: {{.CustomerName}}{{end}}{{if .Comment}}
"{{.Comment}}"{{end}}

Reply from your dashboard: {{.Link}}
{{end}}
{{define "payment.fulfilled"}}Thank you for your payment of {{printf "%.2f" .Amount}} {{.Currency}}.
{{if .PlanID}}
Your {{.PlanID}} plan is now active.{{else}}
{{.Quantity}} x {{.AddonID}} has been added to your account.{{end}}

Order: {{.OrderID}}
{{end}}
{{define "support.requested"}}New support request from {{.Name}} <{{.Email}}>

Subject: {{.Subject}}

{{.Message}}
{{end}}
{{define "demo.booked"}}Demo requested by {{.Name}} <{{.Email}}>{{if .Company}} ({{.Company}}){{end}}
Preferred time: {{.PreferredAt.Format "Mon 2 Jan 2006 15:04 MST"}}
{{if .Notes}}
{{.Notes}}
{{end}}{{end}}
`))

// Notifier emails business owners and the support inbox about events.
type Notifier struct {
	mailer       mailer.Mailer
	supportEmail string
	appURL       string
	logger       *zap.Logger
}

// New returns a Notifier. appURL is the public site used for links in mails.
func New(m mailer.Mailer, supportEmail, appURL string, logger *zap.Logger) *Notifier {
	return &Notifier{mailer: m, supportEmail: supportEmail, appURL: strings.TrimRight(appURL, "/"), logger: logger}
}

// Handle sends the email for e. Event types without a mail are ignored.
func (n *Notifier) Handle(ctx context.Context, e events.Event) error {
	msg, ok, err := n.Compose(e)
	if err != nil {
		return err
	}
	if !ok {
		n.logger.Debug("No notification for event", zap.String("type", e.Type))
		return nil
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s notification: %w", e.Type, err)
	}
	n.logger.Info("Notification sent", zap.String("type", e.Type), zap.String("to", msg.To))
	return nil
}

// Compose builds the mail for an event. ok is false when the event needs no
// mail or has no recipient.
func (n *Notifier) Compose(e events.Event) (msg mailer.Message, ok bool, err error) {
	var (
		data    interface{}
		to      string
		subject string
	)
	switch e.Type {
	case events.TypeBusinessRegistered:
		var p events.BusinessRegistered
		if err := e.Decode(&p); err != nil {
			return msg, false, err
		}
		to, subject = p.OwnerEmail, "Welcome to Reviewly"
		data = struct {
			events.BusinessRegistered
			Link string
		}{p, n.appURL + "/r/" + p.Slug}
	case events.TypeReviewSubmitted:
		var p events.ReviewSubmitted
		if err := e.Decode(&p); err != nil {
			return msg, false, err
		}
		to, subject = p.OwnerEmail, fmt.Sprintf("New %d-star review for %s", p.Rating, p.BusinessName)
		data = struct {
			events.ReviewSubmitted
			Link string
		}{p, n.appURL + "/dashboard/reviews"}
	case events.TypePaymentFulfilled:
		var p events.PaymentFulfilled
		if err := e.Decode(&p); err != nil {
			return msg, false, err
		}
		to, subject, data = p.OwnerEmail, "Payment received", p
	case events.TypeSupportRequested:
		var p events.SupportRequested
		if err := e.Decode(&p); err != nil {
			return msg, false, err
		}
		to, subject, data = n.supportEmail, "[Support] "+p.Subject, p
	case events.TypeDemoBooked:
		var p events.DemoBooked
		if err := e.Decode(&p); err != nil {
			return msg, false, err
		}
		to, subject, data = n.supportEmail, "[Demo] "+p.Name, p
	default:
		return msg, false, nil
	}
	if to == "" {
		return msg, false, nil
	}

	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, e.Type, data); err != nil {
		return msg, false, fmt.Errorf("failed to render %s notification: %w", e.Type, err)
	}
	return mailer.Message{To: to, Subject: subject, Text: strings.TrimSpace(buf.String()) + "\n"}, true, nil
}
