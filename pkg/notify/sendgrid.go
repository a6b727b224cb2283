package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridEndpoint = "/v3/mail/send"

// SendgridConfig configures the email channel.
type SendgridConfig struct {
	APIKey      string
	FromName    string
	FromAddress string
	Host        string
}

// SendgridMailer delivers plain-text reminder emails.
type SendgridMailer struct {
	key  string
	host string
	from *sgmail.Email
}

// NewSendgridMailer builds a mailer. An empty API key disables delivery.
func NewSendgridMailer(cfg SendgridConfig) *SendgridMailer {
	if cfg.Host == "" {
		cfg.Host = "https://api.sendgrid.com"
	}
	return &SendgridMailer{
		key:  cfg.APIKey,
		host: cfg.Host,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

// Enabled reports whether an API key is configured.
func (m *SendgridMailer) Enabled() bool {
	return m != nil && m.key != ""
}

// Send mails text to a single recipient.
func (m *SendgridMailer) Send(ctx context.Context, to, subject, text string) error {
	if !m.Enabled() {
		return ErrChannelDisabled
	}
	p := sgmail.NewPersonalization()
	p.Subject = subject
	p.AddTos(sgmail.NewEmail("", to))

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(sgmail.NewContent("text/plain", text))

	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: HTTP %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
