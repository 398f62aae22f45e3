package notifications

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/pharmhq/pharmacy-backend/internal/invites"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

// sender is the slice of the SendGrid client the mailer needs; tests swap in
// a recorder.
type sender interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer delivers transactional email through SendGrid.
type Mailer struct {
	client   sender
	from     *mail.Email
	logg     *logger.Logger
	disabled bool
}

// MailerParams bundles the mailer dependencies.
type MailerParams struct {
	Config config.SendgridConfig
	Logger *logger.Logger
}

// NewMailer constructs the SendGrid mailer. Without an API key the mailer
// runs disabled: sends are logged and dropped so local environments need no
// SendGrid account.
func NewMailer(params MailerParams) (*Mailer, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	m := &Mailer{
		from: mail.NewEmail(params.Config.FromName, params.Config.DefaultFrom),
		logg: params.Logger,
	}
	if strings.TrimSpace(params.Config.APIKey) == "" {
		m.disabled = true
		return m, nil
	}
	if strings.TrimSpace(params.Config.DefaultFrom) == "" {
		return nil, fmt.Errorf("sendgrid from address is required")
	}
	m.client = sendgrid.NewSendClient(params.Config.APIKey)
	return m, nil
}

// SendInviteEmail delivers the staff invitation with its accept link.
func (m *Mailer) SendInviteEmail(ctx context.Context, params invites.InviteEmailParams) error {
	subject := fmt.Sprintf("You have been invited to join %s", params.OrganizationName)
	deadline := params.ExpiresAt.UTC().Format("January 2, 2006")
	plain := fmt.Sprintf(
		"%s invited you to join %s as %s.\n\nAccept the invitation before %s:\n%s\n",
		params.InviterName, params.OrganizationName, params.Role.Label(), deadline, params.AcceptLink,
	)
	// Display names are tenant-controlled input; escape them before they
	// land in the HTML part.
	body := fmt.Sprintf(
		`<p>%s invited you to join <strong>%s</strong> as %s.</p><p><a href="%s">Accept the invitation</a> before %s.</p>`,
		html.EscapeString(params.InviterName), html.EscapeString(params.OrganizationName),
		params.Role.Label(), params.AcceptLink, deadline,
	)
	return m.send(ctx, params.To, subject, plain, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, plain, html string) error {
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("recipient address is empty")
	}
	if m.disabled {
		m.logg.Info(m.logg.WithField(ctx, "to", to), "mailer disabled; dropping email")
		return nil
	}

	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plain, html)
	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", response.StatusCode, response.Body)
	}
	return nil
}
