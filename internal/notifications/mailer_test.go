package notifications

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/pharmhq/pharmacy-backend/internal/invites"
	"github.com/pharmhq/pharmacy-backend/pkg/config"
	"github.com/pharmhq/pharmacy-backend/pkg/enums"
	"github.com/pharmhq/pharmacy-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type fakeSender struct {
	sent   []*mail.SGMailV3
	status int
}

func (f *fakeSender) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	status := f.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

func newTestMailer(t *testing.T, sender *fakeSender) *Mailer {
	t.Helper()
	m, err := NewMailer(MailerParams{
		Config: config.SendgridConfig{APIKey: "SG.test", DefaultFrom: "no-reply@pharmhq.test", FromName: "PharmHQ"},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	m.client = sender
	return m
}

func TestSendInviteEmailCarriesAcceptLink(t *testing.T) {
	sender := &fakeSender{}
	m := newTestMailer(t, sender)

	err := m.SendInviteEmail(context.Background(), invites.InviteEmailParams{
		To:               "hire@example.com",
		OrganizationName: "Mercy Pharmacy",
		InviterName:      "Dana Owner",
		Role:             enums.UserRolePharmacist,
		AcceptLink:       "https://app.pharmhq.test/auth/accept-invite?token=abc",
		ExpiresAt:        time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send invite: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}

	msg := sender.sent[0]
	if len(msg.Personalizations) == 0 || len(msg.Personalizations[0].To) == 0 ||
		msg.Personalizations[0].To[0].Address != "hire@example.com" {
		t.Fatalf("recipient not set")
	}
	if !strings.Contains(msg.Subject, "Mercy Pharmacy") {
		t.Fatalf("subject missing organization: %q", msg.Subject)
	}
	foundLink := false
	foundDeadline := false
	for _, content := range msg.Content {
		if strings.Contains(content.Value, "accept-invite?token=abc") {
			foundLink = true
		}
		if strings.Contains(content.Value, "before March 14, 2026") {
			foundDeadline = true
		}
	}
	if !foundLink {
		t.Fatalf("accept link missing from email body")
	}
	if !foundDeadline {
		t.Fatalf("invite deadline missing from email body")
	}
}

func TestSendInviteEmailEscapesDisplayNames(t *testing.T) {
	sender := &fakeSender{}
	m := newTestMailer(t, sender)

	err := m.SendInviteEmail(context.Background(), invites.InviteEmailParams{
		To:               "hire@example.com",
		OrganizationName: `Mercy <img src=x onerror=alert(1)> Pharmacy`,
		InviterName:      `<b>Dana</b> & Co`,
		Role:             enums.UserRolePharmacist,
		AcceptLink:       "https://app.pharmhq.test/auth/accept-invite?token=abc",
		ExpiresAt:        time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("send invite: %v", err)
	}

	var htmlBody string
	for _, content := range sender.sent[0].Content {
		if content.Type == "text/html" {
			htmlBody = content.Value
		}
	}
	if htmlBody == "" {
		t.Fatalf("no html part in email")
	}
	if strings.Contains(htmlBody, "<img") || strings.Contains(htmlBody, "<b>") {
		t.Fatalf("display name markup reached the html body: %q", htmlBody)
	}
	if !strings.Contains(htmlBody, "&lt;b&gt;Dana&lt;/b&gt; &amp; Co") {
		t.Fatalf("inviter name not escaped: %q", htmlBody)
	}
}

func TestSendFailsOnErrorStatus(t *testing.T) {
	sender := &fakeSender{status: 401}
	m := newTestMailer(t, sender)

	err := m.SendInviteEmail(context.Background(), invites.InviteEmailParams{
		To:               "hire@example.com",
		OrganizationName: "Mercy Pharmacy",
		InviterName:      "Dana Owner",
		Role:             enums.UserRoleCashier,
		AcceptLink:       "https://app.pharmhq.test/auth/accept-invite?token=abc",
	})
	if err == nil {
		t.Fatalf("expected error for 4xx response")
	}
}

func TestMailerWithoutKeyDropsQuietly(t *testing.T) {
	m, err := NewMailer(MailerParams{Config: config.SendgridConfig{}, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	if err := m.SendInviteEmail(context.Background(), invites.InviteEmailParams{
		To:         "hire@example.com",
		AcceptLink: "https://app.pharmhq.test/auth/accept-invite?token=abc",
	}); err != nil {
		t.Fatalf("disabled mailer must not fail: %v", err)
	}
}
