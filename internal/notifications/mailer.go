package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"careline/internal/middleware"
	"careline/internal/models"

	"github.com/go-resty/resty/v2"
)

// Mailer sends the lifecycle emails.
type Mailer interface {
	SendInvitation(ctx context.Context, inv models.Invitation) error
	SendActivationCode(ctx context.Context, email, code string) error
	SendAccountCreatedConfirmation(ctx context.Context, account models.Account) error
	SendDenial(ctx context.Context, email, reason string) error
}

// MailMessage is the body accepted by the mail API.
type MailMessage struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type mailResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MailClient posts messages to an HTTP mail API.
type MailClient struct {
	httpClient    *resty.Client
	from          string
	publicBaseURL string
}

// NewMailClient creates a mail API client. apiKey is sent as a bearer token.
func NewMailClient(baseURL, apiKey, from, publicBaseURL string) *MailClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err != nil || r.StatusCode() >= 500
	})

	return &MailClient{
		httpClient:    client,
		from:          from,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// RegistrationLink is the page an invitee opens to redeem token.
func (m *MailClient) RegistrationLink(token string) string {
	return m.publicBaseURL + "/register?token=" + url.QueryEscape(token)
}

func (m *MailClient) SendInvitation(ctx context.Context, inv models.Invitation) error {
	text := fmt.Sprintf(
		"%s has invited you to join as %s.\n\nComplete your registration here:\n%s\n\nThis link expires on %s.",
		inv.InvitedByName, strings.ToLower(string(inv.Role)),
		m.RegistrationLink(inv.Token),
		inv.ExpiresAt.Format(time.RFC1123),
	)
	return m.send(ctx, inv.Email, "You're invited", text)
}

func (m *MailClient) SendActivationCode(ctx context.Context, email, code string) error {
	text := fmt.Sprintf(
		"Your account request was approved.\n\nActivation code: %s\n\nEnter it at %s/activate to finish creating your account.",
		code, m.publicBaseURL,
	)
	return m.send(ctx, email, "Your activation code", text)
}

func (m *MailClient) SendAccountCreatedConfirmation(ctx context.Context, account models.Account) error {
	text := fmt.Sprintf(
		"Hello %s,\n\nYour account %q is ready. Sign in at %s/login.",
		account.FullName(), account.Username, m.publicBaseURL,
	)
	return m.send(ctx, account.Email, "Your account is ready", text)
}

func (m *MailClient) SendDenial(ctx context.Context, email, reason string) error {
	text := "Your account request was not approved."
	if reason != "" {
		text += "\n\nReason: " + reason
	}
	return m.send(ctx, email, "Your account request", text)
}

func (m *MailClient) send(ctx context.Context, to, subject, text string) error {
	if to == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	var result mailResponse
	resp, err := m.httpClient.R().
		SetContext(ctx).
		SetBody(MailMessage{From: m.from, To: to, Subject: subject, Text: text}).
		SetResult(&result).
		Post("/messages")
	if err != nil {
		return fmt.Errorf("mail API call failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode())
	}

	middleware.Logger.DebugContext(ctx, "mail accepted",
		slog.String("subject", subject), slog.String("message_id", result.ID))
	return nil
}

// LogMailer stands in when no mail API is configured. It logs the subject
// line only, never codes or tokens.
type LogMailer struct{}

func (LogMailer) SendInvitation(ctx context.Context, inv models.Invitation) error {
	return logMail(ctx, "invitation", inv.Email)
}

func (LogMailer) SendActivationCode(ctx context.Context, email, _ string) error {
	return logMail(ctx, "activation_code", email)
}

func (LogMailer) SendAccountCreatedConfirmation(ctx context.Context, account models.Account) error {
	return logMail(ctx, "account_created", account.Email)
}

func (LogMailer) SendDenial(ctx context.Context, email, _ string) error {
	return logMail(ctx, "denial", email)
}

func logMail(ctx context.Context, kind, to string) error {
	middleware.Logger.InfoContext(ctx, "mail API not configured, skipping delivery",
		slog.String("kind", kind), slog.String("to", to))
	return nil
}
