// Package service implements the business rules behind the HTTP handlers.
package service

import (
	"time"

	"careline/internal/config"
	"careline/internal/models"
)

// Notifier receives fire-and-forget notices. Implementations must not block
// and a delivery failure must never surface to the caller.
type Notifier interface {
	InvitationCreated(inv models.Invitation)
	ActivationCodeIssued(email, code string)
	AccountCreated(account models.Account)
	RequestDenied(email, reason string)
	MessageReceived(msg models.Message)
}

// NoopNotifier discards every notice.
type NoopNotifier struct{}

func (NoopNotifier) InvitationCreated(models.Invitation) {}
func (NoopNotifier) ActivationCodeIssued(string, string) {}
func (NoopNotifier) AccountCreated(models.Account) {}
func (NoopNotifier) RequestDenied(string, string) {}
func (NoopNotifier) MessageReceived(models.Message) {}

// LifecycleConfig carries the lifecycle timing rules.
type LifecycleConfig struct {
	InvitationTTL         time.Duration
	RequestTTL            time.Duration
	ApprovalTTL           time.Duration
	MaxActivationAttempts int
	// Now is the clock. Nil means time.Now in UTC.
	Now func() time.Time
}

// DefaultLifecycleConfig returns the standard TTLs: 7 days for invitations,
// 3 days for a pending request and 7 days after approval.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		InvitationTTL:         7 * 24 * time.Hour,
		RequestTTL:            3 * 24 * time.Hour,
		ApprovalTTL:           7 * 24 * time.Hour,
		MaxActivationAttempts: 5,
	}
}

// LifecycleConfigFrom reads the lifecycle settings from cfg.
func LifecycleConfigFrom(cfg *config.Config) LifecycleConfig {
	lc := DefaultLifecycleConfig()
	lc.InvitationTTL = cfg.InvitationTTL()
	lc.RequestTTL = cfg.RequestTTL()
	lc.ApprovalTTL = cfg.ApprovalTTL()
	if cfg.MaxActivationAttempts > 0 {
		lc.MaxActivationAttempts = cfg.MaxActivationAttempts
	}
	return lc
}

func (c LifecycleConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

func notifierOrNoop(n Notifier) Notifier {
	if n == nil {
		return NoopNotifier{}
	}
	return n
}

// Registration holds the profile a new account is created with.
type Registration struct {
	FirstName     string
	LastName      string
	Username      string
	Password      string
	Gender        string
	Birthday      *time.Time
	ContactNumber string
}
