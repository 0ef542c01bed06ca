package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"careline/internal/middleware"
	"careline/internal/models"
	"careline/internal/observability"
)

const deliveryTimeout = 30 * time.Second

// Dispatcher sends notifications in the background. State changes never wait
// on delivery and a failed delivery is only logged.
type Dispatcher struct {
	mailer   Mailer
	notifier *Notifier
	wg       sync.WaitGroup
}

// NewDispatcher wires the mailer and realtime notifier. Either may be nil.
func NewDispatcher(mailer Mailer, notifier *Notifier) *Dispatcher {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Dispatcher{mailer: mailer, notifier: notifier}
}

// InvitationCreated emails the registration link to the invitee.
func (d *Dispatcher) InvitationCreated(inv models.Invitation) {
	d.run("invitation", func(ctx context.Context) error {
		return d.mailer.SendInvitation(ctx, inv)
	})
}

// ActivationCodeIssued emails a freshly generated activation code.
func (d *Dispatcher) ActivationCodeIssued(email, code string) {
	d.run("activation_code", func(ctx context.Context) error {
		return d.mailer.SendActivationCode(ctx, email, code)
	})
}

// AccountCreated confirms a completed registration.
func (d *Dispatcher) AccountCreated(account models.Account) {
	d.run("account_created", func(ctx context.Context) error {
		return d.mailer.SendAccountCreatedConfirmation(ctx, account)
	})
}

// RequestDenied tells the requester their request was turned down.
func (d *Dispatcher) RequestDenied(email, reason string) {
	d.run("denial", func(ctx context.Context) error {
		return d.mailer.SendDenial(ctx, email, reason)
	})
}

// MessageReceived pushes a new message to the recipient's realtime channel.
func (d *Dispatcher) MessageReceived(msg models.Message) {
	d.run("message", func(ctx context.Context) error {
		return d.notifier.PublishEvent(ctx, msg.RecipientID, "message_received", msg)
	})
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(kind string, send func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		// Detached from the request so delivery outlives the response.
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
					middleware.Logger.Error("panic in notification delivery",
						slog.String("kind", kind), slog.String("stack", string(debug.Stack())))
				}
			}()
			return send(ctx)
		}()

		outcome := "sent"
		if err != nil {
			outcome = "failed"
			middleware.Logger.Warn("notification delivery failed",
				slog.String("kind", kind), slog.String("error", err.Error()))
		}
		observability.NotificationDeliveries.WithLabelValues(kind, outcome).Inc()
	}()
}
