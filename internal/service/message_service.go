package service

import (
	"context"
	"strings"
	"time"

	"careline/internal/models"
	"careline/internal/policy"
	"careline/internal/repository"
)

// MessageService handles internal messaging between accounts.
type MessageService struct {
	messages repository.MessageRepository
	accounts repository.AccountRepository
	notify   Notifier
	now      func() time.Time
}

// NewMessageService returns a new MessageService.
func NewMessageService(messages repository.MessageRepository, accounts repository.AccountRepository, notify Notifier) *MessageService {
	return &MessageService{
		messages: messages,
		accounts: accounts,
		notify:   notifierOrNoop(notify),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send delivers a message. Residents may only write to staff.
func (s *MessageService) Send(ctx context.Context, sub policy.Subject, recipientID uint, subject, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, models.NewValidationError("body is required")
	}
	subject = strings.TrimSpace(subject)
	if len(subject) > 200 {
		return nil, models.NewValidationError("subject must not exceed 200 characters")
	}
	if recipientID == sub.ID {
		return nil, models.NewValidationError("You cannot message yourself")
	}

	recipient, err := s.accounts.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanMessage(sub, recipient.Role); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    sub.ID,
		RecipientID: recipient.ID,
		Subject:     subject,
		Body:        body,
		CreatedAt:   s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	s.notify.MessageReceived(*msg)
	return msg, nil
}

// Inbox lists messages addressed to the caller.
func (s *MessageService) Inbox(ctx context.Context, sub policy.Subject, unreadOnly bool, limit, offset int) ([]models.Message, error) {
	if sub.ID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.messages.Inbox(ctx, sub.ID, unreadOnly, limit, offset)
}

// Outbox lists messages the caller sent.
func (s *MessageService) Outbox(ctx context.Context, sub policy.Subject, limit, offset int) ([]models.Message, error) {
	if sub.ID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.messages.Outbox(ctx, sub.ID, limit, offset)
}

// MarkRead marks a message read. Only its recipient may do so.
func (s *MessageService) MarkRead(ctx context.Context, sub policy.Subject, id uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.ID == 0 || msg.RecipientID != sub.ID {
		return nil, models.NewForbiddenError("Only the recipient can mark a message read")
	}
	if err := s.messages.MarkRead(ctx, id, sub.ID, s.now()); err != nil {
		return nil, err
	}
	return s.messages.GetByID(ctx, id)
}
