package repository

import (
	"context"
	"time"

	"careline/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for internal messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	Inbox(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Message, error)
	Outbox(ctx context.Context, senderID uint, limit, offset int) ([]models.Message, error)
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, mapReadError(err, "Message", id)
	}
	return &msg, nil
}

func (r *messageRepository) Inbox(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Message, error) {
	limit, offset = clampPage(limit, offset)
	q := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).Offset(offset)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var msgs []models.Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *messageRepository) Outbox(ctx context.Context, senderID uint, limit, offset int) ([]models.Message, error) {
	limit, offset = clampPage(limit, offset)
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("sender_id = ?", senderID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// MarkRead stamps read_at the first time the recipient opens the message.
// Later calls keep the original timestamp.
func (r *messageRepository) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, recipientID).
		Update("read_at", at).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
