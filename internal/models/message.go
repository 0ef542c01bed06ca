package models

import "time"

// Message is an internal note from one account to another.
type Message struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	SenderID    uint       `gorm:"not null;index" json:"senderId"`
	RecipientID uint       `gorm:"not null;index" json:"recipientId"`
	Subject     string     `gorm:"size:200" json:"subject"`
	Body        string     `gorm:"type:text;not null" json:"body"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
