package models

import "time"

// InvitationStatus defines lifecycle states for admin-issued invitations.
type InvitationStatus string

const (
	// InvitationStatusPending indicates the token can still be redeemed.
	InvitationStatusPending InvitationStatus = "PENDING"
	// InvitationStatusAccepted indicates the token was redeemed. Terminal.
	InvitationStatusAccepted InvitationStatus = "ACCEPTED"
	// InvitationStatusExpired indicates the token lapsed or was revoked. Terminal.
	InvitationStatusExpired InvitationStatus = "EXPIRED"
)

// Invitation is an admin-initiated offer to join with a specific role.
type Invitation struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Token         string           `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Email         string           `gorm:"size:254;not null;index" json:"email"`
	Role          Role             `gorm:"type:varchar(20);not null" json:"role"`
	Status        InvitationStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	CreatedAt     time.Time        `json:"createdAt"`
	ExpiresAt     time.Time        `gorm:"not null;index" json:"expiresAt"`
	AcceptedAt    *time.Time       `json:"acceptedAt,omitempty"`
	InvitedByID   *uint            `gorm:"index" json:"invitedById,omitempty"`
	InvitedByName string           `gorm:"size:200" json:"invitedByName"`
}

// IsExpired reports whether the invitation has passed its expiry instant.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
