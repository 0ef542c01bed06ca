package models

import "time"

// AccountRequestStatus defines lifecycle states for self-service account requests.
type AccountRequestStatus string

const (
	AccountRequestStatusPending   AccountRequestStatus = "PENDING"
	AccountRequestStatusApproved  AccountRequestStatus = "APPROVED"
	AccountRequestStatusDenied    AccountRequestStatus = "DENIED"
	AccountRequestStatusCompleted AccountRequestStatus = "COMPLETED"
	AccountRequestStatusExpired   AccountRequestStatus = "EXPIRED"
)

// AccountRequestResult tags the outcome of a self-service submission.
type AccountRequestResult string

const (
	// AccountRequestUserExists means an account already uses the email.
	AccountRequestUserExists AccountRequestResult = "USER_ALREADY_EXISTS"
	// AccountRequestNew means a fresh PENDING request was stored.
	AccountRequestNew AccountRequestResult = "NEW"
	// AccountRequestPending means the open request was overwritten in place.
	AccountRequestPending AccountRequestResult = "PENDING"
	// AccountRequestApproved means the request awaits activation and was left untouched.
	AccountRequestApproved AccountRequestResult = "APPROVED"
	// AccountRequestCompleted means the request already produced an account.
	AccountRequestCompleted AccountRequestResult = "COMPLETED"
	// AccountRequestReopen means a lapsed or denied request was recycled to PENDING.
	AccountRequestReopen AccountRequestResult = "REOPEN"
)

// AccountRequest is a self-service request for an account. There is exactly
// one row per email; resubmissions recycle it.
type AccountRequest struct {
	ID                 uint                 `gorm:"primaryKey" json:"id"`
	FirstName          string               `gorm:"size:100;not null" json:"firstName"`
	LastName           string               `gorm:"size:100;not null" json:"lastName"`
	Email              string               `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Role               Role                 `gorm:"type:varchar(20);not null" json:"role"`
	Status             AccountRequestStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	RequestedAt        time.Time            `gorm:"not null" json:"requestedAt"`
	ExpiresAt          time.Time            `gorm:"not null;index" json:"expiresAt"`
	ApprovedAt         *time.Time           `json:"approvedAt,omitempty"`
	ApprovedByID       *uint                `gorm:"index" json:"approvedById,omitempty"`
	DenialReason       string               `gorm:"type:text" json:"denialReason,omitempty"`
	ActivationCodeHash string               `gorm:"size:100" json:"-"`
	ActivationAttempts int                  `gorm:"not null;default:0" json:"activationAttempts"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}

// IsExpired reports whether the request has passed its expiry instant.
func (r *AccountRequest) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
