package repository

import (
	"context"
	"time"

	"careline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvitationRepository defines persistence operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *models.Invitation) error
	GetByID(ctx context.Context, id uint) (*models.Invitation, error)
	GetByToken(ctx context.Context, token string) (*models.Invitation, error)
	HasActivePending(ctx context.Context, email string, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id uint) (bool, error)
	Accept(ctx context.Context, id uint, account *models.Account, now time.Time) error
	List(ctx context.Context, status models.InvitationStatus, limit, offset int) ([]models.Invitation, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type invitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository returns a new InvitationRepository implementation.
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *models.Invitation) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return mapWriteError(err, "Invitation")
	}
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id uint) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).First(&inv, id).Error; err != nil {
		return nil, mapReadError(err, "Invitation", id)
	}
	return &inv, nil
}

// GetByToken never echoes the token back in a NotFound error.
func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, mapReadError(err, "Invitation", "token")
	}
	return &inv, nil
}

func (r *invitationRepository) HasActivePending(ctx context.Context, email string, now time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("LOWER(email) = LOWER(?) AND status = ? AND expires_at > ?",
			email, models.InvitationStatusPending, now).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// MarkExpired flips a PENDING invitation to EXPIRED. It reports whether a row
// changed, so repeated calls are harmless.
func (r *invitationRepository) MarkExpired(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InvitationStatusPending).
		Update("status", models.InvitationStatusExpired)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Accept compare-and-sets the invitation from PENDING to ACCEPTED and creates
// the account in the same transaction. Losing the race yields CONFLICT.
func (r *invitationRepository) Accept(ctx context.Context, id uint, account *models.Account, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&inv, id).Error; err != nil {
			return mapReadError(err, "Invitation", id)
		}

		res := tx.Model(&models.Invitation{}).
			Where("id = ? AND status = ?", id, models.InvitationStatusPending).
			Updates(map[string]interface{}{
				"status":      models.InvitationStatusAccepted,
				"accepted_at": now,
			})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewConflictError("invitation already used")
		}

		if err := tx.Create(account).Error; err != nil {
			return mapWriteError(err, "Account")
		}
		return nil
	})
}

func (r *invitationRepository) List(ctx context.Context, status models.InvitationStatus, limit, offset int) ([]models.Invitation, error) {
	limit, offset = clampPage(limit, offset)
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var invitations []models.Invitation
	if err := q.Find(&invitations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return invitations, nil
}

// ExpireOverdue marks every lapsed PENDING invitation EXPIRED.
func (r *invitationRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("status = ? AND expires_at < ?", models.InvitationStatusPending, now).
		Update("status", models.InvitationStatusExpired)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
