package repository

import (
	"context"
	"errors"
	"time"

	"careline/internal/models"

	"gorm.io/gorm"
)

// AccountRequestRepository defines persistence operations for self-service
// account requests.
type AccountRequestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.AccountRequest, error)
	GetByEmail(ctx context.Context, email string) (*models.AccountRequest, error)
	Create(ctx context.Context, req *models.AccountRequest) error
	Save(ctx context.Context, req *models.AccountRequest) error
	SaveIfStatus(ctx context.Context, req *models.AccountRequest, from ...models.AccountRequestStatus) (bool, error)
	ReserveAttempt(ctx context.Context, id uint, max int) (bool, error)
	Complete(ctx context.Context, id uint, account *models.Account) error
	MarkExpired(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, status models.AccountRequestStatus, limit, offset int) ([]models.AccountRequest, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type accountRequestRepository struct {
	db *gorm.DB
}

// NewAccountRequestRepository returns a new AccountRequestRepository implementation.
func NewAccountRequestRepository(db *gorm.DB) AccountRequestRepository {
	return &accountRequestRepository{db: db}
}

func (r *accountRequestRepository) GetByID(ctx context.Context, id uint) (*models.AccountRequest, error) {
	var req models.AccountRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, mapReadError(err, "AccountRequest", id)
	}
	return &req, nil
}

// GetByEmail returns nil, nil when no request exists for email.
func (r *accountRequestRepository) GetByEmail(ctx context.Context, email string) (*models.AccountRequest, error) {
	var req models.AccountRequest
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// Create inserts a new request. A concurrent insert for the same email
// surfaces as a CONFLICT wrapping ErrDuplicateKey.
func (r *accountRequestRepository) Create(ctx context.Context, req *models.AccountRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return mapWriteError(err, "AccountRequest")
	}
	return nil
}

func (r *accountRequestRepository) Save(ctx context.Context, req *models.AccountRequest) error {
	if err := r.db.WithContext(ctx).Save(req).Error; err != nil {
		return mapWriteError(err, "AccountRequest")
	}
	return nil
}

// SaveIfStatus writes every column of req only while the stored status is
// still one of from. It reports false when another writer moved the row first.
func (r *accountRequestRepository) SaveIfStatus(ctx context.Context, req *models.AccountRequest, from ...models.AccountRequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(req).
		Where("status IN ?", from).
		Select("*").Omit("id").
		Updates(req)
	if res.Error != nil {
		return false, mapWriteError(res.Error, "AccountRequest")
	}
	return res.RowsAffected > 0, nil
}

// ReserveAttempt atomically consumes one activation attempt. It reports false
// once the request has used max attempts or is no longer APPROVED.
func (r *accountRequestRepository) ReserveAttempt(ctx context.Context, id uint, max int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.AccountRequest{}).
		Where("id = ? AND status = ? AND activation_attempts < ?", id, models.AccountRequestStatusApproved, max).
		Update("activation_attempts", gorm.Expr("activation_attempts + 1"))
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Complete flips the request from APPROVED to COMPLETED and creates the
// account in one transaction.
func (r *accountRequestRepository) Complete(ctx context.Context, id uint, account *models.Account) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.AccountRequest{}).
			Where("id = ? AND status = ?", id, models.AccountRequestStatusApproved).
			Updates(map[string]interface{}{
				"status":               models.AccountRequestStatusCompleted,
				"activation_code_hash": "",
			})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewInvalidStateError("account request is not awaiting activation")
		}

		if err := tx.Create(account).Error; err != nil {
			return mapWriteError(err, "Account")
		}
		return nil
	})
}

// MarkExpired flips a PENDING or APPROVED request to EXPIRED.
func (r *accountRequestRepository) MarkExpired(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.AccountRequest{}).
		Where("id = ? AND status IN ?", id, openRequestStatuses).
		Update("status", models.AccountRequestStatusExpired)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *accountRequestRepository) List(ctx context.Context, status models.AccountRequestStatus, limit, offset int) ([]models.AccountRequest, error) {
	limit, offset = clampPage(limit, offset)
	q := r.db.WithContext(ctx).Order("requested_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var reqs []models.AccountRequest
	if err := q.Find(&reqs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return reqs, nil
}

func (r *accountRequestRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.AccountRequest{}).
		Where("status IN ? AND expires_at < ?", openRequestStatuses, now).
		Update("status", models.AccountRequestStatusExpired)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}

var openRequestStatuses = []models.AccountRequestStatus{
	models.AccountRequestStatusPending,
	models.AccountRequestStatusApproved,
}
