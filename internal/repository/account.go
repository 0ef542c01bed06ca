package repository

import (
	"context"
	"errors"

	"careline/internal/cache"
	"careline/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines persistence operations for directory accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	ExistsByLogin(ctx context.Context, handle string) (bool, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error)
}

type accountRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewAccountRepository returns a new AccountRepository implementation.
// c may be nil, in which case lookups always hit the database.
func NewAccountRepository(db *gorm.DB, c *cache.Cache) AccountRepository {
	return &accountRepository{db: db, cache: c}
}

// GetByID serves from the cache when possible. Cached entries carry no
// credential hash; use GetByUsername for credential checks.
func (r *accountRepository) GetByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	key := cache.AccountKey(id)

	err := r.cache.Aside(ctx, key, &account, cache.AccountTTL, func() error {
		if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
			return mapReadError(err, "Account", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &account, nil
}

// ExistsByLogin reports whether handle is taken as a username or as an email.
func (r *accountRepository) ExistsByLogin(ctx context.Context, handle string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", handle, handle).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return mapWriteError(err, "Account")
	}
	return nil
}

// Update writes the profile columns only. The credential hash and role are
// never touched here.
func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	err := r.db.WithContext(ctx).Model(&models.Account{ID: account.ID}).
		Select("first_name", "last_name", "gender", "birthday", "contact_number", "email").
		Updates(account).Error
	if err != nil {
		return mapWriteError(err, "Account")
	}
	r.cache.InvalidateAccount(ctx, account.ID)
	return nil
}

// Delete removes the account and detaches any invitations it issued. The
// invitations keep their InvitedByName snapshot.
func (r *accountRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invitation{}).
			Where("invited_by_id = ?", id).
			Update("invited_by_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.AccountRequest{}).
			Where("approved_by_id = ?", id).
			Update("approved_by_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Account{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return mapReadError(err, "Account", id)
	}
	r.cache.InvalidateAccount(ctx, id)
	return nil
}

func (r *accountRepository) List(ctx context.Context, role models.Role, limit, offset int) ([]models.Account, error) {
	limit, offset = clampPage(limit, offset)
	q := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset)
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var accounts []models.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return accounts, nil
}
