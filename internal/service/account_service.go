package service

import (
	"context"
	"strings"

	"careline/internal/auth"
	"careline/internal/models"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/validation"
)

// AccountService provides User Directory reads, login and removal.
type AccountService struct {
	accounts repository.AccountRepository
	hasher   auth.Hasher
	tokens   *auth.TokenIssuer
}

// NewAccountService returns a new AccountService.
func NewAccountService(accounts repository.AccountRepository, hasher auth.Hasher, tokens *auth.TokenIssuer) *AccountService {
	return &AccountService{accounts: accounts, hasher: hasher, tokens: tokens}
}

// Login checks credentials and returns the account with a signed session token.
// Unknown usernames and wrong passwords fail the same way.
func (s *AccountService) Login(ctx context.Context, username, password string) (*models.Account, string, error) {
	username = validation.NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, "", models.NewValidationError("username and password are required")
	}

	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, "", err
	}
	if account == nil || !s.hasher.Matches(password, account.PasswordHash) {
		return nil, "", models.NewUnauthorizedError("Invalid username or password")
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return account, token, nil
}

// GetAccount returns an account. Staff may read anyone; residents only themselves.
func (s *AccountService) GetAccount(ctx context.Context, sub policy.Subject, id uint) (*models.Account, error) {
	if err := policy.CanAccessResident(sub, id); err != nil {
		return nil, err
	}
	return s.accounts.GetByID(ctx, id)
}

// ListAccounts returns directory entries for staff, optionally filtered by role.
func (s *AccountService) ListAccounts(ctx context.Context, sub policy.Subject, role string, limit, offset int) ([]models.Account, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	var r models.Role
	if strings.TrimSpace(role) != "" {
		parsed, err := models.ParseRole(role)
		if err != nil {
			return nil, err
		}
		r = parsed
	}
	return s.accounts.List(ctx, r, limit, offset)
}

// DeleteAccount removes an account. Admins cannot delete themselves.
func (s *AccountService) DeleteAccount(ctx context.Context, sub policy.Subject, id uint) error {
	if err := policy.RequireAdmin(sub); err != nil {
		return err
	}
	if sub.ID == id {
		return models.NewValidationError("You cannot delete your own account")
	}
	return s.accounts.Delete(ctx, id)
}

// BootstrapAdmin creates an ADMIN directly. It exists for the operator CLI so
// the first admin can issue invitations.
func (s *AccountService) BootstrapAdmin(ctx context.Context, email string, reg Registration) (*models.Account, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}
	exists, err := s.accounts.ExistsByLogin(ctx, validation.NormalizeUsername(reg.Username))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("Username is already taken")
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	account := newAccount(reg, email, hash, models.RoleAdmin)
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
