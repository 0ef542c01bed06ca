package service

import (
	"context"
	"log/slog"
	"strings"

	"careline/internal/auth"
	"careline/internal/middleware"
	"careline/internal/models"
	"careline/internal/observability"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// InvitationService runs the admin-issued, token-based path to an account.
type InvitationService struct {
	invitations repository.InvitationRepository
	accounts    repository.AccountRepository
	hasher      auth.Hasher
	notify      Notifier
	cfg         LifecycleConfig
}

// NewInvitationService returns a new InvitationService.
func NewInvitationService(
	invitations repository.InvitationRepository,
	accounts repository.AccountRepository,
	hasher auth.Hasher,
	notify Notifier,
	cfg LifecycleConfig,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		accounts:    accounts,
		hasher:      hasher,
		notify:      notifierOrNoop(notify),
		cfg:         cfg,
	}
}

// CreateInvitation issues a token for email with role. The returned
// invitation carries the plaintext token.
func (s *InvitationService) CreateInvitation(ctx context.Context, adminID uint, email, role string) (_ *models.Invitation, err error) {
	ctx, span := observability.StartSpan(ctx, "invitation.create", attribute.Int64("admin.id", int64(adminID)))
	defer func() { observability.EndSpan(span, err) }()

	admin, err := s.accounts.GetByID(ctx, adminID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewForbiddenError("Admin access required")
		}
		return nil, err
	}
	if err := policy.RequireAdmin(policy.SubjectOf(admin)); err != nil {
		return nil, err
	}

	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	parsedRole, err := models.ParseRole(role)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByLogin(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("An account already exists for this email")
	}

	now := s.cfg.now()
	pending, err := s.invitations.HasActivePending(ctx, email, now)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, models.NewConflictError("A pending invitation already exists for this email")
	}

	token, err := auth.NewInvitationToken()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	adminRef := admin.ID
	inv := &models.Invitation{
		Token:         token,
		Email:         email,
		Role:          parsedRole,
		Status:        models.InvitationStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.InvitationTTL),
		InvitedByID:   &adminRef,
		InvitedByName: admin.FullName(),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, models.NewConflictError("Could not issue invitation, please retry", err)
		}
		return nil, err
	}

	observability.InvitationEvents.WithLabelValues("created").Inc()
	middleware.Logger.InfoContext(ctx, "invitation created",
		slog.Uint64("invitation_id", uint64(inv.ID)),
		slog.String("role", string(inv.Role)),
	)
	s.notify.InvitationCreated(*inv)
	return inv, nil
}

// AcceptInvitation redeems token and creates the account with the role carried
// on the invitation. A token can be redeemed once.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token string, reg Registration) (_ *models.Account, err error) {
	ctx, span := observability.StartSpan(ctx, "invitation.accept")
	defer func() { observability.EndSpan(span, err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.NewValidationError("token is required")
	}

	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.cfg.now()
	if inv.IsExpired(now) {
		if _, err := s.invitations.MarkExpired(ctx, inv.ID); err != nil {
			return nil, err
		}
		observability.InvitationEvents.WithLabelValues("expired").Inc()
		return nil, models.NewExpiredError("Invitation has expired")
	}
	switch inv.Status {
	case models.InvitationStatusAccepted:
		return nil, models.NewConflictError("Invitation already used")
	case models.InvitationStatusExpired:
		return nil, models.NewExpiredError("Invitation has expired")
	}

	if err := validateRegistration(reg); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	account := newAccount(reg, inv.Email, hash, inv.Role)
	if err := s.invitations.Accept(ctx, inv.ID, account, now); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, models.NewConflictError("Username is already taken", err)
		}
		return nil, err
	}

	observability.InvitationEvents.WithLabelValues("accepted").Inc()
	middleware.Logger.InfoContext(ctx, "invitation accepted",
		slog.Uint64("invitation_id", uint64(inv.ID)),
		slog.Uint64("account_id", uint64(account.ID)),
	)
	s.notify.AccountCreated(*account)
	return account, nil
}

// GetInvitationByToken is the public preview shown on the registration page.
func (s *InvitationService) GetInvitationByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if err := s.materializeExpiry(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInvitations returns invitations, newest first. Lapsed PENDING rows are
// flipped to EXPIRED before they are returned.
func (s *InvitationService) ListInvitations(ctx context.Context, sub policy.Subject, status string, limit, offset int) ([]models.Invitation, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	st, err := parseInvitationStatus(status)
	if err != nil {
		return nil, err
	}

	// A status filter must see lapsed rows under their real status.
	if st != "" {
		if _, err := s.invitations.ExpireOverdue(ctx, s.cfg.now()); err != nil {
			return nil, err
		}
	}

	invitations, err := s.invitations.List(ctx, st, limit, offset)
	if err != nil {
		return nil, err
	}

	out := invitations[:0]
	for i := range invitations {
		if err := s.materializeExpiry(ctx, &invitations[i]); err != nil {
			return nil, err
		}
		if st == "" || invitations[i].Status == st {
			out = append(out, invitations[i])
		}
	}
	return out, nil
}

// RevokeInvitation expires a PENDING invitation ahead of time.
func (s *InvitationService) RevokeInvitation(ctx context.Context, sub policy.Subject, id uint) (*models.Invitation, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	inv, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != models.InvitationStatusPending {
		return nil, models.NewInvalidStateError("Only pending invitations can be revoked")
	}
	changed, err := s.invitations.MarkExpired(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, models.NewInvalidStateError("Only pending invitations can be revoked")
	}
	inv.Status = models.InvitationStatusExpired
	observability.InvitationEvents.WithLabelValues("revoked").Inc()
	return inv, nil
}

// materializeExpiry flips a lapsed PENDING invitation to EXPIRED in storage
// and on inv. It is idempotent.
func (s *InvitationService) materializeExpiry(ctx context.Context, inv *models.Invitation) error {
	if inv.Status != models.InvitationStatusPending || !inv.IsExpired(s.cfg.now()) {
		return nil
	}
	changed, err := s.invitations.MarkExpired(ctx, inv.ID)
	if err != nil {
		return err
	}
	if changed {
		observability.InvitationEvents.WithLabelValues("expired").Inc()
	}
	inv.Status = models.InvitationStatusExpired
	return nil
}

func parseInvitationStatus(raw string) (models.InvitationStatus, error) {
	st := models.InvitationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch st {
	case "", models.InvitationStatusPending, models.InvitationStatusAccepted, models.InvitationStatusExpired:
		return st, nil
	}
	return "", models.NewValidationError("unknown invitation status")
}

func validateRegistration(reg Registration) error {
	if err := validation.ValidateName("firstName", reg.FirstName); err != nil {
		return err
	}
	if err := validation.ValidateName("lastName", reg.LastName); err != nil {
		return err
	}
	if err := validation.ValidateUsername(validation.NormalizeUsername(reg.Username)); err != nil {
		return err
	}
	return validation.ValidatePassword(reg.Password)
}

func newAccount(reg Registration, email, passwordHash string, role models.Role) *models.Account {
	return &models.Account{
		FirstName:     strings.TrimSpace(reg.FirstName),
		LastName:      strings.TrimSpace(reg.LastName),
		Gender:        strings.TrimSpace(reg.Gender),
		Birthday:      reg.Birthday,
		ContactNumber: strings.TrimSpace(reg.ContactNumber),
		Username:      validation.NormalizeUsername(reg.Username),
		Email:         email,
		PasswordHash:  passwordHash,
		Role:          role,
	}
}
