package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"careline/internal/auth"
	"careline/internal/middleware"
	"careline/internal/models"
	"careline/internal/observability"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// AccountRequestInput is a self-service submission.
type AccountRequestInput struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// AccountRequestUpdate carries admin edits. Empty fields are left unchanged.
type AccountRequestUpdate struct {
	FirstName string
	LastName  string
	Role      string
}

// AccountRequestService runs the self-service, admin-approved path to an account.
type AccountRequestService struct {
	requests repository.AccountRequestRepository
	accounts repository.AccountRepository
	hasher   auth.Hasher
	notify   Notifier
	cfg      LifecycleConfig
}

// NewAccountRequestService returns a new AccountRequestService.
func NewAccountRequestService(
	requests repository.AccountRequestRepository,
	accounts repository.AccountRepository,
	hasher auth.Hasher,
	notify Notifier,
	cfg LifecycleConfig,
) *AccountRequestService {
	return &AccountRequestService{
		requests: requests,
		accounts: accounts,
		hasher:   hasher,
		notify:   notifierOrNoop(notify),
		cfg:      cfg,
	}
}

// ClassifySubmission decides what a submission does given the stored request
// for the same email, if any. It is a pure function.
func ClassifySubmission(existing *models.AccountRequest, now time.Time) models.AccountRequestResult {
	if existing == nil {
		return models.AccountRequestNew
	}
	switch {
	case existing.Status == models.AccountRequestStatusCompleted:
		return models.AccountRequestCompleted
	case existing.IsExpired(now),
		existing.Status == models.AccountRequestStatusExpired,
		existing.Status == models.AccountRequestStatusDenied:
		return models.AccountRequestReopen
	case existing.Status == models.AccountRequestStatusApproved:
		return models.AccountRequestApproved
	default:
		return models.AccountRequestPending
	}
}

// CreateAccountRequest records a self-service submission and reports which
// transition it took.
func (s *AccountRequestService) CreateAccountRequest(ctx context.Context, in AccountRequestInput) (_ models.AccountRequestResult, err error) {
	ctx, span := observability.StartSpan(ctx, "account_request.create")
	defer func() { observability.EndSpan(span, err) }()

	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return "", err
	}
	if err := validation.ValidateName("firstName", in.FirstName); err != nil {
		return "", err
	}
	if err := validation.ValidateName("lastName", in.LastName); err != nil {
		return "", err
	}
	role, err := models.ParseRole(in.Role)
	if err != nil {
		return "", err
	}

	exists, err := s.accounts.ExistsByLogin(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		observability.AccountRequestSubmissions.WithLabelValues(string(models.AccountRequestUserExists)).Inc()
		return models.AccountRequestUserExists, nil
	}

	firstName, lastName := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)

	// A second pass covers losing a race to a concurrent writer: the unique
	// email index turns the lost insert into an update of the winner's row.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.requests.GetByEmail(ctx, email)
		if err != nil {
			return "", err
		}

		now := s.cfg.now()
		result := ClassifySubmission(existing, now)
		applied, err := s.applySubmission(ctx, result, existing, email, firstName, lastName, role, now)
		if err != nil {
			return "", err
		}
		if applied {
			observability.AccountRequestSubmissions.WithLabelValues(string(result)).Inc()
			return result, nil
		}
	}
	return "", models.NewConflictError("Account request changed concurrently, please retry")
}

// applySubmission performs the write for result. It reports false when a
// concurrent writer got there first and the caller should classify again.
func (s *AccountRequestService) applySubmission(
	ctx context.Context,
	result models.AccountRequestResult,
	existing *models.AccountRequest,
	email, firstName, lastName string,
	role models.Role,
	now time.Time,
) (bool, error) {
	switch result {
	case models.AccountRequestNew:
		req := &models.AccountRequest{
			FirstName:   firstName,
			LastName:    lastName,
			Email:       email,
			Role:        role,
			Status:      models.AccountRequestStatusPending,
			RequestedAt: now,
			ExpiresAt:   now.Add(s.cfg.RequestTTL),
		}
		if err := s.requests.Create(ctx, req); err != nil {
			if repository.IsDuplicateKey(err) {
				return false, nil
			}
			return false, err
		}
		return true, nil

	case models.AccountRequestPending:
		prior := existing.Status
		existing.FirstName, existing.LastName, existing.Role = firstName, lastName, role
		return s.requests.SaveIfStatus(ctx, existing, prior)

	case models.AccountRequestReopen:
		prior := existing.Status
		existing.FirstName, existing.LastName, existing.Role = firstName, lastName, role
		existing.Status = models.AccountRequestStatusPending
		existing.RequestedAt = now
		existing.ExpiresAt = now.Add(s.cfg.RequestTTL)
		existing.ActivationAttempts = 0
		existing.ActivationCodeHash = ""
		existing.ApprovedAt = nil
		existing.ApprovedByID = nil
		existing.DenialReason = ""
		return s.requests.SaveIfStatus(ctx, existing, prior)
	}

	// APPROVED and COMPLETED are read-only from the public side.
	return true, nil
}

// ApproveAccountRequest moves a PENDING request to APPROVED and returns the
// plaintext activation code. Only its hash is stored.
func (s *AccountRequestService) ApproveAccountRequest(ctx context.Context, sub policy.Subject, id uint) (_ string, err error) {
	ctx, span := observability.StartSpan(ctx, "account_request.approve",
		attribute.Int64("account_request.id", int64(id)),
		attribute.Int64("admin.id", int64(sub.ID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := policy.RequireAdmin(sub); err != nil {
		return "", err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.materializeExpiry(ctx, req); err != nil {
		return "", err
	}
	if req.Status != models.AccountRequestStatusPending {
		return "", models.NewInvalidStateError("Only pending requests can be approved (current status: " + string(req.Status) + ")")
	}

	code, hash, err := s.newActivationCode()
	if err != nil {
		return "", err
	}

	now := s.cfg.now()
	approver := sub.ID
	req.Status = models.AccountRequestStatusApproved
	req.ApprovedAt = &now
	req.ApprovedByID = &approver
	req.ExpiresAt = now.Add(s.cfg.ApprovalTTL)
	req.ActivationCodeHash = hash
	req.ActivationAttempts = 0

	ok, err := s.requests.SaveIfStatus(ctx, req, models.AccountRequestStatusPending)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", models.NewInvalidStateError("Account request was modified concurrently")
	}

	observability.AccountRequestReviews.WithLabelValues("approve").Inc()
	middleware.Logger.InfoContext(ctx, "account request approved",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("admin_id", uint64(sub.ID)),
	)
	s.notify.ActivationCodeIssued(req.Email, code)
	return code, nil
}

// DenyAccountRequest closes a request. COMPLETED and DENIED requests cannot be denied.
func (s *AccountRequestService) DenyAccountRequest(ctx context.Context, sub policy.Subject, id uint, reason string) (*models.AccountRequest, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.materializeExpiry(ctx, req); err != nil {
		return nil, err
	}
	switch req.Status {
	case models.AccountRequestStatusCompleted, models.AccountRequestStatusDenied:
		return nil, models.NewInvalidStateError("Request cannot be denied (current status: " + string(req.Status) + ")")
	}

	prior := req.Status
	req.Status = models.AccountRequestStatusDenied
	req.DenialReason = strings.TrimSpace(reason)
	req.ActivationCodeHash = ""

	ok, err := s.requests.SaveIfStatus(ctx, req, prior)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewInvalidStateError("Account request was modified concurrently")
	}

	observability.AccountRequestReviews.WithLabelValues("deny").Inc()
	s.notify.RequestDenied(req.Email, req.DenialReason)
	return req, nil
}

// ResendActivationCode replaces the code of an APPROVED request. The old code
// stops working and the attempt counter starts over.
func (s *AccountRequestService) ResendActivationCode(ctx context.Context, sub policy.Subject, id uint) (string, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return "", err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if err := s.materializeExpiry(ctx, req); err != nil {
		return "", err
	}
	if req.Status != models.AccountRequestStatusApproved {
		return "", models.NewInvalidStateError("Only approved requests can have their code resent (current status: " + string(req.Status) + ")")
	}

	code, hash, err := s.newActivationCode()
	if err != nil {
		return "", err
	}
	req.ActivationCodeHash = hash
	req.ActivationAttempts = 0
	req.ExpiresAt = s.cfg.now().Add(s.cfg.ApprovalTTL)

	ok, err := s.requests.SaveIfStatus(ctx, req, models.AccountRequestStatusApproved)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", models.NewInvalidStateError("Account request was modified concurrently")
	}

	observability.AccountRequestReviews.WithLabelValues("resend").Inc()
	s.notify.ActivationCodeIssued(req.Email, code)
	return code, nil
}

// ListAccountRequests returns requests, newest first, with lapsed open rows
// marked EXPIRED.
func (s *AccountRequestService) ListAccountRequests(ctx context.Context, sub policy.Subject, status string, limit, offset int) ([]models.AccountRequest, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	st, err := parseRequestStatus(status)
	if err != nil {
		return nil, err
	}
	if st != "" {
		if _, err := s.requests.ExpireOverdue(ctx, s.cfg.now()); err != nil {
			return nil, err
		}
	}
	reqs, err := s.requests.List(ctx, st, limit, offset)
	if err != nil {
		return nil, err
	}

	out := reqs[:0]
	for i := range reqs {
		if err := s.materializeExpiry(ctx, &reqs[i]); err != nil {
			return nil, err
		}
		if st == "" || reqs[i].Status == st {
			out = append(out, reqs[i])
		}
	}
	return out, nil
}

// GetAccountRequest returns one request.
func (s *AccountRequestService) GetAccountRequest(ctx context.Context, sub policy.Subject, id uint) (*models.AccountRequest, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.materializeExpiry(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateAccountRequest lets an admin correct the name or role of an open request.
func (s *AccountRequestService) UpdateAccountRequest(ctx context.Context, sub policy.Subject, id uint, in AccountRequestUpdate) (*models.AccountRequest, error) {
	if err := policy.RequireAdmin(sub); err != nil {
		return nil, err
	}
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.materializeExpiry(ctx, req); err != nil {
		return nil, err
	}
	if req.Status != models.AccountRequestStatusPending && req.Status != models.AccountRequestStatusApproved {
		return nil, models.NewInvalidStateError("Only pending or approved requests can be edited")
	}

	if v := strings.TrimSpace(in.FirstName); v != "" {
		if err := validation.ValidateName("firstName", v); err != nil {
			return nil, err
		}
		req.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		if err := validation.ValidateName("lastName", v); err != nil {
			return nil, err
		}
		req.LastName = v
	}
	if strings.TrimSpace(in.Role) != "" {
		role, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		req.Role = role
	}

	ok, err := s.requests.SaveIfStatus(ctx, req, req.Status)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewInvalidStateError("Account request was modified concurrently")
	}
	return req, nil
}

// ActivateAccount completes an approved request with its activation code and
// creates the account with the role on the request.
func (s *AccountRequestService) ActivateAccount(ctx context.Context, email, code string, reg Registration) (_ *models.Account, err error) {
	ctx, span := observability.StartSpan(ctx, "account_request.activate")
	defer func() { observability.EndSpan(span, err) }()

	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateActivationCode(code); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, models.NewNotFoundError("AccountRequest", email)
	}
	switch req.Status {
	case models.AccountRequestStatusCompleted:
		return nil, models.NewConflictError("Account already activated, please log in")
	case models.AccountRequestStatusApproved:
	default:
		return nil, models.NewInvalidStateError("Account request is not approved")
	}
	if req.IsExpired(s.cfg.now()) {
		if _, err := s.requests.MarkExpired(ctx, req.ID); err != nil {
			return nil, err
		}
		return nil, models.NewExpiredError("Activation code has expired")
	}

	// Profile errors are not guesses and must not use up an attempt.
	reg.FirstName = firstNonEmpty(reg.FirstName, req.FirstName)
	reg.LastName = firstNonEmpty(reg.LastName, req.LastName)
	if err := validateRegistration(reg); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	// Claim an attempt before comparing so concurrent guesses cannot exceed the limit.
	ok, err := s.requests.ReserveAttempt(ctx, req.ID, s.cfg.MaxActivationAttempts)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.ActivationAttempts.WithLabelValues("locked").Inc()
		return nil, models.NewInvalidStateError("Too many activation attempts, ask an administrator to resend the code")
	}
	if !s.hasher.Matches(code, req.ActivationCodeHash) {
		observability.ActivationAttempts.WithLabelValues("mismatch").Inc()
		return nil, models.NewValidationError("Invalid activation code")
	}

	account := newAccount(reg, req.Email, hash, req.Role)
	if err := s.requests.Complete(ctx, req.ID, account); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, models.NewConflictError("Username is already taken", err)
		}
		return nil, err
	}

	observability.ActivationAttempts.WithLabelValues("success").Inc()
	middleware.Logger.InfoContext(ctx, "account activated",
		slog.Uint64("request_id", uint64(req.ID)),
		slog.Uint64("account_id", uint64(account.ID)),
	)
	s.notify.AccountCreated(*account)
	return account, nil
}

func (s *AccountRequestService) newActivationCode() (string, string, error) {
	code, err := auth.NewActivationCode()
	if err != nil {
		return "", "", models.NewInternalError(err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return "", "", models.NewInternalError(err)
	}
	return code, hash, nil
}

// materializeExpiry flips a lapsed PENDING or APPROVED request to EXPIRED.
func (s *AccountRequestService) materializeExpiry(ctx context.Context, req *models.AccountRequest) error {
	if req.Status != models.AccountRequestStatusPending && req.Status != models.AccountRequestStatusApproved {
		return nil
	}
	if !req.IsExpired(s.cfg.now()) {
		return nil
	}
	if _, err := s.requests.MarkExpired(ctx, req.ID); err != nil {
		return err
	}
	req.Status = models.AccountRequestStatusExpired
	return nil
}

func parseRequestStatus(raw string) (models.AccountRequestStatus, error) {
	st := models.AccountRequestStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch st {
	case "",
		models.AccountRequestStatusPending,
		models.AccountRequestStatusApproved,
		models.AccountRequestStatusDenied,
		models.AccountRequestStatusCompleted,
		models.AccountRequestStatusExpired:
		return st, nil
	}
	return "", models.NewValidationError("unknown account request status")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
