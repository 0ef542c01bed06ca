package repository

import (
	"context"
	"testing"
	"time"

	"careline/internal/models"
	"careline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newInvitation(email string, admin *models.Account) *models.Invitation {
	id := admin.ID
	return &models.Invitation{
		Token:         "tok-" + email,
		Email:         email,
		Role:          models.RoleResident,
		Status:        models.InvitationStatusPending,
		CreatedAt:     t0,
		ExpiresAt:     t0.Add(7 * 24 * time.Hour),
		InvitedByID:   &id,
		InvitedByName: admin.FullName(),
	}
}

func TestInvitationRepository_AcceptIsOneShot(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	admin := testutil.CreateAccount(t, db, "admin", models.RoleAdmin)
	inv := newInvitation("alice@example.com", admin)
	require.NoError(t, repo.Create(ctx, inv))

	first := &models.Account{Username: "alice", Email: inv.Email, PasswordHash: "x", Role: inv.Role}
	require.NoError(t, repo.Accept(ctx, inv.ID, first, t0.Add(time.Hour)))
	assert.NotZero(t, first.ID)

	second := &models.Account{Username: "alice2", Email: inv.Email, PasswordHash: "x", Role: inv.Role}
	err := repo.Accept(ctx, inv.ID, second, t0.Add(2*time.Hour))
	assert.True(t, models.HasCode(err, models.CodeConflict))

	var count int64
	db.Model(&models.Account{}).Where("email = ?", inv.Email).Count(&count)
	assert.EqualValues(t, 1, count)

	stored, err := repo.GetByToken(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusAccepted, stored.Status)
	require.NotNil(t, stored.AcceptedAt)
}

func TestInvitationRepository_AcceptRollsBackOnDuplicateUsername(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	admin := testutil.CreateAccount(t, db, "admin", models.RoleAdmin)
	inv := newInvitation("bob@example.com", admin)
	require.NoError(t, repo.Create(ctx, inv))

	taken := &models.Account{Username: "admin", Email: inv.Email, PasswordHash: "x", Role: inv.Role}
	err := repo.Accept(ctx, inv.ID, taken, t0)
	assert.True(t, IsDuplicateKey(err))

	stored, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusPending, stored.Status)
}

func TestInvitationRepository_PendingAndExpiry(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewInvitationRepository(db)
	ctx := context.Background()

	admin := testutil.CreateAccount(t, db, "admin", models.RoleAdmin)
	inv := newInvitation("dora@example.com", admin)
	require.NoError(t, repo.Create(ctx, inv))

	active, err := repo.HasActivePending(ctx, "DORA@example.com", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, active)

	active, err = repo.HasActivePending(ctx, inv.Email, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.False(t, active)

	n, err := repo.ExpireOverdue(ctx, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	changed, err := repo.MarkExpired(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	expired, err := repo.List(ctx, models.InvitationStatusExpired, 10, 0)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestInvitationRepository_GetByTokenNotFound(t *testing.T) {
	repo := NewInvitationRepository(testutil.NewSQLiteDB(t))
	_, err := repo.GetByToken(context.Background(), "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.NotContains(t, err.Error(), "nope")
}

func newAccountRequest(email string) *models.AccountRequest {
	return &models.AccountRequest{
		FirstName:   "Bob",
		LastName:    "Builder",
		Email:       email,
		Role:        models.RoleResident,
		Status:      models.AccountRequestStatusPending,
		RequestedAt: t0,
		ExpiresAt:   t0.Add(72 * time.Hour),
	}
}

func TestAccountRequestRepository_EmailIsUnique(t *testing.T) {
	repo := NewAccountRequestRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newAccountRequest("bob@example.com")))
	err := repo.Create(ctx, newAccountRequest("bob@example.com"))
	assert.True(t, IsDuplicateKey(err))

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccountRequestRepository_SaveIfStatus(t *testing.T) {
	repo := NewAccountRequestRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	req := newAccountRequest("bob@example.com")
	require.NoError(t, repo.Create(ctx, req))

	req.Status = models.AccountRequestStatusApproved
	req.ActivationCodeHash = "hash"
	ok, err := repo.SaveIfStatus(ctx, req, models.AccountRequestStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	req.Status = models.AccountRequestStatusDenied
	ok, err = repo.SaveIfStatus(ctx, req, models.AccountRequestStatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountRequestStatusApproved, stored.Status)
	assert.Equal(t, "hash", stored.ActivationCodeHash)
}

func TestAccountRequestRepository_ReserveAttemptStopsAtMax(t *testing.T) {
	repo := NewAccountRequestRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	req := newAccountRequest("bob@example.com")
	req.Status = models.AccountRequestStatusApproved
	require.NoError(t, repo.Create(ctx, req))

	for i := 0; i < 3; i++ {
		ok, err := repo.ReserveAttempt(ctx, req.ID, 3)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.ReserveAttempt(ctx, req.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ActivationAttempts)
}

func TestAccountRequestRepository_CompleteOnce(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewAccountRequestRepository(db)
	ctx := context.Background()

	req := newAccountRequest("bob@example.com")
	req.Status = models.AccountRequestStatusApproved
	req.ActivationCodeHash = "hash"
	require.NoError(t, repo.Create(ctx, req))

	account := &models.Account{Username: "bob", Email: req.Email, PasswordHash: "x", Role: req.Role}
	require.NoError(t, repo.Complete(ctx, req.ID, account))

	again := &models.Account{Username: "bob2", Email: req.Email, PasswordHash: "x", Role: req.Role}
	err := repo.Complete(ctx, req.ID, again)
	assert.True(t, models.HasCode(err, models.CodeInvalidState))

	stored, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountRequestStatusCompleted, stored.Status)
	assert.Empty(t, stored.ActivationCodeHash)
}

func TestAccountRequestRepository_ExpireOverdue(t *testing.T) {
	repo := NewAccountRequestRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	pending := newAccountRequest("p@example.com")
	denied := newAccountRequest("d@example.com")
	denied.Status = models.AccountRequestStatusDenied
	require.NoError(t, repo.Create(ctx, pending))
	require.NoError(t, repo.Create(ctx, denied))

	n, err := repo.ExpireOverdue(ctx, t0.Add(96*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := repo.GetByID(ctx, denied.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AccountRequestStatusDenied, stored.Status)
}
