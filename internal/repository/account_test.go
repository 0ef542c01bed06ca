package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"careline/internal/models"
	"careline/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestAccountRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db, nil)
	ctx := context.Background()

	tests := []struct {
		name          string
		accountID     uint
		mockBehavior  func()
		expectedName  string
		expectedCode  string
		expectedError bool
	}{
		{
			name:      "Success",
			accountID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email", "role"}).
					AddRow(1, "nurse.joy", "joy@example.com", "CAREGIVER")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE "accounts"."id" = $1 ORDER BY "accounts"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedName: "nurse.joy",
		},
		{
			name:      "Not Found",
			accountID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE "accounts"."id" = $1 ORDER BY "accounts"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedError: true,
			expectedCode:  models.CodeNotFound,
		},
		{
			name:      "Database Error",
			accountID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE "accounts"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedError: true,
			expectedCode:  models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			account, err := repo.GetByID(ctx, tt.accountID)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, account)
				assert.True(t, models.HasCode(err, tt.expectedCode))
			} else if assert.NotNil(t, account) {
				assert.Equal(t, tt.expectedName, account.Username)
				assert.Equal(t, models.RoleCaregiver, account.Role)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_GetByUsername_NotFoundIsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "accounts" WHERE username = $1 ORDER BY "accounts"."id" LIMIT $2`)).
		WithArgs("ghost", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	account, err := repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, account)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_ExistsByLogin(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "accounts" WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)`)).
		WithArgs("alice@example.com", "alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByLogin(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Create_UniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAccountRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Account{Username: "dup", Role: models.RoleResident})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeConflict))
	assert.True(t, IsDuplicateKey(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpdateKeepsCredentialHash(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewAccountRepository(db, nil)
	ctx := context.Background()

	account := testutil.CreateAccount(t, db, "resident1", models.RoleResident)
	original := account.PasswordHash

	// Simulate an entry that came back from the cache without its hash.
	update := &models.Account{ID: account.ID, FirstName: "Renamed", LastName: "Resident", Email: "new@example.com"}
	require.NoError(t, repo.Update(ctx, update))

	var stored models.Account
	require.NoError(t, db.First(&stored, account.ID).Error)
	assert.Equal(t, "Renamed", stored.FirstName)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Equal(t, original, stored.PasswordHash)
	assert.Equal(t, models.RoleResident, stored.Role)
}

func TestAccountRepository_DeleteKeepsInvitationSnapshot(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewAccountRepository(db, nil)
	ctx := context.Background()

	admin := testutil.CreateAccount(t, db, "admin", models.RoleAdmin)
	inv := newInvitation("carol@example.com", admin)
	require.NoError(t, db.Create(inv).Error)

	require.NoError(t, repo.Delete(ctx, admin.ID))

	var stored models.Invitation
	require.NoError(t, db.First(&stored, inv.ID).Error)
	assert.Nil(t, stored.InvitedByID)
	assert.Equal(t, admin.FullName(), stored.InvitedByName)

	err := repo.Delete(ctx, admin.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestAccountRepository_ListByRole(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewAccountRepository(db, nil)

	testutil.CreateAccount(t, db, "admin", models.RoleAdmin)
	testutil.CreateAccount(t, db, "r1", models.RoleResident)
	testutil.CreateAccount(t, db, "r2", models.RoleResident)

	residents, err := repo.List(context.Background(), models.RoleResident, 10, 0)
	require.NoError(t, err)
	assert.Len(t, residents, 2)

	all, err := repo.List(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: account_requests.email")))
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintError(errors.New("connection reset")))
}
