// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"testing"
	"time"

	"careline/internal/database"
	"careline/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory database pinned to one connection,
// so every query sees the same schema.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateAccount inserts an account whose password is "password123".
func CreateAccount(t testing.TB, db *gorm.DB, username string, role models.Role) *models.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	account := &models.Account{
		FirstName:    "Test",
		LastName:     username,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return account
}

// FixedClock returns a now func pinned to t0 that the caller can advance.
func FixedClock(t0 time.Time) (now func() time.Time, advance func(time.Duration)) {
	current := t0
	return func() time.Time { return current }, func(d time.Duration) { current = current.Add(d) }
}
