// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"careline/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrDuplicateKey marks a unique-constraint violation. It is wrapped in a
// CONFLICT AppError so callers can match it with errors.Is.
var ErrDuplicateKey = errors.New("duplicate key")

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// mapWriteError translates a storage failure on insert or update.
func mapWriteError(err error, what string) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraintError(err) {
		return models.NewConflictError(what+" already exists", ErrDuplicateKey)
	}
	return models.NewInternalError(err)
}

// mapReadError translates a storage failure on a single-row lookup.
func mapReadError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// IsDuplicateKey reports whether err came from a unique-constraint violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
