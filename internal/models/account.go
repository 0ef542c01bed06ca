// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the authorization scope assigned to an account.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleCaregiver Role = "CAREGIVER"
	RoleResident  Role = "RESIDENT"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleCaregiver, RoleResident}

// ParseRole validates free-text role input against the canonical role set.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	switch r {
	case RoleAdmin, RoleCaregiver, RoleResident:
		return r, nil
	case "":
		return "", NewValidationError("role is required")
	}
	return "", NewValidationError(fmt.Sprintf("unknown role %q", raw))
}

// IsStaff reports whether the role may act on any resident's data.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCaregiver
}

// Account is a User Directory entry. Accounts are only created by the
// invitation and account-request lifecycles.
type Account struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FirstName     string     `gorm:"size:100;not null" json:"firstName"`
	LastName      string     `gorm:"size:100;not null" json:"lastName"`
	Gender        string     `gorm:"size:20" json:"gender"`
	Birthday      *time.Time `json:"birthday,omitempty"`
	ContactNumber string     `gorm:"size:40" json:"contactNumber"`
	Username      string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email         string     `gorm:"size:254;index" json:"email"`
	PasswordHash  string     `gorm:"not null" json:"-"`
	Role          Role       `gorm:"type:varchar(20);not null;index" json:"role"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// FullName joins the given and family names.
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
