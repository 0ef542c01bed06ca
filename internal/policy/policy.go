// Package policy holds the authorization rules consulted by every domain service.
// All checks are pure functions of the caller and the target.
package policy

import (
	"careline/internal/models"
)

// Subject is the authenticated caller of an operation.
type Subject struct {
	ID   uint
	Role models.Role
}

// SubjectOf builds a Subject from a directory entry.
func SubjectOf(a *models.Account) Subject {
	if a == nil {
		return Subject{}
	}
	return Subject{ID: a.ID, Role: a.Role}
}

// CanAccessResident allows ADMIN and CAREGIVER to reach any resident and a
// RESIDENT to reach only its own records.
func CanAccessResident(sub Subject, residentID uint) error {
	switch {
	case sub.ID == 0:
	case sub.Role.IsStaff():
		return nil
	case sub.Role == models.RoleResident && sub.ID == residentID:
		return nil
	}
	return models.NewForbiddenError("You are not allowed to access this resident's data")
}

// RequireAdmin allows only ADMIN subjects.
func RequireAdmin(sub Subject) error {
	if sub.ID != 0 && sub.Role == models.RoleAdmin {
		return nil
	}
	return models.NewForbiddenError("Admin access required")
}

// RequireStaff allows ADMIN and CAREGIVER subjects.
func RequireStaff(sub Subject) error {
	if sub.ID != 0 && sub.Role.IsStaff() {
		return nil
	}
	return models.NewForbiddenError("Staff access required")
}

// CanMessage allows staff to message anyone and residents to message staff only.
func CanMessage(sub Subject, recipient models.Role) error {
	if sub.ID == 0 {
		return models.NewForbiddenError("Sender is unknown")
	}
	if sub.Role.IsStaff() || recipient.IsStaff() {
		return nil
	}
	return models.NewForbiddenError("Residents may only message staff")
}
