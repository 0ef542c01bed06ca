package policy

import (
	"testing"

	"careline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessResident(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		sub        Subject
		residentID uint
		allowed    bool
	}{
		{"resident reads own data", Subject{ID: 4, Role: models.RoleResident}, 4, true},
		{"resident reads other resident", Subject{ID: 4, Role: models.RoleResident}, 5, false},
		{"admin reads any resident", Subject{ID: 1, Role: models.RoleAdmin}, 5, true},
		{"admin reads resident 4", Subject{ID: 1, Role: models.RoleAdmin}, 4, true},
		{"caregiver reads any resident", Subject{ID: 2, Role: models.RoleCaregiver}, 5, true},
		{"unknown role", Subject{ID: 4, Role: models.Role("VISITOR")}, 4, false},
		{"anonymous", Subject{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanAccessResident(tt.sub, tt.residentID)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.HasCode(err, models.CodeForbidden), "got %v", err)
		})
	}
}

func TestRequireAdminAndStaff(t *testing.T) {
	t.Parallel()
	admin := Subject{ID: 1, Role: models.RoleAdmin}
	caregiver := Subject{ID: 2, Role: models.RoleCaregiver}
	resident := Subject{ID: 3, Role: models.RoleResident}

	assert.NoError(t, RequireAdmin(admin))
	assert.Error(t, RequireAdmin(caregiver))
	assert.Error(t, RequireAdmin(resident))
	assert.Error(t, RequireAdmin(Subject{Role: models.RoleAdmin}))

	assert.NoError(t, RequireStaff(admin))
	assert.NoError(t, RequireStaff(caregiver))
	assert.True(t, models.HasCode(RequireStaff(resident), models.CodeForbidden))
}

func TestCanMessage(t *testing.T) {
	t.Parallel()
	resident := Subject{ID: 3, Role: models.RoleResident}
	caregiver := Subject{ID: 2, Role: models.RoleCaregiver}

	assert.NoError(t, CanMessage(resident, models.RoleCaregiver))
	assert.NoError(t, CanMessage(resident, models.RoleAdmin))
	assert.Error(t, CanMessage(resident, models.RoleResident))
	assert.NoError(t, CanMessage(caregiver, models.RoleResident))
	assert.Error(t, CanMessage(Subject{}, models.RoleAdmin))
}

func TestSubjectOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Subject{ID: 9, Role: models.RoleCaregiver}, SubjectOf(&models.Account{ID: 9, Role: models.RoleCaregiver}))
	assert.Equal(t, Subject{}, SubjectOf(nil))
}
