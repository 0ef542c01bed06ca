package service

import (
	"context"
	"strings"

	"careline/internal/models"
	"careline/internal/policy"
	"careline/internal/repository"
)

// ResidentRecordService is CRUD over one kind of resident-owned record. Every
// call is checked with policy.CanAccessResident before the store is touched.
type ResidentRecordService[T any] struct {
	records  repository.ResidentRecordRepository[T]
	accounts repository.AccountRepository
	validate func(rec *T) error
	assign   func(rec *T, residentID, id uint)
	onCreate func(rec *T, sub policy.Subject)
}

// AllergyService manages a resident's allergies.
type AllergyService = ResidentRecordService[models.Allergy]

// DiagnosisService manages a resident's diagnoses.
type DiagnosisService = ResidentRecordService[models.Diagnosis]

// MedicationService manages a resident's prescriptions.
type MedicationService = ResidentRecordService[models.Medication]

// DocumentService manages text documents attached to a resident.
type DocumentService = ResidentRecordService[models.Document]

// NewAllergyService returns the allergy service.
func NewAllergyService(repo repository.ResidentRecordRepository[models.Allergy], accounts repository.AccountRepository) *AllergyService {
	return &AllergyService{
		records:  repo,
		accounts: accounts,
		validate: func(a *models.Allergy) error {
			a.Substance = strings.TrimSpace(a.Substance)
			if a.Substance == "" {
				return models.NewValidationError("substance is required")
			}
			a.Severity = models.AllergySeverity(strings.ToUpper(strings.TrimSpace(string(a.Severity))))
			if !a.Severity.Valid() {
				return models.NewValidationError("severity must be MILD, MODERATE or SEVERE")
			}
			return nil
		},
		assign: func(a *models.Allergy, residentID, id uint) { a.ResidentID, a.ID = residentID, id },
	}
}

// NewDiagnosisService returns the diagnosis service.
func NewDiagnosisService(repo repository.ResidentRecordRepository[models.Diagnosis], accounts repository.AccountRepository) *DiagnosisService {
	return &DiagnosisService{
		records:  repo,
		accounts: accounts,
		validate: func(d *models.Diagnosis) error {
			d.Condition = strings.TrimSpace(d.Condition)
			if d.Condition == "" {
				return models.NewValidationError("condition is required")
			}
			return nil
		},
		assign: func(d *models.Diagnosis, residentID, id uint) { d.ResidentID, d.ID = residentID, id },
	}
}

// NewMedicationService returns the prescription service.
func NewMedicationService(repo repository.ResidentRecordRepository[models.Medication], accounts repository.AccountRepository) *MedicationService {
	return &MedicationService{
		records:  repo,
		accounts: accounts,
		validate: func(m *models.Medication) error {
			m.Name = strings.TrimSpace(m.Name)
			m.Dosage = strings.TrimSpace(m.Dosage)
			m.Frequency = strings.TrimSpace(m.Frequency)
			switch {
			case m.Name == "":
				return models.NewValidationError("name is required")
			case m.Dosage == "":
				return models.NewValidationError("dosage is required")
			case m.Frequency == "":
				return models.NewValidationError("frequency is required")
			case m.StartDate != nil && m.EndDate != nil && m.EndDate.Before(*m.StartDate):
				return models.NewValidationError("endDate must not be before startDate")
			}
			return nil
		},
		assign: func(m *models.Medication, residentID, id uint) { m.ResidentID, m.ID = residentID, id },
	}
}

// NewDocumentService returns the resident document service. The author is
// recorded on create.
func NewDocumentService(repo repository.ResidentRecordRepository[models.Document], accounts repository.AccountRepository) *DocumentService {
	return &DocumentService{
		records:  repo,
		accounts: accounts,
		validate: func(d *models.Document) error {
			d.Title = strings.TrimSpace(d.Title)
			d.Kind = strings.TrimSpace(d.Kind)
			if d.Title == "" {
				return models.NewValidationError("title is required")
			}
			if d.Kind == "" {
				return models.NewValidationError("kind is required")
			}
			return nil
		},
		assign:   func(d *models.Document, residentID, id uint) { d.ResidentID, d.ID = residentID, id },
		onCreate: func(d *models.Document, sub policy.Subject) { d.CreatedByID = sub.ID },
	}
}

// List returns every record for the resident.
func (s *ResidentRecordService[T]) List(ctx context.Context, sub policy.Subject, residentID uint) ([]T, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	return s.records.ListByResident(ctx, residentID)
}

// Get returns one record of the resident.
func (s *ResidentRecordService[T]) Get(ctx context.Context, sub policy.Subject, residentID, id uint) (*T, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, residentID, id)
}

// Create stores rec under the resident.
func (s *ResidentRecordService[T]) Create(ctx context.Context, sub policy.Subject, residentID uint, rec *T) (*T, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	if err := s.validate(rec); err != nil {
		return nil, err
	}
	s.assign(rec, residentID, 0)
	if s.onCreate != nil {
		s.onCreate(rec, sub)
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update replaces the content of an existing record.
func (s *ResidentRecordService[T]) Update(ctx context.Context, sub policy.Subject, residentID, id uint, rec *T) (*T, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	if _, err := s.records.Get(ctx, residentID, id); err != nil {
		return nil, err
	}
	if err := s.validate(rec); err != nil {
		return nil, err
	}
	s.assign(rec, residentID, id)
	if err := s.records.Update(ctx, rec); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, residentID, id)
}

// Delete removes a record of the resident.
func (s *ResidentRecordService[T]) Delete(ctx context.Context, sub policy.Subject, residentID, id uint) error {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return err
	}
	return s.records.Delete(ctx, residentID, id)
}

// CapabilityService manages the single capability profile per resident.
type CapabilityService struct {
	capabilities repository.CapabilityRepository
	accounts     repository.AccountRepository
}

// NewCapabilityService returns a new CapabilityService.
func NewCapabilityService(capabilities repository.CapabilityRepository, accounts repository.AccountRepository) *CapabilityService {
	return &CapabilityService{capabilities: capabilities, accounts: accounts}
}

// Get returns the resident's capability profile.
func (s *CapabilityService) Get(ctx context.Context, sub policy.Subject, residentID uint) (*models.Capability, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	return s.capabilities.Get(ctx, residentID)
}

// Upsert creates or replaces the resident's capability profile.
func (s *CapabilityService) Upsert(ctx context.Context, sub policy.Subject, residentID uint, capability *models.Capability) (*models.Capability, error) {
	if err := requireResident(ctx, s.accounts, sub, residentID); err != nil {
		return nil, err
	}
	capability.ID = 0
	capability.ResidentID = residentID
	if err := s.capabilities.Upsert(ctx, capability); err != nil {
		return nil, err
	}
	return s.capabilities.Get(ctx, residentID)
}

// requireResident applies the access policy and then checks that residentID
// names a RESIDENT account.
func requireResident(ctx context.Context, accounts repository.AccountRepository, sub policy.Subject, residentID uint) error {
	if err := policy.CanAccessResident(sub, residentID); err != nil {
		return err
	}
	account, err := accounts.GetByID(ctx, residentID)
	if err != nil {
		return err
	}
	if account.Role != models.RoleResident {
		return models.NewNotFoundError("Resident", residentID)
	}
	return nil
}
