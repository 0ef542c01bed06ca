package repository

import (
	"context"

	"careline/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResidentRecordRepository defines persistence for records owned by one
// resident. Every lookup is scoped by resident so an id from another
// resident's chart reads as not found.
type ResidentRecordRepository[T any] interface {
	ListByResident(ctx context.Context, residentID uint) ([]T, error)
	Get(ctx context.Context, residentID, id uint) (*T, error)
	Create(ctx context.Context, rec *T) error
	Update(ctx context.Context, rec *T) error
	Delete(ctx context.Context, residentID, id uint) error
}

type residentRecordRepository[T any] struct {
	db       *gorm.DB
	resource string
}

// NewAllergyRepository returns the allergy store.
func NewAllergyRepository(db *gorm.DB) ResidentRecordRepository[models.Allergy] {
	return &residentRecordRepository[models.Allergy]{db: db, resource: "Allergy"}
}

// NewDiagnosisRepository returns the diagnosis store.
func NewDiagnosisRepository(db *gorm.DB) ResidentRecordRepository[models.Diagnosis] {
	return &residentRecordRepository[models.Diagnosis]{db: db, resource: "Diagnosis"}
}

// NewMedicationRepository returns the prescription store.
func NewMedicationRepository(db *gorm.DB) ResidentRecordRepository[models.Medication] {
	return &residentRecordRepository[models.Medication]{db: db, resource: "Medication"}
}

// NewDocumentRepository returns the resident document store.
func NewDocumentRepository(db *gorm.DB) ResidentRecordRepository[models.Document] {
	return &residentRecordRepository[models.Document]{db: db, resource: "Document"}
}

func (r *residentRecordRepository[T]) ListByResident(ctx context.Context, residentID uint) ([]T, error) {
	var recs []T
	if err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recs, nil
}

func (r *residentRecordRepository[T]) Get(ctx context.Context, residentID, id uint) (*T, error) {
	var rec T
	if err := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		First(&rec, id).Error; err != nil {
		return nil, mapReadError(err, r.resource, id)
	}
	return &rec, nil
}

func (r *residentRecordRepository[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return mapWriteError(err, r.resource)
	}
	return nil
}

// Update rewrites the record's content. Ownership and creation time are
// fixed at insert and never change here.
func (r *residentRecordRepository[T]) Update(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Model(rec).
		Select("*").Omit("id", "resident_id", "created_at", "created_by_id").
		Updates(rec).Error; err != nil {
		return mapWriteError(err, r.resource)
	}
	return nil
}

func (r *residentRecordRepository[T]) Delete(ctx context.Context, residentID, id uint) error {
	res := r.db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Delete(new(T), id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(r.resource, id)
	}
	return nil
}

// CapabilityRepository stores the single capability profile per resident.
type CapabilityRepository interface {
	Get(ctx context.Context, residentID uint) (*models.Capability, error)
	Upsert(ctx context.Context, capability *models.Capability) error
}

type capabilityRepository struct {
	db *gorm.DB
}

// NewCapabilityRepository returns a new CapabilityRepository implementation.
func NewCapabilityRepository(db *gorm.DB) CapabilityRepository {
	return &capabilityRepository{db: db}
}

func (r *capabilityRepository) Get(ctx context.Context, residentID uint) (*models.Capability, error) {
	var capability models.Capability
	if err := r.db.WithContext(ctx).Where("resident_id = ?", residentID).First(&capability).Error; err != nil {
		return nil, mapReadError(err, "Capability", residentID)
	}
	return &capability, nil
}

// Upsert inserts the profile or overwrites the existing one for the resident.
func (r *capabilityRepository) Upsert(ctx context.Context, capability *models.Capability) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "resident_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mobility", "hearing", "vision", "cognition", "notes", "updated_at"}),
	}).Create(capability).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
