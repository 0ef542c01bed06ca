package models

import "time"

// AllergySeverity grades an allergic reaction.
type AllergySeverity string

const (
	AllergySeverityMild     AllergySeverity = "MILD"
	AllergySeverityModerate AllergySeverity = "MODERATE"
	AllergySeveritySevere   AllergySeverity = "SEVERE"
)

// Valid reports whether the severity is one of the known grades.
func (s AllergySeverity) Valid() bool {
	switch s {
	case AllergySeverityMild, AllergySeverityModerate, AllergySeveritySevere:
		return true
	}
	return false
}

// Allergy is a known allergen for a resident.
type Allergy struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	ResidentID uint            `gorm:"not null;index" json:"residentId"`
	Substance  string          `gorm:"size:200;not null" json:"substance"`
	Reaction   string          `gorm:"type:text" json:"reaction"`
	Severity   AllergySeverity `gorm:"type:varchar(20);not null" json:"severity"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Diagnosis is a recorded medical condition for a resident.
type Diagnosis struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ResidentID  uint       `gorm:"not null;index" json:"residentId"`
	Condition   string     `gorm:"size:200;not null" json:"condition"`
	DiagnosedAt *time.Time `json:"diagnosedAt,omitempty"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Capability describes a resident's functional abilities. One per resident.
type Capability struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ResidentID uint      `gorm:"not null;uniqueIndex" json:"residentId"`
	Mobility   string    `gorm:"size:200" json:"mobility"`
	Hearing    string    `gorm:"size:200" json:"hearing"`
	Vision     string    `gorm:"size:200" json:"vision"`
	Cognition  string    `gorm:"size:200" json:"cognition"`
	Notes      string    `gorm:"type:text" json:"notes"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Medication is a prescription held by a resident.
type Medication struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ResidentID uint       `gorm:"not null;index" json:"residentId"`
	Name       string     `gorm:"size:200;not null" json:"name"`
	Dosage     string     `gorm:"size:100;not null" json:"dosage"`
	Frequency  string     `gorm:"size:100;not null" json:"frequency"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Document is a text record attached to a resident.
type Document struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ResidentID  uint      `gorm:"not null;index" json:"residentId"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Kind        string    `gorm:"size:50;not null" json:"kind"`
	Content     string    `gorm:"type:text" json:"content"`
	CreatedByID uint      `gorm:"not null;index" json:"createdById"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
