package models

import "time"

// InventoryCategory separates stocked medications from consumables.
type InventoryCategory string

const (
	InventoryCategoryMedication InventoryCategory = "MEDICATION"
	InventoryCategoryConsumable InventoryCategory = "CONSUMABLE"
)

// ParseInventoryCategory validates free-text category input.
func ParseInventoryCategory(raw string) (InventoryCategory, error) {
	switch c := InventoryCategory(raw); c {
	case InventoryCategoryMedication, InventoryCategoryConsumable:
		return c, nil
	}
	return "", NewValidationError("category must be MEDICATION or CONSUMABLE")
}

// Supplier provides inventory items.
type Supplier struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	ContactName string    `gorm:"size:200" json:"contactName"`
	Email       string    `gorm:"size:254" json:"email"`
	Phone       string    `gorm:"size:40" json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// InventoryItem is a stocked medication or consumable. Quantity never drops below zero.
type InventoryItem struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Name         string            `gorm:"size:200;not null" json:"name"`
	Category     InventoryCategory `gorm:"type:varchar(20);not null;index" json:"category"`
	Quantity     int               `gorm:"not null;default:0" json:"quantity"`
	Unit         string            `gorm:"size:40" json:"unit"`
	ReorderLevel int               `gorm:"not null;default:0" json:"reorderLevel"`
	SupplierID   *uint             `gorm:"index" json:"supplierId,omitempty"`
	Supplier     *Supplier         `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// NeedsReorder reports whether stock is at or below the reorder level.
func (i *InventoryItem) NeedsReorder() bool {
	return i.Quantity <= i.ReorderLevel
}
