package service

import (
	"context"
	"strings"

	"careline/internal/models"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/validation"
)

// InventoryService manages suppliers and stocked items. Staff only.
type InventoryService struct {
	suppliers repository.SupplierRepository
	items     repository.InventoryRepository
}

// NewInventoryService returns a new InventoryService.
func NewInventoryService(suppliers repository.SupplierRepository, items repository.InventoryRepository) *InventoryService {
	return &InventoryService{suppliers: suppliers, items: items}
}

func (s *InventoryService) ListSuppliers(ctx context.Context, sub policy.Subject) ([]models.Supplier, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	return s.suppliers.List(ctx)
}

func (s *InventoryService) GetSupplier(ctx context.Context, sub policy.Subject, id uint) (*models.Supplier, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	return s.suppliers.GetByID(ctx, id)
}

func (s *InventoryService) CreateSupplier(ctx context.Context, sub policy.Subject, supplier *models.Supplier) (*models.Supplier, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	if err := validateSupplier(supplier); err != nil {
		return nil, err
	}
	supplier.ID = 0
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *InventoryService) UpdateSupplier(ctx context.Context, sub policy.Subject, id uint, in *models.Supplier) (*models.Supplier, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	existing, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateSupplier(in); err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.ContactName = in.ContactName
	existing.Email = in.Email
	existing.Phone = in.Phone
	if err := s.suppliers.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *InventoryService) DeleteSupplier(ctx context.Context, sub policy.Subject, id uint) error {
	if err := policy.RequireStaff(sub); err != nil {
		return err
	}
	return s.suppliers.Delete(ctx, id)
}

// ListItems returns stocked items, optionally filtered by category.
func (s *InventoryService) ListItems(ctx context.Context, sub policy.Subject, category string) ([]models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	var c models.InventoryCategory
	if strings.TrimSpace(category) != "" {
		parsed, err := models.ParseInventoryCategory(strings.ToUpper(strings.TrimSpace(category)))
		if err != nil {
			return nil, err
		}
		c = parsed
	}
	return s.items.List(ctx, c)
}

func (s *InventoryService) GetItem(ctx context.Context, sub policy.Subject, id uint) (*models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, id)
}

func (s *InventoryService) CreateItem(ctx context.Context, sub policy.Subject, item *models.InventoryItem) (*models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	if err := s.validateItem(ctx, item); err != nil {
		return nil, err
	}
	item.ID = 0
	item.Supplier = nil
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, item.ID)
}

// UpdateItem edits an item's descriptive fields. Quantity changes go through
// AdjustStock so they stay atomic.
func (s *InventoryService) UpdateItem(ctx context.Context, sub policy.Subject, id uint, in *models.InventoryItem) (*models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	existing, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.Quantity = existing.Quantity
	if err := s.validateItem(ctx, in); err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Category = in.Category
	existing.Unit = in.Unit
	existing.ReorderLevel = in.ReorderLevel
	existing.SupplierID = in.SupplierID
	existing.Supplier = nil
	if err := s.items.Update(ctx, existing); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, id)
}

func (s *InventoryService) DeleteItem(ctx context.Context, sub policy.Subject, id uint) error {
	if err := policy.RequireStaff(sub); err != nil {
		return err
	}
	return s.items.Delete(ctx, id)
}

// AdjustStock receives (delta > 0) or withdraws (delta < 0) stock.
func (s *InventoryService) AdjustStock(ctx context.Context, sub policy.Subject, id uint, delta int) (*models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, models.NewValidationError("delta must not be zero")
	}
	return s.items.AdjustStock(ctx, id, delta)
}

// LowStock lists items at or below their reorder level.
func (s *InventoryService) LowStock(ctx context.Context, sub policy.Subject) ([]models.InventoryItem, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	return s.items.LowStock(ctx)
}

// Export renders the full inventory as an .xlsx workbook.
func (s *InventoryService) Export(ctx context.Context, sub policy.Subject) ([]byte, error) {
	if err := policy.RequireStaff(sub); err != nil {
		return nil, err
	}
	items, err := s.items.List(ctx, "")
	if err != nil {
		return nil, err
	}
	data, err := GenerateInventoryExport(items)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

func validateSupplier(supplier *models.Supplier) error {
	supplier.Name = strings.TrimSpace(supplier.Name)
	if supplier.Name == "" {
		return models.NewValidationError("name is required")
	}
	supplier.Email = validation.NormalizeEmail(supplier.Email)
	if supplier.Email != "" {
		if err := validation.ValidateEmail(supplier.Email); err != nil {
			return err
		}
	}
	return nil
}

func (s *InventoryService) validateItem(ctx context.Context, item *models.InventoryItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return models.NewValidationError("name is required")
	}
	category, err := models.ParseInventoryCategory(strings.ToUpper(strings.TrimSpace(string(item.Category))))
	if err != nil {
		return err
	}
	item.Category = category
	if item.Quantity < 0 {
		return models.NewValidationError("quantity must not be negative")
	}
	if item.ReorderLevel < 0 {
		return models.NewValidationError("reorderLevel must not be negative")
	}
	if item.SupplierID != nil {
		if _, err := s.suppliers.GetByID(ctx, *item.SupplierID); err != nil {
			return err
		}
	}
	return nil
}
