package repository

import (
	"context"

	"careline/internal/models"

	"gorm.io/gorm"
)

// SupplierRepository defines persistence operations for suppliers.
type SupplierRepository interface {
	List(ctx context.Context) ([]models.Supplier, error)
	GetByID(ctx context.Context, id uint) (*models.Supplier, error)
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id uint) error
}

// InventoryRepository defines persistence operations for stocked items.
type InventoryRepository interface {
	List(ctx context.Context, category models.InventoryCategory) ([]models.InventoryItem, error)
	GetByID(ctx context.Context, id uint) (*models.InventoryItem, error)
	Create(ctx context.Context, item *models.InventoryItem) error
	Update(ctx context.Context, item *models.InventoryItem) error
	Delete(ctx context.Context, id uint) error
	AdjustStock(ctx context.Context, id uint, delta int) (*models.InventoryItem, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository returns a new SupplierRepository implementation.
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) List(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return suppliers, nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).First(&supplier, id).Error; err != nil {
		return nil, mapReadError(err, "Supplier", id)
	}
	return &supplier, nil
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	if err := r.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return mapWriteError(err, "Supplier")
	}
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	if err := r.db.WithContext(ctx).Save(supplier).Error; err != nil {
		return mapWriteError(err, "Supplier")
	}
	return nil
}

// Delete removes the supplier and unlinks its items.
func (r *supplierRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.InventoryItem{}).
			Where("supplier_id = ?", id).
			Update("supplier_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Supplier{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return mapReadError(err, "Supplier", id)
	}
	return nil
}

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository returns a new InventoryRepository implementation.
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) List(ctx context.Context, category models.InventoryCategory) ([]models.InventoryItem, error) {
	q := r.db.WithContext(ctx).Preload("Supplier").Order("name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var items []models.InventoryItem
	if err := q.Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *inventoryRepository) GetByID(ctx context.Context, id uint) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Preload("Supplier").First(&item, id).Error; err != nil {
		return nil, mapReadError(err, "InventoryItem", id)
	}
	return &item, nil
}

func (r *inventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	if err := r.db.WithContext(ctx).Omit("Supplier").Create(item).Error; err != nil {
		return mapWriteError(err, "InventoryItem")
	}
	return nil
}

func (r *inventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	// Stock only moves through AdjustStock.
	if err := r.db.WithContext(ctx).Model(item).
		Select("*").
		Omit("id", "Supplier", "quantity", "created_at").
		Updates(item).Error; err != nil {
		return mapWriteError(err, "InventoryItem")
	}
	return nil
}

func (r *inventoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.InventoryItem{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("InventoryItem", id)
	}
	return nil
}

// AdjustStock adds delta to the on-hand quantity in a single guarded UPDATE.
// A withdrawal that would go below zero is rejected and changes nothing.
func (r *inventoryRepository) AdjustStock(ctx context.Context, id uint, delta int) (*models.InventoryItem, error) {
	res := r.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, models.NewValidationError("insufficient stock")
	}
	return r.GetByID(ctx, id)
}

func (r *inventoryRepository) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := r.db.WithContext(ctx).Preload("Supplier").
		Where("quantity <= reorder_level").
		Order("quantity ASC").
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}
