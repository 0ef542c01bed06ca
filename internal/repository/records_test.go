package repository

import (
	"context"
	"testing"
	"time"

	"careline/internal/models"
	"careline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResidentRecords_ScopedByResident(t *testing.T) {
	repo := NewAllergyRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	rec := &models.Allergy{ResidentID: 4, Substance: "Penicillin", Severity: models.AllergySeveritySevere}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, 4, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Penicillin", got.Substance)

	_, err = repo.Get(ctx, 5, rec.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	err = repo.Delete(ctx, 5, rec.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	list, err := repo.ListByResident(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(ctx, 4, rec.ID))
	list, err = repo.ListByResident(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCapabilityRepository_Upsert(t *testing.T) {
	repo := NewCapabilityRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.Capability{ResidentID: 4, Mobility: "walker"}))
	require.NoError(t, repo.Upsert(ctx, &models.Capability{ResidentID: 4, Mobility: "wheelchair", Hearing: "aid"}))

	got, err := repo.Get(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "wheelchair", got.Mobility)
	assert.Equal(t, "aid", got.Hearing)

	_, err = repo.Get(ctx, 9)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestInventoryRepository_AdjustStockNeverNegative(t *testing.T) {
	repo := NewInventoryRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	item := &models.InventoryItem{Name: "Gauze", Category: models.InventoryCategoryConsumable, Quantity: 5, ReorderLevel: 2}
	require.NoError(t, repo.Create(ctx, item))

	updated, err := repo.AdjustStock(ctx, item.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Quantity)

	_, err = repo.AdjustStock(ctx, item.ID, -2)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = repo.AdjustStock(ctx, 999, 1)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	low, err := repo.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Gauze", low[0].Name)
}

func TestSupplierRepository_DeleteUnlinksItems(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	suppliers := NewSupplierRepository(db)
	items := NewInventoryRepository(db)
	ctx := context.Background()

	supplier := &models.Supplier{Name: "MedCo"}
	require.NoError(t, suppliers.Create(ctx, supplier))
	err := suppliers.Create(ctx, &models.Supplier{Name: "MedCo"})
	assert.True(t, IsDuplicateKey(err))

	item := &models.InventoryItem{Name: "Aspirin", Category: models.InventoryCategoryMedication, SupplierID: &supplier.ID}
	require.NoError(t, items.Create(ctx, item))

	got, err := items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "MedCo", got.Supplier.Name)

	require.NoError(t, suppliers.Delete(ctx, supplier.ID))
	got, err = items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SupplierID)
}

func TestMessageRepository_InboxAndMarkRead(t *testing.T) {
	repo := NewMessageRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	msg := &models.Message{SenderID: 1, RecipientID: 2, Subject: "Hi", Body: "Lunch at noon"}
	require.NoError(t, repo.Create(ctx, msg))

	unread, err := repo.Inbox(ctx, 2, true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	// Only the recipient can mark it read.
	require.NoError(t, repo.MarkRead(ctx, msg.ID, 1, t0))
	unread, err = repo.Inbox(ctx, 2, true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	require.NoError(t, repo.MarkRead(ctx, msg.ID, 2, t0))
	require.NoError(t, repo.MarkRead(ctx, msg.ID, 2, t0.Add(time.Hour)))
	got, err := repo.GetByID(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(t0))

	sent, err := repo.Outbox(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}
