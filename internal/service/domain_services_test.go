package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"careline/internal/models"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestResidentRecords_Access(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	accounts := repository.NewAccountRepository(db, nil)
	allergies := NewAllergyService(repository.NewAllergyRepository(db), accounts)
	ctx := context.Background()

	carer := policy.SubjectOf(testutil.CreateAccount(t, db, "carer", models.RoleCaregiver))
	alice := testutil.CreateAccount(t, db, "alice", models.RoleResident)
	bob := testutil.CreateAccount(t, db, "bob", models.RoleResident)

	created, err := allergies.Create(ctx, carer, alice.ID, &models.Allergy{Substance: " Penicillin ", Severity: "severe"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, created.ResidentID)
	assert.Equal(t, "Penicillin", created.Substance)
	assert.Equal(t, models.AllergySeveritySevere, created.Severity)

	own, err := allergies.List(ctx, policy.SubjectOf(alice), alice.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	_, err = allergies.List(ctx, policy.SubjectOf(bob), alice.ID)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	_, err = allergies.Get(ctx, carer, bob.ID, created.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "records are scoped to their resident")

	_, err = allergies.List(ctx, carer, carer.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "staff accounts are not residents")

	_, err = allergies.Create(ctx, carer, alice.ID, &models.Allergy{Substance: "Nuts", Severity: "DEADLY"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	updated, err := allergies.Update(ctx, carer, alice.ID, created.ID, &models.Allergy{Substance: "Penicillin", Severity: "MILD", Reaction: "rash"})
	require.NoError(t, err)
	assert.Equal(t, models.AllergySeverityMild, updated.Severity)
	assert.Equal(t, "rash", updated.Reaction)

	require.NoError(t, allergies.Delete(ctx, carer, alice.ID, created.ID))
	err = allergies.Delete(ctx, carer, alice.ID, created.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestMedicationAndDocumentServices(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	accounts := repository.NewAccountRepository(db, nil)
	medications := NewMedicationService(repository.NewMedicationRepository(db), accounts)
	documents := NewDocumentService(repository.NewDocumentRepository(db), accounts)
	diagnoses := NewDiagnosisService(repository.NewDiagnosisRepository(db), accounts)
	capabilities := NewCapabilityService(repository.NewCapabilityRepository(db), accounts)
	ctx := context.Background()

	nurse := policy.SubjectOf(testutil.CreateAccount(t, db, "nurse", models.RoleCaregiver))
	resident := testutil.CreateAccount(t, db, "res", models.RoleResident)

	start := t0
	end := t0.Add(-24 * time.Hour)
	_, err := medications.Create(ctx, nurse, resident.ID, &models.Medication{
		Name: "Metformin", Dosage: "500mg", Frequency: "twice daily", StartDate: &start, EndDate: &end,
	})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = medications.Create(ctx, nurse, resident.ID, &models.Medication{Name: "Metformin", Dosage: "500mg", Frequency: "twice daily"})
	require.NoError(t, err)

	doc, err := documents.Create(ctx, nurse, resident.ID, &models.Document{Title: "Care plan", Kind: "plan", Content: "walk daily", CreatedByID: 999})
	require.NoError(t, err)
	assert.Equal(t, nurse.ID, doc.CreatedByID)

	edited, err := documents.Update(ctx, nurse, resident.ID, doc.ID, &models.Document{Title: "Care plan v2", Kind: "plan"})
	require.NoError(t, err)
	assert.Equal(t, nurse.ID, edited.CreatedByID, "author survives edits")

	_, err = diagnoses.Create(ctx, nurse, resident.ID, &models.Diagnosis{Condition: ""})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	profile, err := capabilities.Upsert(ctx, nurse, resident.ID, &models.Capability{Mobility: "walker"})
	require.NoError(t, err)
	assert.Equal(t, "walker", profile.Mobility)
	profile, err = capabilities.Upsert(ctx, nurse, resident.ID, &models.Capability{Mobility: "independent", Hearing: "aid"})
	require.NoError(t, err)
	assert.Equal(t, "independent", profile.Mobility)

	got, err := capabilities.Get(ctx, policy.SubjectOf(resident), resident.ID)
	require.NoError(t, err)
	assert.Equal(t, "aid", got.Hearing)
}

func TestInventoryService(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewInventoryService(repository.NewSupplierRepository(db), repository.NewInventoryRepository(db))
	staff := policy.SubjectOf(testutil.CreateAccount(t, db, "stock", models.RoleCaregiver))
	ctx := context.Background()

	_, err := svc.ListItems(ctx, policy.Subject{ID: 3, Role: models.RoleResident}, "")
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	supplier, err := svc.CreateSupplier(ctx, staff, &models.Supplier{Name: "MediCo", Email: "Orders@MediCo.example"})
	require.NoError(t, err)
	assert.Equal(t, "orders@medico.example", supplier.Email)

	_, err = svc.CreateSupplier(ctx, staff, &models.Supplier{Name: "MediCo"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	missing := uint(404)
	_, err = svc.CreateItem(ctx, staff, &models.InventoryItem{Name: "Gloves", Category: "consumable", SupplierID: &missing})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	gloves, err := svc.CreateItem(ctx, staff, &models.InventoryItem{
		Name: "Gloves", Category: "consumable", Quantity: 10, Unit: "box", ReorderLevel: 4, SupplierID: &supplier.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, gloves.Supplier)
	assert.Equal(t, "MediCo", gloves.Supplier.Name)

	_, err = svc.CreateItem(ctx, staff, &models.InventoryItem{Name: "Aspirin", Category: "MEDICATION", Quantity: 2, ReorderLevel: 5})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, staff, gloves.ID, 0)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.AdjustStock(ctx, staff, gloves.ID, -11)
	assert.True(t, models.HasCode(err, models.CodeValidation))

	adjusted, err := svc.AdjustStock(ctx, staff, gloves.ID, -7)
	require.NoError(t, err)
	assert.Equal(t, 3, adjusted.Quantity)

	renamed, err := svc.UpdateItem(ctx, staff, gloves.ID, &models.InventoryItem{Name: "Nitrile gloves", Category: "CONSUMABLE", Quantity: 500, ReorderLevel: 4})
	require.NoError(t, err)
	assert.Equal(t, 3, renamed.Quantity, "updates never touch stock levels")
	assert.Nil(t, renamed.SupplierID)

	low, err := svc.LowStock(ctx, staff)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	meds, err := svc.ListItems(ctx, staff, "medication")
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)

	_, err = svc.ListItems(ctx, staff, "FOOD")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	data, err := svc.Export(ctx, staff)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()
	rows, err := book.GetRows("Inventory")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, InventoryExportHeader, rows[0])
}

func TestGenerateInventoryExport(t *testing.T) {
	items := []models.InventoryItem{
		{ID: 1, Name: "Saline", Category: models.InventoryCategoryMedication, Quantity: 40, Unit: "bag", ReorderLevel: 10,
			Supplier: &models.Supplier{Name: "FluidWorks"}, UpdatedAt: t0},
		{ID: 2, Name: "Swabs", Category: models.InventoryCategoryConsumable, Quantity: 1, Unit: "pack", ReorderLevel: 5, UpdatedAt: t0},
	}

	data, err := GenerateInventoryExport(items)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()

	assert.Equal(t, []string{"Inventory"}, book.GetSheetList())

	name, err := book.GetCellValue("Inventory", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Saline", name)

	supplier, err := book.GetCellValue("Inventory", "H2")
	require.NoError(t, err)
	assert.Equal(t, "FluidWorks", supplier)

	reorder, err := book.GetCellValue("Inventory", "G3")
	require.NoError(t, err)
	assert.Equal(t, "Yes", reorder)

	updated, err := book.GetCellValue("Inventory", "I2")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01 09:00", updated)
}

func TestMessageService(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	notify := newRecordingNotifier()
	svc := NewMessageService(repository.NewMessageRepository(db), repository.NewAccountRepository(db, nil), notify)
	ctx := context.Background()

	carer := policy.SubjectOf(testutil.CreateAccount(t, db, "carer", models.RoleCaregiver))
	alice := policy.SubjectOf(testutil.CreateAccount(t, db, "alice", models.RoleResident))
	bob := policy.SubjectOf(testutil.CreateAccount(t, db, "bob", models.RoleResident))

	_, err := svc.Send(ctx, alice, bob.ID, "hi", "resident to resident")
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	_, err = svc.Send(ctx, alice, alice.ID, "", "note to self")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.Send(ctx, alice, carer.ID, "", "   ")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.Send(ctx, alice, 9999, "", "hello?")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	msg, err := svc.Send(ctx, alice, carer.ID, "Help", " Can I get more blankets? ")
	require.NoError(t, err)
	assert.Equal(t, "Can I get more blankets?", msg.Body)
	require.Len(t, notify.messages, 1)

	_, err = svc.Send(ctx, carer, bob.ID, "", "Lunch is at noon")
	require.NoError(t, err)

	inbox, err := svc.Inbox(ctx, carer, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	_, err = svc.MarkRead(ctx, bob, msg.ID)
	assert.True(t, models.HasCode(err, models.CodeForbidden))

	read, err := svc.MarkRead(ctx, carer, msg.ID)
	require.NoError(t, err)
	assert.NotNil(t, read.ReadAt)

	inbox, err = svc.Inbox(ctx, carer, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, inbox)

	sent, err := svc.Outbox(ctx, carer, 10, 0)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, bob.ID, sent[0].RecipientID)

	_, err = svc.Inbox(ctx, policy.Subject{}, false, 10, 0)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}
