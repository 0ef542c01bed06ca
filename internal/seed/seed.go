// Package seed populates a development database with demo staff, residents,
// their records, inventory and messages. It is not used by the server.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careline/internal/auth"
	"careline/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Password123"

// Options controls how much data a run creates.
type Options struct {
	Caregivers          int
	Residents           int
	MessagesPerResident int
}

// DefaultOptions is a small facility.
func DefaultOptions() Options {
	return Options{Caregivers: 4, Residents: 12, MessagesPerResident: 2}
}

// Summary counts what a run created.
type Summary struct {
	AdminCreated bool
	Caregivers   int
	Residents    int
	Records      int
	Suppliers    int
	Items        int
	Messages     int
}

// Seeder writes demo data through GORM.
type Seeder struct {
	db     *gorm.DB
	hasher auth.Hasher
	fake   *gofakeit.Faker
}

// NewSeeder returns a Seeder. The same seed value produces the same people.
func NewSeeder(db *gorm.DB, hasher auth.Hasher, seed int64) *Seeder {
	return &Seeder{db: db, hasher: hasher, fake: gofakeit.New(seed)}
}

// ClearAll deletes every row except ADMIN accounts, so an operator created
// with the admin CLI survives a reseed.
func (s *Seeder) ClearAll(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range []any{
			&models.Message{},
			&models.Document{},
			&models.Medication{},
			&models.Capability{},
			&models.Diagnosis{},
			&models.Allergy{},
			&models.InventoryItem{},
			&models.Supplier{},
			&models.Invitation{},
			&models.AccountRequest{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return tx.Where("role <> ?", models.RoleAdmin).Delete(&models.Account{}).Error
	})
}

// Run creates the demo data in one transaction.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	hash, err := s.hasher.Hash(DefaultPassword)
	if err != nil {
		return sum, fmt.Errorf("hash default password: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.ensureAdmin(tx, hash)
		if err != nil {
			return err
		}
		sum.AdminCreated = created

		caregivers, err := s.createAccounts(tx, models.RoleCaregiver, opts.Caregivers, hash)
		if err != nil {
			return err
		}
		sum.Caregivers = len(caregivers)

		residents, err := s.createAccounts(tx, models.RoleResident, opts.Residents, hash)
		if err != nil {
			return err
		}
		sum.Residents = len(residents)

		for _, r := range residents {
			n, err := s.createRecords(tx, r, caregivers)
			if err != nil {
				return err
			}
			sum.Records += n
		}

		sum.Suppliers, sum.Items, err = s.createInventory(tx)
		if err != nil {
			return err
		}

		sum.Messages, err = s.createMessages(tx, residents, caregivers, opts.MessagesPerResident)
		return err
	})
	return sum, err
}

// ensureAdmin creates the "admin" account when the database has no ADMIN yet.
func (s *Seeder) ensureAdmin(tx *gorm.DB, hash string) (bool, error) {
	var n int64
	if err := tx.Model(&models.Account{}).Where("role = ?", models.RoleAdmin).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	admin := models.Account{
		FirstName:    "Facility",
		LastName:     "Admin",
		Username:     "admin",
		Email:        "admin@careline.example",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(&admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *Seeder) createAccounts(tx *gorm.DB, role models.Role, n int, hash string) ([]models.Account, error) {
	accounts := make([]models.Account, 0, n)
	now := time.Now().UTC()
	prefix := strings.ToLower(string(role))[:1]
	for i := 1; i <= n; i++ {
		first, last := s.fake.FirstName(), s.fake.LastName()
		username := fmt.Sprintf("%s.%s.%s%d", handlePart(first), handlePart(last), prefix, i)
		a := models.Account{
			FirstName:     first,
			LastName:      last,
			Gender:        s.fake.Gender(),
			ContactNumber: s.fake.Phone(),
			Username:      username,
			Email:         username + "@careline.example",
			PasswordHash:  hash,
			Role:          role,
			CreatedAt:     now,
		}
		if role == models.RoleResident {
			b := s.fake.DateRange(now.AddDate(-100, 0, 0), now.AddDate(-65, 0, 0))
			a.Birthday = &b
		}
		accounts = append(accounts, a)
	}
	if len(accounts) == 0 {
		return accounts, nil
	}
	if err := tx.Create(&accounts).Error; err != nil {
		return nil, fmt.Errorf("create %s accounts: %w", strings.ToLower(string(role)), err)
	}
	return accounts, nil
}

var (
	allergens  = []string{"Penicillin", "Peanuts", "Latex", "Shellfish", "Sulfa drugs", "Aspirin"}
	conditions = []string{"Type 2 diabetes", "Hypertension", "Osteoarthritis", "Atrial fibrillation", "COPD", "Early-stage dementia"}
	medicines  = []string{"Metformin", "Lisinopril", "Atorvastatin", "Amlodipine", "Donepezil", "Levothyroxine"}
	mobility   = []string{"Independent", "Cane", "Walker", "Wheelchair"}
	senses     = []string{"Unimpaired", "Mild loss", "Aided", "Severe loss"}
	severities = []models.AllergySeverity{models.AllergySeverityMild, models.AllergySeverityModerate, models.AllergySeveritySevere}
)

// createRecords gives a resident a capability profile, an allergy, a
// diagnosis with matching medication and an intake note.
func (s *Seeder) createRecords(tx *gorm.DB, resident models.Account, staff []models.Account) (int, error) {
	diagnosed := s.fake.DateRange(time.Now().AddDate(-10, 0, 0), time.Now().AddDate(0, -1, 0))
	pick := s.fake.Number(0, len(conditions)-1)

	records := []any{
		&models.Capability{
			ResidentID: resident.ID,
			Mobility:   s.fake.RandomString(mobility),
			Hearing:    s.fake.RandomString(senses),
			Vision:     s.fake.RandomString(senses),
			Cognition:  s.fake.RandomString(senses),
		},
		&models.Allergy{
			ResidentID: resident.ID,
			Substance:  s.fake.RandomString(allergens),
			Reaction:   s.fake.Sentence(6),
			Severity:   severities[s.fake.Number(0, len(severities)-1)],
		},
		&models.Diagnosis{
			ResidentID:  resident.ID,
			Condition:   conditions[pick],
			DiagnosedAt: &diagnosed,
			Notes:       s.fake.Sentence(10),
		},
		&models.Medication{
			ResidentID: resident.ID,
			Name:       medicines[pick],
			Dosage:     fmt.Sprintf("%dmg", s.fake.Number(1, 20)*5),
			Frequency:  s.fake.RandomString([]string{"Once daily", "Twice daily", "At bedtime"}),
			StartDate:  &diagnosed,
		},
	}

	author := resident.ID
	if len(staff) > 0 {
		author = staff[s.fake.Number(0, len(staff)-1)].ID
	}
	records = append(records, &models.Document{
		ResidentID:  resident.ID,
		Title:       "Intake assessment",
		Kind:        "NOTE",
		Content:     s.fake.Paragraph(2, 3, 8, "\n\n"),
		CreatedByID: author,
	})

	for _, rec := range records {
		if err := tx.Create(rec).Error; err != nil {
			return 0, fmt.Errorf("create %T: %w", rec, err)
		}
	}
	return len(records), nil
}

func (s *Seeder) createInventory(tx *gorm.DB) (int, int, error) {
	catalog, err := LoadCatalog()
	if err != nil {
		return 0, 0, err
	}
	items := 0
	for _, cs := range catalog.Suppliers {
		supplier := models.Supplier{
			Name:        cs.Name,
			ContactName: cs.ContactName,
			Email:       cs.Email,
			Phone:       cs.Phone,
		}
		if err := tx.Create(&supplier).Error; err != nil {
			return 0, 0, fmt.Errorf("create supplier %q: %w", cs.Name, err)
		}
		for _, ci := range cs.Items {
			item := models.InventoryItem{
				Name:         ci.Name,
				Category:     models.InventoryCategory(ci.Category),
				Quantity:     ci.Quantity,
				Unit:         ci.Unit,
				ReorderLevel: ci.ReorderLevel,
				SupplierID:   &supplier.ID,
			}
			if err := tx.Omit("Supplier").Create(&item).Error; err != nil {
				return 0, 0, fmt.Errorf("create item %q: %w", ci.Name, err)
			}
			items++
		}
	}
	return len(catalog.Suppliers), items, nil
}

func (s *Seeder) createMessages(tx *gorm.DB, residents, staff []models.Account, perResident int) (int, error) {
	if len(staff) == 0 || perResident <= 0 {
		return 0, nil
	}
	count := 0
	for _, r := range residents {
		for i := 0; i < perResident; i++ {
			carer := staff[s.fake.Number(0, len(staff)-1)]
			msg := models.Message{
				SenderID:    r.ID,
				RecipientID: carer.ID,
				Subject:     s.fake.Sentence(4),
				Body:        s.fake.Sentence(14),
				CreatedAt:   time.Now().UTC().Add(-time.Duration(s.fake.Number(1, 72)) * time.Hour),
			}
			if i%2 == 1 {
				// Staff reply.
				msg.SenderID, msg.RecipientID = carer.ID, r.ID
			}
			if err := tx.Create(&msg).Error; err != nil {
				return 0, fmt.Errorf("create message: %w", err)
			}
			count++
		}
	}
	return count, nil
}

// handlePart lowercases s and keeps only characters valid in a username.
func handlePart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	return b.String()
}
