// Command seed fills a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"careline/internal/auth"
	"careline/internal/config"
	"careline/internal/database"
	"careline/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	caregivers := flag.Int("caregivers", defaults.Caregivers, "Number of caregivers to create")
	residents := flag.Int("residents", defaults.Residents, "Number of residents to create")
	messages := flag.Int("messages", defaults.MessagesPerResident, "Messages per resident")
	shouldClean := flag.Bool("clean", true, "Clear non-admin data before seeding")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated people")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, auth.NewBcryptHasher(), *seedValue)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(ctx, seed.Options{
		Caregivers:          *caregivers,
		Residents:           *residents,
		MessagesPerResident: *messages,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	if sum.AdminCreated {
		log.Printf("Created admin account \"admin\"")
	}
	log.Printf("Seeded %d caregivers, %d residents, %d records, %d suppliers, %d items, %d messages",
		sum.Caregivers, sum.Residents, sum.Records, sum.Suppliers, sum.Items, sum.Messages)
	log.Printf("All seeded accounts use the password: %s", seed.DefaultPassword)
}
