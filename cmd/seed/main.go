package main

import (
	"context"
	"log"
	"os"

	"care-advisor-be/internal/repository/implementation"
	"care-advisor-be/internal/repository/memory"
	"care-advisor-be/pkg/database"
	"care-advisor-be/pkg/reference"

	"github.com/joho/godotenv"
)

// Seeds the built-in success cases and sales scripts. Records whose id is
// already stored are skipped, so running it twice is harmless.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	repo := implementation.NewReferenceRepository(db)

	existing := make(map[string]bool)
	for _, kind := range []reference.Kind{reference.KindCase, reference.KindScript} {
		records, err := repo.FindAllByKind(ctx, kind)
		if err != nil {
			log.Fatal("Error: Failed to read existing records:", err)
		}
		for _, r := range records {
			existing[r.ID] = true
		}
	}

	inserted := 0
	for _, rec := range memory.SeedRecords() {
		if existing[rec.ID] {
			log.Printf("Skip %s %s (already present)", rec.Kind, rec.ID)
			continue
		}
		if err := repo.Create(ctx, rec); err != nil {
			log.Fatalf("Error: Failed to insert %s: %v", rec.ID, err)
		}
		inserted++
	}
	log.Printf("Seed complete: %d records inserted.", inserted)
}
