package main

import (
	"log"
	"os"

	"ecourts-fetcher-be/internal/model"
	"ecourts-fetcher-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. AutoMigrate
	models := []interface{}{
		&model.FetchRecord{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 4. Post-Migration: views over the history table
	postMigrationSQL := []string{
		`CREATE OR REPLACE VIEW fetch_outcome_daily AS
		 SELECT owner, workflow, outcome_kind, date_trunc('day', created_at) AS day, count(*) AS runs
		 FROM fetch_records
		 GROUP BY owner, workflow, outcome_kind, date_trunc('day', created_at);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}
