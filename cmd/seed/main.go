package main

import (
	"flag"
	"log"
	"os"

	"github.com/careerforge/backend/internal/config"
	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/handlers"
	applog "github.com/careerforge/backend/internal/logger"
	"github.com/careerforge/backend/internal/models"
)

// Seeds job postings from a CSV file. Expected columns: company_slug, title,
// work_policy, location, department, employment_type, job_type, salary_range,
// posted. Rows are upserted on job_slug, so re-running refreshes in place.
func main() {
	csvPath := flag.String("csv", "", "path to the jobs CSV file")
	flag.Parse()

	if *csvPath == "" {
		log.Fatal("Usage: seed -csv <path to jobs CSV>")
	}

	cfg := config.Load()
	if err := applog.Init(&applog.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "careerforge-seed",
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer applog.Sync()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("Failed to open CSV: %v", err)
	}
	defer file.Close()

	jobs, results, err := handlers.ParseJobsCSV(file)
	if err != nil {
		log.Fatalf("Failed to parse CSV: %v", err)
	}

	skipped := 0
	for _, r := range results {
		if r.Error != "" {
			skipped++
			log.Printf("row %d skipped: %s", r.Row, r.Error)
		}
	}

	imported, err := handlers.UpsertJobs(jobs)
	if err != nil {
		log.Fatalf("Import failed after %d rows: %v", imported, err)
	}

	log.Printf("Seed complete: %d jobs imported, %d rows skipped", imported, skipped)
}
