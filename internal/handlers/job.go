package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/careerforge/backend/internal/database"
	applog "github.com/careerforge/backend/internal/logger"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importChunkSize = 50

type JobHandler struct{}

func NewJobHandler() *JobHandler {
	return &JobHandler{}
}

// queryJobs filters a company's postings by free-text query, location, and
// employment type, freshest first.
func queryJobs(companyID, q, location, employmentType string) ([]models.Job, error) {
	query := database.DB.Where("company_id = ?", companyID)
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(department) LIKE ?", like, like)
	}
	if location != "" {
		query = query.Where("location = ?", location)
	}
	if employmentType != "" {
		query = query.Where("employment_type = ?", employmentType)
	}

	var jobs []models.Job
	if err := query.Order("posted_days_ago").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// jobFacets returns the distinct locations and employment types across the
// company's full job set, for filter dropdowns.
func jobFacets(companyID string) ([]string, []string, error) {
	var locations []string
	if err := database.DB.Model(&models.Job{}).
		Where("company_id = ? AND location <> ''", companyID).
		Distinct().Order("location").Pluck("location", &locations).Error; err != nil {
		return nil, nil, err
	}
	var types []string
	if err := database.DB.Model(&models.Job{}).
		Where("company_id = ? AND employment_type <> ''", companyID).
		Distinct().Order("employment_type").Pluck("employment_type", &types).Error; err != nil {
		return nil, nil, err
	}
	return locations, types, nil
}

// List returns a company's job postings with the careers page filters
func (h *JobHandler) List(c *fiber.Ctx) error {
	company, err := findCompanyBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Company not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load company",
		})
	}

	jobs, err := queryJobs(company.ID, c.Query("q"), c.Query("location"), c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load jobs",
		})
	}

	return c.JSON(fiber.Map{"success": true, "jobs": jobs})
}

// Get returns a single posting by its slug
func (h *JobHandler) Get(c *fiber.Ctx) error {
	var job models.Job
	if err := database.DB.Where("job_slug = ?", c.Params("jobSlug")).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Job not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load job",
		})
	}
	return c.JSON(fiber.Map{"success": true, "job": job})
}

// ImportRowResult reports the outcome of one CSV row
type ImportRowResult struct {
	Row     int    `json:"row"`
	JobSlug string `json:"job_slug,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Import ingests a CSV of postings. Rows are normalized, slug-deduplicated,
// and upserted in chunks on the job_slug conflict target, so re-importing
// the same file refreshes rather than duplicates.
func (h *JobHandler) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "CSV file is required (multipart field 'file')",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Failed to open uploaded file",
		})
	}
	defer file.Close()

	jobs, results, err := ParseJobsCSV(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	imported, err := UpsertJobs(jobs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Import failed: " + err.Error(),
		})
	}

	// Imported postings change the cached public pages
	touched := map[string]struct{}{}
	for _, j := range jobs {
		touched[j.CompanyID] = struct{}{}
	}
	for companyID := range touched {
		var company models.Company
		if err := database.DB.First(&company, "id = ?", companyID).Error; err == nil {
			database.InvalidateCompanyCache(company.Slug, company.ID)
		}
	}

	applog.Get().Info("job import finished",
		zap.Int("imported", imported),
		zap.Int("skipped", len(results)-imported),
	)

	return c.JSON(fiber.Map{
		"success":  true,
		"imported": imported,
		"results":  results,
	})
}

// ParseJobsCSV reads a header-keyed CSV of postings and returns normalized
// rows plus per-row results. Required columns: company_slug, title. Rows
// with an unknown company or empty title are skipped, not fatal.
func ParseJobsCSV(r io.Reader) ([]models.Job, []ImportRowResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, nil, fmt.Errorf("CSV is missing the 'title' column")
	}
	if _, ok := col["company_slug"]; !ok {
		return nil, nil, fmt.Errorf("CSV is missing the 'company_slug' column")
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	// Company slugs resolve once per file
	companyIDs := make(map[string]string)

	var jobs []models.Job
	var results []ImportRowResult
	seenSlugs := make(map[string]struct{})

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			results = append(results, ImportRowResult{Row: row, Error: "malformed CSV row"})
			continue
		}

		title := field(record, "title")
		if title == "" {
			results = append(results, ImportRowResult{Row: row, Error: "missing title"})
			continue
		}

		companySlug := field(record, "company_slug")
		companyID, ok := companyIDs[companySlug]
		if !ok {
			var company models.Company
			if err := database.DB.Where("slug = ?", companySlug).First(&company).Error; err != nil {
				results = append(results, ImportRowResult{Row: row, Error: "unknown company: " + companySlug})
				continue
			}
			companyID = company.ID
			companyIDs[companySlug] = companyID
		}

		// Row index suffix keeps identically-titled postings distinct
		jobSlug := models.Slugify(title) + "-" + strconv.Itoa(row)
		if _, dup := seenSlugs[jobSlug]; dup {
			results = append(results, ImportRowResult{Row: row, Error: "duplicate job slug: " + jobSlug})
			continue
		}
		seenSlugs[jobSlug] = struct{}{}

		jobs = append(jobs, models.Job{
			CompanyID:      companyID,
			Title:          title,
			WorkPolicy:     models.NormalizeWorkPolicy(field(record, "work_policy")),
			Location:       field(record, "location"),
			Department:     field(record, "department"),
			EmploymentType: models.NormalizeEmploymentType(field(record, "employment_type")),
			JobType:        field(record, "job_type"),
			SalaryRange:    field(record, "salary_range"),
			JobSlug:        jobSlug,
			PostedDaysAgo:  models.ParsePostedDays(field(record, "posted")),
		})
		results = append(results, ImportRowResult{Row: row, JobSlug: jobSlug})
	}

	return jobs, results, nil
}

// UpsertJobs writes postings in chunks, updating on job_slug conflicts.
// Returns the number of rows written before any failure.
func UpsertJobs(jobs []models.Job) (int, error) {
	written := 0
	for start := 0; start < len(jobs); start += importChunkSize {
		end := start + importChunkSize
		if end > len(jobs) {
			end = len(jobs)
		}
		chunk := jobs[start:end]
		err := database.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "job_slug"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "work_policy", "location", "department",
				"employment_type", "job_type", "salary_range",
				"posted_days_ago", "updated_at",
			}),
		}).Create(&chunk).Error
		if err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}
