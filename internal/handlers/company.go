package handlers

import (
	"errors"

	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/middleware"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CompanyHandler struct{}

func NewCompanyHandler() *CompanyHandler {
	return &CompanyHandler{}
}

// findCompanyBySlug resolves a tenant slug to its company row
func findCompanyBySlug(slug string) (*models.Company, error) {
	var company models.Company
	if err := database.DB.Where("slug = ?", slug).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// requireEditableCompany resolves the slug and checks the current user may
// edit the tenant. Returns a nil company after writing the error response.
func requireEditableCompany(c *fiber.Ctx) (*models.Company, error) {
	company, err := findCompanyBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Company not found",
			})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load company",
		})
	}

	user := middleware.GetCurrentUser(c)
	if user == nil || !user.CanEdit(company.ID) {
		return nil, c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have access to this company",
		})
	}

	return company, nil
}

// careersPayload is the public careers page response, cached per slug
type careersPayload struct {
	Company   models.Company          `json:"company"`
	Sections  []models.CompanySection `json:"sections"`
	Jobs      []models.Job            `json:"jobs"`
	Locations []string                `json:"locations"`
	Types     []string                `json:"types"`
}

// Careers returns the published careers page for a tenant: brand fields,
// ordered sections, and the job list with filters and facets. Draft state is
// never consulted here.
func (h *CompanyHandler) Careers(c *fiber.Ctx) error {
	slug := c.Params("slug")
	q := c.Query("q")
	location := c.Query("location")
	employmentType := c.Query("type")
	filtered := q != "" || location != "" || employmentType != ""

	// Unfiltered pages are hot and cacheable
	if !filtered {
		var cached careersPayload
		if err := database.CacheGet(database.CacheKeyCompany+slug, &cached); err == nil {
			return c.JSON(fiber.Map{"success": true, "data": cached})
		}
	}

	company, err := findCompanyBySlug(slug)
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

	var sections []models.CompanySection
	if err := database.DB.Where("company_id = ?", company.ID).
		Order("order_index").Find(&sections).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load sections",
		})
	}

	jobs, err := queryJobs(company.ID, q, location, employmentType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load jobs",
		})
	}

	locations, types, err := jobFacets(company.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load job facets",
		})
	}

	payload := careersPayload{
		Company:   *company,
		Sections:  sections,
		Jobs:      jobs,
		Locations: locations,
		Types:     types,
	}

	if !filtered {
		database.CacheSet(database.CacheKeyCompany+slug, payload, database.CacheTTLCompany)
	}

	return c.JSON(fiber.Map{"success": true, "data": payload})
}

// List returns all companies (admin)
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	var companies []models.Company
	if err := database.DB.Order("name").Find(&companies).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load companies",
		})
	}
	return c.JSON(fiber.Map{"success": true, "companies": companies})
}

// CompanyRequest is the create/update body for a company
type CompanyRequest struct {
	Slug            string `json:"slug"`
	Name            string `json:"name"`
	LogoURL         string `json:"logo_url"`
	BannerURL       string `json:"banner_url"`
	PrimaryColor    string `json:"primary_color"`
	CultureVideoURL string `json:"culture_video_url"`
}

// Create registers a new tenant (admin)
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var req CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Company name is required",
		})
	}

	slug := req.Slug
	if slug == "" {
		slug = models.Slugify(req.Name)
	}

	var existing models.Company
	if err := database.DB.Where("slug = ?", slug).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "A company with this slug already exists",
		})
	}

	company := models.Company{
		Slug:            slug,
		Name:            req.Name,
		LogoURL:         req.LogoURL,
		BannerURL:       req.BannerURL,
		PrimaryColor:    req.PrimaryColor,
		CultureVideoURL: req.CultureVideoURL,
	}
	if company.PrimaryColor == "" {
		company.PrimaryColor = "#3b82f6"
	}

	if err := database.DB.Create(&company).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create company",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"company": company,
	})
}

// Update edits a tenant's name and brand fields directly (admin). Editors go
// through the draft/publish flow instead.
func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	company, err := findCompanyBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Company not found",
		})
	}

	var req CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.LogoURL != "" {
		updates["logo_url"] = req.LogoURL
	}
	if req.BannerURL != "" {
		updates["banner_url"] = req.BannerURL
	}
	if req.PrimaryColor != "" {
		updates["primary_color"] = req.PrimaryColor
	}
	if req.CultureVideoURL != "" {
		updates["culture_video_url"] = req.CultureVideoURL
	}

	if len(updates) > 0 {
		if err := database.DB.Model(company).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to update company",
			})
		}
		database.InvalidateCompanyCache(company.Slug, company.ID)
	}

	return c.JSON(fiber.Map{"success": true, "company": company})
}

// Delete removes a tenant and its content (admin)
func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	company, err := findCompanyBySlug(c.Params("slug"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Company not found",
		})
	}

	// Content rows go first; stop before orphaning anything if they fail
	if err := database.DB.Where("company_id = ?", company.ID).Delete(&models.CompanySection{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete company sections",
		})
	}
	if err := database.DB.Where("company_id = ?", company.ID).Delete(&models.Job{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete company jobs",
		})
	}
	if err := database.DB.Delete(company).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to delete company",
		})
	}

	database.InvalidateCompanyCache(company.Slug, company.ID)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Company deleted",
	})
}
