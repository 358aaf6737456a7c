package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careerforge/backend/internal/config"
	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/draft"
	"github.com/careerforge/backend/internal/handlers"
	applog "github.com/careerforge/backend/internal/logger"
	"github.com/careerforge/backend/internal/middleware"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if err := applog.Init(&applog.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: "careerforge-api",
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer applog.Sync()

	// Connect to database and Redis
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := models.AutoMigrate(database.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed admin user if not exists
	seedAdminUser()

	// Draft subsystem: Redis-backed store, reconciler, change broadcaster
	draftStore := draft.NewRedisStore(database.Redis, time.Duration(cfg.DraftTTLHours)*time.Hour)
	broadcaster := draft.NewBroadcaster(draftStore, database.Redis, time.Duration(cfg.DraftPollMillis)*time.Millisecond)
	reconciler := draft.NewReconciler(draftStore, draft.NewGormPublishedStore(database.DB))

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CareerForge API v1.0",
		ServerHeader: "CareerForge",
		BodyLimit:    10 * 1024 * 1024, // 10MB, enough for CSV imports
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(compress.New())
	app.Use(middleware.Logger())
	app.Use(middleware.Metrics())
	app.Use(middleware.CORS())
	app.Use(middleware.RouteGuard())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "careerforge-api",
		})
	})

	// Prometheus scrape endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())(c.Context())
		return nil
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	twoFAHandler := handlers.NewTwoFAHandler()
	companyHandler := handlers.NewCompanyHandler()
	jobHandler := handlers.NewJobHandler()
	draftHandler := handlers.NewDraftHandler(draftStore, broadcaster)
	previewHandler := handlers.NewPreviewHandler(draftStore, broadcaster)
	publishHandler := handlers.NewPublishHandler(reconciler, broadcaster)
	userHandler := handlers.NewUserHandler()

	// API routes
	api := app.Group("/api")

	// Apply rate limiting to API routes (100 requests per minute by default)
	api.Use(middleware.RateLimiter(100, 1*time.Minute))

	// Public routes
	api.Post("/auth/login", authHandler.Login)
	api.Get("/companies/:slug/careers", companyHandler.Careers)
	api.Get("/companies/:slug/jobs", jobHandler.List)
	api.Get("/jobs/:jobSlug", jobHandler.Get)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(cfg), middleware.AuditLogger())

	// Auth routes
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	// 2FA routes
	protected.Get("/auth/2fa/status", twoFAHandler.Status)
	protected.Post("/auth/2fa/setup", twoFAHandler.Setup)
	protected.Post("/auth/2fa/verify", twoFAHandler.Verify)
	protected.Post("/auth/2fa/disable", twoFAHandler.Disable)

	// Preview routes
	protected.Get("/preview", previewHandler.Get)
	protected.Get("/companies/:slug/preview/events", previewHandler.Events)

	// Draft routes
	protected.Get("/companies/:slug/draft", draftHandler.Get)
	protected.Put("/companies/:slug/draft", draftHandler.Save)
	protected.Delete("/companies/:slug/draft", draftHandler.Discard)
	protected.Post("/companies/:slug/publish", publishHandler.Publish)

	// Admin routes
	admin := protected.Group("", middleware.AdminOnly())
	admin.Get("/companies", companyHandler.List)
	admin.Post("/companies", companyHandler.Create)
	admin.Put("/companies/:slug", companyHandler.Update)
	admin.Delete("/companies/:slug", companyHandler.Delete)
	admin.Post("/jobs/import", jobHandler.Import)
	admin.Get("/users", userHandler.List)
	admin.Post("/users", userHandler.Create)
	admin.Put("/users/:id", userHandler.Update)
	admin.Delete("/users/:id", userHandler.Delete)
	admin.Get("/audit-logs", userHandler.AuditLogs)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		broadcaster.Close()
		app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf(":%d", cfg.APIPort)
	log.Printf("Starting CareerForge API server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func seedAdminUser() {
	var count int64
	database.DB.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&count)

	if count == 0 {
		log.Println("Creating default admin user...")

		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)

		admin := models.User{
			Email:    "admin@careerforge.local",
			Password: string(hashedPassword),
			FullName: "System Administrator",
			UserType: models.UserTypeAdmin,
			IsActive: true,
		}

		if err := database.DB.Create(&admin).Error; err != nil {
			log.Printf("Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created successfully (email: admin@careerforge.local, password: admin123)")
		}
	}
}
