package handlers

import (
	"errors"

	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/draft"
	applog "github.com/careerforge/backend/internal/logger"
	"github.com/careerforge/backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PublishHandler struct {
	reconciler  *draft.Reconciler
	broadcaster *draft.Broadcaster
}

func NewPublishHandler(reconciler *draft.Reconciler, broadcaster *draft.Broadcaster) *PublishHandler {
	return &PublishHandler{reconciler: reconciler, broadcaster: broadcaster}
}

// Publish commits the company's draft to the published rows. One publish per
// tenant at a time; a concurrent attempt gets a 409. A failed publish leaves
// the draft in place so the editor can retry.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	company, err := requireEditableCompany(c)
	if company == nil {
		return err
	}

	result, err := h.reconciler.Publish(c.Context(), company.ID)
	if err != nil {
		switch {
		case errors.Is(err, draft.ErrNoDraft):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Nothing to publish",
			})
		case errors.Is(err, draft.ErrPublishInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"success": false,
				"message": "A publish for this company is already in progress",
			})
		default:
			metrics.Publishes.WithLabelValues("failure").Inc()
			applog.Get().Error("publish failed",
				zap.String("company_id", company.ID),
				zap.String("slug", company.Slug),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Publish failed: " + err.Error(),
			})
		}
	}

	outcome := "success"
	if result.NothingToPublish {
		outcome = "noop"
	}
	metrics.Publishes.WithLabelValues(outcome).Inc()

	// Draft is gone: drop the cookie mirror and tell every preview
	clearPreviewMirror(c, company.Slug)
	h.broadcaster.Publish(c.Context(), draft.Event{CompanyID: company.ID, Snapshot: nil})

	database.InvalidateCompanyCache(company.Slug, company.ID)

	applog.Get().Info("draft published",
		zap.String("company_id", company.ID),
		zap.String("slug", company.Slug),
		zap.Strings("brand_fields", result.BrandFieldsChanged),
		zap.Int("sections_upserted", result.SectionsUpserted),
		zap.Int("sections_deleted", result.SectionsDeleted),
		zap.Bool("noop", result.NothingToPublish),
	)

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
