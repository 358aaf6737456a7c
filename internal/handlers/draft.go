package handlers

import (
	"encoding/json"
	"net/url"

	"github.com/careerforge/backend/internal/draft"
	"github.com/careerforge/backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// previewCookieName mirrors the draft into a per-tenant cookie so the
// preview lookup can serve the freshest state even before the store is hit.
func previewCookieName(slug string) string {
	return "preview_" + slug
}

// setPreviewMirror writes the snapshot into the per-tenant cookie. The JSON
// is URL-encoded: raw JSON carries quotes and commas, which cookie values
// cannot, so an unencoded mirror would never survive a client round trip.
func setPreviewMirror(c *fiber.Ctx, slug string, snap *draft.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	c.Cookie(&fiber.Cookie{
		Name:     previewCookieName(slug),
		Value:    url.QueryEscape(string(data)),
		Path:     "/",
		MaxAge:   24 * 3600,
		SameSite: "Lax",
	})
}

func clearPreviewMirror(c *fiber.Ctx, slug string) {
	c.Cookie(&fiber.Cookie{
		Name:     previewCookieName(slug),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: "Lax",
	})
}

type DraftHandler struct {
	store       draft.Store
	broadcaster *draft.Broadcaster
}

func NewDraftHandler(store draft.Store, broadcaster *draft.Broadcaster) *DraftHandler {
	return &DraftHandler{store: store, broadcaster: broadcaster}
}

// Get returns the company's current draft snapshot, if any
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	company, err := requireEditableCompany(c)
	if company == nil {
		return err
	}

	snap, ok, err := h.store.Load(c.Context(), company.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to load draft",
		})
	}
	if !ok {
		return c.JSON(fiber.Map{"success": true, "exists": false})
	}

	return c.JSON(fiber.Map{"success": true, "exists": true, "draft": snap})
}

// Save replaces the company's draft with the posted snapshot. Saves are
// whole-snapshot; there is no merge with what was stored before.
func (h *DraftHandler) Save(c *fiber.Ctx) error {
	company, err := requireEditableCompany(c)
	if company == nil {
		return err
	}

	var snap draft.Snapshot
	if err := json.Unmarshal(c.Body(), &snap); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid draft payload",
		})
	}

	if err := snap.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	if err := h.store.Save(c.Context(), company.ID, &snap); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to save draft",
		})
	}
	metrics.DraftSaves.Inc()

	// Cookie mirror for the preview lookup
	setPreviewMirror(c, company.Slug, &snap)

	h.broadcaster.Publish(c.Context(), draft.Event{CompanyID: company.ID, Snapshot: &snap})

	return c.JSON(fiber.Map{"success": true, "draft": snap})
}

// Discard drops the company's draft. Discarding when no draft exists is a
// successful no-op.
func (h *DraftHandler) Discard(c *fiber.Ctx) error {
	company, err := requireEditableCompany(c)
	if company == nil {
		return err
	}

	if err := h.store.Clear(c.Context(), company.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to discard draft",
		})
	}
	metrics.DraftDiscards.Inc()

	clearPreviewMirror(c, company.Slug)

	h.broadcaster.Publish(c.Context(), draft.Event{CompanyID: company.ID, Snapshot: nil})

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Draft discarded",
	})
}
