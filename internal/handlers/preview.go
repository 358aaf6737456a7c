package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/draft"
	"github.com/careerforge/backend/internal/metrics"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"
)

type PreviewHandler struct {
	store       draft.Store
	broadcaster *draft.Broadcaster
}

func NewPreviewHandler(store draft.Store, broadcaster *draft.Broadcaster) *PreviewHandler {
	return &PreviewHandler{store: store, broadcaster: broadcaster}
}

// previewPayload is what the preview renderer consumes
type previewPayload struct {
	Company   models.Company          `json:"company"`
	Sections  []models.CompanySection `json:"sections"`
	IsPreview bool                    `json:"isPreview"`
}

// Get resolves the preview state for a tenant: cookie mirror first, then the
// draft store, then the published rows. Corrupt cookie or draft data falls
// through silently to the next source.
func (h *PreviewHandler) Get(c *fiber.Ctx) error {
	slug := c.Query("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "slug query parameter is required",
		})
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

	snap := h.resolveDraft(c, slug, company.ID)

	payload := previewPayload{Company: *company}

	if snap == nil {
		// No draft anywhere: serve the published page
		var sections []models.CompanySection
		if err := database.DB.Where("company_id = ?", company.ID).
			Order("order_index").Find(&sections).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to load sections",
			})
		}
		payload.Sections = sections
		return c.JSON(fiber.Map{"success": true, "data": payload})
	}

	applySnapshot(&payload, snap)
	payload.IsPreview = true
	return c.JSON(fiber.Map{"success": true, "data": payload})
}

// resolveDraft finds the freshest draft for a tenant: the cookie mirror set
// by the editor's own browser wins, then the shared store. Nil means no
// draft anywhere and the published page should be served.
func (h *PreviewHandler) resolveDraft(c *fiber.Ctx, slug, companyID string) *draft.Snapshot {
	if snap := snapshotFromCookie(c, slug); snap != nil {
		return snap
	}
	if stored, ok, err := h.store.Load(c.Context(), companyID); err == nil && ok {
		return stored
	}
	return nil
}

// snapshotFromCookie reads the per-tenant cookie mirror, reversing the URL
// encoding applied on write; unparseable data is treated as absent.
func snapshotFromCookie(c *fiber.Ctx, slug string) *draft.Snapshot {
	raw := c.Cookies(previewCookieName(slug))
	if raw == "" {
		return nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	var snap draft.Snapshot
	if err := json.Unmarshal([]byte(decoded), &snap); err != nil {
		return nil
	}
	return &snap
}

// applySnapshot overlays the draft onto the payload: brand fields replace the
// published values and the section list is rendered in draft order.
func applySnapshot(p *previewPayload, snap *draft.Snapshot) {
	p.Company.LogoURL = snap.Company.LogoURL
	p.Company.BannerURL = snap.Company.BannerURL
	p.Company.PrimaryColor = snap.Company.PrimaryColor
	p.Company.CultureVideoURL = snap.Company.CultureVideoURL

	p.Sections = make([]models.CompanySection, len(snap.Sections))
	for i, s := range snap.Sections {
		p.Sections[i] = models.CompanySection{
			ID:         s.ID,
			CompanyID:  p.Company.ID,
			Type:       s.Type,
			Title:      s.Title,
			Content:    s.Content,
			ImageURL:   s.ImageURL,
			OrderIndex: i,
		}
	}
}

// Events streams draft snapshots for a tenant as server-sent events. The
// current state is sent first so a fresh subscriber renders immediately;
// afterwards each fingerprint-distinct change arrives as one event.
func (h *PreviewHandler) Events(c *fiber.Ctx) error {
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

	var initial *draft.Snapshot
	if snap, ok, err := h.store.Load(c.Context(), company.ID); err == nil && ok {
		initial = snap
	}

	ch := h.broadcaster.Subscribe(company.ID)
	companyID := company.ID

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	metrics.PreviewStreams.Inc()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer metrics.PreviewStreams.Dec()
		defer h.broadcaster.Unsubscribe(companyID, ch)

		if err := writeSSE(w, draft.Event{CompanyID: companyID, Snapshot: initial}); err != nil {
			return
		}

		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
			case <-heartbeat.C:
				// Comment frame doubles as a disconnect probe
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeSSE(w *bufio.Writer, ev draft.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: " + string(data) + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
