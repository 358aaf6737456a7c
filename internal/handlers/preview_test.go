package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/careerforge/backend/internal/draft"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftFixture(color string) *draft.Snapshot {
	return &draft.Snapshot{
		Company: draft.BrandDraft{
			LogoURL:      "https://cdn.acme.test/logo-draft.png",
			PrimaryColor: color,
		},
		Sections: []draft.SectionDraft{
			{ID: "s-b", Type: models.SectionTypeCulture, Title: "Culture, remixed"},
			{ID: "s-a", Type: models.SectionTypeAbout, Title: "About"},
		},
	}
}

type resolveResponse struct {
	Exists   bool            `json:"exists"`
	Snapshot *draft.Snapshot `json:"snapshot"`
}

// previewTestApp exposes the draft resolution chain over test routes: /set
// writes the cookie mirror the way a draft save does, /resolve runs the
// cookie-then-store lookup the preview endpoint uses.
func previewTestApp(h *PreviewHandler, slug, companyID string, mirrored *draft.Snapshot) *fiber.App {
	app := fiber.New()
	app.Get("/set", func(c *fiber.Ctx) error {
		setPreviewMirror(c, slug, mirrored)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/resolve", func(c *fiber.Ctx) error {
		snap := h.resolveDraft(c, slug, companyID)
		return c.JSON(resolveResponse{Exists: snap != nil, Snapshot: snap})
	})
	return app
}

func resolveWith(t *testing.T, app *fiber.App, cookies []*http.Cookie) resolveResponse {
	t.Helper()
	req := httptest.NewRequest("GET", "/resolve", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out resolveResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestPreviewCookieMirrorSurvivesClientRoundTrip(t *testing.T) {
	store := draft.NewMemoryStore()
	h := NewPreviewHandler(store, nil)
	snap := draftFixture("#ff0000")
	app := previewTestApp(h, "acme", "c1", snap)

	// Save-side: the mirror is written as a Set-Cookie header
	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "preview_acme", cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value, "mirror must survive standard cookie parsing")

	// Client-side: the value a compliant client echoes back must resolve
	out := resolveWith(t, app, cookies)
	require.True(t, out.Exists)
	require.NotNil(t, out.Snapshot)
	assert.Equal(t, "#ff0000", out.Snapshot.Company.PrimaryColor)
	require.Len(t, out.Snapshot.Sections, 2)
	assert.Equal(t, "Culture, remixed", out.Snapshot.Sections[0].Title)
}

func TestResolveDraftPrefersCookieOverStore(t *testing.T) {
	store := draft.NewMemoryStore()
	h := NewPreviewHandler(store, nil)
	cookieSnap := draftFixture("#ff0000")
	app := previewTestApp(h, "acme", "c1", cookieSnap)

	// The shared store holds an older state
	require.NoError(t, store.Save(context.Background(), "c1", draftFixture("#00ff00")))

	resp, err := app.Test(httptest.NewRequest("GET", "/set", nil))
	require.NoError(t, err)

	out := resolveWith(t, app, resp.Cookies())
	require.True(t, out.Exists)
	assert.Equal(t, "#ff0000", out.Snapshot.Company.PrimaryColor, "cookie mirror wins over the store")
}

func TestResolveDraftCorruptCookieFallsThroughToStore(t *testing.T) {
	store := draft.NewMemoryStore()
	h := NewPreviewHandler(store, nil)
	app := previewTestApp(h, "acme", "c1", nil)

	require.NoError(t, store.Save(context.Background(), "c1", draftFixture("#00ff00")))

	out := resolveWith(t, app, []*http.Cookie{{Name: "preview_acme", Value: "not-json-at-all"}})
	require.True(t, out.Exists)
	assert.Equal(t, "#00ff00", out.Snapshot.Company.PrimaryColor, "corrupt cookie falls through silently")
}

func TestResolveDraftEmptyEverywhere(t *testing.T) {
	store := draft.NewMemoryStore()
	h := NewPreviewHandler(store, nil)
	app := previewTestApp(h, "acme", "c1", nil)

	out := resolveWith(t, app, nil)
	assert.False(t, out.Exists, "no cookie and no store draft means published state")
}

func TestApplySnapshotOverlaysBrandAndSections(t *testing.T) {
	payload := previewPayload{
		Company: models.Company{
			ID:              "c1",
			Slug:            "acme",
			Name:            "Acme",
			LogoURL:         "https://cdn.acme.test/logo-live.png",
			BannerURL:       "https://cdn.acme.test/banner-live.png",
			PrimaryColor:    "#3b82f6",
			CultureVideoURL: "https://video.acme.test/live",
		},
	}

	applySnapshot(&payload, draftFixture("#ff0000"))

	// Draft brand fields replace the published values wholesale
	assert.Equal(t, "https://cdn.acme.test/logo-draft.png", payload.Company.LogoURL)
	assert.Equal(t, "#ff0000", payload.Company.PrimaryColor)
	assert.Empty(t, payload.Company.BannerURL)
	assert.Empty(t, payload.Company.CultureVideoURL)

	// Sections render in draft order with dense indices
	require.Len(t, payload.Sections, 2)
	assert.Equal(t, "s-b", payload.Sections[0].ID)
	assert.Equal(t, 0, payload.Sections[0].OrderIndex)
	assert.Equal(t, "s-a", payload.Sections[1].ID)
	assert.Equal(t, 1, payload.Sections[1].OrderIndex)
	assert.Equal(t, "c1", payload.Sections[0].CompanyID)

	// Identity fields are untouched
	assert.Equal(t, "Acme", payload.Company.Name)
}
