package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/careerforge/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePublished records every write issued by the reconciler
type fakePublished struct {
	state *PublishedState

	brandUpdates []map[string]interface{}
	upserts      [][]models.CompanySection
	deletes      [][]string

	updateErr error
	upsertErr error
	deleteErr error
}

func (f *fakePublished) Load(ctx context.Context, companyID string) (*PublishedState, error) {
	if f.state == nil {
		return nil, ErrCompanyNotFound
	}
	return f.state, nil
}

func (f *fakePublished) UpdateBrand(ctx context.Context, companyID string, changes map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.brandUpdates = append(f.brandUpdates, changes)
	return nil
}

func (f *fakePublished) UpsertSections(ctx context.Context, sections []models.CompanySection) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, sections)
	return nil
}

func (f *fakePublished) DeleteSections(ctx context.Context, companyID string, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if len(ids) > 0 {
		f.deletes = append(f.deletes, ids)
	}
	return nil
}

func publishedFixture() *PublishedState {
	return &PublishedState{
		Company: models.Company{
			ID:           "c1",
			Slug:         "acme",
			Name:         "Acme",
			LogoURL:      "https://cdn.acme.test/logo.png",
			PrimaryColor: "#3b82f6",
		},
		Sections: []models.CompanySection{
			{ID: "s-a", CompanyID: "c1", Type: models.SectionTypeAbout, Title: "About", OrderIndex: 0},
			{ID: "s-b", CompanyID: "c1", Type: models.SectionTypeCulture, Title: "Culture", OrderIndex: 1},
			{ID: "s-c", CompanyID: "c1", Type: models.SectionTypeValues, Title: "Values", OrderIndex: 2},
		},
	}
}

// sectionsAsDrafts mirrors the published sections into draft form, unchanged
func sectionsAsDrafts(sections []models.CompanySection) []SectionDraft {
	drafts := make([]SectionDraft, len(sections))
	for i, s := range sections {
		drafts[i] = SectionDraft{ID: s.ID, Type: s.Type, Title: s.Title, Content: s.Content, ImageURL: s.ImageURL}
	}
	return drafts
}

func brandAsDraft(c models.Company) BrandDraft {
	return BrandDraft{
		LogoURL:         c.LogoURL,
		BannerURL:       c.BannerURL,
		PrimaryColor:    c.PrimaryColor,
		CultureVideoURL: c.CultureVideoURL,
	}
}

func TestPublishWithoutDraft(t *testing.T) {
	store := NewMemoryStore()
	r := NewReconciler(store, &fakePublished{state: publishedFixture()})

	_, err := r.Publish(context.Background(), "c1")
	require.ErrorIs(t, err, ErrNoDraft)
}

func TestPublishBrandDiffIsFieldLevel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{state: publishedFixture()}
	r := NewReconciler(store, published)

	snap := &Snapshot{
		Company:  brandAsDraft(published.state.Company),
		Sections: sectionsAsDrafts(published.state.Sections),
	}
	snap.Company.LogoURL = "https://cdn.acme.test/logo-v2.png"
	require.NoError(t, store.Save(ctx, "c1", snap))

	result, err := r.Publish(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, []string{"logo_url"}, result.BrandFieldsChanged)
	require.Len(t, published.brandUpdates, 1)
	assert.Equal(t, map[string]interface{}{"logo_url": "https://cdn.acme.test/logo-v2.png"}, published.brandUpdates[0])

	// Sections were identical, so the section writer stays untouched
	assert.Empty(t, published.upserts)
	assert.Empty(t, published.deletes)
	assert.Zero(t, result.SectionsUpserted)
	assert.Zero(t, result.SectionsDeleted)

	_, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok, "draft should be cleared after a successful publish")
}

func TestPublishIdenticalDraftIssuesNoWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{state: publishedFixture()}
	r := NewReconciler(store, published)

	snap := &Snapshot{
		Company:  brandAsDraft(published.state.Company),
		Sections: sectionsAsDrafts(published.state.Sections),
	}
	require.NoError(t, store.Save(ctx, "c1", snap))

	result, err := r.Publish(ctx, "c1")
	require.NoError(t, err)

	assert.True(t, result.NothingToPublish)
	assert.Empty(t, published.brandUpdates)
	assert.Empty(t, published.upserts)
	assert.Empty(t, published.deletes)

	_, ok, _ := store.Load(ctx, "c1")
	assert.False(t, ok, "a no-op publish still consumes the draft")
}

func TestPublishDeletesMissingSections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{state: publishedFixture()}
	r := NewReconciler(store, published)

	// Drop the middle section: {A,B,C} -> {A,C}
	drafts := sectionsAsDrafts(published.state.Sections)
	snap := &Snapshot{
		Company:  brandAsDraft(published.state.Company),
		Sections: []SectionDraft{drafts[0], drafts[2]},
	}
	require.NoError(t, store.Save(ctx, "c1", snap))

	result, err := r.Publish(ctx, "c1")
	require.NoError(t, err)

	require.Len(t, published.deletes, 1)
	assert.Equal(t, []string{"s-b"}, published.deletes[0])
	assert.Equal(t, 1, result.SectionsDeleted)

	// Survivors come back with dense zero-based indices
	require.Len(t, published.upserts, 1)
	upserted := published.upserts[0]
	require.Len(t, upserted, 2)
	assert.Equal(t, "s-a", upserted[0].ID)
	assert.Equal(t, 0, upserted[0].OrderIndex)
	assert.Equal(t, "s-c", upserted[1].ID)
	assert.Equal(t, 1, upserted[1].OrderIndex)
}

func TestPublishAssignsIDsToNewSections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{state: publishedFixture()}
	r := NewReconciler(store, published)

	drafts := sectionsAsDrafts(published.state.Sections)
	drafts = append(drafts, SectionDraft{Type: models.SectionTypeBenefits, Title: "Benefits"})
	snap := &Snapshot{Company: brandAsDraft(published.state.Company), Sections: drafts}
	require.NoError(t, store.Save(ctx, "c1", snap))

	_, err := r.Publish(ctx, "c1")
	require.NoError(t, err)

	require.Len(t, published.upserts, 1)
	upserted := published.upserts[0]
	require.Len(t, upserted, 4)
	assert.NotEmpty(t, upserted[3].ID, "new section gets a generated id")
	assert.Equal(t, 3, upserted[3].OrderIndex)
	assert.Empty(t, published.deletes)
}

func TestPublishReorderAndEdit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{state: publishedFixture()}
	r := NewReconciler(store, published)

	// Reorder to C,A,B, retitle A, and set a banner
	drafts := sectionsAsDrafts(published.state.Sections)
	reordered := []SectionDraft{drafts[2], drafts[0], drafts[1]}
	reordered[1].Title = "Who we are"
	snap := &Snapshot{Company: brandAsDraft(published.state.Company), Sections: reordered}
	snap.Company.BannerURL = "https://cdn.acme.test/banner.png"
	require.NoError(t, store.Save(ctx, "c1", snap))

	result, err := r.Publish(ctx, "c1")
	require.NoError(t, err)

	assert.Equal(t, []string{"banner_url"}, result.BrandFieldsChanged)

	require.Len(t, published.upserts, 1)
	upserted := published.upserts[0]
	require.Len(t, upserted, 3)
	assert.Equal(t, "s-c", upserted[0].ID)
	assert.Equal(t, "s-a", upserted[1].ID)
	assert.Equal(t, "Who we are", upserted[1].Title)
	assert.Equal(t, "s-b", upserted[2].ID)
	for i, s := range upserted {
		assert.Equal(t, i, s.OrderIndex)
	}
	assert.Empty(t, published.deletes)
}

func TestPublishPartialFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	published := &fakePublished{
		state:     publishedFixture(),
		upsertErr: errors.New("connection reset"),
	}
	r := NewReconciler(store, published)

	drafts := sectionsAsDrafts(published.state.Sections)
	snap := &Snapshot{
		Company:  brandAsDraft(published.state.Company),
		Sections: []SectionDraft{drafts[0]},
	}
	snap.Company.PrimaryColor = "#111111"
	require.NoError(t, store.Save(ctx, "c1", snap))

	_, err := r.Publish(ctx, "c1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")

	// The brand half already landed; the draft survives for a retry
	assert.Len(t, published.brandUpdates, 1)
	_, ok, _ := store.Load(ctx, "c1")
	assert.True(t, ok, "draft must remain after a partial failure")
}

func TestPublishRejectsConcurrentAttempt(t *testing.T) {
	store := NewMemoryStore()
	r := NewReconciler(store, &fakePublished{state: publishedFixture()})

	r.mu.Lock()
	r.inFlight["c1"] = true
	r.mu.Unlock()

	_, err := r.Publish(context.Background(), "c1")
	require.ErrorIs(t, err, ErrPublishInFlight)
}
