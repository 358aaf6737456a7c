package draft

import (
	"context"
	"testing"

	"github.com/careerforge/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	snap := &Snapshot{
		Company: BrandDraft{PrimaryColor: "#ff0000"},
		Sections: []SectionDraft{
			{Type: models.SectionTypeAbout, Title: "About"},
		},
	}
	require.NoError(t, store.Save(ctx, "c1", snap))

	loaded, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "#ff0000", loaded.Company.PrimaryColor)
	require.Len(t, loaded.Sections, 1)
	assert.Equal(t, "About", loaded.Sections[0].Title)
	assert.False(t, loaded.SavedAt.IsZero(), "save stamps the snapshot")
}

func TestMemoryStoreSaveReplacesWholeSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first := &Snapshot{
		Company: BrandDraft{LogoURL: "https://cdn.test/logo.png", PrimaryColor: "#ff0000"},
		Sections: []SectionDraft{
			{Type: models.SectionTypeAbout, Title: "About"},
			{Type: models.SectionTypeCulture, Title: "Culture"},
		},
	}
	require.NoError(t, store.Save(ctx, "c1", first))

	// Second save carries no logo and fewer sections; nothing merges over
	second := &Snapshot{
		Company:  BrandDraft{PrimaryColor: "#00ff00"},
		Sections: []SectionDraft{{Type: models.SectionTypeValues, Title: "Values"}},
	}
	require.NoError(t, store.Save(ctx, "c1", second))

	loaded, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, loaded.Company.LogoURL)
	assert.Equal(t, "#00ff00", loaded.Company.PrimaryColor)
	require.Len(t, loaded.Sections, 1)
	assert.Equal(t, "Values", loaded.Sections[0].Title)
}

func TestMemoryStoreClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "c1", &Snapshot{}))
	require.NoError(t, store.Clear(ctx, "c1"))

	_, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Clearing again is a no-op, not an error
	require.NoError(t, store.Clear(ctx, "c1"))
}

func TestMemoryStoreCorruptDataReadsAsNoDraft(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	store.mu.Lock()
	store.drafts["c1"] = []byte("{not json")
	store.mu.Unlock()

	_, ok, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreIsolatesCompanies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "c1", &Snapshot{Company: BrandDraft{PrimaryColor: "#111111"}}))
	require.NoError(t, store.Save(ctx, "c2", &Snapshot{Company: BrandDraft{PrimaryColor: "#222222"}}))
	require.NoError(t, store.Clear(ctx, "c1"))

	_, ok, _ := store.Load(ctx, "c1")
	assert.False(t, ok)
	loaded, ok, _ := store.Load(ctx, "c2")
	require.True(t, ok)
	assert.Equal(t, "#222222", loaded.Company.PrimaryColor)
}
