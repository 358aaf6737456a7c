package draft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/careerforge/backend/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNoDraft means there is nothing staged for the company
	ErrNoDraft = errors.New("no draft to publish")
	// ErrPublishInFlight rejects a second publish while one is outstanding
	ErrPublishInFlight = errors.New("a publish for this company is already in progress")
)

// Result reports what a publish actually wrote
type Result struct {
	BrandFieldsChanged []string `json:"brand_fields_changed"`
	SectionsUpserted   int      `json:"sections_upserted"`
	SectionsDeleted    int      `json:"sections_deleted"`
	NothingToPublish   bool     `json:"nothing_to_publish"`
}

// Reconciler commits a draft against the published store: a field-level diff
// for the brand attributes and a set-difference upsert/delete for the section
// list. The two writes are independent; a partial failure leaves the store
// mixed and the draft intact so the caller can retry.
type Reconciler struct {
	drafts    Store
	published PublishedStore

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewReconciler(drafts Store, published PublishedStore) *Reconciler {
	return &Reconciler{
		drafts:    drafts,
		published: published,
		inFlight:  make(map[string]bool),
	}
}

// Publish reconciles the company's draft with its published state and clears
// the draft on full success. Only changed brand fields are written; an
// unchanged draft issues zero writes.
func (r *Reconciler) Publish(ctx context.Context, companyID string) (*Result, error) {
	r.mu.Lock()
	if r.inFlight[companyID] {
		r.mu.Unlock()
		return nil, ErrPublishInFlight
	}
	r.inFlight[companyID] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, companyID)
		r.mu.Unlock()
	}()

	snap, ok, err := r.drafts.Load(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return nil, ErrNoDraft
	}

	state, err := r.published.Load(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load published state: %w", err)
	}

	changes, changed := brandDiff(&state.Company, &snap.Company)
	desired := desiredSections(companyID, snap.Sections)
	deleted := missingSectionIDs(state.Sections, snap.Sections)
	sectionsDirty := sectionsChanged(state.Sections, desired)

	result := &Result{
		BrandFieldsChanged: changed,
		SectionsUpserted:   len(desired),
		SectionsDeleted:    len(deleted),
	}

	if len(changes) == 0 && !sectionsDirty {
		// Draft matches published state: no writes, just drop the draft
		result.NothingToPublish = true
		result.SectionsUpserted = 0
		if err := r.drafts.Clear(ctx, companyID); err != nil {
			return nil, fmt.Errorf("clear draft: %w", err)
		}
		return result, nil
	}

	if len(changes) > 0 {
		if err := r.published.UpdateBrand(ctx, companyID, changes); err != nil {
			return nil, fmt.Errorf("brand update failed: %w", err)
		}
	}

	if sectionsDirty {
		if err := r.published.DeleteSections(ctx, companyID, deleted); err != nil {
			return nil, fmt.Errorf("section delete failed: %w", err)
		}
		if err := r.published.UpsertSections(ctx, desired); err != nil {
			return nil, fmt.Errorf("section upsert failed: %w", err)
		}
	} else {
		result.SectionsUpserted = 0
		result.SectionsDeleted = 0
	}

	if err := r.drafts.Clear(ctx, companyID); err != nil {
		return nil, fmt.Errorf("published but failed to clear draft: %w", err)
	}

	return result, nil
}

// brandDiff returns a column map holding only the brand fields that differ
// between the published row and the draft, plus the changed field names.
func brandDiff(published *models.Company, d *BrandDraft) (map[string]interface{}, []string) {
	changes := make(map[string]interface{})
	var changed []string

	if d.LogoURL != published.LogoURL {
		changes["logo_url"] = d.LogoURL
		changed = append(changed, "logo_url")
	}
	if d.BannerURL != published.BannerURL {
		changes["banner_url"] = d.BannerURL
		changed = append(changed, "banner_url")
	}
	if d.PrimaryColor != published.PrimaryColor {
		changes["primary_color"] = d.PrimaryColor
		changed = append(changed, "primary_color")
	}
	if d.CultureVideoURL != published.CultureVideoURL {
		changes["culture_video_url"] = d.CultureVideoURL
		changed = append(changed, "culture_video_url")
	}

	return changes, changed
}

// desiredSections turns the draft list into persistable rows: array position
// becomes the order index (closing any gaps left by deletes or reorders) and
// never-published sections get fresh ids.
func desiredSections(companyID string, drafts []SectionDraft) []models.CompanySection {
	now := time.Now().UTC()
	sections := make([]models.CompanySection, len(drafts))
	for i, d := range drafts {
		id := d.ID
		if id == "" {
			id = uuid.NewString()
		}
		sections[i] = models.CompanySection{
			ID:         id,
			CompanyID:  companyID,
			Type:       d.Type,
			Title:      d.Title,
			Content:    d.Content,
			ImageURL:   d.ImageURL,
			OrderIndex: i,
			UpdatedAt:  now,
		}
	}
	return sections
}

// missingSectionIDs returns published section ids absent from the draft
func missingSectionIDs(published []models.CompanySection, drafts []SectionDraft) []string {
	keep := make(map[string]struct{}, len(drafts))
	for _, d := range drafts {
		if d.ID != "" {
			keep[d.ID] = struct{}{}
		}
	}
	var missing []string
	for _, p := range published {
		if _, ok := keep[p.ID]; !ok {
			missing = append(missing, p.ID)
		}
	}
	return missing
}

// sectionsChanged reports whether the desired list differs from the
// published list in membership, order, or content.
func sectionsChanged(published, desired []models.CompanySection) bool {
	if len(published) != len(desired) {
		return true
	}
	for i, d := range desired {
		p := published[i]
		if p.ID != d.ID || p.Type != d.Type || p.Title != d.Title ||
			p.Content != d.Content || p.ImageURL != d.ImageURL || p.OrderIndex != d.OrderIndex {
			return true
		}
	}
	return false
}
