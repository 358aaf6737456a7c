package draft

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/careerforge/backend/internal/models"
)

// BrandDraft holds the editable brand fields of a company. Empty string
// means "cleared", matching the published columns.
type BrandDraft struct {
	LogoURL         string `json:"logo_url"`
	BannerURL       string `json:"banner_url"`
	PrimaryColor    string `json:"primary_color"`
	CultureVideoURL string `json:"culture_video_url"`
}

// SectionDraft is one content block in draft order. ID is empty for
// sections that have never been published.
type SectionDraft struct {
	ID       string             `json:"id,omitempty"`
	Type     models.SectionType `json:"type"`
	Title    string             `json:"title"`
	Content  string             `json:"content"`
	ImageURL string             `json:"image_url"`
}

// Snapshot is the unpublished state of a company's careers page: partial
// brand fields plus the full ordered section list. Every save replaces the
// whole snapshot; there is no field-level merge across saves.
type Snapshot struct {
	Company  BrandDraft     `json:"company"`
	Sections []SectionDraft `json:"sections"`
	SavedAt  time.Time      `json:"saved_at,omitempty"`
}

// Fingerprint returns a canonical serialization of the snapshot content,
// excluding the save timestamp. Observers compare fingerprints to suppress
// redundant re-renders.
func (s *Snapshot) Fingerprint() string {
	if s == nil {
		return ""
	}
	content := struct {
		Company  BrandDraft     `json:"company"`
		Sections []SectionDraft `json:"sections"`
	}{s.Company, s.Sections}
	data, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	return string(data)
}

// Validate rejects malformed brand fields before any persistence is
// attempted: URL fields must be empty or http(s), the primary color must be
// a #-prefixed string.
func (s *Snapshot) Validate() error {
	if s.Company.PrimaryColor != "" && !strings.HasPrefix(s.Company.PrimaryColor, "#") {
		return fmt.Errorf("primary_color must be a #-prefixed hex string")
	}
	urls := map[string]string{
		"logo_url":          s.Company.LogoURL,
		"banner_url":        s.Company.BannerURL,
		"culture_video_url": s.Company.CultureVideoURL,
	}
	for field, raw := range urls {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be a valid http(s) URL", field)
		}
	}
	for i, sec := range s.Sections {
		if strings.TrimSpace(sec.Title) == "" {
			return fmt.Errorf("section %d is missing a title", i)
		}
	}
	return nil
}
