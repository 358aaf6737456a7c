package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SectionType represents the kind of content block on a careers page
type SectionType int

const (
	SectionTypeAbout SectionType = iota + 1
	SectionTypeCulture
	SectionTypeValues
	SectionTypeBenefits
	SectionTypeTeam
)

// MarshalJSON converts SectionType to string for JSON
func (st SectionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(st.String())
}

func (st SectionType) String() string {
	switch st {
	case SectionTypeAbout:
		return "about"
	case SectionTypeCulture:
		return "culture"
	case SectionTypeValues:
		return "values"
	case SectionTypeBenefits:
		return "benefits"
	case SectionTypeTeam:
		return "team"
	default:
		return "about"
	}
}

// UnmarshalJSON converts string back to SectionType for JSON parsing
func (st *SectionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*st = SectionType(i)
		return nil
	}
	*st = ParseSectionType(s)
	return nil
}

// ParseSectionType maps a string tag to a SectionType, defaulting to "about"
func ParseSectionType(s string) SectionType {
	switch s {
	case "culture":
		return SectionTypeCulture
	case "values":
		return SectionTypeValues
	case "benefits":
		return SectionTypeBenefits
	case "team":
		return SectionTypeTeam
	default:
		return SectionTypeAbout
	}
}

// Company represents a tenant of the careers-page builder
type Company struct {
	ID              string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Slug            string    `gorm:"column:slug;size:100;uniqueIndex;not null" json:"slug"`
	Name            string    `gorm:"column:name;size:255;not null" json:"name"`
	LogoURL         string    `gorm:"column:logo_url;size:500" json:"logo_url"`
	BannerURL       string    `gorm:"column:banner_url;size:500" json:"banner_url"`
	PrimaryColor    string    `gorm:"column:primary_color;size:20;not null;default:#3b82f6" json:"primary_color"`
	CultureVideoURL string    `gorm:"column:culture_video_url;size:500" json:"culture_video_url"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CompanySection represents one ordered content block of a careers page.
// Order indices within a company are dense and zero-based after every
// successful publish.
type CompanySection struct {
	ID         string      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID  string      `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	Type       SectionType `gorm:"column:type;default:1" json:"type"`
	Title      string      `gorm:"column:title;size:255;not null" json:"title"`
	Content    string      `gorm:"column:content;type:text" json:"content"`
	ImageURL   string      `gorm:"column:image_url;size:500" json:"image_url"`
	OrderIndex int         `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt  time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"column:updated_at" json:"updated_at"`
}

func (s *CompanySection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (Company) TableName() string {
	return "companies"
}

func (CompanySection) TableName() string {
	return "company_sections"
}
