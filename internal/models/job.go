package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Work policy values accepted by the jobs table
const (
	WorkPolicyRemote = "remote"
	WorkPolicyHybrid = "hybrid"
	WorkPolicyOnsite = "onsite"
)

// Employment type values accepted by the jobs table
const (
	EmploymentFullTime   = "full-time"
	EmploymentPartTime   = "part-time"
	EmploymentContract   = "contract"
	EmploymentInternship = "internship"
)

// Job represents a single job posting on a company's careers page
type Job struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	CompanyID      string    `gorm:"column:company_id;type:uuid;not null;index" json:"company_id"`
	Title          string    `gorm:"column:title;size:255;not null" json:"title"`
	WorkPolicy     string    `gorm:"column:work_policy;size:20" json:"work_policy"`
	Location       string    `gorm:"column:location;size:255" json:"location"`
	Department     string    `gorm:"column:department;size:255" json:"department"`
	EmploymentType string    `gorm:"column:employment_type;size:20" json:"employment_type"`
	JobType        string    `gorm:"column:job_type;size:100" json:"job_type"`
	SalaryRange    string    `gorm:"column:salary_range;size:100" json:"salary_range"`
	JobSlug        string    `gorm:"column:job_slug;size:255;uniqueIndex;not null" json:"job_slug"`
	PostedDaysAgo  int       `gorm:"column:posted_days_ago;default:0" json:"posted_days_ago"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

func (Job) TableName() string {
	return "jobs"
}

// NormalizeWorkPolicy coerces free-text input to one of the accepted work
// policy values, defaulting to remote.
func NormalizeWorkPolicy(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case WorkPolicyRemote, WorkPolicyHybrid, WorkPolicyOnsite:
		return v
	}
	switch {
	case strings.Contains(v, "remote"):
		return WorkPolicyRemote
	case strings.Contains(v, "hybrid"):
		return WorkPolicyHybrid
	case strings.Contains(v, "on"), strings.Contains(v, "site"):
		return WorkPolicyOnsite
	}
	return WorkPolicyRemote
}

// NormalizeEmploymentType coerces free-text input to one of the accepted
// employment types, defaulting to full-time.
func NormalizeEmploymentType(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch v {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		return v
	}
	switch {
	case strings.Contains(v, "full"):
		return EmploymentFullTime
	case strings.Contains(v, "part"):
		return EmploymentPartTime
	case strings.Contains(v, "contract"), strings.Contains(v, "temp"):
		return EmploymentContract
	case strings.Contains(v, "intern"):
		return EmploymentInternship
	}
	return EmploymentFullTime
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashes  = regexp.MustCompile(`-+`)
	digits      = regexp.MustCompile(`\d+`)
)

// Slugify produces a lowercase URL-safe slug from arbitrary text
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParsePostedDays extracts a non-negative day count from free-text input
// like "3 days ago"; missing or unparseable input yields 0.
func ParsePostedDays(raw string) int {
	m := digits.FindString(raw)
	if m == "" {
		return 0
	}
	n := 0
	for _, r := range m {
		n = n*10 + int(r-'0')
	}
	return n
}
