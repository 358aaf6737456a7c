package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWorkPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"remote", WorkPolicyRemote},
		{"Remote", WorkPolicyRemote},
		{"  HYBRID ", WorkPolicyHybrid},
		{"onsite", WorkPolicyOnsite},
		{"on-site", WorkPolicyOnsite},
		{"In Office / On Site", WorkPolicyOnsite},
		{"fully remote", WorkPolicyRemote},
		{"hybrid (3 days)", WorkPolicyHybrid},
		{"", WorkPolicyRemote},
		{"whatever", WorkPolicyRemote},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeWorkPolicy(tt.in))
		})
	}
}

func TestNormalizeEmploymentType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"full-time", EmploymentFullTime},
		{"Full Time", EmploymentFullTime},
		{"part time", EmploymentPartTime},
		{"CONTRACT", EmploymentContract},
		{"temporary", EmploymentContract},
		{"Internship", EmploymentInternship},
		{"summer intern", EmploymentInternship},
		{"", EmploymentFullTime},
		{"permanent", EmploymentFullTime},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeEmploymentType(tt.in))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Senior Software Engineer", "senior-software-engineer"},
		{"  C++ Developer (Remote)  ", "c-developer-remote"},
		{"Head of People & Culture", "head-of-people-culture"},
		{"---", ""},
		{"Data Engineer 2", "data-engineer-2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestParsePostedDays(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"3 days ago", 3},
		{"posted 14 days ago", 14},
		{"today", 0},
		{"", 0},
		{"7", 7},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePostedDays(tt.in))
		})
	}
}

func TestParseSectionType(t *testing.T) {
	assert.Equal(t, SectionTypeCulture, ParseSectionType("culture"))
	assert.Equal(t, SectionTypeBenefits, ParseSectionType("benefits"))
	assert.Equal(t, SectionTypeAbout, ParseSectionType("something else"))
	assert.Equal(t, "values", SectionTypeValues.String())
}
