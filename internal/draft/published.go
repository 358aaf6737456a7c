package draft

import (
	"context"
	"errors"
	"time"

	"github.com/careerforge/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrCompanyNotFound is returned when a tenant id resolves to no row
var ErrCompanyNotFound = errors.New("company not found")

// PublishedState is the last-known-published page for a company
type PublishedState struct {
	Company  models.Company
	Sections []models.CompanySection
}

// PublishedStore reads and writes the published side of the reconciliation.
// The two write groups (brand update, section upsert/delete) are deliberately
// separate operations - publish is not atomic across them.
type PublishedStore interface {
	Load(ctx context.Context, companyID string) (*PublishedState, error)
	UpdateBrand(ctx context.Context, companyID string, changes map[string]interface{}) error
	UpsertSections(ctx context.Context, sections []models.CompanySection) error
	DeleteSections(ctx context.Context, companyID string, ids []string) error
}

// GormPublishedStore backs PublishedStore with the companies and
// company_sections tables.
type GormPublishedStore struct {
	db *gorm.DB
}

func NewGormPublishedStore(db *gorm.DB) *GormPublishedStore {
	return &GormPublishedStore{db: db}
}

func (s *GormPublishedStore) Load(ctx context.Context, companyID string) (*PublishedState, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).Where("id = ?", companyID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, err
	}

	var sections []models.CompanySection
	if err := s.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("order_index").
		Find(&sections).Error; err != nil {
		return nil, err
	}

	return &PublishedState{Company: company, Sections: sections}, nil
}

func (s *GormPublishedStore) UpdateBrand(ctx context.Context, companyID string, changes map[string]interface{}) error {
	if len(changes) == 0 {
		return nil
	}
	changes["updated_at"] = time.Now().UTC()
	return s.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", companyID).
		Updates(changes).Error
}

func (s *GormPublishedStore) UpsertSections(ctx context.Context, sections []models.CompanySection) error {
	if len(sections) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type", "title", "content", "image_url", "order_index", "updated_at",
			}),
		}).
		Create(&sections).Error
}

func (s *GormPublishedStore) DeleteSections(ctx context.Context, companyID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, ids).
		Delete(&models.CompanySection{}).Error
}
