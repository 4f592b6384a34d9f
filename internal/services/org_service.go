package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/models"
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"
)

// ErrRegionNameTaken signals a region name collision.
var ErrRegionNameTaken = apperrors.NewConflict("Region name is already in use")

// OrgService reads and maintains the branch/region hierarchy.
type OrgService struct {
	db *gorm.DB
}

// NewOrgService constructs an OrgService.
func NewOrgService(db *gorm.DB) (*OrgService, error) {
	if db == nil {
		return nil, errors.New("org service: db is required")
	}
	return &OrgService{db: db}, nil
}

// ListBranches returns every branch with its region, alphabetically.
func (s *OrgService) ListBranches(ctx context.Context) ([]models.Branch, error) {
	ctx = ensureContext(ctx)

	var branches []models.Branch
	err := s.db.WithContext(ctx).
		Preload("Region").
		Order("name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, fmt.Errorf("org service: list branches: %w", err)
	}
	return branches, nil
}

// ListRegions returns every region, alphabetically.
func (s *OrgService) ListRegions(ctx context.Context) ([]models.Region, error) {
	ctx = ensureContext(ctx)

	var regions []models.Region
	err := s.db.WithContext(ctx).
		Order("name ASC").
		Find(&regions).Error
	if err != nil {
		return nil, fmt.Errorf("org service: list regions: %w", err)
	}
	return regions, nil
}

// CreateRegion adds a region to the hierarchy.
func (s *OrgService) CreateRegion(ctx context.Context, name string) (*models.Region, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("region name is required")
	}

	region := &models.Region{Name: name}
	if err := s.db.WithContext(ctx).Create(region).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrRegionNameTaken
		}
		return nil, fmt.Errorf("org service: create region: %w", err)
	}
	return region, nil
}
