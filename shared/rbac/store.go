package rbac

import (
	"context"
	"errors"
	"fmt"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store loads the membership and farm rows a decision needs. Every
// decision re-reads them: results are never cached across requests, so a
// revocation takes effect on the very next check.
//
// Both lookups return (nil, nil) when the row does not exist; an error
// means the backing store could not answer, which callers must keep
// distinct from denial.
type Store interface {
	GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error)
	GetMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.OrganizationMembership, error)
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection as a Store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	err := s.db.WithContext(ctx).Where("id = ?", farmID).First(&farm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load farm %s: %w", farmID, err)
	}
	return &farm, nil
}

// GetMembership returns the membership row including soft-deleted ones;
// the resolver is the one that decides deleted means "no access".
func (s *GormStore) GetMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.OrganizationMembership, error) {
	var membership models.OrganizationMembership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, organizationID).
		Order("created_at DESC").
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load membership user=%s org=%s: %w", userID, organizationID, err)
	}
	return &membership, nil
}
