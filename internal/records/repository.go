package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"carbon-scribe/esg-metrics/esg-metrics-backend/pkg/apperrors"
)

// Repository is the persistence layer for metric records. All snapshots
// live in one table; history is never hard-deleted.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AutoMigrate creates or updates the records schema.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MetricRecord{}); err != nil {
		return fmt.Errorf("failed to migrate records schema: %w", err)
	}
	return nil
}

// GetActive returns the single active record for (company, domain).
func (r *Repository) GetActive(ctx context.Context, companyID uuid.UUID, domain Domain) (*MetricRecord, error) {
	var record MetricRecord
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND domain = ? AND is_active = ?", companyID, domain, true).
		First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no active %s record for company %s", domain, companyID)
		}
		return nil, apperrors.Internal("failed to load active record", result.Error)
	}
	return &record, nil
}

// GetByID returns a record snapshot regardless of its active flag.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*MetricRecord, error) {
	var record MetricRecord
	result := r.db.WithContext(ctx).First(&record, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("record %s not found", id)
		}
		return nil, apperrors.Internal("failed to load record", result.Error)
	}
	return &record, nil
}

// ListVersions returns every snapshot for (company, domain), newest
// version first.
func (r *Repository) ListVersions(ctx context.Context, companyID uuid.UUID, domain Domain) ([]MetricRecord, error) {
	var versions []MetricRecord
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND domain = ?", companyID, domain).
		Order("version DESC").
		Find(&versions)
	if result.Error != nil {
		return nil, apperrors.Internal("failed to list record versions", result.Error)
	}
	return versions, nil
}

// MaxVersion returns the highest version number in the chain, 0 when the
// chain is empty.
func (r *Repository) MaxVersion(ctx context.Context, companyID uuid.UUID, domain Domain) (int, error) {
	var max *int
	result := r.db.WithContext(ctx).Model(&MetricRecord{}).
		Where("company_id = ? AND domain = ?", companyID, domain).
		Select("MAX(version)").
		Scan(&max)
	if result.Error != nil {
		return 0, apperrors.Internal("failed to resolve max version", result.Error)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// Create inserts a new snapshot.
func (r *Repository) Create(ctx context.Context, record *MetricRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	result := r.db.WithContext(ctx).Create(record)
	if result.Error != nil {
		return apperrors.Internal("failed to create record", result.Error)
	}
	return nil
}

// Save persists an in-place update of a snapshot with an optimistic
// revision check. The caller passes the record with the revision it read;
// a stale revision means another writer won and the save fails with
// Conflict, never an overwrite.
func (r *Repository) Save(ctx context.Context, record *MetricRecord) error {
	expected := record.Revision
	record.Revision = expected + 1

	result := r.db.WithContext(ctx).Model(&MetricRecord{}).
		Where("id = ? AND revision = ?", record.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(record)
	if result.Error != nil {
		record.Revision = expected
		return apperrors.Internal("failed to save record", result.Error)
	}
	if result.RowsAffected == 0 {
		record.Revision = expected
		return apperrors.Conflict("record %s was modified concurrently", record.ID)
	}
	return nil
}

// WithTransaction runs fn against a transactional repository. Used for the
// multi-step restore so deactivate+create commit or roll back together.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
