package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swap-backend/internal/models"
)

// RootInfoRepository defines the interface for the persisted trusted root
type RootInfoRepository interface {
	// Load returns the stored root, or nil when none was ever saved.
	Load(ctx context.Context) (*models.RootInfoRecord, error)
	// Save replaces the stored root.
	Save(ctx context.Context, record *models.RootInfoRecord) error
}

// rootInfoRepository implements RootInfoRepository
type rootInfoRepository struct {
	db *gorm.DB
}

// NewRootInfoRepository creates a new RootInfoRepository instance
func NewRootInfoRepository(db *gorm.DB) RootInfoRepository {
	return &rootInfoRepository{db: db}
}

func (r *rootInfoRepository) Load(ctx context.Context) (*models.RootInfoRecord, error) {
	var record models.RootInfoRecord
	err := r.db.WithContext(ctx).Where("id = ?", models.RootInfoSingletonID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *rootInfoRepository) Save(ctx context.Context, record *models.RootInfoRecord) error {
	record.ID = models.RootInfoSingletonID
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(record).Error
}
