package alerts

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("alert not found")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Alert{})
}

// Create inserts the alert. A redelivered event maps to the same id and is
// silently skipped.
func (r *Repository) Create(ctx context.Context, alert *Alert) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert).Error
}

// List returns alerts newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Alert, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id")
	if filter.Read != nil {
		query = query.Where("read = ?", *filter.Read)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var alerts []Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *Repository) MarkRead(ctx context.Context, id string) (*Alert, error) {
	var alert Alert
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&alert, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		alert.Read = true
		return tx.Model(&Alert{}).Where("id = ?", id).Update("read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
