package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&HospitalState{})
}

// GetOrCreate returns the most recently updated state, creating the default
// record when the table is empty.
func (r *Repository) GetOrCreate(ctx context.Context) (*HospitalState, error) {
	var state HospitalState
	result := r.db.WithContext(ctx).Order("last_updated DESC").First(&state)
	if result.Error == nil {
		state.Clamp()
		return &state, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, result.Error
	}

	state = DefaultState()
	if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *Repository) Save(ctx context.Context, state *HospitalState) error {
	state.Clamp()
	if state.LastUpdated.IsZero() {
		state.LastUpdated = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Save(state).Error
}
