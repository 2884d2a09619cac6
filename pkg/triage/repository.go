package triage

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
	return r.db.AutoMigrate(&Patient{})
}

// List returns every patient, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id").
		Find(&patients).Error
	return patients, err
}

// ListActive returns patients not yet discharged in admission order.
func (r *Repository) ListActive(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	err := r.db.WithContext(ctx).
		Where("status <> ?", StatusDischarged).
		Order("created_at ASC").
		Order("id").
		Find(&patients).Error
	return patients, err
}

func (r *Repository) Get(ctx context.Context, id string) (*Patient, error) {
	var p Patient
	result := r.db.WithContext(ctx).First(&p, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, p *Patient) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	return r.db.WithContext(ctx).Create(p).Error
}

// Save writes the whole row in one UPDATE. It refuses to resurrect a
// patient deleted since it was read.
func (r *Repository) Save(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(p).
		Select("*").
		Omit("id", "created_at").
		Updates(p)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the patient and returns the row as it was.
func (r *Repository) Delete(ctx context.Context, id string) (*Patient, error) {
	var deleted Patient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&deleted, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.Delete(&Patient{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
