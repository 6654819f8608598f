package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
)

type CollectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

const collectionColumns = `
	id,
	farmer_id,
	staff_id,
	collection_date,
	liters,
	status,
	approved_for_company,
	company_approval_id,
	approved_by,
	created_at,
	updated_at
`

func (r *CollectionRepository) Create(ctx context.Context, collection model.Collection) (*model.Collection, error) {
	if collection.ID == uuid.Nil {
		collection.ID = uuid.New()
	}
	now := time.Now().UTC()
	collection.Status = model.CollectionStatusCollected
	collection.CreatedAt = now
	collection.UpdatedAt = now

	err := r.db.WithContext(ctx).Exec(`
		INSERT INTO collections (
			id,
			farmer_id,
			staff_id,
			collection_date,
			liters,
			status,
			approved_for_company,
			created_at,
			updated_at
		) VALUES (?, ?, ?, ?, ?, ?, FALSE, ?, ?)
	`,
		collection.ID,
		collection.FarmerID,
		collection.StaffID,
		collection.CollectionDate,
		collection.Liters,
		collection.Status,
		collection.CreatedAt,
		collection.UpdatedAt,
	).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListEligible returns the collector's unapproved collections for one
// calendar date, the eligible set of a batch approval.
func (r *CollectionRepository) ListEligible(ctx context.Context, collectorID uuid.UUID, date time.Time) ([]model.Collection, error) {
	var collections []model.Collection
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+collectionColumns+`
		FROM collections
		WHERE staff_id = ?
			AND collection_date = ?
			AND status = 'Collected'
			AND approved_for_company = FALSE
		ORDER BY created_at ASC
	`, collectorID, date).Scan(&collections).Error
	if err != nil {
		return nil, err
	}
	return collections, nil
}

type CollectionFilter struct {
	CollectorID *uuid.UUID
	Date        *time.Time
	Status      *model.CollectionStatus
}

func (r *CollectionRepository) List(ctx context.Context, filter CollectionFilter) ([]model.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE 1=1`
	var args []interface{}

	if filter.CollectorID != nil {
		query += " AND staff_id = ?"
		args = append(args, *filter.CollectorID)
	}
	if filter.Date != nil {
		query += " AND collection_date = ?"
		args = append(args, *filter.Date)
	}
	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}
	query += " ORDER BY collection_date DESC, created_at DESC"

	var collections []model.Collection
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}
