package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

func (r *StaffRepository) CollectorNames(ctx context.Context) (map[uuid.UUID]string, error) {
	var rows []struct {
		ID       uuid.UUID
		FullName string
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, full_name FROM staff
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.FullName
	}
	return names, nil
}
