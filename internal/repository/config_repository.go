package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
)

// ConfigRepository reads the admin-editable variance configuration:
// alert thresholds and the tiered penalty schedule.
type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) Thresholds(ctx context.Context) (map[model.VarianceType]float64, error) {
	var rows []model.AlertThreshold
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, variance_type, threshold_percentage, is_active
		FROM variance_alert_thresholds
		WHERE is_active = TRUE
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	thresholds := make(map[model.VarianceType]float64, len(rows))
	for _, row := range rows {
		thresholds[row.VarianceType] = row.ThresholdPercentage
	}
	return thresholds, nil
}

func (r *ConfigRepository) PenaltyBands(ctx context.Context) ([]model.PenaltyBand, error) {
	var bands []model.PenaltyBand
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			variance_type,
			min_variance_percentage,
			max_variance_percentage,
			penalty_rate_per_liter,
			is_active
		FROM variance_penalty_config
		WHERE is_active = TRUE
		ORDER BY variance_type, min_variance_percentage
	`).Scan(&bands).Error
	if err != nil {
		return nil, err
	}
	return bands, nil
}
