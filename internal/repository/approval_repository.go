package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// CommitBatch persists the outcome of one batch approval: it inserts every
// approval row and flips its collection to Approved, all in one transaction.
// The collection update is conditional on approved_for_company still being
// false; a concurrent approval of the same batch loses with
// ErrConcurrentUpdate and nothing is written.
func (r *ApprovalRepository) CommitBatch(ctx context.Context, approvals []model.Approval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range approvals {
			a := &approvals[i]
			if a.ID == uuid.Nil {
				a.ID = uuid.New()
			}

			err := tx.Exec(`
				INSERT INTO milk_approvals (
					id,
					collection_id,
					staff_id,
					collector_id,
					company_received_liters,
					variance_liters,
					variance_percentage,
					variance_type,
					penalty_amount,
					is_acknowledged,
					approval_notes,
					approved_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
			`,
				a.ID,
				a.CollectionID,
				a.StaffID,
				a.CollectorID,
				a.CompanyReceivedLiters,
				a.VarianceLiters,
				a.VariancePercentage,
				a.VarianceType,
				a.PenaltyAmount,
				a.ApprovalNotes,
				a.ApprovedAt,
			).Error
			if err != nil {
				return err
			}

			result := tx.Exec(`
				UPDATE collections
				SET
					status = 'Approved',
					approved_for_company = TRUE,
					company_approval_id = ?,
					approved_by = ?,
					updated_at = ?
				WHERE id = ? AND approved_for_company = FALSE
			`, a.ID, a.StaffID, time.Now().UTC(), a.CollectionID)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != 1 {
				return ErrConcurrentUpdate
			}
		}
		return nil
	})
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			collection_id,
			staff_id,
			collector_id,
			company_received_liters,
			variance_liters,
			variance_percentage,
			variance_type,
			penalty_amount,
			is_acknowledged,
			approval_notes,
			approved_at
		FROM milk_approvals
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&approval).Error
	if err != nil {
		return nil, err
	}
	if approval.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &approval, nil
}

func (r *ApprovalRepository) Acknowledge(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE milk_approvals SET is_acknowledged = TRUE WHERE id = ?
	`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAlerts returns unacknowledged approvals whose absolute variance
// percentage is at or above the active threshold for their variance type.
func (r *ApprovalRepository) ListAlerts(ctx context.Context) ([]model.Approval, error) {
	var approvals []model.Approval
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			a.id,
			a.collection_id,
			a.staff_id,
			a.collector_id,
			a.company_received_liters,
			a.variance_liters,
			a.variance_percentage,
			a.variance_type,
			a.penalty_amount,
			a.is_acknowledged,
			a.approval_notes,
			a.approved_at
		FROM milk_approvals a
		JOIN variance_alert_thresholds t
			ON t.variance_type = a.variance_type AND t.is_active = TRUE
		WHERE a.is_acknowledged = FALSE
			AND ABS(a.variance_percentage) >= t.threshold_percentage
		ORDER BY a.approved_at DESC
	`).Scan(&approvals).Error
	if err != nil {
		return nil, err
	}
	return approvals, nil
}
