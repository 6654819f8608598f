package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id,
	collector_id,
	period_start,
	period_end,
	total_collections,
	total_liters,
	rate_per_liter,
	total_earnings,
	status,
	created_at,
	paid_at
`

// SummarizeApproved sums a collector's Approved collections inside the
// inclusive period.
func (r *PaymentRepository) SummarizeApproved(ctx context.Context, collectorID uuid.UUID, periodStart, periodEnd time.Time) (int64, float64, error) {
	var row struct {
		TotalCollections int64
		TotalLiters      float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_collections,
			COALESCE(SUM(liters), 0) AS total_liters
		FROM collections
		WHERE staff_id = ?
			AND status = 'Approved'
			AND collection_date >= ?
			AND collection_date <= ?
	`, collectorID, periodStart, periodEnd).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.TotalCollections, row.TotalLiters, nil
}

// HasOverlap reports whether an existing payment record for the collector
// intersects [periodStart, periodEnd].
func (r *PaymentRepository) HasOverlap(ctx context.Context, collectorID uuid.UUID, periodStart, periodEnd time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM collector_payments
		WHERE collector_id = ?
			AND period_start <= ?
			AND period_end >= ?
	`, collectorID, periodEnd, periodStart).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert creates one pending payment record. The insert is conditional on no
// existing record for the collector intersecting the period, so a concurrent
// duplicate loses with ErrConcurrentUpdate instead of double-writing.
func (r *PaymentRepository) Insert(ctx context.Context, payment model.CollectorPayment) (*model.CollectorPayment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.Status = model.PaymentStatusPending
	payment.CreatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO collector_payments (
			id,
			collector_id,
			period_start,
			period_end,
			total_collections,
			total_liters,
			rate_per_liter,
			total_earnings,
			status,
			created_at
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM collector_payments
			WHERE collector_id = ?
				AND period_start <= ?
				AND period_end >= ?
		)
	`,
		payment.ID,
		payment.CollectorID,
		payment.PeriodStart,
		payment.PeriodEnd,
		payment.TotalCollections,
		payment.TotalLiters,
		payment.RatePerLiter,
		payment.TotalEarnings,
		payment.Status,
		payment.CreatedAt,
		payment.CollectorID,
		payment.PeriodEnd,
		payment.PeriodStart,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected != 1 {
		return nil, ErrConcurrentUpdate
	}
	return &payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CollectorPayment, error) {
	var payment model.CollectorPayment
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+paymentColumns+`
		FROM collector_payments
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (r *PaymentRepository) List(ctx context.Context, collectorID *uuid.UUID) ([]model.CollectorPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM collector_payments WHERE 1=1`
	var args []interface{}
	if collectorID != nil {
		query += " AND collector_id = ?"
		args = append(args, *collectorID)
	}
	query += " ORDER BY period_start DESC"

	var payments []model.CollectorPayment
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkPaid flips the payment to paid and the covered Approved collections to
// Paid in one transaction. The payment update is conditional on the record
// still being pending; a repeat call loses with ErrConcurrentUpdate.
func (r *PaymentRepository) MarkPaid(ctx context.Context, payment model.CollectorPayment, paidAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE collector_payments
			SET status = 'paid', paid_at = ?
			WHERE id = ? AND status = 'pending'
		`, paidAt, payment.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return ErrConcurrentUpdate
		}

		return tx.Exec(`
			UPDATE collections
			SET status = 'Paid', updated_at = ?
			WHERE staff_id = ?
				AND status = 'Approved'
				AND collection_date >= ?
				AND collection_date <= ?
		`, paidAt, payment.CollectorID, payment.PeriodStart, payment.PeriodEnd).Error
	})
}

// ApprovedSummaries groups every collector's Approved collections into one
// covering period; the source data for payment regeneration. Collections
// dated inside an already-paid payment period are excluded, so regenerated
// rows never overlap paid coverage.
func (r *PaymentRepository) ApprovedSummaries(ctx context.Context) ([]model.CollectorPeriodSummary, error) {
	var rows []struct {
		StaffID        uuid.UUID
		CollectionDate time.Time
		Liters         float64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.staff_id, c.collection_date, c.liters
		FROM collections c
		WHERE c.status = 'Approved'
			AND NOT EXISTS (
				SELECT 1 FROM collector_payments p
				WHERE p.collector_id = c.staff_id
					AND p.status = 'paid'
					AND c.collection_date >= p.period_start
					AND c.collection_date <= p.period_end
			)
		ORDER BY c.staff_id, c.collection_date
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	var summaries []model.CollectorPeriodSummary
	for _, row := range rows {
		if len(summaries) == 0 || summaries[len(summaries)-1].CollectorID != row.StaffID {
			summaries = append(summaries, model.CollectorPeriodSummary{
				CollectorID: row.StaffID,
				PeriodStart: row.CollectionDate,
				PeriodEnd:   row.CollectionDate,
			})
		}
		summary := &summaries[len(summaries)-1]
		summary.TotalCollections++
		summary.TotalLiters += row.Liters
		if row.CollectionDate.Before(summary.PeriodStart) {
			summary.PeriodStart = row.CollectionDate
		}
		if row.CollectionDate.After(summary.PeriodEnd) {
			summary.PeriodEnd = row.CollectionDate
		}
	}
	return summaries, nil
}

// ReplacePending deletes every pending payment record and inserts the given
// replacements atomically. Paid records are never touched.
func (r *PaymentRepository) ReplacePending(ctx context.Context, payments []model.CollectorPayment) (int, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM collector_payments WHERE status = 'pending'`).Error; err != nil {
			return err
		}
		for i := range payments {
			p := &payments[i]
			if p.ID == uuid.Nil {
				p.ID = uuid.New()
			}
			err := tx.Exec(`
				INSERT INTO collector_payments (
					id,
					collector_id,
					period_start,
					period_end,
					total_collections,
					total_liters,
					rate_per_liter,
					total_earnings,
					status,
					created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?)
			`,
				p.ID,
				p.CollectorID,
				p.PeriodStart,
				p.PeriodEnd,
				p.TotalCollections,
				p.TotalLiters,
				p.RatePerLiter,
				p.TotalEarnings,
				time.Now().UTC(),
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(payments), nil
}
