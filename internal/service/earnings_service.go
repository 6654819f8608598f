package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
	"github.com/dairychain/milkops/internal/repository"
)

type PaymentStore interface {
	SummarizeApproved(ctx context.Context, collectorID uuid.UUID, periodStart, periodEnd time.Time) (int64, float64, error)
	HasOverlap(ctx context.Context, collectorID uuid.UUID, periodStart, periodEnd time.Time) (bool, error)
	Insert(ctx context.Context, payment model.CollectorPayment) (*model.CollectorPayment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.CollectorPayment, error)
	List(ctx context.Context, collectorID *uuid.UUID) ([]model.CollectorPayment, error)
	MarkPaid(ctx context.Context, payment model.CollectorPayment, paidAt time.Time) error
	ApprovedSummaries(ctx context.Context) ([]model.CollectorPeriodSummary, error)
	ReplacePending(ctx context.Context, payments []model.CollectorPayment) (int, error)
}

type RateProvider interface {
	CurrentRate(ctx context.Context) (float64, error)
}

type CreditLedger interface {
	CreditUsed(ctx context.Context, collectorID uuid.UUID, periodStart, periodEnd time.Time) (float64, error)
}

type FeeSchedule interface {
	CollectorFee(grossEarnings float64) float64
}

type NameResolver interface {
	CollectorNames(ctx context.Context) (map[uuid.UUID]string, error)
}

// EarningsService rolls approved collections into payroll records and marks
// them paid without double-paying.
type EarningsService struct {
	payments PaymentStore
	rate     RateProvider
	credit   CreditLedger
	fees     FeeSchedule
	names    NameResolver
	log      zerolog.Logger
}

func NewEarningsService(
	payments PaymentStore,
	rate RateProvider,
	credit CreditLedger,
	fees FeeSchedule,
	names NameResolver,
	log zerolog.Logger,
) *EarningsService {
	return &EarningsService{
		payments: payments,
		rate:     rate,
		credit:   credit,
		fees:     fees,
		names:    names,
		log:      log,
	}
}

// GeneratePayment creates one pending payroll record for the collector over
// the inclusive period. Overlapping an existing record is a conflict, never a
// silent duplicate.
func (s *EarningsService) GeneratePayment(ctx context.Context, principal model.Principal, collectorID uuid.UUID, periodStart, periodEnd time.Time, ratePerLiter float64) (*model.CollectorPayment, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if collectorID == uuid.Nil {
		return nil, fmt.Errorf("%w: collector_id is required", ErrInvalidInput)
	}
	if ratePerLiter <= 0 {
		return nil, fmt.Errorf("%w: rate_per_liter must be positive", ErrInvalidInput)
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return nil, fmt.Errorf("%w: period dates are required", ErrInvalidInput)
	}
	start := dateOnly(periodStart)
	end := dateOnly(periodEnd)
	if start.After(end) {
		return nil, fmt.Errorf("%w: period_start must be before or equal to period_end", ErrInvalidInput)
	}

	var overlap bool
	err := withRetry(s.log, func() error {
		var err error
		overlap, err = s.payments.HasOverlap(ctx, collectorID, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, fmt.Errorf("%w: period overlaps an existing payment record", ErrConflict)
	}

	var count int64
	var liters float64
	err = withRetry(s.log, func() error {
		var err error
		count, liters, err = s.payments.SummarizeApproved(ctx, collectorID, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: no approved collections in period", ErrNotFound)
	}

	payment := model.CollectorPayment{
		CollectorID:      collectorID,
		PeriodStart:      start,
		PeriodEnd:        end,
		TotalCollections: count,
		TotalLiters:      liters,
		RatePerLiter:     ratePerLiter,
		TotalEarnings:    round2(liters * ratePerLiter),
	}

	var created *model.CollectorPayment
	err = withRetry(s.log, func() error {
		var err error
		created, err = s.payments.Insert(ctx, payment)
		return err
	})
	if errors.Is(err, repository.ErrConcurrentUpdate) {
		return nil, fmt.Errorf("%w: period overlaps an existing payment record", ErrConflict)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("collector_id", collectorID.String()).
		Int64("collections", count).
		Float64("liters", liters).
		Float64("earnings", created.TotalEarnings).
		Msg("payment record generated")

	return created, nil
}

// MarkAsPaid transitions a payment from pending to paid, irreversibly, and
// flips its covered collections to Paid.
func (s *EarningsService) MarkAsPaid(ctx context.Context, principal model.Principal, paymentID uuid.UUID) error {
	if !principal.IsAdmin() {
		return ErrPermissionDenied
	}

	var payment *model.CollectorPayment
	err := withRetry(s.log, func() error {
		var err error
		payment, err = s.payments.GetByID(ctx, paymentID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}
	if err != nil {
		return err
	}
	if payment.Status == model.PaymentStatusPaid {
		return ErrAlreadyPaid
	}

	err = withRetry(s.log, func() error {
		return s.payments.MarkPaid(ctx, *payment, time.Now().UTC())
	})
	if errors.Is(err, repository.ErrConcurrentUpdate) {
		return ErrAlreadyPaid
	}
	return err
}

// RegenerateAll rebuilds every pending payment record from the current
// approved collections at the current rate. Destructive recovery for rate
// changes and data corrections; running it twice yields the same set.
func (s *EarningsService) RegenerateAll(ctx context.Context, principal model.Principal) (int, error) {
	if !principal.IsAdmin() {
		return 0, ErrPermissionDenied
	}

	ratePerLiter, err := s.rate.CurrentRate(ctx)
	if err != nil {
		return 0, err
	}
	if ratePerLiter <= 0 {
		return 0, fmt.Errorf("%w: current rate must be positive", ErrInvalidInput)
	}

	var summaries []model.CollectorPeriodSummary
	err = withRetry(s.log, func() error {
		var err error
		summaries, err = s.payments.ApprovedSummaries(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}

	payments := make([]model.CollectorPayment, 0, len(summaries))
	for _, summary := range summaries {
		payments = append(payments, model.CollectorPayment{
			CollectorID:      summary.CollectorID,
			PeriodStart:      summary.PeriodStart,
			PeriodEnd:        summary.PeriodEnd,
			TotalCollections: summary.TotalCollections,
			TotalLiters:      summary.TotalLiters,
			RatePerLiter:     ratePerLiter,
			TotalEarnings:    round2(summary.TotalLiters * ratePerLiter),
		})
	}

	var count int
	err = withRetry(s.log, func() error {
		var err error
		count, err = s.payments.ReplacePending(ctx, payments)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Int("payments", count).Float64("rate", ratePerLiter).Msg("payment records regenerated")
	return count, nil
}

func (s *EarningsService) GetPayment(ctx context.Context, principal model.Principal, paymentID uuid.UUID) (*model.CollectorPayment, error) {
	var payment *model.CollectorPayment
	err := withRetry(s.log, func() error {
		var err error
		payment, err = s.payments.GetByID(ctx, paymentID)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, paymentID)
	}
	if err != nil {
		return nil, err
	}
	if principal.IsCollector() && payment.CollectorID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return payment, nil
}

func (s *EarningsService) ListPayments(ctx context.Context, principal model.Principal, collectorID *uuid.UUID) ([]model.CollectorPayment, error) {
	if principal.IsCollector() {
		id := principal.UserID
		collectorID = &id
	} else if !(principal.IsStaff() || principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}
	var payments []model.CollectorPayment
	err := withRetry(s.log, func() error {
		var err error
		payments, err = s.payments.List(ctx, collectorID)
		return err
	})
	return payments, err
}

// NetPayment returns the display-side take-home breakdown for one payment:
// gross earnings minus credit used minus the collector fee.
func (s *EarningsService) NetPayment(ctx context.Context, payment model.CollectorPayment) (*model.NetPayment, error) {
	creditUsed, err := s.credit.CreditUsed(ctx, payment.CollectorID, payment.PeriodStart, payment.PeriodEnd)
	if err != nil {
		return nil, err
	}
	fee := s.fees.CollectorFee(payment.TotalEarnings)

	return &model.NetPayment{
		GrossEarnings: payment.TotalEarnings,
		CreditUsed:    creditUsed,
		CollectorFee:  round2(fee),
		Net:           round2(payment.TotalEarnings - creditUsed - fee),
	}, nil
}
