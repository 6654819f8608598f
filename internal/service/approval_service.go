package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/model"
	"github.com/dairychain/milkops/internal/repository"
)

type CollectionStore interface {
	Create(ctx context.Context, collection model.Collection) (*model.Collection, error)
	ListEligible(ctx context.Context, collectorID uuid.UUID, date time.Time) ([]model.Collection, error)
	List(ctx context.Context, filter repository.CollectionFilter) ([]model.Collection, error)
}

type ApprovalStore interface {
	CommitBatch(ctx context.Context, approvals []model.Approval) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Approval, error)
	Acknowledge(ctx context.Context, id uuid.UUID) error
	ListAlerts(ctx context.Context) ([]model.Approval, error)
}

type VarianceConfigStore interface {
	Thresholds(ctx context.Context) (map[model.VarianceType]float64, error)
}

// Notifier is a fire-and-forget alert sink; implementations swallow their
// own failures.
type Notifier interface {
	Notify(ctx context.Context, alert model.VarianceAlert)
}

// ApprovalService reconciles a collector's field-reported collections against
// the company's measured intake for one calendar date.
type ApprovalService struct {
	collections CollectionStore
	approvals   ApprovalStore
	varianceCfg VarianceConfigStore
	penalty     PenaltyStrategyProvider
	rate        RateProvider
	notifier    Notifier
	log         zerolog.Logger
}

func NewApprovalService(
	collections CollectionStore,
	approvals ApprovalStore,
	varianceCfg VarianceConfigStore,
	penalty PenaltyStrategyProvider,
	rate RateProvider,
	notifier Notifier,
	log zerolog.Logger,
) *ApprovalService {
	return &ApprovalService{
		collections: collections,
		approvals:   approvals,
		varianceCfg: varianceCfg,
		penalty:     penalty,
		rate:        rate,
		notifier:    notifier,
		log:         log,
	}
}

type ApproveBatchInput struct {
	Principal             model.Principal
	CollectorID           uuid.UUID
	CollectionDate        time.Time
	CompanyReceivedLiters float64
	Notes                 *string
}

type ApprovalBatchResult struct {
	ApprovedCount       int
	TotalVarianceLiters float64
	TotalPenaltyAmount  float64
	Approvals           []model.Approval
}

type LogCollectionInput struct {
	Principal      model.Principal
	FarmerID       uuid.UUID
	CollectorID    uuid.UUID
	CollectionDate time.Time
	Liters         float64
}

// ApproveBatch distributes the company-received total proportionally across
// the collector's unapproved collections for the date, prices the variance of
// each, and commits approvals and collection flips as one atomic batch.
func (s *ApprovalService) ApproveBatch(ctx context.Context, input ApproveBatchInput) (*ApprovalBatchResult, error) {
	if !(input.Principal.IsStaff() || input.Principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}
	if input.CollectorID == uuid.Nil {
		return nil, fmt.Errorf("%w: collector_id is required", ErrInvalidInput)
	}
	if input.CompanyReceivedLiters <= 0 {
		return nil, fmt.Errorf("%w: company_received_liters must be positive", ErrInvalidInput)
	}
	if input.CollectionDate.IsZero() {
		return nil, fmt.Errorf("%w: collection_date is required", ErrInvalidInput)
	}
	date := dateOnly(input.CollectionDate)

	var eligible []model.Collection
	err := withRetry(s.log, func() error {
		var err error
		eligible, err = s.collections.ListEligible(ctx, input.CollectorID, date)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no eligible collections", ErrNotFound)
	}

	reportedTotal := 0.0
	for _, c := range eligible {
		reportedTotal += c.Liters
	}
	if reportedTotal <= 0 {
		return nil, fmt.Errorf("%w: reported total must be positive", ErrInvalidInput)
	}

	var thresholds map[model.VarianceType]float64
	err = withRetry(s.log, func() error {
		var err error
		thresholds, err = s.varianceCfg.Thresholds(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	ratePerLiter, err := s.rate.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}

	var strategy PenaltyStrategy
	err = withRetry(s.log, func() error {
		var err error
		strategy, err = s.penalty.Strategy(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	approvedAt := time.Now().UTC()
	approvals := make([]model.Approval, 0, len(eligible))
	result := &ApprovalBatchResult{}

	for _, c := range eligible {
		// signed from the company's side: a received shortfall is negative
		allocated := input.CompanyReceivedLiters * (c.Liters / reportedTotal)
		varianceLiters := allocated - c.Liters
		variancePct := round2(varianceLiters / c.Liters * 100)

		varianceType := model.VarianceTypeNone
		switch {
		case varianceLiters > 0:
			varianceType = model.VarianceTypePositive
		case varianceLiters < 0:
			varianceType = model.VarianceTypeNegative
		}

		penalty := 0.0
		if threshold, ok := thresholds[varianceType]; ok && math.Abs(variancePct) > threshold {
			penalty = strategy.Penalty(varianceLiters, variancePct, ratePerLiter)
			if penalty < 0 {
				penalty = 0
			}
		}

		approvals = append(approvals, model.Approval{
			ID:                    uuid.New(),
			CollectionID:          c.ID,
			StaffID:               input.Principal.UserID,
			CollectorID:           input.CollectorID,
			CompanyReceivedLiters: input.CompanyReceivedLiters,
			VarianceLiters:        varianceLiters,
			VariancePercentage:    variancePct,
			VarianceType:          varianceType,
			PenaltyAmount:         round2(penalty),
			ApprovalNotes:         input.Notes,
			ApprovedAt:            approvedAt,
		})

		result.TotalVarianceLiters += varianceLiters
		result.TotalPenaltyAmount += round2(penalty)
	}

	err = withRetry(s.log, func() error {
		return s.approvals.CommitBatch(ctx, approvals)
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			return nil, fmt.Errorf("%w: batch already approved", ErrConflict)
		}
		return nil, err
	}

	for _, a := range approvals {
		severity := a.Severity()
		if severity == model.SeverityLow {
			continue
		}
		s.notifier.Notify(ctx, model.VarianceAlert{
			ApprovalID:         a.ID,
			CollectionID:       a.CollectionID,
			CollectorID:        a.CollectorID,
			VarianceType:       a.VarianceType,
			VariancePercentage: a.VariancePercentage,
			Severity:           severity,
		})
	}

	result.ApprovedCount = len(approvals)
	result.Approvals = approvals

	s.log.Info().
		Str("collector_id", input.CollectorID.String()).
		Int("approved", result.ApprovedCount).
		Float64("total_variance_liters", result.TotalVarianceLiters).
		Float64("total_penalty", result.TotalPenaltyAmount).
		Msg("batch approved")

	return result, nil
}

// LogCollection records a field pickup.
func (s *ApprovalService) LogCollection(ctx context.Context, input LogCollectionInput) (*model.Collection, error) {
	if !(input.Principal.IsStaff() || input.Principal.IsCollector() || input.Principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}
	if input.FarmerID == uuid.Nil {
		return nil, fmt.Errorf("%w: farmer_id is required", ErrInvalidInput)
	}
	if input.Liters <= 0 {
		return nil, fmt.Errorf("%w: liters must be positive", ErrInvalidInput)
	}
	if input.CollectionDate.IsZero() {
		return nil, fmt.Errorf("%w: collection_date is required", ErrInvalidInput)
	}

	collectorID := input.CollectorID
	if input.Principal.IsCollector() {
		collectorID = input.Principal.UserID
	}
	if collectorID == uuid.Nil {
		return nil, fmt.Errorf("%w: collector_id is required", ErrInvalidInput)
	}

	var created *model.Collection
	err := withRetry(s.log, func() error {
		var err error
		created, err = s.collections.Create(ctx, model.Collection{
			FarmerID:       input.FarmerID,
			StaffID:        collectorID,
			CollectionDate: dateOnly(input.CollectionDate),
			Liters:         input.Liters,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ApprovalService) ListCollections(ctx context.Context, principal model.Principal, filter repository.CollectionFilter) ([]model.Collection, error) {
	if principal.IsCollector() {
		// collectors only see their own pickups
		id := principal.UserID
		filter.CollectorID = &id
	} else if !(principal.IsStaff() || principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}
	var collections []model.Collection
	err := withRetry(s.log, func() error {
		var err error
		collections, err = s.collections.List(ctx, filter)
		return err
	})
	return collections, err
}

// Acknowledge flips an approval's acknowledged flag.
func (s *ApprovalService) Acknowledge(ctx context.Context, principal model.Principal, approvalID uuid.UUID) error {
	if !(principal.IsStaff() || principal.IsAdmin()) {
		return ErrPermissionDenied
	}
	err := withRetry(s.log, func() error {
		return s.approvals.Acknowledge(ctx, approvalID)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: approval %s", ErrNotFound, approvalID)
	}
	return err
}

// Alerts lists unacknowledged approvals above their variance threshold.
func (s *ApprovalService) Alerts(ctx context.Context, principal model.Principal) ([]model.Approval, error) {
	if !(principal.IsStaff() || principal.IsAdmin()) {
		return nil, ErrPermissionDenied
	}
	var alerts []model.Approval
	err := withRetry(s.log, func() error {
		var err error
		alerts, err = s.approvals.ListAlerts(ctx)
		return err
	})
	return alerts, err
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
