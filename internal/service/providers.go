package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StaticRateProvider serves the configured rate per liter.
type StaticRateProvider struct {
	Rate float64
}

func (p StaticRateProvider) CurrentRate(_ context.Context) (float64, error) {
	return p.Rate, nil
}

// NoopCreditLedger reports zero credit used; stands in until the host wires a
// real credit ledger.
type NoopCreditLedger struct{}

func (NoopCreditLedger) CreditUsed(_ context.Context, _ uuid.UUID, _, _ time.Time) (float64, error) {
	return 0, nil
}

// RateFeeSchedule charges a fixed fraction of gross earnings.
type RateFeeSchedule struct {
	Rate float64
}

func (f RateFeeSchedule) CollectorFee(grossEarnings float64) float64 {
	if f.Rate <= 0 {
		return 0
	}
	return grossEarnings * f.Rate
}
