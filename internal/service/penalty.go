package service

import (
	"context"
	"math"

	"github.com/dairychain/milkops/internal/model"
)

// PenaltyStrategy prices the variance of a single collection. Implementations
// must return a non-negative amount.
type PenaltyStrategy interface {
	Penalty(varianceLiters, variancePercentage, ratePerLiter float64) float64
}

// PenaltyStrategyProvider resolves the strategy for one approval batch.
// Providers backed by stored configuration re-read it on every call, so
// admin edits apply without a restart.
type PenaltyStrategyProvider interface {
	Strategy(ctx context.Context) (PenaltyStrategy, error)
}

// StaticPenaltyProvider always serves the same strategy.
type StaticPenaltyProvider struct {
	Penalty PenaltyStrategy
}

func (p StaticPenaltyProvider) Strategy(_ context.Context) (PenaltyStrategy, error) {
	return p.Penalty, nil
}

type PenaltyBandSource interface {
	PenaltyBands(ctx context.Context) ([]model.PenaltyBand, error)
}

// TieredPenaltyProvider builds the tiered strategy from the active bands on
// every call.
type TieredPenaltyProvider struct {
	Bands PenaltyBandSource
}

func (p TieredPenaltyProvider) Strategy(ctx context.Context) (PenaltyStrategy, error) {
	bands, err := p.Bands.PenaltyBands(ctx)
	if err != nil {
		return nil, err
	}
	return TieredPenalty{Bands: bands}, nil
}

// FlatPenalty charges a fixed amount per offending collection.
type FlatPenalty struct {
	Amount float64
}

func (p FlatPenalty) Penalty(_, _, _ float64) float64 {
	if p.Amount < 0 {
		return 0
	}
	return p.Amount
}

// ProportionalPenalty charges the collector rate for every liter of variance.
type ProportionalPenalty struct{}

func (ProportionalPenalty) Penalty(varianceLiters, _, ratePerLiter float64) float64 {
	if ratePerLiter < 0 {
		return 0
	}
	return math.Abs(varianceLiters) * ratePerLiter
}

// TieredPenalty prices variance liters at the rate of the band the absolute
// variance percentage falls into; no matching band means no penalty.
type TieredPenalty struct {
	Bands []model.PenaltyBand
}

func (p TieredPenalty) Penalty(varianceLiters, variancePercentage, _ float64) float64 {
	varianceType := model.VarianceTypeNone
	switch {
	case varianceLiters > 0:
		varianceType = model.VarianceTypePositive
	case varianceLiters < 0:
		varianceType = model.VarianceTypeNegative
	default:
		return 0
	}

	abs := math.Abs(variancePercentage)
	for _, band := range p.Bands {
		if band.VarianceType != varianceType {
			continue
		}
		if abs >= band.MinVariancePercentage && abs <= band.MaxVariancePercentage {
			return math.Abs(varianceLiters) * band.PenaltyRatePerLiter
		}
	}
	return 0
}
