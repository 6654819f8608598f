package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairychain/milkops/internal/model"
)

func TestFlatPenalty(t *testing.T) {
	assert.Equal(t, 250.0, FlatPenalty{Amount: 250}.Penalty(-10, -20, 45))
	assert.Equal(t, 0.0, FlatPenalty{Amount: -5}.Penalty(-10, -20, 45))
}

func TestProportionalPenalty(t *testing.T) {
	assert.InDelta(t, 450, ProportionalPenalty{}.Penalty(-10, -20, 45), 1e-9)
	assert.InDelta(t, 90, ProportionalPenalty{}.Penalty(2, 4, 45), 1e-9)
	assert.Equal(t, 0.0, ProportionalPenalty{}.Penalty(-10, -20, -1))
}

func TestTieredPenalty(t *testing.T) {
	strategy := TieredPenalty{Bands: []model.PenaltyBand{
		{VarianceType: model.VarianceTypeNegative, MinVariancePercentage: 5, MaxVariancePercentage: 10, PenaltyRatePerLiter: 10},
		{VarianceType: model.VarianceTypeNegative, MinVariancePercentage: 10, MaxVariancePercentage: 15, PenaltyRatePerLiter: 20},
		{VarianceType: model.VarianceTypeNegative, MinVariancePercentage: 15, MaxVariancePercentage: 100, PenaltyRatePerLiter: 40},
		{VarianceType: model.VarianceTypePositive, MinVariancePercentage: 5, MaxVariancePercentage: 100, PenaltyRatePerLiter: 5},
	}}

	// 8% negative variance of 4 liters: first band
	assert.InDelta(t, 40, strategy.Penalty(-4, -8, 45), 1e-9)
	// 24% negative variance of 12 liters: top band
	assert.InDelta(t, 480, strategy.Penalty(-12, -24, 45), 1e-9)
	// positive band applies by sign
	assert.InDelta(t, 15, strategy.Penalty(3, 7, 45), 1e-9)
	// below every band
	assert.Equal(t, 0.0, strategy.Penalty(-1, -2, 45))
	// zero variance never charged
	assert.Equal(t, 0.0, strategy.Penalty(0, 0, 45))
}

type stubBandSource struct {
	bands []model.PenaltyBand
}

func (s *stubBandSource) PenaltyBands(_ context.Context) ([]model.PenaltyBand, error) {
	return s.bands, nil
}

func TestTieredPenaltyProviderReadsBandsPerCall(t *testing.T) {
	source := &stubBandSource{bands: []model.PenaltyBand{
		{VarianceType: model.VarianceTypeNegative, MinVariancePercentage: 5, MaxVariancePercentage: 100, PenaltyRatePerLiter: 10},
	}}
	provider := TieredPenaltyProvider{Bands: source}

	strategy, err := provider.Strategy(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 40, strategy.Penalty(-4, -8, 45), 1e-9)

	// schedule edits take effect on the next batch, no restart needed
	source.bands[0].PenaltyRatePerLiter = 25
	strategy, err = provider.Strategy(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100, strategy.Penalty(-4, -8, 45), 1e-9)
}

func TestSeverityBands(t *testing.T) {
	assert.Equal(t, model.SeverityLow, model.SeverityFor(4.99))
	assert.Equal(t, model.SeverityMedium, model.SeverityFor(5))
	assert.Equal(t, model.SeverityMedium, model.SeverityFor(-9.9))
	assert.Equal(t, model.SeverityHigh, model.SeverityFor(10))
	assert.Equal(t, model.SeverityCritical, model.SeverityFor(-15))
	assert.Equal(t, model.SeverityCritical, model.SeverityFor(42))
}
