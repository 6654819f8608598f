package model

import "github.com/google/uuid"

// AlertThreshold configures, per variance type, the percentage at which an
// approval surfaces as an alert and becomes penalty-eligible.
type AlertThreshold struct {
	ID                  uuid.UUID
	VarianceType        VarianceType
	ThresholdPercentage float64
	IsActive            bool
}

// PenaltyBand is one row of the tiered penalty schedule: collections whose
// absolute variance percentage falls inside [Min, Max] are charged at
// RatePerLiter per liter of variance.
type PenaltyBand struct {
	ID                    uuid.UUID
	VarianceType          VarianceType
	MinVariancePercentage float64
	MaxVariancePercentage float64
	PenaltyRatePerLiter   float64
	IsActive              bool
}
