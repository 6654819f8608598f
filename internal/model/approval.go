package model

import (
	"time"

	"github.com/google/uuid"
)

type VarianceType string

const (
	VarianceTypePositive VarianceType = "positive"
	VarianceTypeNegative VarianceType = "negative"
	VarianceTypeNone     VarianceType = "none"
)

type VarianceSeverity string

const (
	SeverityLow      VarianceSeverity = "low"
	SeverityMedium   VarianceSeverity = "medium"
	SeverityHigh     VarianceSeverity = "high"
	SeverityCritical VarianceSeverity = "critical"
)

// SeverityFor bands the absolute variance percentage.
func SeverityFor(variancePercentage float64) VarianceSeverity {
	abs := variancePercentage
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 15:
		return SeverityCritical
	case abs >= 10:
		return SeverityHigh
	case abs >= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Approval ties one collection to the company-measured intake for its batch.
type Approval struct {
	ID                    uuid.UUID
	CollectionID          uuid.UUID
	StaffID               uuid.UUID // approver
	CollectorID           uuid.UUID
	CompanyReceivedLiters float64
	VarianceLiters        float64
	VariancePercentage    float64
	VarianceType          VarianceType
	PenaltyAmount         float64
	IsAcknowledged        bool
	ApprovalNotes         *string
	ApprovedAt            time.Time
}

func (a Approval) Severity() VarianceSeverity {
	return SeverityFor(a.VariancePercentage)
}

type VarianceAlert struct {
	ApprovalID         uuid.UUID
	CollectionID       uuid.UUID
	CollectorID        uuid.UUID
	VarianceType       VarianceType
	VariancePercentage float64
	Severity           VarianceSeverity
}
