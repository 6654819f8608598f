package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// CollectorPayment is a payroll-period rollup for one collector.
// Periods are inclusive on both ends and never overlap per collector.
type CollectorPayment struct {
	ID               uuid.UUID
	CollectorID      uuid.UUID
	PeriodStart      time.Time
	PeriodEnd        time.Time
	TotalCollections int64
	TotalLiters      float64
	RatePerLiter     float64
	TotalEarnings    float64
	Status           PaymentStatus
	CreatedAt        time.Time
	PaidAt           *time.Time
}

// CollectorPeriodSummary aggregates a collector's approved, not yet paid
// collections; used when payment records are (re)generated.
type CollectorPeriodSummary struct {
	CollectorID      uuid.UUID
	TotalCollections int64
	TotalLiters      float64
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

// NetPayment is the display-side breakdown of what a collector takes home.
type NetPayment struct {
	GrossEarnings float64
	CreditUsed    float64
	CollectorFee  float64
	Net           float64
}

// PaymentStatement feeds the PDF statement for a single payment record.
type PaymentStatement struct {
	Payment       CollectorPayment
	CollectorName string
	Net           NetPayment
}

// PaymentsReport feeds the spreadsheet export.
type PaymentsReport struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Payments    []PaymentsReportRow
}

type PaymentsReportRow struct {
	Payment       CollectorPayment
	CollectorName string
}
