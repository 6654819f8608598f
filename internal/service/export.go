package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dairychain/milkops/internal/model"
)

// BuildPaymentsReport assembles the export view of the payment records
// visible to the principal.
func (s *EarningsService) BuildPaymentsReport(ctx context.Context, principal model.Principal, collectorID *uuid.UUID) (*model.PaymentsReport, error) {
	payments, err := s.ListPayments(ctx, principal, collectorID)
	if err != nil {
		return nil, err
	}
	if len(payments) == 0 {
		return nil, fmt.Errorf("%w: no payment records", ErrNotFound)
	}

	names, err := s.names.CollectorNames(ctx)
	if err != nil {
		return nil, err
	}

	report := &model.PaymentsReport{
		PeriodStart: payments[0].PeriodStart,
		PeriodEnd:   payments[0].PeriodEnd,
	}
	for _, payment := range payments {
		if payment.PeriodStart.Before(report.PeriodStart) {
			report.PeriodStart = payment.PeriodStart
		}
		if payment.PeriodEnd.After(report.PeriodEnd) {
			report.PeriodEnd = payment.PeriodEnd
		}
		report.Payments = append(report.Payments, model.PaymentsReportRow{
			Payment:       payment,
			CollectorName: collectorName(names, payment.CollectorID),
		})
	}
	return report, nil
}

// BuildStatement assembles the printable statement for one payment record.
func (s *EarningsService) BuildStatement(ctx context.Context, principal model.Principal, paymentID uuid.UUID) (*model.PaymentStatement, error) {
	payment, err := s.GetPayment(ctx, principal, paymentID)
	if err != nil {
		return nil, err
	}

	net, err := s.NetPayment(ctx, *payment)
	if err != nil {
		return nil, err
	}

	names, err := s.names.CollectorNames(ctx)
	if err != nil {
		return nil, err
	}

	return &model.PaymentStatement{
		Payment:       *payment,
		CollectorName: collectorName(names, payment.CollectorID),
		Net:           *net,
	}, nil
}

func collectorName(names map[uuid.UUID]string, id uuid.UUID) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return id.String()
}
