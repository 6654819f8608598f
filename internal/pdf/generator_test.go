package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairychain/milkops/internal/model"
)

func TestGenerateStatement(t *testing.T) {
	paidAt := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	statement := model.PaymentStatement{
		CollectorName: "Peter Kamau",
		Payment: model.CollectorPayment{
			PeriodStart:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:        time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
			TotalCollections: 3,
			TotalLiters:      180,
			RatePerLiter:     45,
			TotalEarnings:    8100,
			Status:           model.PaymentStatusPaid,
			PaidAt:           &paidAt,
		},
		Net: model.NetPayment{
			GrossEarnings: 8100,
			CreditUsed:    500,
			CollectorFee:  162,
			Net:           7438,
		},
	}

	content, err := NewGenerator().Generate(statement)
	require.NoError(t, err)
	require.NotEmpty(t, content)
	assert.Equal(t, "%PDF", string(content[:4]))
}
