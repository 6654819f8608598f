package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dairychain/milkops/internal/excel"
	"github.com/dairychain/milkops/internal/http/middleware"
	"github.com/dairychain/milkops/internal/model"
	"github.com/dairychain/milkops/internal/pdf"
	"github.com/dairychain/milkops/internal/repository"
	"github.com/dairychain/milkops/internal/service"
)

type stubCollections struct {
	eligible []model.Collection
}

func (s *stubCollections) Create(_ context.Context, c model.Collection) (*model.Collection, error) {
	c.ID = uuid.New()
	c.Status = model.CollectionStatusCollected
	return &c, nil
}

func (s *stubCollections) ListEligible(_ context.Context, collectorID uuid.UUID, _ time.Time) ([]model.Collection, error) {
	var out []model.Collection
	for _, c := range s.eligible {
		if c.StaffID == collectorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCollections) List(_ context.Context, _ repository.CollectionFilter) ([]model.Collection, error) {
	return s.eligible, nil
}

type stubApprovals struct {
	commitErr error
	alerts    []model.Approval
}

func (s *stubApprovals) CommitBatch(_ context.Context, _ []model.Approval) error { return s.commitErr }

func (s *stubApprovals) GetByID(_ context.Context, _ uuid.UUID) (*model.Approval, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubApprovals) Acknowledge(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubApprovals) ListAlerts(_ context.Context) ([]model.Approval, error) {
	return s.alerts, nil
}

type stubVarianceConfig struct{}

func (stubVarianceConfig) Thresholds(_ context.Context) (map[model.VarianceType]float64, error) {
	return map[model.VarianceType]float64{
		model.VarianceTypePositive: 5,
		model.VarianceTypeNegative: 5,
	}, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(_ context.Context, _ model.VarianceAlert) {}

type stubPayments struct {
	payment *model.CollectorPayment
	count   int64
	liters  float64
	overlap bool
}

func (s *stubPayments) SummarizeApproved(_ context.Context, _ uuid.UUID, _, _ time.Time) (int64, float64, error) {
	return s.count, s.liters, nil
}

func (s *stubPayments) HasOverlap(_ context.Context, _ uuid.UUID, _, _ time.Time) (bool, error) {
	return s.overlap, nil
}

func (s *stubPayments) Insert(_ context.Context, p model.CollectorPayment) (*model.CollectorPayment, error) {
	p.ID = uuid.New()
	p.Status = model.PaymentStatusPending
	s.payment = &p
	return &p, nil
}

func (s *stubPayments) GetByID(_ context.Context, id uuid.UUID) (*model.CollectorPayment, error) {
	if s.payment == nil || s.payment.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.payment
	return &copied, nil
}

func (s *stubPayments) List(_ context.Context, _ *uuid.UUID) ([]model.CollectorPayment, error) {
	if s.payment == nil {
		return nil, nil
	}
	return []model.CollectorPayment{*s.payment}, nil
}

func (s *stubPayments) MarkPaid(_ context.Context, p model.CollectorPayment, paidAt time.Time) error {
	if s.payment == nil || s.payment.Status != model.PaymentStatusPending {
		return repository.ErrConcurrentUpdate
	}
	s.payment.Status = model.PaymentStatusPaid
	s.payment.PaidAt = &paidAt
	return nil
}

func (s *stubPayments) ApprovedSummaries(_ context.Context) ([]model.CollectorPeriodSummary, error) {
	return nil, nil
}

func (s *stubPayments) ReplacePending(_ context.Context, payments []model.CollectorPayment) (int, error) {
	return len(payments), nil
}

type stubNames struct{}

func (stubNames) CollectorNames(_ context.Context) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{}, nil
}

type env struct {
	router      *gin.Engine
	collections *stubCollections
	approvals   *stubApprovals
	payments    *stubPayments
}

func setupRouter(t *testing.T, principal model.Principal) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	e := &env{
		collections: &stubCollections{},
		approvals:   &stubApprovals{},
		payments:    &stubPayments{},
	}

	approvalSvc := service.NewApprovalService(
		e.collections, e.approvals, stubVarianceConfig{},
		service.StaticPenaltyProvider{Penalty: service.ProportionalPenalty{}}, service.StaticRateProvider{Rate: 45},
		noopNotifier{}, log,
	)
	earningsSvc := service.NewEarningsService(
		e.payments, service.StaticRateProvider{Rate: 45},
		service.NoopCreditLedger{}, service.RateFeeSchedule{Rate: 0.02},
		stubNames{}, log,
	)
	handler := NewHandler(approvalSvc, earningsSvc, excel.NewGenerator(), pdf.NewGenerator(), log)

	e.router = gin.New()
	handler.Register(e.router, func(c *gin.Context) {
		if principal.UserID != uuid.Nil {
			middleware.SetPrincipal(c, principal)
		}
		c.Next()
	})
	return e
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func staff() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleStaff}
}

func admin() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
}

func TestApproveBatchEndpoint(t *testing.T) {
	e := setupRouter(t, staff())
	collector := uuid.New()
	e.collections.eligible = []model.Collection{
		{ID: uuid.New(), StaffID: collector, Liters: 50, Status: model.CollectionStatusCollected},
		{ID: uuid.New(), StaffID: collector, Liters: 75, Status: model.CollectionStatusCollected},
	}

	rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", gin.H{
		"collector_id":            collector.String(),
		"collection_date":         "2026-03-02",
		"company_received_liters": 125.0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.ApprovalBatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.ApprovedCount)
	assert.InDelta(t, 0, result.TotalVarianceLiters, 1e-9)
}

func TestApproveBatchStatusMapping(t *testing.T) {
	collector := uuid.New()
	body := gin.H{
		"collector_id":            collector.String(),
		"collection_date":         "2026-03-02",
		"company_received_liters": 125.0,
	}

	t.Run("forbidden for farmers", func(t *testing.T) {
		e := setupRouter(t, model.Principal{UserID: uuid.New(), Role: model.RoleFarmer})
		rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		e := setupRouter(t, staff())
		rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", gin.H{"collector_id": collector.String()})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty eligible set", func(t *testing.T) {
		e := setupRouter(t, staff())
		rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("concurrent approval", func(t *testing.T) {
		e := setupRouter(t, staff())
		e.collections.eligible = []model.Collection{{ID: uuid.New(), StaffID: collector, Liters: 50}}
		e.approvals.commitErr = repository.ErrConcurrentUpdate
		rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		e := setupRouter(t, model.Principal{})
		rec := doJSON(t, e.router, http.MethodPost, "/approvals/batch", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogCollectionEndpoint(t *testing.T) {
	e := setupRouter(t, model.Principal{UserID: uuid.New(), Role: model.RoleCollector})

	rec := doJSON(t, e.router, http.MethodPost, "/collections", gin.H{
		"farmer_id":       uuid.New().String(),
		"collection_date": "2026-03-02",
		"liters":          50.0,
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGeneratePaymentEndpoint(t *testing.T) {
	body := gin.H{
		"collector_id":   uuid.New().String(),
		"period_start":   "2026-03-01",
		"period_end":     "2026-03-07",
		"rate_per_liter": 45.0,
	}

	t.Run("created", func(t *testing.T) {
		e := setupRouter(t, admin())
		e.payments.count = 3
		e.payments.liters = 180
		rec := doJSON(t, e.router, http.MethodPost, "/payments/generate", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("no approved collections", func(t *testing.T) {
		e := setupRouter(t, admin())
		rec := doJSON(t, e.router, http.MethodPost, "/payments/generate", body)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("overlapping period", func(t *testing.T) {
		e := setupRouter(t, admin())
		e.payments.overlap = true
		rec := doJSON(t, e.router, http.MethodPost, "/payments/generate", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("staff may not generate", func(t *testing.T) {
		e := setupRouter(t, staff())
		rec := doJSON(t, e.router, http.MethodPost, "/payments/generate", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMarkPaymentPaidEndpoint(t *testing.T) {
	e := setupRouter(t, admin())
	payment, err := e.payments.Insert(context.Background(), model.CollectorPayment{
		CollectorID: uuid.New(),
		PeriodStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	rec := doJSON(t, e.router, http.MethodPost, "/payments/"+payment.ID.String()+"/pay", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// paying twice conflicts
	rec = doJSON(t, e.router, http.MethodPost, "/payments/"+payment.ID.String()+"/pay", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, e.router, http.MethodPost, "/payments/"+uuid.NewString()+"/pay", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentNetEndpoint(t *testing.T) {
	e := setupRouter(t, admin())
	payment, err := e.payments.Insert(context.Background(), model.CollectorPayment{
		CollectorID:   uuid.New(),
		TotalEarnings: 8100,
	})
	require.NoError(t, err)

	rec := doJSON(t, e.router, http.MethodGet, "/payments/"+payment.ID.String()+"/net", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var net model.NetPayment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &net))
	assert.Equal(t, 8100.0, net.GrossEarnings)
	assert.Equal(t, 162.0, net.CollectorFee)
	assert.Equal(t, 7938.0, net.Net)
}

func TestExportEndpoints(t *testing.T) {
	e := setupRouter(t, admin())
	_, err := e.payments.Insert(context.Background(), model.CollectorPayment{
		CollectorID:   uuid.New(),
		PeriodStart:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		TotalLiters:   180,
		RatePerLiter:  45,
		TotalEarnings: 8100,
	})
	require.NoError(t, err)

	t.Run("csv", func(t *testing.T) {
		rec := doJSON(t, e.router, http.MethodGet, "/payments/export/csv", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;"))
		assert.Contains(t, rec.Body.String(), "8100.00")
	})

	t.Run("xlsx", func(t *testing.T) {
		rec := doJSON(t, e.router, http.MethodPost, "/payments/export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotEmpty(t, rec.Body.Bytes())
	})
}
