package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dairychain/milkops/internal/excel"
	"github.com/dairychain/milkops/internal/export"
	"github.com/dairychain/milkops/internal/http/middleware"
	"github.com/dairychain/milkops/internal/model"
	"github.com/dairychain/milkops/internal/pdf"
	"github.com/dairychain/milkops/internal/repository"
	"github.com/dairychain/milkops/internal/service"
)

type Handler struct {
	approvals *service.ApprovalService
	earnings  *service.EarningsService
	excel     *excel.Generator
	pdf       *pdf.Generator
	log       zerolog.Logger
}

func NewHandler(
	approvals *service.ApprovalService,
	earnings *service.EarningsService,
	excelGen *excel.Generator,
	pdfGen *pdf.Generator,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		approvals: approvals,
		earnings:  earnings,
		excel:     excelGen,
		pdf:       pdfGen,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/collections", h.logCollection)
	protected.GET("/collections", h.listCollections)

	protected.POST("/approvals/batch", h.approveBatch)
	protected.POST("/approvals/:id/acknowledge", h.acknowledgeApproval)
	protected.GET("/approvals/alerts", h.listAlerts)

	protected.POST("/payments/generate", h.generatePayment)
	protected.POST("/payments/regenerate", h.regeneratePayments)
	protected.POST("/payments/:id/pay", h.markPaymentPaid)
	protected.GET("/payments", h.listPayments)
	protected.GET("/payments/:id/net", h.paymentNet)
	protected.POST("/payments/export", h.exportPaymentsExcel)
	protected.POST("/payments/export/pdf", h.exportStatementPDF)
	protected.GET("/payments/export/csv", h.exportPaymentsCSV)
}

type logCollectionRequest struct {
	FarmerID       string  `json:"farmer_id" binding:"required"`
	CollectorID    string  `json:"collector_id"`
	CollectionDate string  `json:"collection_date" binding:"required"`
	Liters         float64 `json:"liters" binding:"required"`
}

func (h *Handler) logCollection(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req logCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	farmerID, err := uuid.Parse(strings.TrimSpace(req.FarmerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid farmer_id"})
		return
	}

	var collectorID uuid.UUID
	if req.CollectorID != "" {
		collectorID, err = uuid.Parse(strings.TrimSpace(req.CollectorID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
			return
		}
	}

	date, err := parseDate(req.CollectionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collection_date"})
		return
	}

	collection, err := h.approvals.LogCollection(c.Request.Context(), service.LogCollectionInput{
		Principal:      principal,
		FarmerID:       farmerID,
		CollectorID:    collectorID,
		CollectionDate: date,
		Liters:         req.Liters,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) listCollections(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var filter repository.CollectionFilter
	if raw := c.Query("collector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
			return
		}
		filter.CollectorID = &id
	}
	if raw := c.Query("date"); raw != "" {
		date, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		filter.Date = &date
	}
	if raw := c.Query("status"); raw != "" {
		status := model.CollectionStatus(raw)
		switch status {
		case model.CollectionStatusCollected, model.CollectionStatusApproved, model.CollectionStatusPaid:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}

	collections, err := h.approvals.ListCollections(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collections": collections})
}

type approveBatchRequest struct {
	CollectorID           string  `json:"collector_id" binding:"required"`
	CollectionDate        string  `json:"collection_date" binding:"required"`
	CompanyReceivedLiters float64 `json:"company_received_liters" binding:"required"`
	Notes                 *string `json:"notes"`
}

func (h *Handler) approveBatch(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req approveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collectorID, err := uuid.Parse(strings.TrimSpace(req.CollectorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
		return
	}

	date, err := parseDate(req.CollectionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collection_date"})
		return
	}

	result, err := h.approvals.ApproveBatch(c.Request.Context(), service.ApproveBatchInput{
		Principal:             principal,
		CollectorID:           collectorID,
		CollectionDate:        date,
		CompanyReceivedLiters: req.CompanyReceivedLiters,
		Notes:                 req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) acknowledgeApproval(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid approval id"})
		return
	}

	if err := h.approvals.Acknowledge(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"acknowledged": true})
}

func (h *Handler) listAlerts(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	alerts, err := h.approvals.Alerts(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

type generatePaymentRequest struct {
	CollectorID  string  `json:"collector_id" binding:"required"`
	PeriodStart  string  `json:"period_start" binding:"required"`
	PeriodEnd    string  `json:"period_end" binding:"required"`
	RatePerLiter float64 `json:"rate_per_liter" binding:"required"`
}

func (h *Handler) generatePayment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req generatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collectorID, err := uuid.Parse(strings.TrimSpace(req.CollectorID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
		return
	}

	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return
	}

	payment, err := h.earnings.GeneratePayment(c.Request.Context(), principal, collectorID, start, end, req.RatePerLiter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

func (h *Handler) regeneratePayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	count, err := h.earnings.RegenerateAll(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"regenerated": count})
}

func (h *Handler) markPaymentPaid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	if err := h.earnings.MarkAsPaid(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paid": true})
}

func (h *Handler) listPayments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var collectorID *uuid.UUID
	if raw := c.Query("collector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
			return
		}
		collectorID = &id
	}

	payments, err := h.earnings.ListPayments(c.Request.Context(), principal, collectorID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *Handler) paymentNet(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.earnings.GetPayment(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	net, err := h.earnings.NetPayment(c.Request.Context(), *payment)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, net)
}

func (h *Handler) exportPaymentsExcel(c *gin.Context) {
	principal, report, ok := h.paymentsReport(c)
	if !ok {
		return
	}

	content, err := h.excel.Generate(*report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := buildExportFileName(*report, "xlsx")
	h.log.Info().Str("user_id", principal.UserID.String()).Str("file", fileName).Msg("payments export")
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (h *Handler) exportPaymentsCSV(c *gin.Context) {
	_, report, ok := h.paymentsReport(c)
	if !ok {
		return
	}

	content, err := export.PaymentsCSV(*report)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := buildExportFileName(*report, "csv")
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "text/csv", content)
}

type exportStatementRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

func (h *Handler) exportStatementPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req exportStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paymentID, err := uuid.Parse(strings.TrimSpace(req.PaymentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_id"})
		return
	}

	statement, err := h.earnings.BuildStatement(c.Request.Context(), principal, paymentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	content, err := h.pdf.Generate(*statement)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := fmt.Sprintf("statement-%s.pdf", paymentID)
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) paymentsReport(c *gin.Context) (model.Principal, *model.PaymentsReport, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Principal{}, nil, false
	}

	var collectorID *uuid.UUID
	if raw := c.Query("collector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid collector_id"})
			return model.Principal{}, nil, false
		}
		collectorID = &id
	}

	report, err := h.earnings.BuildPaymentsReport(c.Request.Context(), principal, collectorID)
	if err != nil {
		h.handleError(c, err)
		return model.Principal{}, nil, false
	}
	return principal, report, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func buildExportFileName(report model.PaymentsReport, ext string) string {
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format("20060102"), report.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("payments-%s.%s", period, ext)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
