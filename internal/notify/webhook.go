package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/dairychain/milkops/internal/model"
)

// WebhookNotifier posts variance alerts to a configured webhook. Delivery is
// best effort: failures are logged and never propagated to the caller.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	log    zerolog.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, log zerolog.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1)

	return &WebhookNotifier{
		client: client,
		url:    url,
		log:    log,
	}
}

type alertPayload struct {
	Type               string  `json:"type"`
	Severity           string  `json:"severity"`
	CollectorID        string  `json:"collector_id"`
	CollectionID       string  `json:"collection_id"`
	ApprovalID         string  `json:"approval_id"`
	VarianceType       string  `json:"variance_type"`
	VariancePercentage float64 `json:"variance_percentage"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, alert model.VarianceAlert) {
	if n.url == "" {
		return
	}

	payload := alertPayload{
		Type:               "variance_alert",
		Severity:           string(alert.Severity),
		CollectorID:        alert.CollectorID.String(),
		CollectionID:       alert.CollectionID.String(),
		ApprovalID:         alert.ApprovalID.String(),
		VarianceType:       string(alert.VarianceType),
		VariancePercentage: alert.VariancePercentage,
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(n.url)
	if err != nil {
		n.log.Warn().Err(err).Str("approval_id", payload.ApprovalID).Msg("variance alert delivery failed")
		return
	}
	if resp.IsError() {
		n.log.Warn().
			Int("status", resp.StatusCode()).
			Str("approval_id", payload.ApprovalID).
			Msg("variance alert rejected by webhook")
	}
}

// LogNotifier writes alerts to the service log; used when no webhook is
// configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, alert model.VarianceAlert) {
	n.Log.Warn().
		Str("severity", string(alert.Severity)).
		Str("collector_id", alert.CollectorID.String()).
		Str("collection_id", alert.CollectionID.String()).
		Float64("variance_percentage", alert.VariancePercentage).
		Msg("variance alert")
}
