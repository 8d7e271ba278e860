package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"payme-merchant-gateway/internal/core/domain"

	"github.com/rs/zerolog"
)

// WebhookCaptureSink implements ports.CaptureSink by POSTing an order-paid
// event to the shop's mark-order-paid endpoint. The body is HMAC-SHA256
// signed so the shop can authenticate the event.
type WebhookCaptureSink struct {
	url    string
	secret string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookCaptureSink creates the sink. An empty url disables delivery.
func NewWebhookCaptureSink(url, secret string, client *http.Client, log zerolog.Logger) *WebhookCaptureSink {
	return &WebhookCaptureSink{url: url, secret: secret, client: client, log: log}
}

// capturePayload is the order-paid event body.
type capturePayload struct {
	OrderID     string `json:"order_id"`
	Transaction string `json:"transaction"`
	PerformTime int64  `json:"perform_time"`
}

// OrderPaid delivers the event. Errors are reported to the caller for
// logging; the caller must not fail the state transition on them.
func (s *WebhookCaptureSink) OrderPaid(ctx context.Context, tx *domain.Transaction) error {
	if s.url == "" {
		return nil
	}

	body, err := json.Marshal(capturePayload{
		OrderID:     tx.OrderID,
		Transaction: tx.PaymeID,
		PerformTime: tx.PerformTime,
	})
	if err != nil {
		return fmt.Errorf("marshal capture payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build capture request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", signCapture(s.secret, body))

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver capture webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("capture webhook rejected: status %d", resp.StatusCode)
	}

	s.log.Info().Str("order_id", tx.OrderID).Str("transaction", tx.PaymeID).Msg("order-paid webhook delivered")
	return nil
}

// signCapture computes the lowercase hex HMAC-SHA256 of the body.
func signCapture(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// NoopCaptureSink discards order-paid events. Used when no capture URL is
// configured.
type NoopCaptureSink struct{}

// OrderPaid implements ports.CaptureSink.
func (NoopCaptureSink) OrderPaid(ctx context.Context, tx *domain.Transaction) error {
	return nil
}
