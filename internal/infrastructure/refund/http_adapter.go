package refund

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
)

// IdempotencyKeyHeader carries the event ID so the payment system collapses
// duplicate submissions into one monetary transaction.
const IdempotencyKeyHeader = "Idempotency-Key"

// HTTPAdapter submits refund instructions to the external payment system
type HTTPAdapter struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPAdapter creates a refund gateway adapter
func NewHTTPAdapter(cfg config.RefundConfig, logger *zap.Logger) *HTTPAdapter {
	return &HTTPAdapter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("refund-gateway"),
	}
}

// refundRequestBody is the wire format for a refund submission
type refundRequestBody struct {
	OrderID    string `json:"order_id"`
	LineItemID string `json:"line_item_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	ReasonCode string `json:"reason_code"`
}

// refundResponseBody is the payment system's acknowledgment
type refundResponseBody struct {
	TransactionID string `json:"transaction_id"`
}

// SubmitRefund posts the refund instruction. Timeouts, 5xx and 429 are
// retryable; other client errors are fatal. A 409 means the idempotency key
// was already consumed and the prior transaction is returned.
func (a *HTTPAdapter) SubmitRefund(ctx context.Context, req returns.RefundRequest) (*returns.RefundReceipt, error) {
	payload, err := json.Marshal(refundRequestBody{
		OrderID:    req.OrderID,
		LineItemID: req.LineItemID,
		Amount:     req.Amount.StringFixed(2),
		Currency:   string(req.Amount.Currency()),
		ReasonCode: req.ReasonCode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refund request: %w", err)
	}

	url := a.endpoint + "/refunds"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build refund request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(IdempotencyKeyHeader, req.IdempotencyKey)
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, returns.NewGatewayError("refund submission", 0, true, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		// Fall through to decode
	case resp.StatusCode == http.StatusConflict:
		var body refundResponseBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.TransactionID == "" {
			return nil, returns.NewGatewayError("refund submission", resp.StatusCode, false, err)
		}
		a.logger.Info("refund already processed for idempotency key",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("transaction_id", body.TransactionID))
		return &returns.RefundReceipt{
			ExternalTransactionID: body.TransactionID,
			AlreadyProcessed:      true,
		}, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, returns.NewGatewayError("refund submission", resp.StatusCode, true, nil)
	default:
		return nil, returns.NewGatewayError("refund submission", resp.StatusCode, false, nil)
	}

	var body refundResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, returns.NewGatewayError("refund submission", resp.StatusCode, false, err)
	}
	if body.TransactionID == "" {
		return nil, returns.NewGatewayError("refund submission", resp.StatusCode, false,
			fmt.Errorf("response missing transaction_id"))
	}

	return &returns.RefundReceipt{ExternalTransactionID: body.TransactionID}, nil
}

// Ensure HTTPAdapter implements RefundGateway
var _ returns.RefundGateway = (*HTTPAdapter)(nil)
