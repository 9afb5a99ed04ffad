package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// OrderCatalog looks up order snapshots from the upstream commerce platform
type OrderCatalog interface {
	GetOrder(ctx context.Context, orderID string) (*Order, error)
}

// RefundRequest is the payload submitted to the payment system. The
// idempotency key equals the originating return event ID so the payment
// system can collapse duplicate submissions.
type RefundRequest struct {
	IdempotencyKey string
	OrderID        string
	LineItemID     string
	Amount         valueobject.Money
	ReasonCode     string
}

// RefundReceipt is the payment system's acknowledgment of a refund
type RefundReceipt struct {
	ExternalTransactionID string
	AlreadyProcessed      bool
}

// RefundGateway submits refunds to the external payment system
type RefundGateway interface {
	SubmitRefund(ctx context.Context, req RefundRequest) (*RefundReceipt, error)
}

// GatewayError classifies a gateway failure for retry handling. Transient
// failures (timeouts, 5xx, throttling) are retryable; client errors are not.
type GatewayError struct {
	Operation  string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed (status %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed (status %d)", e.Operation, e.StatusCode)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError creates a classified gateway error
func NewGatewayError(operation string, statusCode int, retryable bool, err error) *GatewayError {
	return &GatewayError{
		Operation:  operation,
		StatusCode: statusCode,
		Retryable:  retryable,
		Err:        err,
	}
}

// IsRetryable reports whether the error is a transient gateway failure
func IsRetryable(err error) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Retryable
	}
	return false
}

// ErrOrderNotFound is returned by catalogs when the order does not exist
var ErrOrderNotFound = errors.New("order not found")
