package returns

import (
	"strings"
	"time"

	"github.com/returnsdesk/backend/internal/domain/shared"
)

// ReturnReason represents the customer-supplied reason for a return
type ReturnReason string

const (
	ReasonDefective         ReturnReason = "defective"
	ReasonWrongSize         ReturnReason = "wrong_size"
	ReasonWrongColor        ReturnReason = "wrong_color"
	ReasonNotAsDescribed    ReturnReason = "not_as_described"
	ReasonDamagedInShipping ReturnReason = "damaged_in_shipping"
	ReasonChangedMind       ReturnReason = "changed_mind"
	ReasonDuplicateOrder    ReturnReason = "duplicate_order"
)

// KnownReasons lists every reason the engine understands. The per-deployment
// whitelist (config) may allow a subset of these.
var KnownReasons = []ReturnReason{
	ReasonDefective,
	ReasonWrongSize,
	ReasonWrongColor,
	ReasonNotAsDescribed,
	ReasonDamagedInShipping,
	ReasonChangedMind,
	ReasonDuplicateOrder,
}

// IsKnown returns true if the reason is one the engine understands
func (r ReturnReason) IsKnown() bool {
	for _, known := range KnownReasons {
		if r == known {
			return true
		}
	}
	return false
}

// IsMerchantFault returns true for reasons where the fault lies with the
// merchant or carrier. Restocking fees are waived for these.
func (r ReturnReason) IsMerchantFault() bool {
	switch r {
	case ReasonDefective, ReasonNotAsDescribed, ReasonDamagedInShipping:
		return true
	}
	return false
}

// String returns the string representation of the reason
func (r ReturnReason) String() string {
	return string(r)
}

// CustomerTier represents the customer standing carried on the request.
// It feeds the exception/override rule only.
type CustomerTier string

const (
	TierStandard CustomerTier = "standard"
	TierVIP      CustomerTier = "vip"
)

// ReturnRequest is the normalized inbound return event. It is immutable once
// received; the engine never mutates it.
type ReturnRequest struct {
	EventID     string
	OrderID     string
	LineItemID  string
	Reason      ReturnReason
	RequestedAt time.Time

	// Override inputs, optional. CustomerTier empty means unknown;
	// DamagedOnArrival nil means the flag was absent from the event.
	CustomerTier     CustomerTier
	DamagedOnArrival *bool
}

// NewReturnRequest validates and creates a return request
func NewReturnRequest(eventID, orderID, lineItemID string, reason ReturnReason, requestedAt time.Time) (*ReturnRequest, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, shared.NewDomainError("INVALID_EVENT_ID", "Event ID cannot be empty")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if strings.TrimSpace(lineItemID) == "" {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM_ID", "Line item ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Return reason cannot be empty")
	}
	if requestedAt.IsZero() {
		requestedAt = time.Now()
	}

	return &ReturnRequest{
		EventID:     eventID,
		OrderID:     orderID,
		LineItemID:  lineItemID,
		Reason:      reason,
		RequestedAt: requestedAt,
	}, nil
}

// HasOverrideInputs returns true if the request carries any exception input
func (r *ReturnRequest) HasOverrideInputs() bool {
	return r.CustomerTier != "" || r.DamagedOnArrival != nil
}
