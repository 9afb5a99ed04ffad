package returns

import (
	"time"

	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// LineItem is one purchasable line of an order snapshot
type LineItem struct {
	ID        string
	Title     string
	UnitPrice valueobject.Money
	Quantity  int64
	FinalSale bool
	Refunded  bool
}

// LineTotal returns unit price multiplied by quantity
func (li LineItem) LineTotal() valueobject.Money {
	return li.UnitPrice.MultiplyByInt(li.Quantity)
}

// Order is a read-only snapshot of an order owned by the external catalog
// service. The engine holds one snapshot per decision and never writes back.
type Order struct {
	ID            string
	CustomerEmail string
	CreatedAt     time.Time
	TotalPrice    valueobject.Money
	LineItems     []LineItem
}

// GetLineItem returns the line item with the given ID, or nil
func (o *Order) GetLineItem(id string) *LineItem {
	for idx := range o.LineItems {
		if o.LineItems[idx].ID == id {
			return &o.LineItems[idx]
		}
	}
	return nil
}

// AgeAt returns how old the order was at the given instant
func (o *Order) AgeAt(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}
