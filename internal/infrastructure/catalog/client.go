package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
)

// Client looks up order snapshots from the upstream commerce platform.
// Lookups are synchronous and timeout-bounded; the engine never writes back.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an order catalog client
func NewClient(cfg config.CatalogConfig, logger *zap.Logger) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("catalog"),
	}
}

// orderResponse is the upstream wire format for an order snapshot
type orderResponse struct {
	ID            string             `json:"id"`
	CustomerEmail string             `json:"customer_email"`
	CreatedAt     time.Time          `json:"created_at"`
	TotalPrice    string             `json:"total_price"`
	Currency      string             `json:"currency"`
	LineItems     []lineItemResponse `json:"line_items"`
}

type lineItemResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	FinalSale bool   `json:"final_sale"`
	Refunded  bool   `json:"refunded"`
}

// GetOrder fetches the order snapshot for the given ID.
// Returns ErrOrderNotFound for 404; other failures are classified
// GatewayErrors so the caller can decide on retry.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*returns.Order, error) {
	url := fmt.Sprintf("%s/orders/%s", c.endpoint, orderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build order request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient
		return nil, returns.NewGatewayError("order lookup", 0, true, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, returns.ErrOrderNotFound
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, returns.NewGatewayError("order lookup", resp.StatusCode, true, nil)
	case resp.StatusCode != http.StatusOK:
		return nil, returns.NewGatewayError("order lookup", resp.StatusCode, false, nil)
	}

	var body orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, returns.NewGatewayError("order lookup", resp.StatusCode, false, err)
	}

	order, err := body.toDomain()
	if err != nil {
		return nil, returns.NewGatewayError("order lookup", resp.StatusCode, false, err)
	}

	c.logger.Debug("fetched order snapshot",
		zap.String("order_id", order.ID),
		zap.Int("line_items", len(order.LineItems)))

	return order, nil
}

func (r orderResponse) toDomain() (*returns.Order, error) {
	currency := valueobject.Currency(r.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	total, err := valueobject.NewMoneyFromString(r.TotalPrice, currency)
	if err != nil {
		return nil, fmt.Errorf("invalid total_price %q: %w", r.TotalPrice, err)
	}

	items := make([]returns.LineItem, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		unitPrice, err := valueobject.NewMoneyFromString(li.UnitPrice, currency)
		if err != nil {
			return nil, fmt.Errorf("invalid unit_price %q on line item %s: %w", li.UnitPrice, li.ID, err)
		}
		items = append(items, returns.LineItem{
			ID:        li.ID,
			Title:     li.Title,
			UnitPrice: unitPrice,
			Quantity:  li.Quantity,
			FinalSale: li.FinalSale,
			Refunded:  li.Refunded,
		})
	}

	return &returns.Order{
		ID:            r.ID,
		CustomerEmail: r.CustomerEmail,
		CreatedAt:     r.CreatedAt,
		TotalPrice:    total,
		LineItems:     items,
	}, nil
}

// Ensure Client implements OrderCatalog
var _ returns.OrderCatalog = (*Client)(nil)
