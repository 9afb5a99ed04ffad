package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.CatalogConfig{
		Endpoint: server.URL,
		APIKey:   "cat_key",
		Timeout:  2 * time.Second,
	}, zap.NewNop())
	return client, server
}

func TestClientGetOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and maps order snapshot", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/orders/ord_1001", r.URL.Path)
			assert.Equal(t, "Bearer cat_key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"id": "ord_1001",
				"customer_email": "shopper@example.com",
				"created_at": "2026-08-10T12:00:00Z",
				"total_price": "59.98",
				"currency": "USD",
				"line_items": [
					{"id": "li_1", "title": "Trail Jacket", "unit_price": "29.99", "quantity": 2, "final_sale": false, "refunded": false}
				]
			}`))
		})

		order, err := client.GetOrder(ctx, "ord_1001")
		require.NoError(t, err)

		assert.Equal(t, "ord_1001", order.ID)
		assert.Equal(t, "shopper@example.com", order.CustomerEmail)
		require.Len(t, order.LineItems, 1)
		assert.Equal(t, "29.99", order.LineItems[0].UnitPrice.StringFixed(2))
		assert.Equal(t, int64(2), order.LineItems[0].Quantity)
		assert.Equal(t, "59.98", order.TotalPrice.StringFixed(2))
	})

	t.Run("404 maps to ErrOrderNotFound", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetOrder(ctx, "ord_missing")
		assert.ErrorIs(t, err, returns.ErrOrderNotFound)
	})

	t.Run("5xx is retryable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.GetOrder(ctx, "ord_1001")
		require.Error(t, err)
		assert.True(t, returns.IsRetryable(err))
	})

	t.Run("4xx is not retryable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.GetOrder(ctx, "ord_1001")
		require.Error(t, err)
		assert.False(t, returns.IsRetryable(err))
	})

	t.Run("malformed body is not retryable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": `))
		})

		_, err := client.GetOrder(ctx, "ord_1001")
		require.Error(t, err)
		assert.False(t, returns.IsRetryable(err))

		var ge *returns.GatewayError
		assert.True(t, errors.As(err, &ge))
	})

	t.Run("timeout is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		t.Cleanup(server.Close)

		client := NewClient(config.CatalogConfig{
			Endpoint: server.URL,
			Timeout:  20 * time.Millisecond,
		}, zap.NewNop())

		_, err := client.GetOrder(ctx, "ord_1001")
		require.Error(t, err)
		assert.True(t, returns.IsRetryable(err))
	})
}
