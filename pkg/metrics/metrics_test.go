package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("storefront")

	m.ObserveRequest("/api/products", http.MethodGet, 200, 15*time.Millisecond)
	m.ObserveRequest("/api/products", http.MethodGet, 200, 5*time.Millisecond)
	m.ObserveRequest("", http.MethodGet, 404, time.Millisecond)
	m.OrderTransition(models.OrderPending, models.OrderShipped)
	m.OrderPlaced()
	m.StockMoved(models.StockDeduct, 3)
	m.StockMoved(models.StockRestore, 0)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/products", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("Pending", "Shipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stockMovements.WithLabelValues("deduct")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.stockMovements), "zero-unit movements create no series")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheOperations.WithLabelValues("miss")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/", "GET", 200, time.Millisecond)
		m.OrderTransition(models.OrderShipped, models.OrderCancelled)
		m.OrderPlaced()
		m.StockMoved(models.StockRestore, 1)
		m.CacheLookup(true)
	})
}

func TestHandler(t *testing.T) {
	m := New("storefront")
	m.OrderPlaced()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_orders_placed_total 1")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
