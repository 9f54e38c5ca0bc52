package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareAndSnapshotGauges(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items/abc", nil))
	m.ObserveSnapshot(7, 2)
	m.SetSubscribers(3)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `stockroom_http_requests_total{method="GET",path="/api/items/:id",status="204"} 1`)
	assert.Contains(t, text, "stockroom_inventory_items 7")
	assert.Contains(t, text, "stockroom_inventory_low_stock_items 2")
	assert.Contains(t, text, "stockroom_feed_subscribers 3")
	assert.Contains(t, text, "stockroom_feed_snapshots_published_total 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSnapshot(1, 1)
	m.SetSubscribers(1)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
