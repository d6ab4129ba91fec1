package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/v1/orders/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/orders/:id", "GET", "204"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ord_1", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/orders/:id", "GET", "204"))
	assert.Equal(t, before+1, after)
}

func TestCounters(t *testing.T) {
	hits := testutil.ToFloat64(catalogCache.WithLabelValues("hit"))
	CacheHit()
	assert.Equal(t, hits+1, testutil.ToFloat64(catalogCache.WithLabelValues("hit")))

	failed := testutil.ToFloat64(eventsPublished.WithLabelValues("order.created", "error"))
	EventPublished("order.created", errors.New("broker down"))
	assert.Equal(t, failed+1, testutil.ToFloat64(eventsPublished.WithLabelValues("order.created", "error")))

	placed := testutil.ToFloat64(ordersPlaced)
	OrderPlaced(130)
	assert.Equal(t, placed+1, testutil.ToFloat64(ordersPlaced))
}

func TestHandler_ServesExposition(t *testing.T) {
	CacheMiss()
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_catalog_cache_total")
}
