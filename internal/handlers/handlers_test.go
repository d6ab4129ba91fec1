package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

func newTestHandlers() *Handlers {
	gin.SetMode(gin.TestMode)
	logging.SetRoot(zap.NewNop())
	return NewHandlers(Services{}, config.Load())
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return resp
}

func TestHealth(t *testing.T) {
	h := newTestHandlers()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "storefront-service", resp["service"])
}

func TestReady(t *testing.T) {
	h := newTestHandlers()
	h.AddReadinessCheck("postgres", func(ctx context.Context) error { return nil })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["checks"].(map[string]interface{})["postgres"])
}

func TestReady_FailingCheck(t *testing.T) {
	h := newTestHandlers()
	h.AddReadinessCheck("postgres", func(ctx context.Context) error { return nil })
	h.AddReadinessCheck("redis", func(ctx context.Context) error { return stderrors.New("connection refused") })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "not_ready", resp["status"])
	checks := resp["checks"].(map[string]interface{})
	assert.Equal(t, "connection refused", checks["redis"])
	assert.Equal(t, "ok", checks["postgres"])
}

func TestLive(t *testing.T) {
	h := newTestHandlers()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Live(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleError(t *testing.T) {
	h := newTestHandlers()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", errors.ErrNotFound, http.StatusNotFound},
		{"unauthorized", errors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", errors.ErrForbidden, http.StatusForbidden},
		{"validation", errors.NewValidationError("quantity", "must be positive"), http.StatusBadRequest},
		{"upstream", errors.NewUpstreamStatusError("catalog", 503), http.StatusBadGateway},
		{"other", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleError_ValidationDetails(t *testing.T) {
	h := newTestHandlers()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.handleError(c, errors.NewValidationError("shipping_address", "postal code must be 6 digits"))

	resp := decode(t, w)
	assert.Equal(t, "postal code must be 6 digits", resp["error"])
	assert.Equal(t, map[string]interface{}{"shipping_address": "postal code must be 6 digits"}, resp["details"])
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, requestctx.RequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestctx.HeaderRequestID, "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(requestctx.HeaderRequestID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(requestctx.HeaderRequestID))
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	withSession := func(role models.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				s := &models.Session{UserID: "u1", Role: role}
				c.Request = c.Request.WithContext(requestctx.WithSession(c.Request.Context(), s))
			}
			c.Next()
		}
	}

	tests := []struct {
		name   string
		role   models.Role
		status int
	}{
		{"allowed", models.RoleVendor, http.StatusOK},
		{"other role", models.RoleCustomer, http.StatusForbidden},
		{"no session", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/", withSession(tt.role), RequireRole(models.RoleVendor, models.RoleDriver), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	token, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)

	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}

func TestPageParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=5&offset=10", nil)

	limit, offset, ok := pageParams(c)
	assert.True(t, ok)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)

	_, _, ok = pageParams(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
