package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/requestctx"
)

func testLogger() *logging.LoggerV2 {
	return logging.NewWithZap("test", zap.NewNop())
}

func newCatalogServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestDecodeProducts_NormalizesShapes(t *testing.T) {
	body := `{"data": [
		{"pid": 1, "name": " Tomatoes ", "price": 50, "cgst": 5, "sgst": "5", "delivery_fee": "20", "vendor_id": 7, "stock": "12.5"},
		{"id": "p-2", "name": "Onions", "price": "32.5"}
	]}`

	products, err := decodeProducts([]byte(body))
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, models.Product{
		ID:          "1",
		Name:        "Tomatoes",
		VendorID:    "7",
		UnitPrice:   50,
		CGSTPercent: 5,
		SGSTPercent: 5,
		DeliveryFee: 20,
		StockKg:     12.5,
	}, products[0])

	assert.Equal(t, "p-2", products[1].ID)
	assert.Equal(t, 32.5, products[1].UnitPrice)
	assert.Zero(t, products[1].CGSTPercent)
	assert.Zero(t, products[1].DeliveryFee)
}

func TestDecodeProducts_BareArray(t *testing.T) {
	products, err := decodeProducts([]byte(`[{"pid":"a","cgst":2.5,"sgst":2.5,"delivery_fee":0}]`))
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "a", products[0].ID)
	assert.Equal(t, 2.5, products[0].CGSTPercent)
}

func TestDecodeProducts_PrefersPID(t *testing.T) {
	products, err := decodeProducts([]byte(`[{"pid":"new","id":"old"}]`))
	require.NoError(t, err)
	assert.Equal(t, "new", products[0].ID)
}

func TestDecodeProducts_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing id", `[{"name":"x","price":1}]`, "pid"},
		{"negative delivery fee", `[{"pid":1,"delivery_fee":-3}]`, "delivery_fee"},
		{"tax over 100 percent", `[{"pid":1},{"pid":2,"cgst":120}]`, "cgst"},
		{"non numeric string", `[{"pid":1,"sgst":"five"}]`, "record"},
		{"infinite price", `[{"pid":1,"price":"Infinity"}]`, "price"},
		{"infinite delivery fee", `[{"pid":1,"price":10,"delivery_fee":"+Inf"}]`, "delivery_fee"},
		{"nan stock", `[{"pid":1,"stock":"NaN"}]`, "stock"},
		{"negative infinite tax", `[{"pid":1,"cgst":"-Inf"}]`, "cgst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeProducts([]byte(tt.body))
			require.Error(t, err)

			var perr *PayloadError
			require.True(t, errors.As(err, &perr), "expected PayloadError, got %T", err)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestDecodeProducts_RejectionNamesIndex(t *testing.T) {
	_, err := decodeProducts([]byte(`[{"pid":1},{"pid":2,"cgst":120}]`))
	var perr *PayloadError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Index)
}

func TestDecodeProducts_NotAnArray(t *testing.T) {
	_, err := decodeProducts([]byte(`{"data": {"pid": 1}}`))
	assert.Error(t, err)

	_, err = decodeProducts([]byte(``))
	assert.Error(t, err)
}

func TestHTTPCatalogClient_ListProducts(t *testing.T) {
	srv, seen := newCatalogServer(t, http.StatusOK, `[{"pid":1,"price":50,"cgst":5,"sgst":5,"delivery_fee":20}]`)

	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL + "/", Timeout: time.Second, APIKey: "svc-key"}, testLogger())
	ctx := requestctx.WithRequestID(context.Background(), "req-1")

	products, err := client.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 20.0, products[0].DeliveryFee)

	assert.Equal(t, "/api/products", seen.URL.Path)
	assert.Equal(t, "Bearer svc-key", seen.Header.Get("Authorization"))
	assert.Equal(t, "req-1", seen.Header.Get(requestctx.HeaderRequestID))
}

func TestHTTPCatalogClient_ForwardsSessionToken(t *testing.T) {
	srv, seen := newCatalogServer(t, http.StatusOK, `[]`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second, APIKey: "svc-key"}, testLogger())

	ctx := requestctx.WithSession(context.Background(), &models.Session{UpstreamToken: "user-token"})
	_, err := client.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", seen.Header.Get("Authorization"))
}

func TestHTTPCatalogClient_UpstreamFailure(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusServiceUnavailable, `oops`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())

	_, err := client.ListProducts(context.Background())
	require.Error(t, err)

	var uerr *errors.UpstreamError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, http.StatusServiceUnavailable, uerr.StatusCode)
	assert.Equal(t, "catalog", uerr.Service)
}

func TestHTTPCatalogClient_MalformedPayloadIsUpstreamError(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, `[{"name":"no id"}]`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())

	_, err := client.ListProducts(context.Background())
	assert.True(t, errors.IsUpstream(err))

	var perr *PayloadError
	assert.True(t, errors.As(err, &perr))
}

func TestHTTPCatalogClient_InfinitePriceIsUpstreamError(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusOK, `[{"pid":"p1","price":"Infinity","delivery_fee":"+Inf"}]`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())

	products, err := client.ListProducts(context.Background())
	assert.Nil(t, products)
	assert.True(t, errors.IsUpstream(err))
}

func TestHTTPCatalogClient_GetProduct(t *testing.T) {
	srv, seen := newCatalogServer(t, http.StatusOK, `{"data":{"pid":"p 1","price":"10"}}`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())

	p, err := client.GetProduct(context.Background(), "p 1")
	require.NoError(t, err)
	assert.Equal(t, "p 1", p.ID)
	assert.Equal(t, 10.0, p.UnitPrice)
	assert.Equal(t, "/api/products/p%201", seen.URL.EscapedPath())
}

func TestHTTPCatalogClient_GetProductNotFound(t *testing.T) {
	srv, _ := newCatalogServer(t, http.StatusNotFound, `{}`)
	client := NewHTTPCatalogClient(config.ServiceConfig{BaseURL: srv.URL, Timeout: time.Second}, testLogger())

	_, err := client.GetProduct(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
