package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const catalogServiceName = "catalog"

// CatalogClient reads products from the upstream catalog API.
type CatalogClient interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// Ensure HTTPCatalogClient implements CatalogClient
var _ CatalogClient = (*HTTPCatalogClient)(nil)

// HTTPCatalogClient implements CatalogClient using HTTP.
type HTTPCatalogClient struct {
	baseClient
	logger *logging.LoggerV2
}

// NewHTTPCatalogClient creates a new HTTP-based catalog client.
func NewHTTPCatalogClient(cfg config.ServiceConfig, logger *logging.LoggerV2) *HTTPCatalogClient {
	return &HTTPCatalogClient{
		baseClient: newBaseClient(catalogServiceName, cfg),
		logger:     logger,
	}
}

// ListProducts fetches and validates the full product list.
func (c *HTTPCatalogClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	c.logger.Debug("Fetching product catalog")

	req, err := c.newRequest(ctx, http.MethodGet, "/api/products", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to fetch catalog", logging.Fields{"error": err.Error()})
		return nil, errors.NewUpstreamError(c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Catalog request returned error", logging.Fields{"status_code": resp.StatusCode})
		return nil, errors.NewUpstreamStatusError(c.service, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}

	products, err := decodeProducts(body)
	if err != nil {
		c.logger.Error("Rejected catalog payload", logging.Fields{"error": err.Error()})
		return nil, errors.NewUpstreamError(c.service, err)
	}

	c.logger.Debug("Catalog fetched", logging.Fields{"count": len(products)})
	return products, nil
}

// GetProduct fetches one product. It returns errors.ErrNotFound for unknown ids.
func (c *HTTPCatalogClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	c.logger.Debug("Fetching product", logging.Fields{"product_id": id})

	req, err := c.newRequest(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamStatusError(c.service, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, errors.NewUpstreamError(c.service, err)
	}

	product, err := decodeSingleProduct(body)
	if err != nil {
		c.logger.Error("Rejected product payload", logging.Fields{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, errors.NewUpstreamError(c.service, err)
	}

	return &product, nil
}

// MockCatalogClient is an in-memory CatalogClient for tests.
type MockCatalogClient struct {
	Products []models.Product
	Err      error
	Calls    int
}

// NewMockCatalogClient creates a mock catalog client.
func NewMockCatalogClient(products ...models.Product) *MockCatalogClient {
	return &MockCatalogClient{Products: products}
}

func (m *MockCatalogClient) ListProducts(ctx context.Context) ([]models.Product, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]models.Product, len(m.Products))
	copy(out, m.Products)
	return out, nil
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if p, ok := models.FindProduct(m.Products, id); ok {
		return &p, nil
	}
	return nil, errors.ErrNotFound
}
