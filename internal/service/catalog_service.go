package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CatalogService reads the product catalog through a cache.
type CatalogService struct {
	client clients.CatalogClient
	cache  repository.CatalogCache
	config *config.Config
	logger *logging.LoggerV2
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(client clients.CatalogClient, cache repository.CatalogCache, cfg *config.Config) *CatalogService {
	return &CatalogService{
		client: client,
		cache:  cache,
		config: cfg,
		logger: logging.NewLoggerV2("catalog-service"),
	}
}

func (s *CatalogService) cacheEnabled() bool {
	return s.cache != nil && s.config.Features.EnableCatalogCache
}

// ListProducts returns the full catalog.
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	if s.cacheEnabled() {
		products, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.CacheError()
			s.logger.Warn("Catalog cache read failed", logging.Fields{"error": err.Error()})
		case products != nil:
			metrics.CacheHit()
			return products, nil
		default:
			metrics.CacheMiss()
		}
	}

	products, err := s.client.ListProducts(ctx)
	if err != nil {
		metrics.UpstreamError("catalog")
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, products); err != nil {
			// Log but don't fail
			metrics.CacheError()
			s.logger.Error("Failed to cache catalog", logging.Fields{"error": err.Error()})
		}
	}

	return products, nil
}

// GetProduct returns one product, asking the catalog API directly when the cached list lacks it.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if p, ok := models.FindProduct(products, id); ok {
		return &p, nil
	}

	product, err := s.client.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			metrics.UpstreamError("catalog")
		}
		return nil, err
	}

	if s.cacheEnabled() {
		// The cached list is stale; the next read refetches it.
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn("Failed to invalidate catalog cache", logging.Fields{"error": err.Error()})
		}
	}
	return product, nil
}

// ProductsForVendor returns the products listed by vendorID.
func (s *CatalogService) ProductsForVendor(ctx context.Context, vendorID string) ([]models.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Product, 0)
	for _, p := range products {
		if p.VendorID == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

// Refresh drops the cached catalog.
func (s *CatalogService) Refresh(ctx context.Context) error {
	if !s.cacheEnabled() {
		return nil
	}
	return s.cache.Invalidate(ctx)
}
