package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const (
	catalogKey      = "catalog:products"
	defaultCacheTTL = 5 * time.Minute
)

// CatalogCache caches the product list.
type CatalogCache interface {
	Get(ctx context.Context) ([]models.Product, error)
	Set(ctx context.Context, products []models.Product) error
	Invalidate(ctx context.Context) error
}

var _ CatalogCache = (*KVCatalogCache)(nil)

// KVCatalogCache implements CatalogCache on a KVStore.
type KVCatalogCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *logging.LoggerV2
}

// NewKVCatalogCache creates a catalog cache.
func NewKVCatalogCache(kv KVStore, ttl time.Duration, logger *logging.LoggerV2) *KVCatalogCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &KVCatalogCache{kv: kv, ttl: ttl, logger: logger}
}

// Get returns the cached catalog, or nil without error on a miss.
func (c *KVCatalogCache) Get(ctx context.Context) ([]models.Product, error) {
	data, err := c.kv.Get(ctx, catalogKey)
	if errors.Is(err, errors.ErrNotFound) {
		c.logger.Debug("Catalog cache miss")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}

	c.logger.Debug("Catalog cache hit", logging.Fields{"count": len(products)})
	return products, nil
}

func (c *KVCatalogCache) Set(ctx context.Context, products []models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}

	if err := c.kv.Set(ctx, catalogKey, data, c.ttl); err != nil {
		return err
	}

	c.logger.Debug("Catalog cached", logging.Fields{
		"count": len(products),
		"ttl":   c.ttl.String(),
	})
	return nil
}

func (c *KVCatalogCache) Invalidate(ctx context.Context) error {
	return c.kv.Delete(ctx, catalogKey)
}
