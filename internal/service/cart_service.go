package service

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/pricing"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CartService manages customer carts.
type CartService struct {
	carts     repository.CartStore
	catalog   *CatalogService
	formatter *pricing.Formatter
	logger    *logging.LoggerV2
	now       func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartStore, catalog *CatalogService, cfg *config.Config) *CartService {
	return &CartService{
		carts:     carts,
		catalog:   catalog,
		formatter: pricing.NewFormatter(cfg.Pricing.CurrencySymbol),
		logger:    logging.NewLoggerV2("cart-service"),
		now:       time.Now,
	}
}

// GetCart returns the user's cart; a user without one gets an empty cart.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// AddItem adds quantity of a product, merging with an existing line for the same product.
// A nil quantity adds 1.
func (s *CartService) AddItem(ctx context.Context, userID string, req *models.AddCartItemRequest) (*models.Cart, error) {
	qty := 1.0
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.NewValidationError("product_id", "unknown product "+req.ProductID)
	}
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == product.ID {
			cart.Items[i].Quantity += qty
			cart.Items[i].Name = product.Name
			cart.Items[i].UnitPrice = product.UnitPrice
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  qty,
			UnitPrice: product.UnitPrice,
		})
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}

	s.logger.Debug("Cart item added", logging.Fields{
		"user_id":    userID,
		"product_id": product.ID,
		"quantity":   qty,
		"merged":     merged,
	})
	return cart, nil
}

// UpdateItem sets the quantity of a line; zero removes it.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity float64) (*models.Cart, error) {
	if quantity != 0 {
		if err := validateQuantity(quantity); err != nil {
			return nil, err
		}
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := indexOfItem(cart, productID)
	if idx < 0 {
		return nil, errors.ErrNotFound
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}

	if err := s.save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*models.Cart, error) {
	return s.UpdateItem(ctx, userID, productID, 0)
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.carts.Delete(ctx, userID)
}

// PriceCart returns the cart with its breakdown. When the catalog cannot be loaded the cart is
// priced with zero tax and delivery and flagged as CatalogUnavailable.
func (s *CartService) PriceCart(ctx context.Context, userID string) (*models.PricedCart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var rates []pricing.Rate
	unavailable := false

	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		s.logger.Warn("Pricing cart without catalog", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		unavailable = true
	} else {
		refreshPrices(cart, products)
		rates = models.Rates(products)
	}

	breakdown := pricing.Aggregate(cart.LineItems(), rates).Display()
	return &models.PricedCart{
		Cart:               cart,
		Breakdown:          breakdown,
		Formatted:          s.formatter.Breakdown(breakdown),
		CatalogUnavailable: unavailable,
	}, nil
}

func (s *CartService) save(ctx context.Context, cart *models.Cart) error {
	cart.UpdatedAt = s.now().UTC()
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", logging.Fields{
			"user_id": cart.UserID,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

// refreshPrices updates names and unit prices from the catalog, leaving unknown products as they are.
func refreshPrices(cart *models.Cart, products []models.Product) {
	for i := range cart.Items {
		if p, ok := models.FindProduct(products, cart.Items[i].ProductID); ok {
			cart.Items[i].Name = p.Name
			cart.Items[i].UnitPrice = p.UnitPrice
		}
	}
}

func indexOfItem(cart *models.Cart, productID string) int {
	for i, it := range cart.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
