package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// Services groups the service layer the handlers call into.
type Services struct {
	Auth          *service.AuthService
	Catalog       *service.CatalogService
	Carts         *service.CartService
	Orders        *service.OrderService
	Deliveries    *service.DeliveryService
	Procurement   *service.ProcurementService
	Notifications *service.NotificationService
}

// Handlers holds all HTTP handlers for the storefront service.
type Handlers struct {
	auth          *service.AuthService
	catalog       *service.CatalogService
	carts         *service.CartService
	orders        *service.OrderService
	deliveries    *service.DeliveryService
	procurement   *service.ProcurementService
	notifications *service.NotificationService
	checks        map[string]CheckFunc
	config        *config.Config
	logger        *logging.LoggerV2
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svc Services, cfg *config.Config) *Handlers {
	return &Handlers{
		auth:          svc.Auth,
		catalog:       svc.Catalog,
		carts:         svc.Carts,
		orders:        svc.Orders,
		deliveries:    svc.Deliveries,
		procurement:   svc.Procurement,
		notifications: svc.Notifications,
		checks:        make(map[string]CheckFunc),
		config:        cfg,
		logger:        logging.NewLoggerV2("handlers"),
	}
}

// AddReadinessCheck registers a dependency probed by GET /ready.
func (h *Handlers) AddReadinessCheck(name string, check CheckFunc) {
	h.checks[name] = check
}
