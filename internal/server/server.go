package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

type Server struct {
	config     *config.Config
	router     *gin.Engine
	handlers   *handlers.Handlers
	httpServer *http.Server
	logger     *logging.LoggerV2
}

func New(h *handlers.Handlers, cfg *config.Config) *Server {
	router := gin.New()
	logger := logging.NewLoggerV2("http")

	router.Use(
		gin.Recovery(),
		handlers.RequestID(),
		handlers.RequestLogger(logger),
		metrics.Middleware(),
	)

	s := &Server{
		config:   cfg,
		router:   router,
		handlers: h,
		logger:   logger,
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.Health)
	s.router.GET("/ready", h.Ready)
	s.router.GET("/live", h.Live)
	s.router.GET("/version", h.Version)
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Login)
		v1.GET("/products", h.ListProducts)
		v1.GET("/products/:id", h.GetProduct)
	}

	authed := v1.Group("", h.Authenticate())
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/me", h.Me)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.GET("/orders/:id/invoice", h.GetInvoice)
		authed.PATCH("/orders/:id/status", handlers.RequireRole(models.RoleVendor, models.RoleDriver), h.UpdateOrderStatus)

		authed.GET("/notifications", h.ListNotifications)
		authed.POST("/notifications/read-all", h.MarkAllNotificationsRead)
		authed.POST("/notifications/:id/read", h.MarkNotificationRead)
	}

	customer := authed.Group("", handlers.RequireRole(models.RoleCustomer))
	{
		customer.GET("/cart", h.GetCart)
		customer.DELETE("/cart", h.ClearCart)
		customer.POST("/cart/items", h.AddCartItem)
		customer.PUT("/cart/items/:product_id", h.UpdateCartItem)
		customer.DELETE("/cart/items/:product_id", h.RemoveCartItem)
		customer.POST("/checkout", h.Checkout)
		customer.POST("/orders/:id/cancel", h.CancelOrder)
	}

	vendor := authed.Group("", handlers.RequireRole(models.RoleVendor))
	{
		vendor.GET("/vendor/products", h.VendorProducts)
		vendor.POST("/vendor/products/refresh", h.RefreshCatalog)
		vendor.POST("/orders/:id/assign", h.AssignDriver)

		vendor.POST("/procurement", h.CreateProcurementOrder)
		vendor.GET("/procurement", h.ListProcurementOrders)
		vendor.GET("/procurement/:id", h.GetProcurementOrder)
		vendor.PATCH("/procurement/:id/status", h.UpdateProcurementStatus)
	}

	driver := authed.Group("", handlers.RequireRole(models.RoleDriver))
	{
		driver.GET("/deliveries", h.ListDeliveries)
		driver.POST("/deliveries/:id/delivered", h.MarkDelivered)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting server", logging.Fields{"addr": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
