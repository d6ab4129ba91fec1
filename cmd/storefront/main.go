package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	logger := logging.NewLoggerV2("storefront-service")
	defer logger.Sync()

	logging.Infof("Starting storefront-service on port %d", cfg.Server.Port)

	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	if err := repository.EnsureSchema(context.Background(), db); err != nil {
		logger.Fatal("Failed to prepare database schema", logging.Fields{"error": err.Error()})
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	kv := repository.NewRedisKVStore(redisClient, logger)

	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	procurementRepo := repository.NewPostgresProcurementRepository(db, logger)
	notificationRepo := repository.NewPostgresNotificationRepository(db, logger)
	cartStore := repository.NewKVCartStore(kv, cfg.Session.CartTTL)
	sessionStore := repository.NewKVSessionStore(kv)
	catalogCache := repository.NewKVCatalogCache(kv, cfg.Redis.TTL, logger)

	catalogClient := clients.NewHTTPCatalogClient(cfg.CatalogService, logger)
	userClient := clients.NewHTTPUserClient(cfg.UserService, logger)
	notificationClient := clients.NewHTTPNotificationClient(cfg.NotificationService, logger)

	var eventPublisher events.OrderPublisher = events.NopPublisher{}
	if cfg.Features.EnableOrderEvents {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
		defer kafkaPublisher.Close()
		eventPublisher = kafkaPublisher
	}

	catalogService := service.NewCatalogService(catalogClient, catalogCache, cfg)
	notificationService := service.NewNotificationService(notificationRepo, notificationClient, cfg)
	orderService := service.NewOrderService(
		orderRepo,
		cartStore,
		catalogService,
		notificationService,
		eventPublisher,
		cfg,
	)
	deliveryService := service.NewDeliveryService(orderService)

	h := handlers.NewHandlers(handlers.Services{
		Auth:          service.NewAuthService(userClient, sessionStore, cfg),
		Catalog:       catalogService,
		Carts:         service.NewCartService(cartStore, catalogService, cfg),
		Orders:        orderService,
		Deliveries:    deliveryService,
		Procurement:   service.NewProcurementService(procurementRepo, catalogService, notificationService),
		Notifications: notificationService,
	}, cfg)
	h.AddReadinessCheck("postgres", db.PingContext)
	h.AddReadinessCheck("redis", kv.Ping)

	srv := server.New(h, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                   cfg.Server.Port,
			"enable_order_events":    cfg.Features.EnableOrderEvents,
			"enable_delivery_events": cfg.Features.EnableDeliveryEvents,
			"enable_catalog_cache":   cfg.Features.EnableCatalogCache,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var eventConsumer *events.KafkaConsumer
	if cfg.Features.EnableDeliveryEvents {
		eventConsumer = events.NewKafkaConsumer(cfg.Kafka, deliveryService, logger)
		go func() {
			if err := eventConsumer.Start(context.Background()); err != nil {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if eventConsumer != nil {
		eventConsumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	notificationService.Wait()
	logger.Info("Server exited")
}

func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logging.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	return db, nil
}
