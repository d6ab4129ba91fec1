package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server              ServerConfig
	Database            DatabaseConfig
	Redis               RedisConfig
	Kafka               KafkaConfig
	CatalogService      ServiceConfig
	UserService         ServiceConfig
	NotificationService ServiceConfig
	Session             SessionConfig
	Pricing             PricingConfig
	Features            FeatureFlags
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TTL applies to the cached product catalog.
	TTL time.Duration
}

type KafkaConfig struct {
	Brokers         []string
	OrdersTopic     string
	DeliveriesTopic string
	ConsumerGroup   string
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

type SessionConfig struct {
	TTL     time.Duration
	CartTTL time.Duration
}

// PricingConfig controls presentation of amounts only; the arithmetic has no knobs.
type PricingConfig struct {
	Currency       string
	CurrencySymbol string
}

type FeatureFlags struct {
	EnableOrderEvents    bool
	EnableCatalogCache   bool
	EnableNotifications  bool
	EnableDeliveryEvents bool
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvInt("SERVER_PORT", 8085),
			ReadTimeout:     time.Duration(getEnvInt("SERVER_READ_TIMEOUT", 30)) * time.Second,
			WriteTimeout:    time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT", 30)) * time.Second,
			ShutdownTimeout: time.Duration(getEnvInt("SERVER_SHUTDOWN_TIMEOUT", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnvString("DB_HOST", "localhost"),
			Port:         getEnvInt("DB_PORT", 5432),
			User:         getEnvString("DB_USER", "acme"),
			Password:     getEnvString("DB_PASSWORD", "acme"),
			Name:         getEnvString("DB_NAME", "acme_storefront"),
			SSLMode:      getEnvString("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnvString("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnvString("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvInt("CATALOG_CACHE_TTL", 300)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:         getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic:     getEnvString("KAFKA_ORDERS_TOPIC", "storefront.orders"),
			DeliveriesTopic: getEnvString("KAFKA_DELIVERIES_TOPIC", "logistics.deliveries"),
			ConsumerGroup:   getEnvString("KAFKA_CONSUMER_GROUP", "storefront-service"),
		},
		CatalogService: ServiceConfig{
			BaseURL: getEnvString("CATALOG_SERVICE_URL", "http://localhost:8081"),
			Timeout: time.Duration(getEnvInt("CATALOG_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("CATALOG_SERVICE_API_KEY", ""),
		},
		UserService: ServiceConfig{
			BaseURL: getEnvString("USER_SERVICE_URL", "http://localhost:8081"),
			Timeout: time.Duration(getEnvInt("USER_SERVICE_TIMEOUT", 10)) * time.Second,
			APIKey:  getEnvString("USER_SERVICE_API_KEY", ""),
		},
		NotificationService: ServiceConfig{
			BaseURL: getEnvString("NOTIFICATION_SERVICE_URL", "http://localhost:8084"),
			Timeout: time.Duration(getEnvInt("NOTIFICATION_SERVICE_TIMEOUT", 5)) * time.Second,
			APIKey:  getEnvString("NOTIFICATION_SERVICE_API_KEY", ""),
		},
		Session: SessionConfig{
			TTL:     time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
			CartTTL: time.Duration(getEnvInt("CART_TTL_HOURS", 24*7)) * time.Hour,
		},
		Pricing: PricingConfig{
			Currency:       getEnvString("PRICING_CURRENCY", "INR"),
			CurrencySymbol: getEnvString("PRICING_CURRENCY_SYMBOL", "₹"),
		},
		Features: FeatureFlags{
			EnableOrderEvents:    getEnvBool("FEATURE_ORDER_EVENTS", true),
			EnableCatalogCache:   getEnvBool("FEATURE_CATALOG_CACHE", true),
			EnableNotifications:  getEnvBool("FEATURE_NOTIFICATIONS", true),
			EnableDeliveryEvents: getEnvBool("FEATURE_DELIVERY_EVENTS", true),
		},
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
