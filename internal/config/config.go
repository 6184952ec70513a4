package config

import (
	"os"
	"strconv"
	"time"

	"homestay/internal/database"
	"homestay/internal/external"
	"homestay/internal/messaging"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// ServiceFeeRate is the marketplace fee applied on the payment-first
	// checkout path (fraction of the subtotal, e.g. 0.12).
	ServiceFeeRate float64

	// PendingBookingTTL is how long a direct-path PENDING booking may sit
	// unconfirmed before the expiration worker cancels it.
	PendingBookingTTL time.Duration

	Database database.Config
	NATS     messaging.Config
	Payment  external.PaymentConfig
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		ServiceFeeRate:    getEnvFloat("SERVICE_FEE_RATE", 0.12),
		PendingBookingTTL: time.Duration(getEnvInt("PENDING_BOOKING_TTL_MIN", 60)) * time.Minute,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "homestay"),
			Password:           getEnv("DB_PASSWORD", "homestay123"),
			DBName:             getEnv("DB_NAME", "homestay"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "homestay"),
			ClientID:  getEnv("NATS_CLIENT_ID", "homestay-api"),
		},

		Payment: external.PaymentConfig{
			BaseURL:      getEnv("PAYMENT_PROVIDER_URL", "https://pay.example.com/api/v1"),
			MerchantSlug: getEnv("PAYMENT_MERCHANT_SLUG", ""),
			Password:     getEnv("PAYMENT_PASSWORD", ""),
			Currency:     getEnv("PAYMENT_CURRENCY", "USD"),
			Timeout:      time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat получает дробное значение переменной окружения
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
