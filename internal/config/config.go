package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Payment gateway (Duitku-compatible)
	MerchantCode       string
	MerchantAPIKey     string
	GatewayBaseURL     string
	GatewayCallbackURL string
	GatewayReturnURL   string
	GatewayTimeout     time.Duration

	// StrictSignatureVerification rejects callbacks with a bad signature.
	// Relaxing it is an explicit opt-out for sandbox testing only.
	StrictSignatureVerification bool

	// Admin
	AdminEmails string
	AdminToken  string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "kasirpos_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m")),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h")),

		MerchantCode:       getEnv("MERCHANT_CODE", ""),
		MerchantAPIKey:     getEnv("MERCHANT_API_KEY", ""),
		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL", "https://sandbox.duitku.com"),
		GatewayCallbackURL: getEnv("GATEWAY_CALLBACK_URL", ""),
		GatewayReturnURL:   getEnv("GATEWAY_RETURN_URL", ""),
		GatewayTimeout:     parseDuration(getEnv("GATEWAY_TIMEOUT", "30s")),

		StrictSignatureVerification: parseBool(getEnv("STRICT_SIGNATURE_VERIFICATION", "true")),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),
		AdminToken:  getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return true
	}
	return b
}
