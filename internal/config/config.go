package config

import (
	"os"
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

	// JWT (shared across all tenants)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Token lifetimes for email flows
	EmailVerificationExpiry time.Duration
	PasswordResetExpiry     time.Duration

	// Billing
	StripeSecretKey string

	// Email
	ResendAPIKey string
	MailFrom     string
	BaseURL      string

	// Server
	Port        string
	CORSOrigins string

	// Tenant registry
	TenantsConfigPath string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "cloudflow_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "15m"), 15*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),

		EmailVerificationExpiry: parseDuration(getEnv("EMAIL_VERIFICATION_EXPIRY", "24h"), 24*time.Hour),
		PasswordResetExpiry:     parseDuration(getEnv("PASSWORD_RESET_EXPIRY", "1h"), time.Hour),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		MailFrom:     getEnv("MAIL_FROM", "CloudFlow <no-reply@cloudflow.app>"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),

		TenantsConfigPath: getEnv("TENANTS_CONFIG_PATH", "tenants.json"),
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

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
