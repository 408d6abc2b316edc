package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv        string
	Port           string
	JWTSecret      string
	JWTTTL         time.Duration
	RefreshTTL     time.Duration
	Database       DatabaseConfig
	Log            LogConfig
	Tickets        TicketConfig
	CORSOrigin     []string
	TrustedProxies []string // IPs/CIDRs allowed to set X-Forwarded-For
}

// DatabaseConfig holds the connection template shared by all tenant databases
type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	TenantPrefix string
	// DefaultTenant is the database opened at boot (embedded mode) and used by cmd/seed.
	DefaultTenant string
	MaxOpenConns  int
	MaxIdleConns  int
	ConnLifetime  time.Duration
	AutoMigrate   bool
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// TicketConfig controls the public ticket intake limiter
type TicketConfig struct {
	RatePerMinute int
	Burst         int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	p := &parser{}
	cfg := &Config{
		NodeEnv:    getEnv("NODE_ENV", "development"),
		Port:       getEnv("PORT", "3210"),
		JWTSecret:  jwtSecret,
		JWTTTL:     p.duration("JWT_TTL", time.Hour),
		RefreshTTL: p.duration("REFRESH_TTL", 90*24*time.Hour),
		Database: DatabaseConfig{
			Host:          getEnv("PG_HOST", "localhost"),
			Port:          getEnv("PG_PORT", "5432"),
			Username:      getEnv("PG_USERNAME", "postgres"),
			Password:      os.Getenv("PG_PASSWORD"),
			TenantPrefix:  getEnv("TENANT_DB_PREFIX", "tenant_"),
			DefaultTenant: getEnv("DEFAULT_TENANT", "demo"),
			MaxOpenConns:  p.integer("DB_MAX_OPEN", 50),
			MaxIdleConns:  p.integer("DB_MAX_IDLE", 5),
			ConnLifetime:  p.duration("DB_CONN_LIFETIME", time.Hour),
			AutoMigrate:   getEnv("DB_AUTO_MIGRATE", "true") == "true",
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tickets: TicketConfig{
			RatePerMinute: p.integer("TICKET_RATE_PER_MIN", 10),
			Burst:         p.integer("TICKET_BURST", 5),
		},
		CORSOrigin:     splitList(os.Getenv("CORS_ORIGINS")),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
	}
	if p.err != nil {
		return nil, p.err
	}
	return cfg, nil
}

// IsProduction reports whether NODE_ENV selects production behavior
func (c *Config) IsProduction() bool {
	return c.NodeEnv == "production"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first parse failure so Load can report it once.
type parser struct {
	err error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
		}
		return def
	}
	return d
}

func (p *parser) integer(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
		}
		return def
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
