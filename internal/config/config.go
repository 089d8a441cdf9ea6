// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host    string
	Port    string
	Env     string // "development", "production", "testing"
	SiteURL string

	// PostgreSQL connection (consent and cache audit logs)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache + visitor state)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Headless content store
	SanityProjectID  string
	SanityDataset    string
	SanityAPIVersion string
	SanityToken      string
	SanityUseCDN     bool
	SanityBaseURL    string // optional override, used by tests and proxies

	ContentCacheTTL      time.Duration
	ContentWebhookSecret string

	// IPHashKey keys the hash applied to client IPs before they are logged.
	IPHashKey string

	// Tracking destinations. Each pair is an account identifier plus the
	// credential or endpoint needed to relay events server-side.
	GAMeasurementID     string
	GAAPISecret         string
	FacebookPixelID     string
	FacebookAccessToken string
	LinkedInPartnerID   string
	LinkedInAccessToken string
	TwitterPixelID      string
	TwitterAccessToken  string
	RedditPixelID       string
	RedditAccessToken   string
	ProductHuntPixelID  string
	ProductHuntEndpoint string
	RB2BPixelID         string
	RB2BEndpoint        string
	HubSpotPortalID     string
	HubSpotAccessToken  string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	env := envOrDefault("APP_ENV", "development")

	cfg := &Config{
		Host:    envOrDefault("APP_HOST", "0.0.0.0"),
		Port:    envOrDefault("APP_PORT", "8080"),
		Env:     env,
		SiteURL: envOrDefault("SITE_URL", "https://endflow.com"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "endflow"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "endflow"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		SanityProjectID:  os.Getenv("SANITY_PROJECT_ID"),
		SanityDataset:    envOrDefault("SANITY_DATASET", "production"),
		SanityAPIVersion: envOrDefault("SANITY_API_VERSION", "2024-01-01"),
		SanityToken:      os.Getenv("SANITY_API_TOKEN"),
		SanityUseCDN:     envBool("SANITY_USE_CDN", env == "production"),
		SanityBaseURL:    os.Getenv("SANITY_BASE_URL"),

		ContentCacheTTL:      envDuration("CONTENT_CACHE_TTL", 5*time.Minute),
		ContentWebhookSecret: os.Getenv("CONTENT_WEBHOOK_SECRET"),

		IPHashKey: envOrDefault("IP_HASH_KEY", "dev-ip-hash-key"),

		GAMeasurementID:     os.Getenv("GA_MEASUREMENT_ID"),
		GAAPISecret:         os.Getenv("GA_API_SECRET"),
		FacebookPixelID:     os.Getenv("FACEBOOK_PIXEL_ID"),
		FacebookAccessToken: os.Getenv("FACEBOOK_ACCESS_TOKEN"),
		LinkedInPartnerID:   os.Getenv("LINKEDIN_PARTNER_ID"),
		LinkedInAccessToken: os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		TwitterPixelID:      os.Getenv("TWITTER_PIXEL_ID"),
		TwitterAccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
		RedditPixelID:       os.Getenv("REDDIT_PIXEL_ID"),
		RedditAccessToken:   os.Getenv("REDDIT_ACCESS_TOKEN"),
		ProductHuntPixelID:  os.Getenv("PRODUCTHUNT_PIXEL_ID"),
		ProductHuntEndpoint: os.Getenv("PRODUCTHUNT_ENDPOINT"),
		RB2BPixelID:         os.Getenv("RB2B_PIXEL_ID"),
		RB2BEndpoint:        os.Getenv("RB2B_ENDPOINT"),
		HubSpotPortalID:     os.Getenv("HUBSPOT_PORTAL_ID"),
		HubSpotAccessToken:  os.Getenv("HUBSPOT_ACCESS_TOKEN"),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.SanityProjectID == "" {
			return nil, fmt.Errorf("SANITY_PROJECT_ID must be set in production")
		}
		if cfg.IPHashKey == "dev-ip-hash-key" {
			return nil, fmt.Errorf("IP_HASH_KEY must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool parses a boolean environment variable. Unparseable values fall back.
func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration parses a duration such as "5m". Unparseable or non-positive
// values fall back.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
