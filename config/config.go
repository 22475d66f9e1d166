package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration values.
type Config struct {
	Environment    string
	HTTPPort       string
	DatabaseURL    string
	DatabaseDebug  bool
	GatewayToken   string
	AllowedOrigins []string
	AppURL         string
	BodyLimitMB    int

	StatsRefreshInterval time.Duration

	R2 R2Config
}

// R2Config holds the Cloudflare R2 credentials used for avatar uploads.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Enabled reports whether enough is configured to talk to R2.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// Load reads configuration from environment variables with sane defaults.
// Call godotenv.Load first to pick up a local .env file.
func Load() (Config, error) {
	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "5200"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		DatabaseDebug:        getBool("DB_DEBUG", false),
		GatewayToken:         os.Getenv("GATEWAY_TOKEN"),
		AllowedOrigins:       getList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AppURL:               strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		BodyLimitMB:          getInt("BODY_LIMIT_MB", 10),
		StatsRefreshInterval: getDuration("STATS_REFRESH_INTERVAL", 10*time.Minute),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      strings.TrimRight(os.Getenv("CDN_BASE_URL"), "/"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GatewayToken == "" {
		return Config{}, fmt.Errorf("GATEWAY_TOKEN is required")
	}

	if cfg.StatsRefreshInterval < time.Minute {
		cfg.StatsRefreshInterval = time.Minute
	}
	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 10
	}
	if cfg.R2.CDNBaseURL == "" && cfg.R2.AccountID != "" {
		cfg.R2.CDNBaseURL = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
