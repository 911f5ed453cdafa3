// Package config loads environment-driven settings for the trading
// core, in the teacher's getEnv/getEnvFloat/getEnvInt style.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

// Config holds the process's startup settings.
type Config struct {
	// InitialCash seeds the Account Ledger on construction (spec §4.5).
	InitialCash float64

	// DBPath is where the append-only audit WAL lives.
	DBPath string

	// AssetSeedPath points at the YAML file the Asset Registry is
	// built from at startup.
	AssetSeedPath string

	// PolygonKey is the market-data adapter's API key. A missing value
	// is a fatal startup error whenever a live feed is configured
	// (spec §6).
	PolygonKey string

	// UseLiveFeed turns on the live Polygon websocket feed. When it is
	// false, cmd/acticks starts no market-data source at all; it does
	// not fall back to the replay pacer.
	UseLiveFeed bool

	// ReplayRate is the synthetic-to-wall-clock ratio a replay pacer
	// scales trade timestamps by (spec §6). cmd/acticks does not read it.
	ReplayRate float64

	// SubmitRateLimit is the per-second rate of the limiter built by
	// SubmitLimiter; 0 disables the limiter.
	SubmitRateLimit float64
}

// Load reads environment variables (optionally via a .env file) into a
// Config. It does not treat a missing .env as an error, since the app
// may run from real environment variables alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		InitialCash:     getEnvFloat("INITIAL_CASH", 100000.0),
		DBPath:          getEnv("DB_PATH", "./data/acticks_audit.db"),
		AssetSeedPath:   getEnv("ASSET_SEED_PATH", "./config/assets.yaml"),
		PolygonKey:      os.Getenv("POLYGON_KEY"),
		UseLiveFeed:     getEnv("USE_LIVE_FEED", "false") == "true",
		ReplayRate:      getEnvFloat("REPLAY_RATE", 1.0),
		SubmitRateLimit: getEnvFloat("SUBMIT_RATE_LIMIT", 50.0),
	}

	if cfg.UseLiveFeed && cfg.PolygonKey == "" {
		return nil, fmt.Errorf("config: POLYGON_KEY is required when USE_LIVE_FEED=true")
	}

	return cfg, nil
}

// SubmitLimiter builds a token-bucket limiter (spec §5 names no explicit
// rate limit; this is an ambient safeguard modeled on the teacher's HTTP
// middleware rate limiter). cmd/acticks applies it to the live trades it
// forwards to Coordinator.PriceTick; Coordinator.Submit itself is not
// throttled. A non-positive SubmitRateLimit disables throttling by
// returning nil.
func (c *Config) SubmitLimiter() *rate.Limiter {
	if c.SubmitRateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.SubmitRateLimit), int(c.SubmitRateLimit))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
