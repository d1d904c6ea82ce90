package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Plan is one purchasable premium package: a duration and its price in
// rupees. The table is fixed and validated at startup; handler code refers to
// plans only through this map.
type Plan struct {
	Days  int
	Price int
}

// DefaultPlans mirrors the packages offered in the bot's premium menu.
var DefaultPlans = map[string]Plan{
	"plan_7d":  {Days: 7, Price: 49},
	"plan_30d": {Days: 30, Price: 149},
	"plan_90d": {Days: 90, Price: 399},
}

// Config holds runtime configuration loaded from the environment.
type Config struct {
	BotToken        string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	RedisPass       string
	AdminID         int64
	FreeLimit       int
	QuotaZone       string
	ResolverURL     string
	PublicURL       string
	ListenAddr      string
	CacheDir        string
	UPIAddress      string
	ForceChannelID  int64
	ForceChannelURL string

	Plans map[string]Plan
}

// Load reads configuration from .env / environment. BOT_TOKEN and MONGO_URI
// are required; everything else has a workable default.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	c := &Config{
		BotToken:        os.Getenv("BOT_TOKEN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         envOr("MONGO_DB", "terabox_bot"),
		RedisAddr:       envOr("REDIS_ADDR", "localhost:6379"),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		FreeLimit:       5,
		QuotaZone:       envOr("QUOTA_TZ", "Asia/Kolkata"),
		ResolverURL:     envOr("RESOLVER_URL", "https://teraboxapi.example.workers.dev"),
		PublicURL:       envOr("PUBLIC_URL", "http://localhost:8080"),
		ListenAddr:      envOr("LISTEN_ADDR", ":8080"),
		CacheDir:        envOr("CACHE_DIR", "stream_cache"),
		UPIAddress:      os.Getenv("UPI_ID"),
		ForceChannelURL: os.Getenv("FORCE_SUB_CHANNEL_URL"),
		Plans:           DefaultPlans,
	}

	if c.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN not set")
	}
	if c.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI not set")
	}

	if v := os.Getenv("ADMIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID: %w", err)
		}
		c.AdminID = id
	}

	if v := os.Getenv("FORCE_SUB_CHANNEL_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid FORCE_SUB_CHANNEL_ID: %w", err)
		}
		c.ForceChannelID = id
	}

	if v := os.Getenv("FREE_DAILY_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid FREE_DAILY_LIMIT: %q", v)
		}
		c.FreeLimit = n
	}

	if err := validatePlans(c.Plans); err != nil {
		return nil, err
	}
	return c, nil
}

func validatePlans(plans map[string]Plan) error {
	if len(plans) == 0 {
		return fmt.Errorf("no premium plans configured")
	}
	for id, p := range plans {
		if p.Days <= 0 {
			return fmt.Errorf("plan %s: duration must be positive, got %d", id, p.Days)
		}
		if p.Price <= 0 {
			return fmt.Errorf("plan %s: price must be positive, got %d", id, p.Price)
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
