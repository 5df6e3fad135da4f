package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo        MongoConfig
	Redis        RedisConfig
	ThailandPost ThailandPostConfig
	Tracking     TrackingConfig
	Refresh      RefreshConfig
}

type MongoConfig struct {
	URI            string        `env:"MONGO_URI,             default=mongodb://localhost:27017"`
	Database       string        `env:"MONGO_DB,              default=parcel_tracker"`
	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT, default=10s"`
}

// RedisConfig is only used when TRACKING_CACHE_BACKEND=redis.
type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,            default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,              default=0"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT, default=5s"`
}

type ThailandPostConfig struct {
	URL       string `env:"THAILAND_POST_API_URL,    default=https://trackapi.thailandpost.co.th/post/api/v1/track"`
	Token     string `env:"THAILAND_POST_API_TOKEN"`
	Language  string `env:"THAILAND_POST_LANGUAGE,   default=EN"`
	TimeoutMS int    `env:"THAILAND_POST_TIMEOUT_MS, default=30000"`
}

// Timeout returns the per-request carrier deadline.
func (c ThailandPostConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type TrackingConfig struct {
	// CacheBackend is either "memory" or "redis".
	CacheBackend string `env:"TRACKING_CACHE_BACKEND, default=memory"`
}

type RefreshConfig struct {
	Enabled  bool          `env:"REFRESH_ENABLED,  default=true"`
	Interval time.Duration `env:"REFRESH_INTERVAL, default=15m"`
}

// IsDevelopment reports whether the service runs with ENV=development.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through the given lookuper and validates it.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Tracking.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("TRACKING_CACHE_BACKEND must be %q or %q, got %q",
			CacheBackendMemory, CacheBackendRedis, c.Tracking.CacheBackend)
	}
	if c.ThailandPost.TimeoutMS <= 0 {
		return fmt.Errorf("THAILAND_POST_TIMEOUT_MS must be positive, got %d", c.ThailandPost.TimeoutMS)
	}
	if c.Mongo.ConnectTimeout <= 0 {
		return fmt.Errorf("MONGO_CONNECT_TIMEOUT must be positive, got %s", c.Mongo.ConnectTimeout)
	}
	if c.Redis.ConnectTimeout <= 0 {
		return fmt.Errorf("REDIS_CONNECT_TIMEOUT must be positive, got %s", c.Redis.ConnectTimeout)
	}
	if c.Refresh.Enabled && c.Refresh.Interval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.Refresh.Interval)
	}
	return nil
}
