package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.JWTSecret)

	assert.Equal(t, "parcel_tracker", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, 5*time.Second, cfg.Redis.ConnectTimeout)

	assert.Equal(t, "https://trackapi.thailandpost.co.th/post/api/v1/track", cfg.ThailandPost.URL)
	assert.Empty(t, cfg.ThailandPost.Token)
	assert.Equal(t, "EN", cfg.ThailandPost.Language)
	assert.Equal(t, 30*time.Second, cfg.ThailandPost.Timeout())

	assert.Equal(t, CacheBackendMemory, cfg.Tracking.CacheBackend)
	assert.True(t, cfg.Refresh.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Refresh.Interval)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                      "production",
		"THAILAND_POST_API_TOKEN":  "secret",
		"THAILAND_POST_LANGUAGE":   "TH",
		"THAILAND_POST_TIMEOUT_MS": "1500",
		"TRACKING_CACHE_BACKEND":   "redis",
		"REFRESH_ENABLED":          "false",
		"REFRESH_INTERVAL":         "1h",
		"REDIS_DB":                 "3",
		"REDIS_PASSWORD":           "s3cret",
		"REDIS_CONNECT_TIMEOUT":    "2s",
		"MONGO_CONNECT_TIMEOUT":    "20s",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "secret", cfg.ThailandPost.Token)
	assert.Equal(t, "TH", cfg.ThailandPost.Language)
	assert.Equal(t, 1500*time.Millisecond, cfg.ThailandPost.Timeout())
	assert.Equal(t, CacheBackendRedis, cfg.Tracking.CacheBackend)
	assert.False(t, cfg.Refresh.Enabled)
	assert.Equal(t, time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.Equal(t, 2*time.Second, cfg.Redis.ConnectTimeout)
	assert.Equal(t, 20*time.Second, cfg.Mongo.ConnectTimeout)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown cache backend", map[string]string{"TRACKING_CACHE_BACKEND": "memcached"}},
		{"zero timeout", map[string]string{"THAILAND_POST_TIMEOUT_MS": "0"}},
		{"non numeric timeout", map[string]string{"THAILAND_POST_TIMEOUT_MS": "soon"}},
		{"bad interval", map[string]string{"REFRESH_INTERVAL": "often"}},
		{"zero mongo timeout", map[string]string{"MONGO_CONNECT_TIMEOUT": "0s"}},
		{"negative redis timeout", map[string]string{"REDIS_CONNECT_TIMEOUT": "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			assert.Error(t, err)
		})
	}
}
