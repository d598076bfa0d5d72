package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 || cfg.RefillTokens != 1 {
		t.Fatalf("capacity/refill not clamped: %+v", cfg)
	}
	if cfg.TTL != 10*time.Second {
		t.Fatalf("ttl should be raised to 5 refill intervals, got %s", cfg.TTL)
	}
	if cfg.KeyStrategy != "hotel_route" {
		t.Fatalf("default strategy = %q", cfg.KeyStrategy)
	}
}

func TestLoadCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	t.Setenv("CACHE_ENABLED", "off")

	cfg := LoadCacheConfig()
	if cfg.Enabled {
		t.Fatalf("cache should be disabled")
	}
	if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || len(cfg.Methods) != 2 {
		t.Fatalf("methods = %v", cfg.Methods)
	}
}

func TestLoadRedisConfigHostPortWins(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_DB", "2")

	cfg := LoadRedisConfig()
	if cfg.Addr != "redis:6379" || cfg.DB != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestAMQPURLFallbacks(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	if got := AMQPURL(); got != "amqp://u:p@mq:5672/" {
		t.Fatalf("got %q", got)
	}
	t.Setenv("RABBITMQ_URL", "amqp://primary/")
	if got := AMQPURL(); got != "amqp://primary/" {
		t.Fatalf("got %q", got)
	}
}
