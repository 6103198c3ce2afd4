package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := LoadRateLimitConfig()
		if !cfg.Enabled {
			t.Error("limiter should default to enabled")
		}
		if cfg.Capacity != 60 {
			t.Errorf("capacity = %d, want 60", cfg.Capacity)
		}
		if cfg.Prefix != "rl" {
			t.Errorf("prefix = %q, want rl", cfg.Prefix)
		}
	})

	t.Run("ClampsNonsenseValues", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_CAPACITY", "-3")
		t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
		t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
		t.Setenv("RATE_LIMIT_TTL", "1s")
		cfg := LoadRateLimitConfig()
		if cfg.Capacity != 1 {
			t.Errorf("capacity = %d, want clamp to 1", cfg.Capacity)
		}
		if cfg.RefillTokens != 1 {
			t.Errorf("refill tokens = %d, want clamp to 1", cfg.RefillTokens)
		}
		if want := 5 * cfg.RefillInterval; cfg.TTL != want {
			t.Errorf("ttl = %v, want raised to %v", cfg.TTL, want)
		}
	})
}

func TestLoadAuthLimitConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := LoadAuthLimitConfig()
		if cfg.Threshold != 5 {
			t.Errorf("threshold = %d, want 5", cfg.Threshold)
		}
		if cfg.Window != 15*time.Minute {
			t.Errorf("window = %v, want 15m", cfg.Window)
		}
	})

	t.Run("CooldownFallsBackToWindow", func(t *testing.T) {
		t.Setenv("AUTH_LIMIT_WINDOW", "10m")
		t.Setenv("AUTH_LIMIT_COOLDOWN", "0s")
		cfg := LoadAuthLimitConfig()
		if cfg.Cooldown != 10*time.Minute {
			t.Errorf("cooldown = %v, want window value 10m", cfg.Cooldown)
		}
	})
}

func TestLoadCacheConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg := LoadCacheConfig()
		if !cfg.Enabled {
			t.Error("cache should default to enabled")
		}
		if !cfg.Methods["GET"] {
			t.Error("GET should be cached by default")
		}
		if cfg.Methods["POST"] {
			t.Error("POST should not be cached by default")
		}
	})

	t.Run("MethodsParsing", func(t *testing.T) {
		t.Setenv("CACHE_METHODS", " get , HEAD,")
		cfg := LoadCacheConfig()
		if !cfg.Methods["GET"] || !cfg.Methods["HEAD"] {
			t.Errorf("methods = %v, want GET and HEAD", cfg.Methods)
		}
		if len(cfg.Methods) != 2 {
			t.Errorf("methods = %v, want exactly two entries", cfg.Methods)
		}
	})
}

func TestEnvHelpers(t *testing.T) {
	t.Run("BoolParsing", func(t *testing.T) {
		t.Setenv("X_BOOL", "true")
		if !envBool("X_BOOL", false) {
			t.Error("envBool did not parse true")
		}
		t.Setenv("X_BOOL", "garbage")
		if envBool("X_BOOL", false) {
			t.Error("envBool accepted garbage as true")
		}
	})

	t.Run("DurationFallback", func(t *testing.T) {
		t.Setenv("X_DUR", "not-a-duration")
		if got := envDur("X_DUR", 3*time.Second); got != 3*time.Second {
			t.Errorf("envDur = %v, want fallback 3s", got)
		}
		t.Setenv("X_DUR", "250ms")
		if got := envDur("X_DUR", time.Second); got != 250*time.Millisecond {
			t.Errorf("envDur = %v, want 250ms", got)
		}
	})
}
