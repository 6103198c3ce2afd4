package config

import "time"

// RateLimitConfig controls the Redis-backed token bucket applied to incoming
// HTTP requests. Capacity is the bucket size, RefillTokens tokens are added
// every RefillInterval, and TTL bounds how long idle bucket state lives in
// Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads limiter settings from the environment and clamps
// them to sane values.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Keep bucket state alive for at least a few refill cycles.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

// AuthLimitConfig controls the in-process attempt limiter guarding
// authentication endpoints: at most Threshold attempts per key within Window,
// then a Cooldown before attempts are accepted again. Stale per-key records
// are swept every SweepInterval.
type AuthLimitConfig struct {
	Threshold     int
	Window        time.Duration
	Cooldown      time.Duration
	SweepInterval time.Duration
}

// LoadAuthLimitConfig reads attempt limiter settings from the environment.
func LoadAuthLimitConfig() AuthLimitConfig {
	cfg := AuthLimitConfig{
		Threshold:     envInt("AUTH_LIMIT_THRESHOLD", 5),
		Window:        envDur("AUTH_LIMIT_WINDOW", 15*time.Minute),
		Cooldown:      envDur("AUTH_LIMIT_COOLDOWN", 15*time.Minute),
		SweepInterval: envDur("AUTH_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
	}
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = cfg.Window
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	return cfg
}
