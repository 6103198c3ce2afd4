package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/config"
)

func rateKeyFor(t *testing.T, cfg config.RateLimitConfig, seed func(echo.Context)) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/auth/login")
	if seed != nil {
		seed(c)
	}
	return buildRateKey(cfg, c)
}

func TestBuildRateKey(t *testing.T) {
	base := config.RateLimitConfig{Prefix: "rl"}

	t.Run("IPStrategy", func(t *testing.T) {
		cfg := base
		cfg.KeyStrategy = "ip"
		key := rateKeyFor(t, cfg, nil)
		if key != "rl:ip:10.0.0.9" {
			t.Errorf("key = %q", key)
		}
	})

	t.Run("UserStrategyAnonymous", func(t *testing.T) {
		cfg := base
		cfg.KeyStrategy = "user"
		key := rateKeyFor(t, cfg, nil)
		if key != "rl:user:anon" {
			t.Errorf("key = %q", key)
		}
	})

	t.Run("UserStrategyAuthenticated", func(t *testing.T) {
		cfg := base
		cfg.KeyStrategy = "user"
		key := rateKeyFor(t, cfg, func(c echo.Context) {
			c.Set("user_id", float64(42))
		})
		if key != "rl:user:42" {
			t.Errorf("key = %q", key)
		}
	})

	t.Run("DefaultStrategyCombinesAll", func(t *testing.T) {
		cfg := base
		cfg.KeyStrategy = "something-else"
		key := rateKeyFor(t, cfg, nil)
		for _, part := range []string{"ip:10.0.0.9", "user:anon", "route:POST /v1/auth/login"} {
			if !strings.Contains(key, part) {
				t.Errorf("key %q missing %q", key, part)
			}
		}
	})
}

func TestAsInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
	}{
		{int64(7), 7},
		{int32(7), 7},
		{7, 7},
		{7.9, 7},
		{"7", 7},
		{"not a number", 0},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := asInt64(tc.in); got != tc.want {
			t.Errorf("asInt64(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestNewTokenBucketDisabled(t *testing.T) {
	// Disabled config or missing Redis must yield a pass-through.
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !called {
		t.Error("next handler was not called")
	}
	if rec.Header().Get("X-RateLimit-Limit") != "" {
		t.Error("disabled limiter still set rate limit headers")
	}
}
