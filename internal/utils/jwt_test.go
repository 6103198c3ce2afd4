package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessToken(t *testing.T) {
	t.Run("RoundTripsClaims", func(t *testing.T) {
		at, err := NewAccessToken("test-secret", 42, "USER", 15)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		parsed, err := jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
			return []byte("test-secret"), nil
		})
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		claims := parsed.Claims.(jwt.MapClaims)
		if sub := claims["sub"].(float64); uint64(sub) != 42 {
			t.Errorf("sub = %v, want 42", sub)
		}
		if role := claims["role"]; role != "USER" {
			t.Errorf("role = %v, want USER", role)
		}
	})

	t.Run("RejectsWrongSecret", func(t *testing.T) {
		at, err := NewAccessToken("secret-a", 1, "USER", 15)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		_, err = jwt.Parse(at.Token, func(tok *jwt.Token) (any, error) {
			return []byte("secret-b"), nil
		})
		if err == nil {
			t.Fatal("token verified with the wrong secret")
		}
	})

	t.Run("ExpiryMatchesTTL", func(t *testing.T) {
		at, err := NewAccessToken("s", 1, "USER", 30)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		want := time.Now().UTC().Add(30 * time.Minute)
		if diff := at.Exp.Sub(want); diff < -time.Minute || diff > time.Minute {
			t.Errorf("exp = %v, want about %v", at.Exp, want)
		}
	})
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken(7)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(a.Raw) != 96 {
		t.Errorf("raw length = %d, want 96", len(a.Raw))
	}
	if a.Raw == b.Raw {
		t.Error("two refresh tokens share the same raw value")
	}
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("token-value")
	h2 := HashRefreshRaw("token-value")
	if h1 != h2 {
		t.Error("hash is not deterministic")
	}
	if h1 == HashRefreshRaw("other-value") {
		t.Error("different tokens hash to the same value")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if h1 == "token-value" {
		t.Error("hash equals the raw token")
	}
}
