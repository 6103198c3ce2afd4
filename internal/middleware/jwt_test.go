package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/utils"
)

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string, seed func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if seed != nil {
		seed(c)
	}

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTAuth(t *testing.T) {
	const secret = "test-secret"
	mw := JWTAuth(secret)

	t.Run("MissingHeader", func(t *testing.T) {
		rec := doRequest(t, mw, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("MalformedHeader", func(t *testing.T) {
		rec := doRequest(t, mw, "Basic abc", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		at, err := utils.NewAccessToken("other-secret", 7, "USER", 5)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}
		rec := doRequest(t, mw, "Bearer "+at.Token, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("ValidTokenInjectsClaims", func(t *testing.T) {
		at, err := utils.NewAccessToken(secret, 7, "ADMIN", 5)
		if err != nil {
			t.Fatalf("NewAccessToken: %v", err)
		}

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		req.Header.Set("Authorization", "Bearer "+at.Token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := mw(func(c echo.Context) error {
			if sub := c.Get("user_id").(float64); uint64(sub) != 7 {
				t.Errorf("user_id = %v, want 7", sub)
			}
			if role := c.Get("role"); role != "ADMIN" {
				t.Errorf("role = %v, want ADMIN", role)
			}
			return c.String(http.StatusOK, "ok")
		})
		if err := handler(c); err != nil {
			t.Fatalf("handler: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole("ADMIN", "SUPER_ADMIN")

	cases := []struct {
		name string
		role any
		want int
	}{
		{"AllowedRole", "ADMIN", http.StatusOK},
		{"SecondAllowedRole", "SUPER_ADMIN", http.StatusOK},
		{"DeniedRole", "USER", http.StatusForbidden},
		{"MissingRole", nil, http.StatusForbidden},
		{"NonStringRole", 123, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, mw, "", func(c echo.Context) {
				if tc.role != nil {
					c.Set("role", tc.role)
				}
			})
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
