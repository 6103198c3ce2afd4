package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/limiter"
	"github.com/mediashelf/mediashelf/internal/repository"
)

type fakeUsers struct {
	nextID  uint64
	deleted []uint64
	byEmail map[string]repository.User
}

func (f *fakeUsers) Create(ctx context.Context, email, password string, cost int) (uint64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uint64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id uint64) (repository.User, error) {
	return repository.User{ID: id, Email: "user@example.com", Role: repository.RoleUser}, nil
}

type fakeTokens struct {
	stored    int
	revoked   []string
	revokeErr error
	validUser uint64
}

func (f *fakeTokens) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.stored++
	return nil
}

func (f *fakeTokens) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	if f.validUser == 0 {
		return 0, sql.ErrNoRows
	}
	return f.validUser, nil
}

func (f *fakeTokens) RevokeByHash(ctx context.Context, tokenHash string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, tokenHash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(ctx context.Context, userID uint64) error { return nil }

type fakeInvites struct {
	valid     bool
	redeemErr error
	redeemed  []uint64
}

func (f *fakeInvites) Check(ctx context.Context, code string) (bool, error) { return f.valid, nil }

func (f *fakeInvites) Redeem(ctx context.Context, code string, userID uint64) error {
	if f.redeemErr != nil {
		return f.redeemErr
	}
	f.redeemed = append(f.redeemed, userID)
	return nil
}

func testAttempts(t *testing.T) *limiter.AttemptLimiter {
	t.Helper()
	l := limiter.NewAttemptLimiter(config.AuthLimitConfig{
		Threshold:     100,
		Window:        time.Minute,
		Cooldown:      time.Minute,
		SweepInterval: time.Minute,
	})
	t.Cleanup(l.Close)
	return l
}

func authJSON(t *testing.T, h func(echo.Context) error, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRegisterInviteMode(t *testing.T) {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		InviteRequired: true,
	}

	t.Run("RedeemRaceRollsBackAccount", func(t *testing.T) {
		users := &fakeUsers{}
		tokens := &fakeTokens{}
		invites := &fakeInvites{valid: true, redeemErr: repository.ErrNotFound}
		h := &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Invites: invites, Attempts: testAttempts(t)}

		rec := authJSON(t, h.Register, `{"email":"a@example.com","password":"pw","invite_code":"ABCDEF123456"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
		if len(users.deleted) != 1 || users.deleted[0] != 1 {
			t.Errorf("deleted = %v, want the created user rolled back", users.deleted)
		}
		if tokens.stored != 0 {
			t.Errorf("stored %d refresh tokens for a rejected registration", tokens.stored)
		}
	})

	t.Run("ValidCodeCreatesAccount", func(t *testing.T) {
		users := &fakeUsers{}
		tokens := &fakeTokens{}
		invites := &fakeInvites{valid: true}
		h := &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Invites: invites, Attempts: testAttempts(t)}

		rec := authJSON(t, h.Register, `{"email":"a@example.com","password":"pw","invite_code":"ABCDEF123456"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
		}
		if len(invites.redeemed) != 1 {
			t.Errorf("redeemed = %v, want one redemption", invites.redeemed)
		}
		if len(users.deleted) != 0 {
			t.Errorf("deleted = %v, want none", users.deleted)
		}
		var resp authResp
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.User.Email != "a@example.com" || resp.Access.Token == "" || resp.Refresh.Token == "" {
			t.Errorf("incomplete auth response: %+v", resp)
		}
	})
}

func TestRefreshRotation(t *testing.T) {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
	}

	t.Run("RevokesOldTokenBeforeIssuing", func(t *testing.T) {
		users := &fakeUsers{}
		tokens := &fakeTokens{validUser: 7}
		h := &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Attempts: testAttempts(t)}

		rec := authJSON(t, h.Refresh, `{"refresh_token":"raw-token"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if len(tokens.revoked) != 1 {
			t.Errorf("revoked = %v, want the presented hash revoked", tokens.revoked)
		}
		if tokens.stored != 1 {
			t.Errorf("stored = %d, want one new refresh token", tokens.stored)
		}
	})

	t.Run("RevokeFailureFailsRequest", func(t *testing.T) {
		users := &fakeUsers{}
		tokens := &fakeTokens{validUser: 7, revokeErr: errors.New("connection lost")}
		h := &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, Attempts: testAttempts(t)}

		rec := authJSON(t, h.Refresh, `{"refresh_token":"raw-token"}`)
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if tokens.stored != 0 {
			t.Errorf("stored = %d, want no new token while the old one may still be live", tokens.stored)
		}
	})
}
