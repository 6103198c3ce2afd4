package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func patchWithRating(t *testing.T, h func(echo.Context) error, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", float64(1))
	c.SetParamNames("id")
	c.SetParamValues("3")
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body["error"]
}

// Watchlist and library updates treat 0 as "clear the rating", so their
// rejection message has to say so; reviews genuinely require 1-10.
func TestRatingValidation(t *testing.T) {
	t.Run("WatchlistRejectsOutOfRange", func(t *testing.T) {
		h := &WatchlistHandler{}
		rec := patchWithRating(t, h.Update, `{"rating":11}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "0 to clear") {
			t.Errorf("message %q should explain that 0 clears the rating", msg)
		}
	})

	t.Run("LibraryRejectsOutOfRange", func(t *testing.T) {
		h := &LibraryHandler{}
		rec := patchWithRating(t, h.Update, `{"rating":-1}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); !strings.Contains(msg, "0 to clear") {
			t.Errorf("message %q should explain that 0 clears the rating", msg)
		}
	})

	t.Run("ReviewRejectsZero", func(t *testing.T) {
		h := &ReviewHandler{}
		rec := patchWithRating(t, h.Create, `{"media_type":"movie","external_id":"42","title":"Heat","rating":0}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if msg := errorMessage(t, rec); msg != "rating must be 1-10" {
			t.Errorf("message = %q, want the strict range", msg)
		}
	})
}
