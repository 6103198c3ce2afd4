package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/config"
)

func keyFor(t *testing.T, cfg config.CacheConfig, method, target, route string) string {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(route)
	return cacheKeyFrom(cfg, c)
}

func TestCacheKeyFrom(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}

	t.Run("SameRequestSameKey", func(t *testing.T) {
		a := keyFor(t, cfg, http.MethodGet, "/v1/search/media?q=dune", "/v1/search/media")
		b := keyFor(t, cfg, http.MethodGet, "/v1/search/media?q=dune", "/v1/search/media")
		if a != b {
			t.Errorf("keys differ for identical requests: %q vs %q", a, b)
		}
	})

	t.Run("QueryChangesKey", func(t *testing.T) {
		a := keyFor(t, cfg, http.MethodGet, "/v1/search/media?q=dune", "/v1/search/media")
		b := keyFor(t, cfg, http.MethodGet, "/v1/search/media?q=blade", "/v1/search/media")
		if a == b {
			t.Error("different queries produced the same key")
		}
	})

	t.Run("RouteStrategyIgnoresQuery", func(t *testing.T) {
		routeCfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route"}
		a := keyFor(t, routeCfg, http.MethodGet, "/v1/watchlist?watched=true", "/v1/watchlist")
		b := keyFor(t, routeCfg, http.MethodGet, "/v1/watchlist?watched=false", "/v1/watchlist")
		if a != b {
			t.Error("route strategy should ignore the query string")
		}
	})

	t.Run("MethodRouteStrategySeparatesMethods", func(t *testing.T) {
		mrCfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "method_route"}
		a := keyFor(t, mrCfg, http.MethodGet, "/v1/lists/1", "/v1/lists/:id")
		b := keyFor(t, mrCfg, http.MethodDelete, "/v1/lists/1", "/v1/lists/:id")
		if a == b {
			t.Error("method_route strategy should separate methods")
		}
	})

	t.Run("KeyCarriesPrefix", func(t *testing.T) {
		key := keyFor(t, cfg, http.MethodGet, "/v1/watchlist", "/v1/watchlist")
		if got := key[:6]; got != "cache:" {
			t.Errorf("key %q does not start with the prefix", key)
		}
	})
}

func TestPayloadCodec(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		hdr := http.Header{}
		hdr.Set("Content-Type", "application/json")
		hdr.Add("X-Custom", "a")
		hdr.Add("X-Custom", "b")
		body := []byte(`{"results":[]}`)

		payload, err := encodePayload(http.StatusOK, hdr, body)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		status, gotHdr, gotBody, ok := decodePayload(payload)
		if !ok {
			t.Fatal("decode reported failure")
		}
		if status != http.StatusOK {
			t.Errorf("status = %d, want 200", status)
		}
		if ct := gotHdr.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if vals := gotHdr.Values("X-Custom"); len(vals) != 2 {
			t.Errorf("X-Custom values = %v, want two", vals)
		}
		if !bytes.Equal(gotBody, body) {
			t.Errorf("body = %q, want %q", gotBody, body)
		}
	})

	t.Run("EmptyBody", func(t *testing.T) {
		payload, err := encodePayload(http.StatusOK, http.Header{}, nil)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		_, _, body, ok := decodePayload(payload)
		if !ok {
			t.Fatal("decode reported failure")
		}
		if len(body) != 0 {
			t.Errorf("body = %q, want empty", body)
		}
	})

	t.Run("TruncatedInput", func(t *testing.T) {
		if _, _, _, ok := decodePayload([]byte{1, 2, 3}); ok {
			t.Error("decode accepted a truncated payload")
		}
	})

	t.Run("CorruptHeaderLength", func(t *testing.T) {
		payload, err := encodePayload(http.StatusOK, http.Header{}, []byte("x"))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		payload[4] = 0xFF // header length now exceeds payload size
		if _, _, _, ok := decodePayload(payload); ok {
			t.Error("decode accepted a payload with a bogus header length")
		}
	})
}

func TestCaptureWriter(t *testing.T) {
	t.Run("CapturesUpToLimit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 5}
		if _, err := cw.Write([]byte("0123456789")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if got := cw.buf.String(); got != "01234" {
			t.Errorf("captured %q, want %q", got, "01234")
		}
		// The client still receives the full body.
		if got := rec.Body.String(); got != "0123456789" {
			t.Errorf("forwarded %q, want full body", got)
		}
	})

	t.Run("SizeCountsBeyondLimit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 10}
		for _, chunk := range []string{"0123456789", "abcde", "fghij2345z"} {
			if _, err := cw.Write([]byte(chunk)); err != nil {
				t.Fatalf("write: %v", err)
			}
		}
		// size reflects the whole response, buf stays capped; the store
		// step uses size > limit to skip oversized responses.
		if cw.size != 25 {
			t.Errorf("size = %d, want 25", cw.size)
		}
		if got := int64(cw.buf.Len()); got != cw.limit {
			t.Errorf("captured %d bytes, want %d", got, cw.limit)
		}
		if cw.size <= cw.limit {
			t.Error("oversized response not detectable from size")
		}
	})

	t.Run("NoLimitCapturesAll", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK}
		_, _ = cw.Write([]byte("abc"))
		_, _ = cw.Write([]byte("def"))
		if got := cw.buf.String(); got != "abcdef" {
			t.Errorf("captured %q, want %q", got, "abcdef")
		}
	})

	t.Run("RecordsStatus", func(t *testing.T) {
		rec := httptest.NewRecorder()
		cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK}
		cw.WriteHeader(http.StatusTeapot)
		if cw.status != http.StatusTeapot {
			t.Errorf("status = %d, want 418", cw.status)
		}
	})
}
