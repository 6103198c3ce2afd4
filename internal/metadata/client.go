// Package metadata integrates the external media metadata providers (TMDB,
// OMDB, iTunes, RAWG, Google Books). Every provider call goes through a paced
// HTTP client
// that enforces the configured requests-per-second budget: callers queue on
// the limiter in FIFO order and no two requests are dispatched closer
// together than the minimum interval.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable is returned when no provider serves the requested media
// type, usually because its API key is not configured.
var ErrUnavailable = errors.New("metadata provider unavailable")

// ErrUpstream wraps provider-side failures; handlers map it to HTTP 502.
var ErrUpstream = errors.New("metadata provider error")

// MediaResult is the provider-independent shape returned by searches.
type MediaResult struct {
	MediaType  string `json:"media_type"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Year       string `json:"year,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
	Overview   string `json:"overview,omitempty"`
}

// pacedClient wraps an HTTP client with a rate limiter. Burst 1 means every
// request waits out the full inter-request interval behind the previous one.
type pacedClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newPacedClient(rps float64) *pacedClient {
	if rps <= 0 {
		rps = 1
	}
	return &pacedClient{
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// getJSON waits for the limiter, issues a GET and decodes the body into out.
// Pass a *json.RawMessage to keep the raw payload.
func (p *pacedClient) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = body
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}

// buildURL joins base, path and query parameters.
func buildURL(base, path string, params map[string]string) (string, error) {
	u, err := url.Parse(base + path)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
