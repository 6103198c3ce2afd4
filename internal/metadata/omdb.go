package metadata

import (
	"context"
	"encoding/json"
	"fmt"
)

// OMDBClient fetches supplementary ratings (IMDb, Rotten Tomatoes) by IMDb
// id. Used to enrich movie details when an imdb_id is present.
type OMDBClient struct {
	APIKey  string
	BaseURL string
	pc      *pacedClient
}

func NewOMDBClient(apiKey string, rps float64) *OMDBClient {
	return &OMDBClient{
		APIKey:  apiKey,
		BaseURL: "https://www.omdbapi.com",
		pc:      newPacedClient(rps),
	}
}

type omdbResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// ByIMDbID returns the raw OMDB payload for one title. OMDB signals lookup
// failures inside a 200 body, so the envelope is checked before returning.
func (c *OMDBClient) ByIMDbID(ctx context.Context, imdbID string) (json.RawMessage, error) {
	u, err := buildURL(c.BaseURL, "/", map[string]string{
		"apikey": c.APIKey,
		"i":      imdbID,
	})
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.pc.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	var envelope omdbResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Response == "False" {
		return nil, fmt.Errorf("%w: %s", ErrUpstream, envelope.Error)
	}
	return raw, nil
}
