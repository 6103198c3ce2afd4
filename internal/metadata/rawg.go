package metadata

import (
	"context"
	"encoding/json"
	"strconv"
)

// RAWGClient serves video game metadata from the RAWG API.
type RAWGClient struct {
	APIKey  string
	BaseURL string
	pc      *pacedClient
}

func NewRAWGClient(apiKey string, rps float64) *RAWGClient {
	return &RAWGClient{
		APIKey:  apiKey,
		BaseURL: "https://api.rawg.io/api",
		pc:      newPacedClient(rps),
	}
}

type rawgSearchResponse struct {
	Count   int `json:"count"`
	Results []struct {
		ID              int    `json:"id"`
		Name            string `json:"name"`
		Released        string `json:"released"`
		BackgroundImage string `json:"background_image"`
	} `json:"results"`
}

// Search queries RAWG for games matching the query.
func (c *RAWGClient) Search(ctx context.Context, query string, page int) ([]MediaResult, error) {
	if page <= 0 {
		page = 1
	}
	u, err := buildURL(c.BaseURL, "/games", map[string]string{
		"key":    c.APIKey,
		"search": query,
		"page":   strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}
	var resp rawgSearchResponse
	if err := c.pc.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	results := make([]MediaResult, 0, len(resp.Results))
	for _, g := range resp.Results {
		year := ""
		if len(g.Released) >= 4 {
			year = g.Released[:4]
		}
		results = append(results, MediaResult{
			MediaType:  "game",
			ExternalID: strconv.Itoa(g.ID),
			Title:      g.Name,
			Year:       year,
			ImageURL:   g.BackgroundImage,
		})
	}
	return results, nil
}

// Details returns the raw RAWG payload for one game.
func (c *RAWGClient) Details(ctx context.Context, externalID string) (json.RawMessage, error) {
	u, err := buildURL(c.BaseURL, "/games/"+externalID, map[string]string{"key": c.APIKey})
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.pc.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
