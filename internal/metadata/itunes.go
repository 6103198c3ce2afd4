package metadata

import (
	"context"
	"encoding/json"
	"strconv"
)

// ITunesClient serves music metadata from the iTunes Search API. The API is
// keyless but rate limited, so calls still go through the paced client.
type ITunesClient struct {
	BaseURL string
	pc      *pacedClient
}

func NewITunesClient(rps float64) *ITunesClient {
	return &ITunesClient{
		BaseURL: "https://itunes.apple.com",
		pc:      newPacedClient(rps),
	}
}

type itunesSearchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		CollectionID   int64  `json:"collectionId"`
		ArtistName     string `json:"artistName"`
		CollectionName string `json:"collectionName"`
		ArtworkURL100  string `json:"artworkUrl100"`
		ReleaseDate    string `json:"releaseDate"`
	} `json:"results"`
}

// Search queries iTunes for albums matching the term.
func (c *ITunesClient) Search(ctx context.Context, term string, limit int) ([]MediaResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	u, err := buildURL(c.BaseURL, "/search", map[string]string{
		"term":   term,
		"media":  "music",
		"entity": "album",
		"limit":  strconv.Itoa(limit),
	})
	if err != nil {
		return nil, err
	}
	var resp itunesSearchResponse
	if err := c.pc.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	results := make([]MediaResult, 0, len(resp.Results))
	for _, m := range resp.Results {
		year := ""
		if len(m.ReleaseDate) >= 4 {
			year = m.ReleaseDate[:4]
		}
		results = append(results, MediaResult{
			MediaType:  "music",
			ExternalID: strconv.FormatInt(m.CollectionID, 10),
			Title:      m.ArtistName + " – " + m.CollectionName,
			Year:       year,
			ImageURL:   m.ArtworkURL100,
		})
	}
	return results, nil
}

// Lookup returns the raw iTunes payload for one collection id.
func (c *ITunesClient) Lookup(ctx context.Context, externalID string) (json.RawMessage, error) {
	u, err := buildURL(c.BaseURL, "/lookup", map[string]string{"id": externalID})
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.pc.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
