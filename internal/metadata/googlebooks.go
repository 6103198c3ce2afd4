package metadata

import (
	"context"
	"encoding/json"
	"strconv"
)

// GoogleBooksClient serves book metadata from the Google Books volumes API.
// Works without a key; one can be supplied to raise quota.
type GoogleBooksClient struct {
	APIKey  string
	BaseURL string
	pc      *pacedClient
}

func NewGoogleBooksClient(apiKey string, rps float64) *GoogleBooksClient {
	return &GoogleBooksClient{
		APIKey:  apiKey,
		BaseURL: "https://www.googleapis.com/books/v1",
		pc:      newPacedClient(rps),
	}
}

type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			PublishedDate string   `json:"publishedDate"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
			Description string `json:"description"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search queries Google Books for volumes matching the query.
func (c *GoogleBooksClient) Search(ctx context.Context, query string, limit int) ([]MediaResult, error) {
	if limit <= 0 || limit > 40 {
		limit = 20
	}
	params := map[string]string{
		"q":          query,
		"maxResults": strconv.Itoa(limit),
	}
	if c.APIKey != "" {
		params["key"] = c.APIKey
	}
	u, err := buildURL(c.BaseURL, "/volumes", params)
	if err != nil {
		return nil, err
	}
	var resp googleBooksResponse
	if err := c.pc.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	results := make([]MediaResult, 0, len(resp.Items))
	for _, v := range resp.Items {
		title := v.VolumeInfo.Title
		if len(v.VolumeInfo.Authors) > 0 {
			title = v.VolumeInfo.Authors[0] + " – " + title
		}
		year := ""
		if len(v.VolumeInfo.PublishedDate) >= 4 {
			year = v.VolumeInfo.PublishedDate[:4]
		}
		results = append(results, MediaResult{
			MediaType:  "book",
			ExternalID: v.ID,
			Title:      title,
			Year:       year,
			ImageURL:   v.VolumeInfo.ImageLinks.Thumbnail,
			Overview:   v.VolumeInfo.Description,
		})
	}
	return results, nil
}

// Details returns the raw volume payload for one book.
func (c *GoogleBooksClient) Details(ctx context.Context, externalID string) (json.RawMessage, error) {
	params := map[string]string{}
	if c.APIKey != "" {
		params["key"] = c.APIKey
	}
	u, err := buildURL(c.BaseURL, "/volumes/"+externalID, params)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.pc.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
