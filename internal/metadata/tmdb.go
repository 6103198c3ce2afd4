package metadata

import (
	"context"
	"encoding/json"
	"strconv"
)

// TMDBClient serves movie and TV metadata from The Movie Database.
type TMDBClient struct {
	APIKey  string
	BaseURL string
	pc      *pacedClient
}

func NewTMDBClient(apiKey string, rps float64) *TMDBClient {
	return &TMDBClient{
		APIKey:  apiKey,
		BaseURL: "https://api.themoviedb.org/3",
		pc:      newPacedClient(rps),
	}
}

type tmdbSearchResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID           int     `json:"id"`
		Title        string  `json:"title"` // movies
		Name         string  `json:"name"`  // tv
		Overview     string  `json:"overview"`
		ReleaseDate  string  `json:"release_date"`
		FirstAirDate string  `json:"first_air_date"`
		PosterPath   *string `json:"poster_path"`
	} `json:"results"`
	TotalResults int `json:"total_results"`
}

// Search queries TMDB for movies or TV shows. mediaType is "movie" or "tv".
func (c *TMDBClient) Search(ctx context.Context, mediaType, query string, page int) ([]MediaResult, error) {
	if page <= 0 {
		page = 1
	}
	u, err := buildURL(c.BaseURL, "/search/"+mediaType, map[string]string{
		"api_key": c.APIKey,
		"query":   query,
		"page":    strconv.Itoa(page),
	})
	if err != nil {
		return nil, err
	}
	var resp tmdbSearchResponse
	if err := c.pc.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	results := make([]MediaResult, 0, len(resp.Results))
	for _, m := range resp.Results {
		title, date := m.Title, m.ReleaseDate
		if mediaType == "tv" {
			title, date = m.Name, m.FirstAirDate
		}
		year := ""
		if len(date) >= 4 {
			year = date[:4]
		}
		image := ""
		if m.PosterPath != nil {
			image = "https://image.tmdb.org/t/p/w500" + *m.PosterPath
		}
		results = append(results, MediaResult{
			MediaType:  mediaType,
			ExternalID: strconv.Itoa(m.ID),
			Title:      title,
			Year:       year,
			ImageURL:   image,
			Overview:   m.Overview,
		})
	}
	return results, nil
}

// Details fetches the full TMDB payload for one movie or show.
func (c *TMDBClient) Details(ctx context.Context, mediaType, externalID string) (json.RawMessage, error) {
	u, err := buildURL(c.BaseURL, "/"+mediaType+"/"+externalID, map[string]string{
		"api_key": c.APIKey,
	})
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.pc.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
