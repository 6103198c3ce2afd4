package metadata

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/mediashelf/mediashelf/internal/config"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// Service routes search and details requests to the provider matching the
// media type, with details answered from the media_cache table when a fresh
// entry exists. Cache failures never fail a request; they fall through to
// the provider.
type Service struct {
	cache *repository.MediaCacheRepo
	ttl   time.Duration

	tmdb   *TMDBClient
	omdb   *OMDBClient
	itunes *ITunesClient
	rawg   *RAWGClient
	books  *GoogleBooksClient
}

// NewService wires provider clients from config. Providers without a
// configured key stay nil and report ErrUnavailable.
func NewService(cfg config.Config, cache *repository.MediaCacheRepo) *Service {
	s := &Service{
		cache:  cache,
		ttl:    time.Duration(cfg.MediaCacheTTLHours) * time.Hour,
		itunes: NewITunesClient(cfg.ProviderRPS),
		books:  NewGoogleBooksClient("", cfg.ProviderRPS),
	}
	if cfg.TMDBKey != "" {
		s.tmdb = NewTMDBClient(cfg.TMDBKey, cfg.ProviderRPS)
	}
	if cfg.OMDBKey != "" {
		s.omdb = NewOMDBClient(cfg.OMDBKey, cfg.ProviderRPS)
	}
	if cfg.RAWGKey != "" {
		s.rawg = NewRAWGClient(cfg.RAWGKey, cfg.ProviderRPS)
	}
	return s
}

// ValidMediaType reports whether t is one of the supported media types.
func ValidMediaType(t string) bool {
	switch t {
	case "movie", "tv", "book", "game", "music":
		return true
	}
	return false
}

// Search fans out to the provider matching the media type.
func (s *Service) Search(ctx context.Context, mediaType, query string) ([]MediaResult, error) {
	switch mediaType {
	case "movie", "tv":
		if s.tmdb == nil {
			return nil, ErrUnavailable
		}
		return s.tmdb.Search(ctx, mediaType, query, 1)
	case "game":
		if s.rawg == nil {
			return nil, ErrUnavailable
		}
		return s.rawg.Search(ctx, query, 1)
	case "music":
		return s.itunes.Search(ctx, query, 20)
	case "book":
		return s.books.Search(ctx, query, 20)
	}
	return nil, ErrUnavailable
}

// Details returns the provider payload for one media item, serving from the
// media cache when fresh and storing fetched payloads with the configured
// TTL. cached reports where the payload came from.
func (s *Service) Details(ctx context.Context, mediaType, externalID string) (payload json.RawMessage, cached bool, err error) {
	if s.cache != nil {
		if entry, err := s.cache.Get(ctx, mediaType, externalID); err == nil {
			return entry.Payload, true, nil
		} else if err != repository.ErrNotFound {
			log.Printf("metadata: cache read failed for %s/%s: %v", mediaType, externalID, err)
		}
	}

	payload, err = s.fetch(ctx, mediaType, externalID)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, mediaType, externalID, payload, s.ttl); err != nil {
			log.Printf("metadata: cache write failed for %s/%s: %v", mediaType, externalID, err)
		}
	}
	return payload, false, nil
}

// Ratings returns the OMDB ratings payload for an IMDb id.
func (s *Service) Ratings(ctx context.Context, imdbID string) (json.RawMessage, error) {
	if s.omdb == nil {
		return nil, ErrUnavailable
	}
	return s.omdb.ByIMDbID(ctx, imdbID)
}

func (s *Service) fetch(ctx context.Context, mediaType, externalID string) (json.RawMessage, error) {
	switch mediaType {
	case "movie", "tv":
		if s.tmdb == nil {
			return nil, ErrUnavailable
		}
		return s.tmdb.Details(ctx, mediaType, externalID)
	case "game":
		if s.rawg == nil {
			return nil, ErrUnavailable
		}
		return s.rawg.Details(ctx, externalID)
	case "music":
		return s.itunes.Lookup(ctx, externalID)
	case "book":
		return s.books.Details(ctx, externalID)
	}
	return nil, ErrUnavailable
}
