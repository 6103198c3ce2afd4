package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/metadata"
)

// SearchHandler fronts the metadata providers. Provider calls are
// paced, so these routes sit behind the Redis response cache to absorb
// repeated lookups.
type SearchHandler struct {
	Meta *metadata.Service
}

func NewSearchHandler(meta *metadata.Service) *SearchHandler {
	return &SearchHandler{Meta: meta}
}

func metaError(c echo.Context, err error) error {
	if errors.Is(err, metadata.ErrUnavailable) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "no provider configured for this media type"})
	}
	if errors.Is(err, metadata.ErrUpstream) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "metadata provider error"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "metadata lookup failed"})
}

// Search handles GET /v1/search/media?type=&q=.
func (h *SearchHandler) Search(c echo.Context) error {
	mediaType := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	query := strings.TrimSpace(c.QueryParam("q"))
	if !metadata.ValidMediaType(mediaType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be movie, tv, book, game or music"})
	}
	if query == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q required"})
	}

	ctx := c.Request().Context()
	results, err := h.Meta.Search(ctx, mediaType, query)
	if err != nil {
		return metaError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results})
}

// Details handles GET /v1/media/:type/:external_id. The payload is the
// provider's raw document, served from the MySQL media cache when fresh.
func (h *SearchHandler) Details(c echo.Context) error {
	mediaType := strings.ToLower(c.Param("type"))
	externalID := c.Param("external_id")
	if !metadata.ValidMediaType(mediaType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid media type"})
	}
	if externalID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "external id required"})
	}

	ctx := c.Request().Context()
	payload, cached, err := h.Meta.Details(ctx, mediaType, externalID)
	if err != nil {
		return metaError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"media_type":  mediaType,
		"external_id": externalID,
		"cached":      cached,
		"details":     payload,
	})
}

// Ratings handles GET /v1/media/ratings/:imdb_id (OMDB passthrough).
func (h *SearchHandler) Ratings(c echo.Context) error {
	imdbID := strings.TrimSpace(c.Param("imdb_id"))
	if !strings.HasPrefix(imdbID, "tt") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "imdb id must start with tt"})
	}

	ctx := c.Request().Context()
	payload, err := h.Meta.Ratings(ctx, imdbID)
	if err != nil {
		return metaError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"imdb_id": imdbID, "ratings": payload})
}
