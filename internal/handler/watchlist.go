package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// WatchlistHandler serves the movie/TV watchlist. Every mutation flushes the
// response cache so subsequent reads reconcile with the database.
type WatchlistHandler struct {
	Items *repository.WatchlistRepo
	Inv   *middleware.CacheInvalidator
}

func NewWatchlistHandler(items *repository.WatchlistRepo, inv *middleware.CacheInvalidator) *WatchlistHandler {
	return &WatchlistHandler{Items: items, Inv: inv}
}

type watchlistItemResp struct {
	ID         uint64     `json:"id"`
	MediaType  string     `json:"media_type"`
	ExternalID string     `json:"external_id"`
	Title      string     `json:"title"`
	PosterURL  string     `json:"poster_url,omitempty"`
	Note       string     `json:"note,omitempty"`
	Rating     *int       `json:"rating,omitempty"`
	Watched    bool       `json:"watched"`
	WatchedAt  *time.Time `json:"watched_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toWatchlistItem(it repository.WatchlistItem) watchlistItemResp {
	resp := watchlistItemResp{
		ID:         it.ID,
		MediaType:  it.MediaType,
		ExternalID: it.ExternalID,
		Title:      it.Title,
		PosterURL:  it.PosterURL,
		Note:       it.Note,
		Watched:    it.Watched,
		CreatedAt:  it.CreatedAt,
	}
	if it.Rating.Valid {
		r := int(it.Rating.Int64)
		resp.Rating = &r
	}
	if it.WatchedAt.Valid {
		t := it.WatchedAt.Time
		resp.WatchedAt = &t
	}
	return resp
}

type addWatchlistReq struct {
	MediaType  string `json:"media_type"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	PosterURL  string `json:"poster_url"`
	Note       string `json:"note"`
}

// Add handles POST /v1/watchlist.
func (h *WatchlistHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addWatchlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MediaType = strings.ToLower(strings.TrimSpace(req.MediaType))
	if req.MediaType != "movie" && req.MediaType != "tv" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_type must be movie or tv"})
	}
	if strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "external_id and title required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Items.Add(ctx, repository.WatchlistItem{
		UserID:     userID,
		MediaType:  req.MediaType,
		ExternalID: strings.TrimSpace(req.ExternalID),
		Title:      strings.TrimSpace(req.Title),
		PosterURL:  strings.TrimSpace(req.PosterURL),
		Note:       req.Note,
	})
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already on watchlist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add failed"})
	}
	h.Inv.Flush(ctx)

	it, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load item failed"})
	}
	return c.JSON(http.StatusCreated, toWatchlistItem(it))
}

// List handles GET /v1/watchlist?watched=&type=.
func (h *WatchlistHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var watched *bool
	switch c.QueryParam("watched") {
	case "true":
		v := true
		watched = &v
	case "false":
		v := false
		watched = &v
	}
	mediaType := strings.ToLower(c.QueryParam("type"))

	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Items.ListByUser(ctx, userID, watched, mediaType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	out := make([]watchlistItemResp, 0, len(items))
	for _, it := range items {
		out = append(out, toWatchlistItem(it))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type updateWatchlistReq struct {
	Note   string `json:"note"`
	Rating int    `json:"rating"`
}

// Update handles PATCH /v1/watchlist/:id (note and personal rating).
func (h *WatchlistHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req updateWatchlistReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 0 || req.Rating > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1-10, or 0 to clear"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Items.Update(ctx, id, userID, req.Note, req.Rating); err != nil {
		return repoError(c, err, "update failed")
	}
	h.Inv.Flush(ctx)

	it, err := h.Items.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load item failed"})
	}
	return c.JSON(http.StatusOK, toWatchlistItem(it))
}

// ToggleWatched handles POST /v1/watchlist/:id/toggle. Flipping to watched
// stamps watched_at; flipping back clears it.
func (h *WatchlistHandler) ToggleWatched(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	it, err := h.Items.ToggleWatched(ctx, id, userID)
	if err != nil {
		return repoError(c, err, "toggle failed")
	}
	h.Inv.Flush(ctx)
	return c.JSON(http.StatusOK, toWatchlistItem(it))
}

// Delete handles DELETE /v1/watchlist/:id.
func (h *WatchlistHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Items.Delete(ctx, id, userID); err != nil {
		return repoError(c, err, "delete failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}
