package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// LibraryHandler serves the book/game/music library. It mirrors the
// watchlist endpoints but tracks a per-media-type status instead of a
// watched flag.
type LibraryHandler struct {
	Entries *repository.LibraryRepo
	Inv     *middleware.CacheInvalidator
}

func NewLibraryHandler(entries *repository.LibraryRepo, inv *middleware.CacheInvalidator) *LibraryHandler {
	return &LibraryHandler{Entries: entries, Inv: inv}
}

type libraryEntryResp struct {
	ID          uint64     `json:"id"`
	MediaType   string     `json:"media_type"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	CoverURL    string     `json:"cover_url,omitempty"`
	Note        string     `json:"note,omitempty"`
	Rating      *int       `json:"rating,omitempty"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toLibraryEntry(e repository.LibraryEntry) libraryEntryResp {
	resp := libraryEntryResp{
		ID:         e.ID,
		MediaType:  e.MediaType,
		ExternalID: e.ExternalID,
		Title:      e.Title,
		CoverURL:   e.CoverURL,
		Note:       e.Note,
		Status:     e.Status,
		CreatedAt:  e.CreatedAt,
	}
	if e.Rating.Valid {
		r := int(e.Rating.Int64)
		resp.Rating = &r
	}
	if e.CompletedAt.Valid {
		t := e.CompletedAt.Time
		resp.CompletedAt = &t
	}
	return resp
}

type addLibraryReq struct {
	MediaType  string `json:"media_type"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	CoverURL   string `json:"cover_url"`
	Note       string `json:"note"`
}

// Add handles POST /v1/library.
func (h *LibraryHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addLibraryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MediaType = strings.ToLower(strings.TrimSpace(req.MediaType))
	if repository.DefaultLibraryStatus(req.MediaType) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_type must be book, game or music"})
	}
	if strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "external_id and title required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Entries.Add(ctx, repository.LibraryEntry{
		UserID:     userID,
		MediaType:  req.MediaType,
		ExternalID: strings.TrimSpace(req.ExternalID),
		Title:      strings.TrimSpace(req.Title),
		CoverURL:   strings.TrimSpace(req.CoverURL),
		Note:       req.Note,
	})
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "already in library"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add failed"})
	}
	h.Inv.Flush(ctx)

	e, err := h.Entries.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load entry failed"})
	}
	return c.JSON(http.StatusCreated, toLibraryEntry(e))
}

// List handles GET /v1/library?type=&status=.
func (h *LibraryHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	mediaType := strings.ToLower(c.QueryParam("type"))
	status := strings.ToLower(c.QueryParam("status"))

	ctx, cancel := reqContext(c)
	defer cancel()

	entries, err := h.Entries.ListByUser(ctx, userID, mediaType, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	out := make([]libraryEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLibraryEntry(e))
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}

type setStatusReq struct {
	Status string `json:"status"`
}

// SetStatus handles POST /v1/library/:id/status. Terminal statuses
// ("finished", "played", "listened") stamp completed_at; any other
// transition clears it.
func (h *LibraryHandler) SetStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	var req setStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))

	ctx, cancel := reqContext(c)
	defer cancel()

	e, err := h.Entries.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load entry failed")
	}
	ok, terminal := repository.ValidLibraryStatus(e.MediaType, status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status for " + e.MediaType})
	}

	updated, err := h.Entries.SetStatus(ctx, id, userID, status, terminal)
	if err != nil {
		return repoError(c, err, "set status failed")
	}
	h.Inv.Flush(ctx)
	return c.JSON(http.StatusOK, toLibraryEntry(updated))
}

type updateLibraryReq struct {
	Note   string `json:"note"`
	Rating int    `json:"rating"`
}

// Update handles PATCH /v1/library/:id (note and personal rating).
func (h *LibraryHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}
	var req updateLibraryReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 0 || req.Rating > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1-10, or 0 to clear"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Entries.Update(ctx, id, userID, req.Note, req.Rating); err != nil {
		return repoError(c, err, "update failed")
	}
	h.Inv.Flush(ctx)

	e, err := h.Entries.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load entry failed"})
	}
	return c.JSON(http.StatusOK, toLibraryEntry(e))
}

// Delete handles DELETE /v1/library/:id.
func (h *LibraryHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid entry id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Entries.Delete(ctx, id, userID); err != nil {
		return repoError(c, err, "delete failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}
