package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// ReviewHandler serves public reviews. One review per user per media
// item; the uniqueness is enforced by the repository.
type ReviewHandler struct {
	Reviews *repository.ReviewRepo
	Inv     *middleware.CacheInvalidator
}

func NewReviewHandler(reviews *repository.ReviewRepo, inv *middleware.CacheInvalidator) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Inv: inv}
}

type reviewResp struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	MediaType  string    `json:"media_type"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	Rating     int       `json:"rating"`
	Body       string    `json:"body,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toReview(rv repository.Review) reviewResp {
	return reviewResp{
		ID:         rv.ID,
		UserID:     rv.UserID,
		AuthorName: rv.AuthorName,
		MediaType:  rv.MediaType,
		ExternalID: rv.ExternalID,
		Title:      rv.Title,
		Rating:     rv.Rating,
		Body:       rv.Body,
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}
}

func toReviewList(reviews []repository.Review) []reviewResp {
	out := make([]reviewResp, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, toReview(rv))
	}
	return out
}

type createReviewReq struct {
	MediaType  string `json:"media_type"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Rating     int    `json:"rating"`
	Body       string `json:"body"`
}

// Create handles POST /v1/reviews.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MediaType = strings.ToLower(strings.TrimSpace(req.MediaType))
	if strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Title) == "" || req.MediaType == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_type, external_id and title required"})
	}
	if req.Rating < 1 || req.Rating > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1-10"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Reviews.Create(ctx, repository.Review{
		UserID:     userID,
		MediaType:  req.MediaType,
		ExternalID: strings.TrimSpace(req.ExternalID),
		Title:      strings.TrimSpace(req.Title),
		Rating:     req.Rating,
		Body:       req.Body,
	})
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "you already reviewed this item"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
	}
	h.Inv.Flush(ctx)

	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load review failed"})
	}
	return c.JSON(http.StatusCreated, toReview(rv))
}

type updateReviewReq struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// Update handles PATCH /v1/reviews/:id.
func (h *ReviewHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	var req updateReviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Rating < 1 || req.Rating > 10 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1-10"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Reviews.Update(ctx, id, userID, req.Rating, req.Body); err != nil {
		return repoError(c, err, "update review failed")
	}
	h.Inv.Flush(ctx)

	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load review failed"})
	}
	return c.JSON(http.StatusOK, toReview(rv))
}

// Delete handles DELETE /v1/reviews/:id.
func (h *ReviewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Reviews.Delete(ctx, id, userID); err != nil {
		return repoError(c, err, "delete review failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ListByMedia handles GET /media/:type/:external_id/reviews. Public,
// no auth required.
func (h *ReviewHandler) ListByMedia(c echo.Context) error {
	mediaType := strings.ToLower(c.Param("type"))
	externalID := c.Param("external_id")
	if mediaType == "" || externalID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media type and id required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	reviews, err := h.Reviews.ListByMedia(ctx, mediaType, externalID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": toReviewList(reviews)})
}

// ListMine handles GET /v1/reviews.
func (h *ReviewHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	reviews, err := h.Reviews.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": toReviewList(reviews)})
}
