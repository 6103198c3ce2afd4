package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/queue"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// RecommendHandler manages friend-to-friend media recommendations.
// Sending and resolving both publish an event to RabbitMQ; publish
// failures are logged by the publisher and never fail the request.
type RecommendHandler struct {
	Recs    *repository.RecommendationRepo
	Friends *repository.FriendRepo
	Users   *repository.UserRepo
}

func NewRecommendHandler(recs *repository.RecommendationRepo, friends *repository.FriendRepo, users *repository.UserRepo) *RecommendHandler {
	return &RecommendHandler{Recs: recs, Friends: friends, Users: users}
}

type recommendationResp struct {
	ID          uint64     `json:"id"`
	SenderID    uint64     `json:"sender_id"`
	RecipientID uint64     `json:"recipient_id"`
	PeerName    string     `json:"peer_name,omitempty"`
	MediaType   string     `json:"media_type"`
	ExternalID  string     `json:"external_id"`
	Title       string     `json:"title"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func toRecommendation(rec repository.Recommendation) recommendationResp {
	resp := recommendationResp{
		ID:          rec.ID,
		SenderID:    rec.SenderID,
		RecipientID: rec.RecipientID,
		PeerName:    rec.PeerName,
		MediaType:   rec.MediaType,
		ExternalID:  rec.ExternalID,
		Title:       rec.Title,
		Message:     rec.Message,
		Status:      rec.Status,
		CreatedAt:   rec.CreatedAt,
	}
	if rec.RespondedAt.Valid {
		t := rec.RespondedAt.Time
		resp.RespondedAt = &t
	}
	return resp
}

type sendRecommendationReq struct {
	RecipientID uint64 `json:"recipient_id"`
	MediaType   string `json:"media_type"`
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Message     string `json:"message"`
}

// Send handles POST /v1/recommendations. Sender and recipient must be
// friends.
func (h *RecommendHandler) Send(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendRecommendationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MediaType = strings.ToLower(strings.TrimSpace(req.MediaType))
	if req.RecipientID == 0 || req.MediaType == "" ||
		strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "recipient_id, media_type, external_id and title required"})
	}
	if req.RecipientID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot recommend to yourself"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	friends, err := h.Friends.AreFriends(ctx, userID, req.RecipientID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "friendship check failed"})
	}
	if !friends {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you can only recommend to friends"})
	}

	id, err := h.Recs.Create(ctx, repository.Recommendation{
		SenderID:    userID,
		RecipientID: req.RecipientID,
		MediaType:   req.MediaType,
		ExternalID:  strings.TrimSpace(req.ExternalID),
		Title:       strings.TrimSpace(req.Title),
		Message:     req.Message,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send recommendation failed"})
	}

	rec, err := h.Recs.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load recommendation failed"})
	}
	h.publish(c, queue.KindSent, rec)
	return c.JSON(http.StatusCreated, toRecommendation(rec))
}

type respondRecommendationReq struct {
	Status string `json:"status"`
}

// Respond handles POST /v1/recommendations/:id/respond. Recipient only;
// status must be HIT or MISS, and a later response overwrites an
// earlier one.
func (h *RecommendHandler) Respond(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recommendation id"})
	}
	var req respondRecommendationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if !repository.ValidRecommendationStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be HIT or MISS"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	rec, err := h.Recs.Respond(ctx, id, userID, status)
	if err != nil {
		return repoError(c, err, "respond failed")
	}
	h.publish(c, queue.KindResolved, rec)
	return c.JSON(http.StatusOK, toRecommendation(rec))
}

// Inbox handles GET /v1/recommendations/inbox?status=.
func (h *RecommendHandler) Inbox(c echo.Context) error {
	return h.listFor(c, h.Recs.Inbox)
}

// Outbox handles GET /v1/recommendations/outbox?status=.
func (h *RecommendHandler) Outbox(c echo.Context) error {
	return h.listFor(c, h.Recs.Outbox)
}

func (h *RecommendHandler) listFor(c echo.Context, list func(ctx context.Context, userID uint64, status string) ([]repository.Recommendation, error)) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
	if status != "" && status != repository.RecommendationPending && !repository.ValidRecommendationStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be PENDING, HIT or MISS"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	recs, err := list(ctx, userID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list recommendations failed"})
	}
	out := make([]recommendationResp, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecommendation(rec))
	}
	return c.JSON(http.StatusOK, echo.Map{"recommendations": out})
}

// publish fires a recommendation event in the background. The request
// already succeeded at this point, so a broker outage must not surface
// to the client.
func (h *RecommendHandler) publish(c echo.Context, kind string, rec repository.Recommendation) {
	ctx, cancel := reqContext(c)
	defer cancel()

	sender, _ := h.Users.GetByID(ctx, rec.SenderID)
	recipient, _ := h.Users.GetByID(ctx, rec.RecipientID)

	_ = queue.PublishRecommendationEvent(ctx, queue.RecommendationEvent{
		EventID:          uuid.NewString(),
		Kind:             kind,
		RecommendationID: rec.ID,
		SenderID:         rec.SenderID,
		SenderName:       sender.DisplayName,
		RecipientID:      rec.RecipientID,
		RecipientName:    recipient.DisplayName,
		MediaType:        rec.MediaType,
		Title:            rec.Title,
		Status:           rec.Status,
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	})
}
