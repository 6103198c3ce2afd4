package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/repository"
)

// FriendHandler manages friend requests and the friends list.
// Requests are addressed by email so users can be added without
// exposing numeric ids in the UI.
type FriendHandler struct {
	Friends *repository.FriendRepo
	Users   *repository.UserRepo
}

func NewFriendHandler(friends *repository.FriendRepo, users *repository.UserRepo) *FriendHandler {
	return &FriendHandler{Friends: friends, Users: users}
}

type friendRequestResp struct {
	ID          uint64     `json:"id"`
	RequesterID uint64     `json:"requester_id"`
	ReceiverID  uint64     `json:"receiver_id"`
	Status      string     `json:"status"`
	PeerEmail   string     `json:"peer_email"`
	PeerName    string     `json:"peer_name"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

func toFriendRequest(fr repository.FriendRequest) friendRequestResp {
	resp := friendRequestResp{
		ID:          fr.ID,
		RequesterID: fr.RequesterID,
		ReceiverID:  fr.ReceiverID,
		Status:      fr.Status,
		PeerEmail:   fr.PeerEmail,
		PeerName:    fr.PeerName,
		CreatedAt:   fr.CreatedAt,
	}
	if fr.RespondedAt.Valid {
		t := fr.RespondedAt.Time
		resp.RespondedAt = &t
	}
	return resp
}

func toFriendRequestList(reqs []repository.FriendRequest) []friendRequestResp {
	out := make([]friendRequestResp, 0, len(reqs))
	for _, fr := range reqs {
		out = append(out, toFriendRequest(fr))
	}
	return out
}

type sendFriendReq struct {
	Email string `json:"email"`
}

// Send handles POST /v1/friends/requests.
func (h *FriendHandler) Send(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendFriendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	receiver, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		// Same answer for unknown and known emails would be nicer for
		// privacy, but the requester needs actionable feedback here.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no user with that email"})
	}

	id, err := h.Friends.Send(ctx, userID, receiver.ID)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already exists or you are already friends"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send request failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":     id,
		"status": repository.FriendPending,
	})
}

type respondFriendReq struct {
	Accept bool `json:"accept"`
}

// Respond handles POST /v1/friends/requests/:id/respond. Only the
// receiver of a pending request may respond.
func (h *FriendHandler) Respond(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var req respondFriendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Friends.Respond(ctx, id, userID, req.Accept); err != nil {
		return repoError(c, err, "respond failed")
	}
	status := repository.FriendAccepted
	if !req.Accept {
		status = repository.FriendDeclined
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// Incoming handles GET /v1/friends/requests/incoming (pending only).
func (h *FriendHandler) Incoming(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	reqs, err := h.Friends.ListIncoming(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requests failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": toFriendRequestList(reqs)})
}

// Outgoing handles GET /v1/friends/requests/outgoing.
func (h *FriendHandler) Outgoing(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	reqs, err := h.Friends.ListOutgoing(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requests failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": toFriendRequestList(reqs)})
}

type friendResp struct {
	UserID      uint64    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Since       time.Time `json:"since"`
}

// List handles GET /v1/friends.
func (h *FriendHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	friends, err := h.Friends.ListFriends(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list friends failed"})
	}
	out := make([]friendResp, 0, len(friends))
	for _, f := range friends {
		out = append(out, friendResp(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"friends": out})
}

// Remove handles DELETE /v1/friends/:id. Either side of a friendship
// can remove it.
func (h *FriendHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	peerID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Friends.Remove(ctx, userID, peerID); err != nil {
		return repoError(c, err, "remove friend failed")
	}
	return c.NoContent(http.StatusNoContent)
}
