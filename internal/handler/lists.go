package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/middleware"
	"github.com/mediashelf/mediashelf/internal/repository"
)

// ListsHandler serves shareable media lists. Access is role based:
// the owner can do everything, EDITOR members can change items,
// VIEWER members (and anyone, for public lists) can read.
type ListsHandler struct {
	Lists *repository.ListRepo
	Users *repository.UserRepo
	Inv   *middleware.CacheInvalidator
}

func NewListsHandler(lists *repository.ListRepo, users *repository.UserRepo, inv *middleware.CacheInvalidator) *ListsHandler {
	return &ListsHandler{Lists: lists, Users: users, Inv: inv}
}

type listResp struct {
	ID          uint64    `json:"id"`
	OwnerID     uint64    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	ItemCount   int       `json:"item_count"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toList(l repository.List, role string) listResp {
	return listResp{
		ID:          l.ID,
		OwnerID:     l.OwnerID,
		Name:        l.Name,
		Description: l.Description,
		IsPublic:    l.IsPublic,
		ItemCount:   l.ItemCount,
		Role:        role,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type listMemberResp struct {
	UserID      uint64    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	AddedAt     time.Time `json:"added_at"`
}

type listItemResp struct {
	ID         uint64    `json:"id"`
	MediaType  string    `json:"media_type"`
	ExternalID string    `json:"external_id"`
	Title      string    `json:"title"`
	AddedBy    uint64    `json:"added_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type listReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// Create handles POST /v1/lists.
func (h *ListsHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req listReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Lists.Create(ctx, userID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create list failed"})
	}
	h.Inv.Flush(ctx)

	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load list failed"})
	}
	return c.JSON(http.StatusCreated, toList(l, "OWNER"))
}

// Mine handles GET /v1/lists (owned plus member lists).
func (h *ListsHandler) Mine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	lists, err := h.Lists.ListForUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list failed"})
	}
	out := make([]listResp, 0, len(lists))
	for _, l := range lists {
		role := ""
		if l.OwnerID == userID {
			role = "OWNER"
		}
		out = append(out, toList(l, role))
	}
	return c.JSON(http.StatusOK, echo.Map{"lists": out})
}

// Get handles GET /v1/lists/:id with the list, items and members.
// Members are only included for the owner.
func (h *ListsHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	role, err := h.Lists.RoleFor(ctx, id, userID)
	if err != nil {
		return repoError(c, err, "load list failed")
	}
	if role == "" {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}

	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "load list failed")
	}
	items, err := h.Lists.Items(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load items failed"})
	}
	l.ItemCount = len(items)

	itemsOut := make([]listItemResp, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, listItemResp{
			ID:         it.ID,
			MediaType:  it.MediaType,
			ExternalID: it.ExternalID,
			Title:      it.Title,
			AddedBy:    it.AddedBy,
			CreatedAt:  it.CreatedAt,
		})
	}

	resp := echo.Map{
		"list":  toList(l, role),
		"items": itemsOut,
	}
	if role == "OWNER" {
		members, err := h.Lists.Members(ctx, id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load members failed"})
		}
		membersOut := make([]listMemberResp, 0, len(members))
		for _, m := range members {
			membersOut = append(membersOut, listMemberResp{
				UserID:      m.UserID,
				Email:       m.Email,
				DisplayName: m.DisplayName,
				Role:        m.Role,
				AddedAt:     m.AddedAt,
			})
		}
		resp["members"] = membersOut
	}
	return c.JSON(http.StatusOK, resp)
}

// Update handles PATCH /v1/lists/:id (owner only).
func (h *ListsHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}
	var req listReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Lists.Update(ctx, id, userID, req.Name, req.Description, req.IsPublic); err != nil {
		return repoError(c, err, "update list failed")
	}
	h.Inv.Flush(ctx)

	l, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load list failed"})
	}
	return c.JSON(http.StatusOK, toList(l, "OWNER"))
}

// Delete handles DELETE /v1/lists/:id (owner only).
func (h *ListsHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Lists.Delete(ctx, id, userID); err != nil {
		return repoError(c, err, "delete list failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}

type addMemberReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AddMember handles POST /v1/lists/:id/members (owner only). The
// member is addressed by email like friend requests.
func (h *ListsHandler) AddMember(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}
	var req addMemberReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != repository.ListRoleViewer && role != repository.ListRoleEditor {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be VIEWER or EDITOR"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	member, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no user with that email"})
	}
	if err := h.Lists.AddMember(ctx, id, userID, member.ID, role); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "owner cannot be a member"})
		}
		return repoError(c, err, "add member failed")
	}
	h.Inv.Flush(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"user_id": member.ID, "role": role})
}

// RemoveMember handles DELETE /v1/lists/:id/members/:userID (owner only).
func (h *ListsHandler) RemoveMember(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}
	memberID, err := pathID(c, "userID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Lists.RemoveMember(ctx, id, userID, memberID); err != nil {
		return repoError(c, err, "remove member failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}

type addListItemReq struct {
	MediaType  string `json:"media_type"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
}

// AddItem handles POST /v1/lists/:id/items (owner or EDITOR).
func (h *ListsHandler) AddItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}
	var req addListItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.MediaType = strings.ToLower(strings.TrimSpace(req.MediaType))
	if req.MediaType == "" || strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.Title) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "media_type, external_id and title required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.requireEditor(ctx, c, id, userID); err != nil {
		return err
	}

	itemID, err := h.Lists.AddItem(ctx, repository.ListItem{
		ListID:     id,
		MediaType:  req.MediaType,
		ExternalID: strings.TrimSpace(req.ExternalID),
		Title:      strings.TrimSpace(req.Title),
		AddedBy:    userID,
	})
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "item already on list"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add item failed"})
	}
	h.Inv.Flush(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"id": itemID})
}

// RemoveItem handles DELETE /v1/lists/:id/items/:itemID (owner or EDITOR).
func (h *ListsHandler) RemoveItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}
	itemID, err := pathID(c, "itemID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.requireEditor(ctx, c, id, userID); err != nil {
		return err
	}
	if err := h.Lists.RemoveItem(ctx, id, itemID); err != nil {
		return repoError(c, err, "remove item failed")
	}
	h.Inv.Flush(ctx)
	return c.NoContent(http.StatusNoContent)
}

// Public handles GET /lists/:id/public: read-only access to public
// lists without authentication.
func (h *ListsHandler) Public(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid list id"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	l, err := h.Lists.GetByID(ctx, id)
	if err != nil || !l.IsPublic {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	}
	items, err := h.Lists.Items(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load items failed"})
	}
	l.ItemCount = len(items)

	itemsOut := make([]listItemResp, 0, len(items))
	for _, it := range items {
		itemsOut = append(itemsOut, listItemResp{
			ID:         it.ID,
			MediaType:  it.MediaType,
			ExternalID: it.ExternalID,
			Title:      it.Title,
			AddedBy:    it.AddedBy,
			CreatedAt:  it.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"list": toList(l, ""), "items": itemsOut})
}

// requireEditor writes the error response itself when access is denied.
func (h *ListsHandler) requireEditor(ctx context.Context, c echo.Context, listID, userID uint64) error {
	role, err := h.Lists.RoleFor(ctx, listID, userID)
	if err != nil {
		return repoError(c, err, "load list failed")
	}
	switch role {
	case "OWNER", repository.ListRoleEditor:
		return nil
	case "":
		return c.JSON(http.StatusNotFound, echo.Map{"error": "list not found"})
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "editor role required"})
	}
}
