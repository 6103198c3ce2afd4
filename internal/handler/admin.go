package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/repository"
	"github.com/mediashelf/mediashelf/internal/utils"
)

// AdminHandler serves the ADMIN-gated endpoints: user management,
// invite minting, instance stats and media cache housekeeping.
type AdminHandler struct {
	DBStats statsSource
	Users   *repository.UserRepo
	Invites *repository.InviteRepo
	Cache   *repository.MediaCacheRepo
}

// statsSource is what Stats needs from the database, extracted so
// tests can stub it.
type statsSource interface {
	CountRows(ctx context.Context, table string) (int64, error)
}

func NewAdminHandler(stats statsSource, users *repository.UserRepo, invites *repository.InviteRepo, cache *repository.MediaCacheRepo) *AdminHandler {
	return &AdminHandler{DBStats: stats, Users: users, Invites: invites, Cache: cache}
}

type adminUserResp struct {
	ID          uint64    `json:"id"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListUsers handles GET /v1/admin/users?limit=&offset=.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{
			ID:          u.ID,
			Email:       u.Email,
			Role:        u.Role,
			DisplayName: u.DisplayName,
			IsActive:    u.IsActive,
			CreatedAt:   u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out, "limit": limit, "offset": offset})
}

type setRoleReq struct {
	Role string `json:"role"`
}

// SetRole handles POST /v1/admin/users/:id/role. Granting or revoking
// ADMIN requires SUPER_ADMIN; SUPER_ADMIN itself can only be set via
// the CLI.
func (h *AdminHandler) SetRole(c echo.Context) error {
	callerRole, _ := c.Get("role").(string)
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req setRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role != repository.RoleUser && role != repository.RoleAdmin {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be USER or ADMIN"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if target.Role == repository.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot change a super admin's role"})
	}
	if (role == repository.RoleAdmin || target.Role == repository.RoleAdmin) &&
		callerRole != repository.RoleSuperAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "super admin required to grant or revoke ADMIN"})
	}

	if err := h.Users.SetRole(ctx, id, role); err != nil {
		return repoError(c, err, "set role failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
}

// MintInvite handles POST /v1/admin/invites.
func (h *AdminHandler) MintInvite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	code := utils.NewInviteCode()
	if err := h.Invites.Mint(ctx, code, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mint invite failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"code": code})
}

// ListInvites handles GET /v1/admin/invites (codes minted by the caller).
func (h *AdminHandler) ListInvites(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	codes, err := h.Invites.ListByCreator(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list invites failed"})
	}
	type inviteResp struct {
		Code      string     `json:"code"`
		UsedBy    *uint64    `json:"used_by,omitempty"`
		UsedAt    *time.Time `json:"used_at,omitempty"`
		CreatedAt time.Time  `json:"created_at"`
	}
	out := make([]inviteResp, 0, len(codes))
	for _, ic := range codes {
		r := inviteResp{Code: ic.Code, CreatedAt: ic.CreatedAt}
		if ic.UsedBy.Valid {
			v := uint64(ic.UsedBy.Int64)
			r.UsedBy = &v
		}
		if ic.UsedAt.Valid {
			t := ic.UsedAt.Time
			r.UsedAt = &t
		}
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, echo.Map{"invites": out})
}

// Stats handles GET /v1/admin/stats: row counts per core table.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	tables := []string{"users", "watchlist_items", "library_entries", "reviews",
		"friend_requests", "recommendations", "lists", "media_cache"}
	counts := echo.Map{}
	for _, t := range tables {
		n, err := h.DBStats.CountRows(ctx, t)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "stats query failed"})
		}
		counts[t] = n
	}
	return c.JSON(http.StatusOK, counts)
}

// PurgeMediaCache handles POST /v1/admin/media-cache/purge: drops
// expired rows and reports how many went away.
func (h *AdminHandler) PurgeMediaCache(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	n, err := h.Cache.PurgeExpired(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "purge failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"purged": n})
}
