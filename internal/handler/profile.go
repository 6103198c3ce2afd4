package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediashelf/mediashelf/internal/repository"
)

// ProfileHandler serves user profile reads and updates.
type ProfileHandler struct {
	Users   *repository.UserRepo
	Reviews *repository.ReviewRepo
}

func NewProfileHandler(u *repository.UserRepo, r *repository.ReviewRepo) *ProfileHandler {
	return &ProfileHandler{Users: u, Reviews: r}
}

type profileResp struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email,omitempty"` // own profile only
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	Role        string `json:"role"`
	IsAdmin     bool   `json:"is_admin"`
}

func toProfile(u repository.User, includeEmail bool) profileResp {
	p := profileResp{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		IsAdmin:     u.Role == repository.RoleAdmin || u.Role == repository.RoleSuperAdmin,
	}
	if includeEmail {
		p.Email = u.Email
	}
	return p
}

// GetMe returns the caller's own profile.
func (h *ProfileHandler) GetMe(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, toProfile(u, true))
}

type updateProfileReq struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// UpdateMe rewrites the caller's profile fields.
func (h *ProfileHandler) UpdateMe(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.DisplayName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "display_name required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, userID, req.DisplayName, req.Bio, req.AvatarURL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, toProfile(u, true))
}

// GetPublic returns another user's public profile with their reviews.
func (h *ProfileHandler) GetPublic(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	reviews, err := h.Reviews.ListByUser(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"profile": toProfile(u, false),
		"reviews": toReviewList(reviews),
	})
}
