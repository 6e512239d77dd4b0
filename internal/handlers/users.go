package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/cache"
	"geochat-service/internal/models"
	"geochat-service/internal/repositories"
)

// UserHandler manages profiles, presence and PIN search.
type UserHandler struct {
	users    repositories.UserRepository
	presence *cache.Presence
}

// NewUserHandler builds a UserHandler.
func NewUserHandler(users repositories.UserRepository, presence *cache.Presence) *UserHandler {
	return &UserHandler{users: users, presence: presence}
}

type createUserRequest struct {
	Name   string   `json:"name" binding:"required"`
	Email  string   `json:"email" binding:"required,email"`
	Avatar *string  `json:"avatar"`
	Bio    *string  `json:"bio"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

// Create registers a profile and allocates its unique PIN.
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), repositories.CreateUserParams{
		Name:   req.Name,
		Email:  req.Email,
		Avatar: req.Avatar,
		Bio:    req.Bio,
		Lat:    req.Lat,
		Lng:    req.Lng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.presence.SetOnline(c.Request.Context(), user.ID, true)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Get returns one profile, preferring the presence cache for the online flag.
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if online, ok := h.presence.IsOnline(c.Request.Context(), user.ID); ok {
		user.IsOnline = online
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateUserRequest struct {
	Name     *string  `json:"name"`
	Email    *string  `json:"email"`
	Avatar   *string  `json:"avatar"`
	Bio      *string  `json:"bio"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	IsOnline *bool    `json:"is_online"`
}

// Update applies profile changes. The body is decoded strictly: unknown
// fields are rejected rather than dropped.
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if !bindStrict(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), repositories.UpdateUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Avatar:   req.Avatar,
		Bio:      req.Bio,
		Lat:      req.Lat,
		Lng:      req.Lng,
		IsOnline: req.IsOnline,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if req.IsOnline != nil {
		h.presence.SetOnline(c.Request.Context(), user.ID, *req.IsOnline)
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SearchByPIN resolves an exact six-digit PIN, never matching the caller.
// Malformed input is not an error: anything but six digits simply matches
// nothing.
func (h *UserHandler) SearchByPIN(c *gin.Context) {
	pin := c.Query("pin")
	callerID := c.Query("userId")
	if callerID == "" {
		respondError(c, apperr.Validationf("userId parameter is required"))
		return
	}
	if !pinPattern.MatchString(pin) {
		c.JSON(http.StatusOK, gin.H{"users": []models.PublicProfile{}, "count": 0})
		return
	}

	user, err := h.users.SearchByPIN(c.Request.Context(), pin, callerID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			c.JSON(http.StatusOK, gin.H{"users": []models.PublicProfile{}, "count": 0})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": []models.PublicProfile{user}, "count": 1})
}

// List returns profiles for the map view, optionally online-only and bounded
// to a radius around a point.
func (h *UserHandler) List(c *gin.Context) {
	var query struct {
		Online bool     `form:"online"`
		Lat    *float64 `form:"lat"`
		Lng    *float64 `form:"lng"`
		Radius float64  `form:"radius"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	users, err := h.users.List(c.Request.Context(), repositories.ListUsersParams{
		OnlineOnly: query.Online,
		Lat:        query.Lat,
		Lng:        query.Lng,
		RadiusKm:   query.Radius,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
