package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/location"
	"geochat-service/internal/repositories"
	"geochat-service/internal/telemetry"
)

// LiveLocationHandler exposes the broadcast lifecycle: start, client-driven
// update, stop, and the combined incoming/outgoing listing.
type LiveLocationHandler struct {
	tracker   *location.Tracker
	locations repositories.LiveLocationRepository
	emitter   *telemetry.Emitter
}

// NewLiveLocationHandler builds a LiveLocationHandler.
func NewLiveLocationHandler(tracker *location.Tracker, locations repositories.LiveLocationRepository, emitter *telemetry.Emitter) *LiveLocationHandler {
	return &LiveLocationHandler{tracker: tracker, locations: locations, emitter: emitter}
}

// List returns every active broadcast the user takes part in, either end,
// newest first.
func (h *LiveLocationHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		respondError(c, apperr.Validationf("userId parameter is required"))
		return
	}

	views, err := h.locations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"live_locations": views, "count": len(views)})
}

type startLiveLocationRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	SharedWith string   `json:"shared_with" binding:"required"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Accuracy   *float64 `json:"accuracy"`
}

// Start begins a broadcast. PermissionDenied without mutual consent, and in
// that case no row is written. A caller that already has a device fix sends
// it along; otherwise the tracker acquires one.
func (h *LiveLocationHandler) Start(c *gin.Context) {
	var req startLiveLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		respondError(c, apperr.Validationf("latitude and longitude must be provided together"))
		return
	}

	var initial *location.Position
	if req.Latitude != nil {
		initial = &location.Position{Latitude: *req.Latitude, Longitude: *req.Longitude, Accuracy: req.Accuracy}
	}

	loc, err := h.tracker.StartSharing(c.Request.Context(), req.UserID, req.SharedWith, initial)
	if err != nil {
		respondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventLiveStarted, requestID(c), req.UserID,
		map[string]any{"shared_with": req.SharedWith})

	c.JSON(http.StatusCreated, gin.H{"live_location": loc})
}

type updateLiveLocationRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	SharedWith string   `json:"shared_with" binding:"required"`
	Latitude   *float64 `json:"latitude" binding:"required"`
	Longitude  *float64 `json:"longitude" binding:"required"`
	Accuracy   *float64 `json:"accuracy"`
}

// Update refreshes an active broadcast with a client-acquired fix. NotFound
// when the pair has not started sharing.
func (h *LiveLocationHandler) Update(c *gin.Context) {
	var req updateLiveLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := h.locations.UpdatePosition(c.Request.Context(), req.UserID, req.SharedWith,
		*req.Latitude, *req.Longitude, req.Accuracy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"live_location": loc})
}

// Stop cancels the watch and deactivates the broadcast row.
func (h *LiveLocationHandler) Stop(c *gin.Context) {
	userID := c.Query("userId")
	sharedWith := c.Query("sharedWith")
	if userID == "" || sharedWith == "" {
		respondError(c, apperr.Validationf("userId and sharedWith parameters are required"))
		return
	}

	if err := h.tracker.StopSharing(c.Request.Context(), userID, sharedWith); err != nil {
		respondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventLiveStopped, requestID(c), userID,
		map[string]any{"shared_with": sharedWith})

	c.JSON(http.StatusOK, gin.H{"success": true})
}
