package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/location"
	"geochat-service/internal/repositories"
	"geochat-service/internal/telemetry"
)

// SharingHandler manages the location-sharing consent handshake and its
// derived state read model.
type SharingHandler struct {
	users   repositories.UserRepository
	tracker *location.Tracker
	emitter *telemetry.Emitter
}

// NewSharingHandler builds a SharingHandler.
func NewSharingHandler(users repositories.UserRepository, tracker *location.Tracker, emitter *telemetry.Emitter) *SharingHandler {
	return &SharingHandler{users: users, tracker: tracker, emitter: emitter}
}

type sharingRequestBody struct {
	RequesterID string `json:"requester_id" binding:"required"`
	TargetID    string `json:"target_id" binding:"required"`
}

func (h *SharingHandler) bind(c *gin.Context) (sharingRequestBody, bool) {
	var req sharingRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if req.RequesterID == req.TargetID {
		respondError(c, apperr.Validationf("cannot share location with yourself"))
		return req, false
	}
	return req, true
}

// Request records the requester in the target's incoming set.
func (h *SharingHandler) Request(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.users.AppendSharingRequest(c.Request.Context(), req.TargetID, req.RequesterID); err != nil {
		respondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventShareRequested, requestID(c), req.RequesterID,
		map[string]any{"target_id": req.TargetID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Accept completes the handshake: the target clears the incoming request and
// both users become mutual sharing peers, atomically.
func (h *SharingHandler) Accept(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.users.AcceptSharing(c.Request.Context(), req.TargetID, req.RequesterID); err != nil {
		respondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventShareAccepted, requestID(c), req.TargetID,
		map[string]any{"requester_id": req.RequesterID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reject removes the requester from the target's incoming set and nothing
// else.
func (h *SharingHandler) Reject(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}

	if err := h.users.RemoveSharingRequest(c.Request.Context(), req.TargetID, req.RequesterID); err != nil {
		respondError(c, err)
		return
	}

	h.emitter.Emit(c.Request.Context(), telemetry.EventShareRejected, requestID(c), req.TargetID,
		map[string]any{"requester_id": req.RequesterID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// State returns the consent booleans and the derived share state for a pair,
// from the caller's point of view.
func (h *SharingHandler) State(c *gin.Context) {
	userID := c.Query("userId")
	otherID := c.Query("otherId")
	if userID == "" || otherID == "" {
		respondError(c, apperr.Validationf("userId and otherId parameters are required"))
		return
	}
	if userID == otherID {
		respondError(c, apperr.Validationf("userId and otherId must differ"))
		return
	}

	current, other, err := h.users.GetPair(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	perm := location.ComputePermission(current, other)
	isSharing, err := h.tracker.Sharing(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"has_permission":       perm.HasPermission,
		"has_sent_request":     perm.HasSentRequest,
		"has_received_request": perm.HasReceivedRequest,
		"is_sharing":           isSharing,
		"state":                perm.State(isSharing),
	})
}
