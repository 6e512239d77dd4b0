package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
	"geochat-service/internal/observability"
	"geochat-service/internal/repositories"
	"geochat-service/internal/telemetry"
)

// ConversationHandler serves conversation listings, message history and read
// receipts.
type ConversationHandler struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	emitter       *telemetry.Emitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations repositories.ConversationRepository, messages repositories.MessageRepository, emitter *telemetry.Emitter) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages, emitter: emitter}
}

// List returns the user's conversations ordered by last activity, enriched
// with participant snapshots.
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		respondError(c, apperr.Validationf("userId parameter is required"))
		return
	}

	status := models.ConversationStatus(c.Query("status"))
	switch status {
	case "", models.ConversationStatusPending, models.ConversationStatusActive, models.ConversationStatusBlocked:
	default:
		respondError(c, apperr.Validationf("invalid status %q", status))
		return
	}

	conversations, err := h.conversations.ListForUser(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations, "count": len(conversations)})
}

// Get returns one conversation.
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.conversations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

// ListMessages returns one ascending page of history plus the total count.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		respondError(c, apperr.Validationf("limit must be an integer"))
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		respondError(c, apperr.Validationf("offset must be an integer"))
		return
	}

	page, err := h.messages.ListPage(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type sendMessageRequest struct {
	SenderID    string   `json:"sender_id" binding:"required"`
	Text        *string  `json:"text"`
	ImageURL    *string  `json:"image_url"`
	LocationLat *float64 `json:"location_lat"`
	LocationLng *float64 `json:"location_lng"`
}

// payloadKinds counts how many of the three payload kinds the request
// carries. Exactly one must be present.
func (r sendMessageRequest) payloadKinds() int {
	kinds := 0
	if r.Text != nil && *r.Text != "" {
		kinds++
	}
	if r.ImageURL != nil && *r.ImageURL != "" {
		kinds++
	}
	if r.LocationLat != nil || r.LocationLng != nil {
		kinds++
	}
	return kinds
}

// SendMessage appends one message and updates the conversation summary and
// the recipient's unread counter transactionally.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.payloadKinds() != 1 {
		respondError(c, apperr.Validationf("message must carry exactly one of text, image_url, or coordinates"))
		return
	}
	if (req.LocationLat == nil) != (req.LocationLng == nil) {
		respondError(c, apperr.Validationf("location messages need both location_lat and location_lng"))
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), repositories.SendMessageParams{
		ConversationID: c.Param("id"),
		SenderID:       req.SenderID,
		Text:           req.Text,
		ImageURL:       req.ImageURL,
		LocationLat:    req.LocationLat,
		LocationLng:    req.LocationLng,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	observability.IncMessageSent()
	h.emitter.Emit(c.Request.Context(), telemetry.EventMessageSent, requestID(c), req.SenderID,
		map[string]any{"conversation_id": msg.ConversationID, "message_id": msg.ID})

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

type markReadRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// MarkRead zeroes the caller's unread counter. Safe to repeat.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.conversations.MarkRead(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkMessagesRead flags the other participant's messages as read. Safe to
// repeat; the caller's own messages are untouched.
func (h *ConversationHandler) MarkMessagesRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.MarkMessagesRead(c.Request.Context(), c.Param("id"), req.UserID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
