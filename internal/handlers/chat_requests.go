package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geochat-service/internal/apperr"
	"geochat-service/internal/models"
	"geochat-service/internal/observability"
	"geochat-service/internal/repositories"
	"geochat-service/internal/telemetry"
)

// ChatRequestHandler drives the stranger-to-conversation state machine.
type ChatRequestHandler struct {
	requests repositories.ChatRequestRepository
	emitter  *telemetry.Emitter
}

// NewChatRequestHandler builds a ChatRequestHandler.
func NewChatRequestHandler(requests repositories.ChatRequestRepository, emitter *telemetry.Emitter) *ChatRequestHandler {
	return &ChatRequestHandler{requests: requests, emitter: emitter}
}

// List returns a recipient's requests, pending by default, newest first.
func (h *ChatRequestHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		respondError(c, apperr.Validationf("userId parameter is required"))
		return
	}

	status := models.ChatRequestStatus(c.DefaultQuery("status", string(models.ChatRequestStatusPending)))
	switch status {
	case models.ChatRequestStatusPending, models.ChatRequestStatusAccepted, models.ChatRequestStatusRejected:
	default:
		respondError(c, apperr.Validationf("invalid status %q", status))
		return
	}

	requests, err := h.requests.ListForRecipient(c.Request.Context(), userID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

type createChatRequestRequest struct {
	FromUserID string `json:"from_user_id" binding:"required"`
	ToUserID   string `json:"to_user_id" binding:"required"`
	Message    string `json:"message"`
}

// Create opens a pending conversation plus its chat request atomically.
func (h *ChatRequestHandler) Create(c *gin.Context) {
	var req createChatRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FromUserID == req.ToUserID {
		respondError(c, apperr.Validationf("cannot request a chat with yourself"))
		return
	}

	request, conv, err := h.requests.CreateWithConversation(c.Request.Context(), req.FromUserID, req.ToUserID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	observability.IncChatRequest("created")
	h.emitter.Emit(c.Request.Context(), telemetry.EventChatRequestCreated, requestID(c), req.FromUserID,
		map[string]any{"request_id": request.ID, "conversation_id": conv.ID})

	c.JSON(http.StatusCreated, gin.H{"request": request, "conversation": conv})
}

type decideChatRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accept reject"`
}

// Decide accepts or rejects a pending request and returns the updated
// request/conversation pair. Terminal requests answer Conflict.
func (h *ChatRequestHandler) Decide(c *gin.Context) {
	var req decideChatRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		request models.ChatRequest
		conv    models.Conversation
		err     error
	)
	if req.Decision == "accept" {
		request, conv, err = h.requests.Accept(c.Request.Context(), c.Param("id"))
	} else {
		request, conv, err = h.requests.Reject(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	event := telemetry.EventChatRequestAccepted
	if req.Decision == "reject" {
		event = telemetry.EventChatRequestRejected
	}
	observability.IncChatRequest(req.Decision)
	h.emitter.Emit(c.Request.Context(), event, requestID(c), request.ToUserID,
		map[string]any{"request_id": request.ID, "conversation_id": conv.ID})

	c.JSON(http.StatusOK, gin.H{"request": request, "conversation": conv})
}
