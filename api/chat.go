package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"chat-relay/models"
	"chat-relay/services"
	"chat-relay/utils"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the inbound relay payload. Messages is the ordered
// conversation history, last entry being the user's newest message.
// ConversationID is optional: when set, the exchange is appended to that
// conversation; when empty, a new conversation is started.
type ChatRequest struct {
	Messages       []models.ChatMessage `json:"messages" binding:"required"`
	ConversationID string               `json:"conversation_id,omitempty"`
}

// ChatHandler relays a conversation to the generative-language upstream.
// Control flow is strictly sequential: authenticate, check-and-increment the
// daily quota, relay, then persist the exchange. The response body is the
// aggregated assistant text as text/plain.
func (h *APIHandler) ChatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendJSONError(c, http.StatusBadRequest, "Invalid request body: "+err.Error(), err)
		return
	}

	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	today := models.Today()
	allowed, err := h.quotaService.CheckAndIncrement(userID, today)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	if !allowed {
		utils.SendJSONError(c, http.StatusTooManyRequests,
			fmt.Sprintf("Daily message limit (%d) exceeded.", h.quotaService.Limit()), nil)
		return
	}

	// The quota increment above is not rolled back if the upstream call
	// fails: a denied upstream call still consumed a message.
	text, err := h.relayService.Generate(c.Request.Context(), req.Messages)
	if err != nil {
		var upstreamErr *services.UpstreamError
		if errors.As(err, &upstreamErr) {
			utils.SendJSONError(c, upstreamErr.StatusCode,
				"Failed to get response from Gemini API", err, upstreamErr.Details)
			return
		}
		if errors.Is(err, services.ErrAPIKeyMissing) {
			utils.SendJSONError(c, http.StatusInternalServerError, services.ErrAPIKeyMissing.Error(), err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, err.Error(), err)
		return
	}

	// Persistence after a successful relay is bookkeeping: failures are
	// logged, the client still gets the relayed text.
	if len(req.Messages) > 0 {
		userContent := req.Messages[len(req.Messages)-1].Content
		conversation, recErr := h.chatService.RecordExchange(userID, req.ConversationID, userContent, text)
		if recErr != nil {
			log.Printf("ERROR: [ChatHandler] Failed to record exchange for user %s: %v", userID, recErr)
		} else {
			c.Header("X-Conversation-Id", conversation.ID)
		}
	}

	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}
