package api

import (
	"errors"
	"net/http"

	"chat-relay/repository"
	"chat-relay/utils"

	"github.com/gin-gonic/gin"
)

// ListConversationsHandler returns the authenticated user's conversations,
// newest first.
func (h *APIHandler) ListConversationsHandler(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.GetConversations(userID)
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// ListMessagesHandler returns one conversation's messages in chronological
// order. Conversations are owner-scoped: a foreign id yields 404.
func (h *APIHandler) ListMessagesHandler(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	conversationID := c.Param("conversationID")
	messages, err := h.chatService.GetMessages(userID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			utils.SendJSONError(c, http.StatusNotFound, "Conversation not found", err)
			return
		}
		utils.SendJSONError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
