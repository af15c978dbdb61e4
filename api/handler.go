package api

import (
	"net/http"
	"strings"

	"chat-relay/config"
	"chat-relay/models"
	"chat-relay/services"
	"chat-relay/utils"

	"github.com/gin-gonic/gin"
)

// APIHandler holds all dependencies for API handlers.
type APIHandler struct {
	authService  services.AuthService
	quotaService services.QuotaService
	relayService services.RelayService
	chatService  services.ChatService
	cfg          *config.Config
}

// NewAPIHandler creates a new APIHandler with necessary dependencies.
func NewAPIHandler(
	authService services.AuthService,
	quotaService services.QuotaService,
	relayService services.RelayService,
	chatService services.ChatService,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		authService:  authService,
		quotaService: quotaService,
		relayService: relayService,
		chatService:  chatService,
		cfg:          cfg,
	}
}

// bearerToken extracts the token from the Authorization header. A missing or
// malformed header yields an empty token.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// authenticate resolves the request's bearer token to a user ID. On failure
// it writes the 401 response and returns false; callers must stop processing.
func (h *APIHandler) authenticate(c *gin.Context) (string, bool) {
	userID, err := h.authService.ResolveUser(c.Request.Context(), bearerToken(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return userID, true
}

// QuotaHandler reports the authenticated user's daily quota usage.
func (h *APIHandler) QuotaHandler(c *gin.Context) {
	userID, ok := h.authenticate(c)
	if !ok {
		return
	}

	used, err := h.quotaService.Used(userID, models.Today())
	if err != nil {
		utils.SendJSONError(c, http.StatusInternalServerError, "Internal Server Error", err)
		return
	}

	limit := h.quotaService.Limit()
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":             userID,
		"daily_message_limit": limit,
		"messages_sent":       used,
		"remaining":           remaining,
	})
}
