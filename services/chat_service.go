package services

import (
	"errors"
	"fmt"
	"log"

	"chat-relay/models"
	"chat-relay/repository"
	"chat-relay/utils"
)

// ChatService owns conversation threads and their persisted messages.
type ChatService interface {
	// RecordExchange persists a user message and the assistant reply. When
	// conversationID is empty a new conversation is created, titled from the
	// user message. It returns the conversation the exchange was stored in.
	RecordExchange(userID, conversationID, userContent, assistantContent string) (*models.Conversation, error)
	// GetConversations lists the user's conversations, newest first.
	GetConversations(userID string) ([]models.Conversation, error)
	// GetMessages returns a conversation's messages in chronological order.
	// ErrConversationNotFound is returned when the conversation does not
	// belong to the user.
	GetMessages(userID, conversationID string) ([]models.Message, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
}

// NewChatService creates a new ChatService.
func NewChatService(chatRepo repository.ChatRepository) ChatService {
	return &chatService{chatRepo: chatRepo}
}

func (s *chatService) RecordExchange(userID, conversationID, userContent, assistantContent string) (*models.Conversation, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	var conversation *models.Conversation
	var err error
	if conversationID == "" {
		// First message of a new thread: title from a truncated prefix of
		// the user's message.
		title := utils.TruncateTitle(userContent, 30)
		conversation, err = s.chatRepo.CreateConversation(userID, title)
		if err != nil {
			return nil, fmt.Errorf("failed to start conversation: %w", err)
		}
	} else {
		conversation, err = s.chatRepo.GetConversation(conversationID, userID)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.chatRepo.SaveMessage(conversation.ID, models.RoleUser, userContent); err != nil {
		return conversation, fmt.Errorf("failed to save user message: %w", err)
	}
	if _, err := s.chatRepo.SaveMessage(conversation.ID, models.RoleAssistant, assistantContent); err != nil {
		return conversation, fmt.Errorf("failed to save assistant message: %w", err)
	}

	log.Printf("INFO: [ChatService] Recorded exchange in conversation %s for user %s.", conversation.ID, userID)
	return conversation, nil
}

func (s *chatService) GetConversations(userID string) ([]models.Conversation, error) {
	return s.chatRepo.GetConversationsByUserID(userID)
}

func (s *chatService) GetMessages(userID, conversationID string) ([]models.Message, error) {
	if _, err := s.chatRepo.GetConversation(conversationID, userID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessagesByConversationID(conversationID)
}
