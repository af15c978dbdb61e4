package repository

import (
	"errors"
	"fmt"
	"log"
	"time"

	"chat-relay/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrConversationNotFound is returned when a conversation id does not exist
// or is not owned by the requesting user.
var ErrConversationNotFound = errors.New("conversation not found")

// ChatRepository persists conversations and their messages.
type ChatRepository interface {
	CreateConversation(userID, title string) (*models.Conversation, error)
	// GetConversation returns the conversation only if it belongs to userID.
	GetConversation(conversationID, userID string) (*models.Conversation, error)
	// GetConversationsByUserID returns the user's conversations, newest first.
	GetConversationsByUserID(userID string) ([]models.Conversation, error)
	SaveMessage(conversationID, role, content string) (*models.Message, error)
	// GetMessagesByConversationID returns messages in chronological order.
	GetMessagesByConversationID(conversationID string) ([]models.Message, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new instance of ChatRepository.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateConversation(userID, title string) (*models.Conversation, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}

	conversation := models.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(&conversation).Error; err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to create conversation for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to create conversation for user %s: %w", userID, err)
	}
	log.Printf("INFO: [ChatRepository] Created conversation %s for user %s (title: '%s').", conversation.ID, userID, title)
	return &conversation, nil
}

func (r *chatRepository) GetConversation(conversationID, userID string) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.First(&conversation, "id = ? AND user_id = ?", conversationID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		log.Printf("ERROR: [ChatRepository] Failed to fetch conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("failed to fetch conversation %s: %w", conversationID, err)
	}
	return &conversation, nil
}

func (r *chatRepository) GetConversationsByUserID(userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&conversations).Error
	if err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to list conversations for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to list conversations for user %s: %w", userID, err)
	}
	return conversations, nil
}

func (r *chatRepository) SaveMessage(conversationID, role, content string) (*models.Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversation ID cannot be empty")
	}

	message := models.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := r.db.Create(&message).Error; err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to save %s message in conversation %s: %v", role, conversationID, err)
		return nil, fmt.Errorf("failed to save message in conversation %s: %w", conversationID, err)
	}
	return &message, nil
}

func (r *chatRepository) GetMessagesByConversationID(conversationID string) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("conversation_id = ?", conversationID).Order("created_at ASC, id ASC").Find(&messages).Error
	if err != nil {
		log.Printf("ERROR: [ChatRepository] Failed to fetch messages for conversation %s: %v", conversationID, err)
		return nil, fmt.Errorf("failed to fetch messages for conversation %s: %w", conversationID, err)
	}
	return messages, nil
}
