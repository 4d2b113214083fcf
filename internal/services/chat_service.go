// internal/services/chat_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/itemt/agroconnect-backend/internal/models"
	"github.com/itemt/agroconnect-backend/internal/utils"
)

var ErrNotConversationParty = errors.New("user is not part of this conversation")

type ChatService struct {
	db            *gorm.DB
	notifications *NotificationService
}

type StartConversationRequest struct {
	PublicationID uuid.UUID `json:"publication_id" validate:"required"`
	Message       string    `json:"message" validate:"required,max=5000"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func NewChatService(db *gorm.DB, notifications *NotificationService) *ChatService {
	return &ChatService{
		db:            db,
		notifications: notifications,
	}
}

// Start opens (or reuses) the conversation between a buyer and a listing's
// seller, then posts the first message.
func (s *ChatService) Start(compradorID uuid.UUID, req *StartConversationRequest) (*models.Conversation, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message cannot be empty")
	}

	var publication models.Publication
	if err := s.db.First(&publication, req.PublicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("publication not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if publication.VendedorID == compradorID {
		return nil, errors.New("cannot start a conversation on your own publication")
	}

	var conversation models.Conversation
	err := s.db.Where("publication_id = ? AND comprador_id = ?", publication.ID, compradorID).
		First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		conversation = models.Conversation{
			PublicationID: publication.ID,
			CompradorID:   compradorID,
			VendedorID:    publication.VendedorID,
		}
		if err := s.db.Create(&conversation).Error; err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if _, err := s.postMessage(&conversation, compradorID, req.Message); err != nil {
		return nil, err
	}

	return s.GetByID(compradorID, conversation.ID)
}

func (s *ChatService) GetByID(userID, conversationID uuid.UUID) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := s.db.Preload("Publication").Preload("Publication.Crop").
		Preload("Comprador").Preload("Vendedor").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("conversation not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !conversation.HasParticipant(userID) {
		return nil, ErrNotConversationParty
	}
	return &conversation, nil
}

// List returns the user's conversations from either side, newest activity
// first.
func (s *ChatService) List(userID uuid.UUID, params utils.PaginationParams) ([]models.Conversation, int64, error) {
	query := s.db.Model(&models.Conversation{}).
		Where("comprador_id = ? OR vendedor_id = ?", userID, userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	var conversations []models.Conversation
	if err := utils.ApplyPagination(query.Preload("Publication").Preload("Publication.Crop").
		Preload("Comprador").Preload("Vendedor").
		Order("updated_at DESC"), params).
		Find(&conversations).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	return conversations, total, nil
}

func (s *ChatService) SendMessage(userID, conversationID uuid.UUID, req *SendMessageRequest) (*models.Message, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, errors.New("message cannot be empty")
	}

	var conversation models.Conversation
	if err := s.db.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("conversation not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !conversation.HasParticipant(userID) {
		return nil, ErrNotConversationParty
	}

	return s.postMessage(&conversation, userID, req.Content)
}

// MarkRead flags every message addressed to the user as read.
func (s *ChatService) MarkRead(userID, conversationID uuid.UUID) error {
	var conversation models.Conversation
	if err := s.db.First(&conversation, conversationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("conversation not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	if !conversation.HasParticipant(userID) {
		return ErrNotConversationParty
	}

	return s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read = ?", conversationID, userID, false).
		Update("read", true).Error
}

func (s *ChatService) postMessage(conversation *models.Conversation, senderID uuid.UUID, content string) (*models.Message, error) {
	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       senderID,
		Content:        strings.TrimSpace(content),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		// Bump updated_at so the conversation list sorts by activity
		return tx.Model(conversation).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
	if err != nil {
		return nil, err
	}

	recipientID := conversation.VendedorID
	if senderID == conversation.VendedorID {
		recipientID = conversation.CompradorID
	}

	if s.notifications != nil {
		var sender models.User
		senderName := "Alguien"
		if err := s.db.First(&sender, senderID).Error; err == nil {
			senderName = sender.FullName()
		}
		s.notifications.NotifyNewMessage(message, recipientID, senderName)
	}

	return message, nil
}
