// internal/models/conversation.go
package models

import (
	"github.com/google/uuid"
)

// Conversation links a buyer and a seller around one publication.
type Conversation struct {
	BaseModel
	PublicationID uuid.UUID `json:"publication_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pub_buyer"`
	CompradorID   uuid.UUID `json:"comprador_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pub_buyer"`
	VendedorID    uuid.UUID `json:"vendedor_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Publication Publication `json:"publication,omitempty" gorm:"foreignKey:PublicationID"`
	Comprador   User        `json:"comprador,omitempty" gorm:"foreignKey:CompradorID"`
	Vendedor    User        `json:"vendedor,omitempty" gorm:"foreignKey:VendedorID"`
	Messages    []Message   `json:"messages,omitempty" gorm:"foreignKey:ConversationID"`
}

// HasParticipant reports whether the user is one of the two parties.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.CompradorID == userID || c.VendedorID == userID
}

type Message struct {
	BaseModel
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Read           bool      `json:"read" gorm:"default:false"`

	// Relationships
	Conversation Conversation `json:"conversation,omitempty" gorm:"foreignKey:ConversationID"`
	Sender       User         `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

// Notification is an in-app notification row; emails go out alongside via
// the notification service.
type Notification struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Type    string    `json:"type" gorm:"size:50;not null"`
	Title   string    `json:"title" gorm:"size:255;not null"`
	Message string    `json:"message" gorm:"type:text"`
	Read    bool      `json:"read" gorm:"default:false"`
	Data    JSONB     `json:"data,omitempty" gorm:"type:jsonb"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
