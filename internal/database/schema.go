package database

import (
	"time"

	"gorm.io/datatypes"
)

// Sender tags stored on messages. The agent is the human being trained, the
// customer is the simulated persona.
const (
	SenderAgent    string = "user"
	SenderCustomer string = "system"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;not null"`
	Email        string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time

	Conversations []Conversation `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

type Conversation struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Persona   string `gorm:"size:100;not null"`
	CreatedAt time.Time

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
	Feedback *Feedback `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

type Message struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"index;not null"`
	Sender         string `gorm:"size:50;not null"`
	Content        string `gorm:"type:text;not null"`
	Timestamp      time.Time
}

type Feedback struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"uniqueIndex:idx_feedback_conversation_id;not null"`
	Content        string `gorm:"type:text;not null"`
	Items          datatypes.JSON
	CreatedAt      time.Time
}

func (Feedback) TableName() string {
	return "feedback"
}

// FeedbackItem is one entry of Feedback.Items, in message order.
type FeedbackItem struct {
	MessageID    uint   `json:"message_id"`
	AgentMessage string `json:"agent_message"`
	Feedback     string `json:"feedback"`
}

type Product struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`
}

type ReferFeedback struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index;not null"`
	User           User
	ProductID      uint `gorm:"index;not null"`
	Product        Product
	ConversationID *uint
	Score          int
	Category       string `gorm:"size:100"`
	Timestamp      time.Time `gorm:"index"`
}

func (ReferFeedback) TableName() string {
	return "refer_feedback"
}
