package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SQLite only supports one writer at a time, so we need a lock
// whenever we write to the database
var dbMutex sync.Mutex

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("messages.timestamp ASC, messages.id ASC")
}

func CreateUser(ctx context.Context, db *gorm.DB, user *User) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.WithContext(ctx).Create(user).Error
}

func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (User, error) {
	var user User
	err := db.WithContext(ctx).First(&user, "email = ?", email).Error
	return user, err
}

func CreateConversation(ctx context.Context, db *gorm.DB, conversation *Conversation) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.WithContext(ctx).Create(conversation).Error
}

func SaveMessage(ctx context.Context, db *gorm.DB, message *Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.WithContext(ctx).Create(message).Error
}

// GetConversation loads a conversation together with its feedback (if any) and
// its messages in conversation order. Returns gorm.ErrRecordNotFound if absent.
func GetConversation(ctx context.Context, db *gorm.DB, conversationID uint) (Conversation, error) {
	var conversation Conversation
	err := db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Preload("Feedback").
		First(&conversation, "id = ?", conversationID).Error
	return conversation, err
}

// GetConversationOwner returns the id of the user a conversation belongs to.
func GetConversationOwner(ctx context.Context, db *gorm.DB, conversationID uint) (uint, error) {
	var conversation Conversation
	err := db.WithContext(ctx).Select("id", "user_id").First(&conversation, "id = ?", conversationID).Error
	return conversation.UserID, err
}

func GetConversationMessages(ctx context.Context, db *gorm.DB, conversationID uint) ([]Message, error) {
	var messages []Message
	err := db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

// GetFeedback returns the feedback of a conversation, or nil if none exists yet.
func GetFeedback(ctx context.Context, db *gorm.DB, conversationID uint) (*Feedback, error) {
	var feedback Feedback
	err := db.WithContext(ctx).First(&feedback, "conversation_id = ?", conversationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}

func SaveFeedback(ctx context.Context, db *gorm.DB, feedback *Feedback) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(feedback).Error; err != nil {
			slog.Error("error saving feedback", "conversation_id", feedback.ConversationID, "error", err)
			return fmt.Errorf("error saving feedback: %w", err)
		}
		return nil
	})
}

// ListConversations returns every conversation of a user, oldest first, with
// messages and feedback preloaded.
func ListConversations(ctx context.Context, db *gorm.DB, userID uint) ([]Conversation, error) {
	var conversations []Conversation
	err := db.WithContext(ctx).
		Preload("Messages", orderedMessages).
		Preload("Feedback").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&conversations).Error
	return conversations, err
}

type ProductUserwiseRow struct {
	Username    string
	ProductName string
	Score       int
	Category    string
	Timestamp   time.Time
}

// ProductUserwiseReport joins refer feedback with users and products. When both
// start and end are set only rows with start <= timestamp <= end are returned.
func ProductUserwiseReport(ctx context.Context, db *gorm.DB, start, end *time.Time) ([]ProductUserwiseRow, error) {
	query := db.WithContext(ctx).
		Table("refer_feedback").
		Select("users.username AS username, products.name AS product_name, refer_feedback.score AS score, refer_feedback.category AS category, refer_feedback.timestamp AS timestamp").
		Joins("JOIN users ON users.id = refer_feedback.user_id").
		Joins("JOIN products ON products.id = refer_feedback.product_id")

	if start != nil && end != nil {
		query = query.Where("refer_feedback.timestamp BETWEEN ? AND ?", *start, *end)
	}

	var rows []ProductUserwiseRow
	if err := query.Order("refer_feedback.timestamp ASC, refer_feedback.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying product userwise report: %w", err)
	}
	return rows, nil
}
