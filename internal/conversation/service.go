package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rehearse-backend/internal/database"
	"rehearse-backend/internal/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const NoFeedbackAvailable = "No feedback available"

// Upper bound on conversations being closed at the same time.
const maxConcurrentCloses = 4096

type CloseResult struct {
	ConversationID uint
	Feedback       string
	Overall        string
	Items          []database.FeedbackItem
	// Existing is set when the feedback was stored by an earlier close.
	Existing bool
}

type PastMessage struct {
	Sender    string
	Content   string
	Timestamp time.Time
}

type PastConversation struct {
	ID        uint
	Persona   string
	CreatedAt time.Time
	Messages  []PastMessage
	Feedback  string
}

type Service struct {
	db       *gorm.DB
	feedback FeedbackGenerator
	closing  *utils.KeyedLock[uint]
}

func NewService(db *gorm.DB, feedback FeedbackGenerator) *Service {
	return &Service{
		db:       db,
		feedback: feedback,
		closing:  utils.NewKeyedLock[uint](maxConcurrentCloses),
	}
}

func (s *Service) StartConversation(ctx context.Context, userID uint, persona string) (uint, error) {
	conversation := database.Conversation{
		UserID:    userID,
		Persona:   persona,
		CreatedAt: time.Now().UTC(),
	}
	if err := database.CreateConversation(ctx, s.db, &conversation); err != nil {
		slog.Error("error creating conversation", "user_id", userID, "persona", persona, "error", err)
		return 0, fmt.Errorf("error creating conversation: %w", err)
	}

	slog.Info("started conversation", "conversation_id", conversation.ID, "user_id", userID, "persona", persona)
	return conversation.ID, nil
}

func (s *Service) AddMessage(ctx context.Context, conversationID uint, sender, content string) error {
	message := database.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	}
	if err := database.SaveMessage(ctx, s.db, &message); err != nil {
		slog.Error("error adding message", "conversation_id", conversationID, "error", err)
		return fmt.Errorf("error adding message: %w", err)
	}
	return nil
}

// CheckOwner returns ErrConversationNotFound unless the conversation exists and
// belongs to userID.
func (s *Service) CheckOwner(ctx context.Context, conversationID, userID uint) error {
	owner, err := database.GetConversationOwner(ctx, s.db, conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %d", ErrConversationNotFound, conversationID)
	}
	if err != nil {
		return fmt.Errorf("error loading conversation %d: %w", conversationID, err)
	}
	if owner != userID {
		slog.Warn("conversation accessed by another user", "conversation_id", conversationID, "user_id", userID)
		return fmt.Errorf("%w: %d", ErrConversationNotFound, conversationID)
	}
	return nil
}

func (s *Service) Messages(ctx context.Context, conversationID uint) ([]database.Message, error) {
	messages, err := database.GetConversationMessages(ctx, s.db, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error loading messages: %w", err)
	}
	return messages, nil
}

// CloseConversation generates and stores the feedback of a conversation. If
// feedback already exists it is returned unchanged and nothing is generated.
func (s *Service) CloseConversation(ctx context.Context, conversationID uint) (CloseResult, error) {
	release, err := s.closing.Acquire(conversationID)
	if err != nil {
		return CloseResult{}, fmt.Errorf("error locking conversation %d: %w", conversationID, err)
	}
	defer release()

	conversation, err := database.GetConversation(ctx, s.db, conversationID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("no conversation found with the given id", "conversation_id", conversationID)
		return CloseResult{}, fmt.Errorf("%w: %d", ErrConversationNotFound, conversationID)
	}
	if err != nil {
		return CloseResult{}, fmt.Errorf("error loading conversation %d: %w", conversationID, err)
	}

	if conversation.Feedback != nil {
		slog.Debug("returning existing feedback", "conversation_id", conversationID)
		return existingResult(conversation.Feedback), nil
	}

	report, err := s.feedback.Generate(ctx, conversation.Messages)
	if err != nil {
		slog.Error("error generating feedback", "conversation_id", conversationID, "error", err)
		return CloseResult{}, err
	}

	items, err := json.Marshal(report.Items)
	if err != nil {
		return CloseResult{}, fmt.Errorf("error encoding feedback items: %w", err)
	}

	feedback := database.Feedback{
		ConversationID: conversationID,
		Content:        report.Content,
		Items:          datatypes.JSON(items),
		CreatedAt:      time.Now().UTC(),
	}
	if err := database.SaveFeedback(ctx, s.db, &feedback); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return CloseResult{}, fmt.Errorf("error closing conversation %d: %w", conversationID, err)
		}
		// Another process stored feedback first.
		stored, getErr := database.GetFeedback(ctx, s.db, conversationID)
		if getErr != nil || stored == nil {
			return CloseResult{}, fmt.Errorf("error closing conversation %d: %w", conversationID, err)
		}
		slog.Info("feedback stored concurrently, returning existing", "conversation_id", conversationID)
		return existingResult(stored), nil
	}

	slog.Info("feedback generated and saved", "conversation_id", conversationID, "items", len(report.Items))

	return CloseResult{
		ConversationID: conversationID,
		Feedback:       report.Content,
		Overall:        report.Overall,
		Items:          report.Items,
	}, nil
}

func existingResult(feedback *database.Feedback) CloseResult {
	result := CloseResult{
		ConversationID: feedback.ConversationID,
		Feedback:       feedback.Content,
		Existing:       true,
	}
	if len(feedback.Items) > 0 {
		if err := json.Unmarshal(feedback.Items, &result.Items); err != nil {
			slog.Warn("unable to decode stored feedback items", "conversation_id", feedback.ConversationID, "error", err)
		}
	}
	return result
}

func (s *Service) PastConversations(ctx context.Context, userID uint) ([]PastConversation, error) {
	conversations, err := database.ListConversations(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}

	past := make([]PastConversation, 0, len(conversations))
	for _, convo := range conversations {
		messages := make([]PastMessage, 0, len(convo.Messages))
		for _, msg := range convo.Messages {
			messages = append(messages, PastMessage{Sender: msg.Sender, Content: msg.Content, Timestamp: msg.Timestamp})
		}

		feedback := NoFeedbackAvailable
		if convo.Feedback != nil {
			feedback = convo.Feedback.Content
		}

		past = append(past, PastConversation{
			ID:        convo.ID,
			Persona:   convo.Persona,
			CreatedAt: convo.CreatedAt,
			Messages:  messages,
			Feedback:  feedback,
		})
	}
	return past, nil
}
