package api

import "time"

type StartConversationRequest struct {
	Message string `json:"message"`
}

type StartConversationResponse struct {
	Text           string `json:"text"`
	Audio          string `json:"audio"`
	ConversationID uint   `json:"conversation_id"`
}

type AddMessageRequest struct {
	ConversationID uint   `json:"conversation_id"`
	Sender         string `json:"sender"`
	Content        string `json:"content"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type CloseConversationRequest struct {
	ConversationID uint `json:"conversation_id"`
}

type FeedbackItem struct {
	MessageID    uint   `json:"message_id"`
	AgentMessage string `json:"agent_message"`
	Feedback     string `json:"feedback"`
}

type CloseConversationResponse struct {
	Status   string         `json:"status"`
	Feedback string         `json:"feedback"`
	Items    []FeedbackItem `json:"items,omitempty"`
}

type PastMessage struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type PastConversation struct {
	ConversationID uint          `json:"conversation_id"`
	Persona        string        `json:"persona"`
	CreatedAt      time.Time     `json:"created_at"`
	Messages       []PastMessage `json:"messages"`
	Feedback       string        `json:"feedback"`
}

type SaveFeedbackRequest struct {
	AgentMessage    string `json:"agent_message"`
	CustomerMessage string `json:"customer_message"`
	Feedback        string `json:"feedback"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type PersonasResponse struct {
	Personas []map[string]string `json:"personas"`
}

type GetChatParams struct {
	ChatFile string `schema:"chatfile"`
}
