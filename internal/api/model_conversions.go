package api

import (
	"rehearse-backend/internal/conversation"
	"rehearse-backend/internal/database"
	"rehearse-backend/pkg/api"
)

func convertFeedbackItems(items []database.FeedbackItem) []api.FeedbackItem {
	converted := make([]api.FeedbackItem, 0, len(items))
	for _, item := range items {
		converted = append(converted, api.FeedbackItem{
			MessageID:    item.MessageID,
			AgentMessage: item.AgentMessage,
			Feedback:     item.Feedback,
		})
	}
	return converted
}

func convertPastConversation(c conversation.PastConversation) api.PastConversation {
	messages := make([]api.PastMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, api.PastMessage{Sender: m.Sender, Content: m.Content, Timestamp: m.Timestamp})
	}
	return api.PastConversation{
		ConversationID: c.ID,
		Persona:        c.Persona,
		CreatedAt:      c.CreatedAt,
		Messages:       messages,
		Feedback:       c.Feedback,
	}
}

func convertPastConversations(cs []conversation.PastConversation) []api.PastConversation {
	past := make([]api.PastConversation, 0, len(cs))
	for _, c := range cs {
		past = append(past, convertPastConversation(c))
	}
	return past
}

func convertReportRows(rows []database.ProductUserwiseRow) []api.ProductUserwiseRow {
	report := make([]api.ProductUserwiseRow, 0, len(rows))
	for _, row := range rows {
		report = append(report, api.ProductUserwiseRow{
			Username:    row.Username,
			ProductName: row.ProductName,
			Score:       row.Score,
			Category:    row.Category,
			Timestamp:   row.Timestamp.Format(reportTimestampLayout),
		})
	}
	return report
}
