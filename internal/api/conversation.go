package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"rehearse-backend/internal/conversation"
	"rehearse-backend/internal/thumbs"
	"rehearse-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

func (s *BackendService) StartConversation(r *http.Request) (any, error) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		return nil, err
	}

	persona := chi.URLParam(r, "persona")
	if _, ok := s.personas.Get(persona); !ok {
		return nil, CodedErrorf(http.StatusNotFound, "Persona not found")
	}

	req, err := ParseRequest[api.StartConversationRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message is required")
	}

	ctx := r.Context()

	conversationID, ok := s.sessions.Get(claims.SessionID)
	if !ok {
		conversationID, err = s.conversations.StartConversation(ctx, claims.UserID, persona)
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "error starting conversation")
		}
		s.sessions.Set(claims.SessionID, conversationID)
	}

	history, err := s.conversations.Messages(ctx, conversationID)
	if err != nil {
		slog.Error("error loading conversation history", "conversation_id", conversationID, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading conversation")
	}

	reply, err := s.customer.Reply(ctx, persona, history, req.Message)
	if err != nil {
		slog.Error("error generating customer reply", "conversation_id", conversationID, "error", err)
		if errors.Is(err, conversation.ErrUpstream) {
			return nil, CodedErrorf(http.StatusBadGateway, "error generating customer reply")
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "error generating customer reply")
	}

	audio := ""
	if name, err := s.audio.Save(ctx, reply); err != nil {
		slog.Warn("unable to synthesize customer reply", "conversation_id", conversationID, "error", err)
	} else {
		audio = "/static/" + name
	}

	return api.StartConversationResponse{Text: reply, Audio: audio, ConversationID: conversationID}, nil
}

func (s *BackendService) checkOwner(r *http.Request, conversationID uint) error {
	claims, err := claimsFromRequest(r)
	if err != nil {
		return err
	}

	err = s.conversations.CheckOwner(r.Context(), conversationID, claims.UserID)
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		return CodedError(http.StatusNotFound, conversation.ErrConversationNotFound)
	case err != nil:
		slog.Error("error checking conversation owner", "conversation_id", conversationID, "error", err)
		return CodedErrorf(http.StatusInternalServerError, "Internal server error")
	}
	return nil
}

func (s *BackendService) AddMessage(r *http.Request) (any, error) {
	req, err := ParseRequest[api.AddMessageRequest](r)
	if err != nil {
		return nil, err
	}

	if req.ConversationID == 0 || req.Sender == "" || req.Content == "" {
		slog.Error("invalid add message request", "conversation_id", req.ConversationID, "sender", req.Sender, "content", req.Content)
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid request")
	}

	if err := s.checkOwner(r, req.ConversationID); err != nil {
		return nil, err
	}

	if err := s.conversations.AddMessage(r.Context(), req.ConversationID, req.Sender, req.Content); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "Internal Server Error")
	}

	return api.StatusResponse{Status: "Message added"}, nil
}

func (s *BackendService) CloseConversation(r *http.Request) (any, error) {
	req, err := ParseRequest[api.CloseConversationRequest](r)
	if err != nil {
		return nil, err
	}

	if req.ConversationID == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "conversation_id is required")
	}

	if err := s.checkOwner(r, req.ConversationID); err != nil {
		return nil, err
	}

	result, err := s.conversations.CloseConversation(r.Context(), req.ConversationID)
	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		return nil, CodedError(http.StatusNotFound, conversation.ErrConversationNotFound)
	case errors.Is(err, conversation.ErrUpstream):
		return nil, CodedErrorf(http.StatusBadGateway, "Failed to generate feedback")
	case err != nil:
		return nil, CodedErrorf(http.StatusInternalServerError, "Internal server error")
	}

	return api.CloseConversationResponse{
		Status:   "conversation closed",
		Feedback: result.Feedback,
		Items:    convertFeedbackItems(result.Items),
	}, nil
}

func (s *BackendService) ClearSession(r *http.Request) (any, error) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		return nil, err
	}

	s.sessions.Clear(claims.SessionID)
	return api.StatusResponse{Status: "Session cleared"}, nil
}

func (s *BackendService) GetPastConversations(r *http.Request) (any, error) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		return nil, err
	}

	past, err := s.conversations.PastConversations(r.Context(), claims.UserID)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading past conversations")
	}

	return convertPastConversations(past), nil
}

func (s *BackendService) SaveFeedback(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SaveFeedbackRequest](r)
	if err != nil {
		return nil, err
	}

	saved, err := s.thumbs.Save(thumbs.Record{
		AgentMessage:    req.AgentMessage,
		CustomerMessage: req.CustomerMessage,
		Feedback:        req.Feedback,
	})
	if errors.Is(err, thumbs.ErrInvalidPolarity) {
		return nil, CodedErrorf(http.StatusBadRequest, "Invalid feedback type")
	}
	if err != nil {
		slog.Error("error saving thumbs feedback", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error saving feedback")
	}

	if !saved {
		return api.MessageResponse{Message: "Feedback already exists"}, nil
	}
	return api.MessageResponse{Message: "Feedback saved successfully"}, nil
}
