package conversation

import (
	"errors"

	"rehearse-backend/internal/personas"
)

var (
	ErrConversationNotFound = errors.New("no conversation found with the given ID")
	ErrUpstream             = errors.New("language model call failed")
	ErrPersonaNotFound      = personas.ErrPersonaNotFound
)
