package llm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Turn struct {
	Role Role
	Text string
}

// Client is a text generation model. Implementations return an empty string
// (and no error) when the model produced no text.
type Client interface {
	Generate(ctx context.Context, systemPrompt, prompt string) (string, error)

	// Chat continues a conversation. The last turn must come from RoleUser.
	Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}

type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

var ErrNoUserTurn = errors.New("conversation must end with a user turn")

// mergeTurns joins consecutive turns of the same role, since chat APIs expect
// roles to alternate.
func mergeTurns(turns []Turn) ([]Turn, error) {
	merged := make([]Turn, 0, len(turns))
	for _, turn := range turns {
		if n := len(merged); n > 0 && merged[n-1].Role == turn.Role {
			merged[n-1].Text += "\n" + turn.Text
			continue
		}
		merged = append(merged, turn)
	}

	if len(merged) == 0 || merged[len(merged)-1].Role != RoleUser {
		return nil, ErrNoUserTurn
	}
	return merged, nil
}
