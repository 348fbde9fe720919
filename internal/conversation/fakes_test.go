package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rehearse-backend/internal/database"
	"rehearse-backend/internal/llm"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	systems []string
	turns   [][]llm.Turn
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, systemPrompt)
	f.mu.Unlock()
	return f.respond(prompt)
}

func (f *fakeLLM) Chat(ctx context.Context, systemPrompt string, turns []llm.Turn) (string, error) {
	f.mu.Lock()
	f.systems = append(f.systems, systemPrompt)
	f.turns = append(f.turns, turns)
	f.mu.Unlock()
	return f.respond(turns[len(turns)-1].Text)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts) + len(f.turns)
}

// scriptedFeedback answers overall prompts and per message prompts differently.
func scriptedFeedback(prompt string) (string, error) {
	if strings.HasSuffix(prompt, "Overall Feedback:") {
		return "Positives:\n- Polite\nNeeds Improvement:\n- Ask questions", nil
	}
	if strings.Contains(prompt, "Hello sir") {
		return "Positive: friendly", nil
	}
	return "Needs Improvement: explain", nil
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "[hi] " + text, nil
}

var errBoom = errors.New("boom")

func createDB(t *testing.T) *gorm.DB {
	db, err := database.NewDatabase("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, db *gorm.DB) database.User {
	user := database.User{Username: "agent", Email: "agent@example.com", PasswordHash: "x"}
	require.NoError(t, database.CreateUser(context.Background(), db, &user))
	return user
}
