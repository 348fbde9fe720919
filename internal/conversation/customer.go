package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rehearse-backend/internal/database"
	"rehearse-backend/internal/llm"
	"rehearse-backend/internal/personas"
	"rehearse-backend/internal/thumbs"
)

// Simulator plays the customer persona against the agent.
type Simulator struct {
	llm      llm.Client
	catalog  *personas.Catalog
	examples *thumbs.Examples
	fewShot  int
}

// NewSimulator creates a customer simulator. When fewShot is positive and
// examples is set, up to fewShot liked exchanges and objection lines are shown
// to the model as reference replies.
func NewSimulator(client llm.Client, catalog *personas.Catalog, examples *thumbs.Examples, fewShot int) *Simulator {
	return &Simulator{llm: client, catalog: catalog, examples: examples, fewShot: fewShot}
}

func (s *Simulator) systemPrompt(persona string) (string, error) {
	attrs, err := s.catalog.Profile(persona)
	if err != nil {
		return "", err
	}

	prompt := strings.NewReplacer(
		"{persona}", persona,
		"{profile}", personas.FormatProfile(attrs),
	).Replace(customerPrompt)

	if s.fewShot <= 0 || s.examples == nil {
		return prompt, nil
	}

	var b strings.Builder
	for _, rec := range s.examples.Positive[:min(s.fewShot, len(s.examples.Positive))] {
		fmt.Fprintf(&b, "Agent: %s\nCustomer: %s\n", rec.AgentMessage, rec.CustomerMessage)
	}
	objections := s.examples.Objections()
	for _, line := range objections[:min(s.fewShot, len(objections))] {
		fmt.Fprintf(&b, "Customer: %s\n", line)
	}
	if b.Len() == 0 {
		return prompt, nil
	}

	return prompt + customerExamplesHeader + b.String(), nil
}

// Reply returns the customer's answer to agentMessage given the earlier
// messages of the conversation.
func (s *Simulator) Reply(ctx context.Context, persona string, history []database.Message, agentMessage string) (string, error) {
	system, err := s.systemPrompt(persona)
	if err != nil {
		return "", err
	}

	turns := make([]llm.Turn, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if msg.Sender == database.SenderCustomer {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Turn{Role: role, Text: msg.Content})
	}
	turns = append(turns, llm.Turn{Role: llm.RoleUser, Text: agentMessage})

	// Chat APIs want the first turn to come from the user.
	for len(turns) > 0 && turns[0].Role == llm.RoleModel {
		turns = turns[1:]
	}

	reply, err := s.llm.Chat(ctx, system, turns)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: %w", ErrUpstream, errors.New("empty customer reply"))
	}
	return reply, nil
}
