package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

type OpenAI struct {
	client openai.Client
	model  string
	temp   float64
}

func NewOpenAI(apiKey, model string, temp float64) *OpenAI {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		temp:   temp,
	}
}

func (o *OpenAI) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	return o.Chat(ctx, systemPrompt, []Turn{{Role: RoleUser, Text: prompt}})
}

func (o *OpenAI) Chat(ctx context.Context, systemPrompt string, turns []Turn) (string, error) {
	turns, err := mergeTurns(turns)
	if err != nil {
		return "", err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns)+1)

	if len(systemPrompt) > 0 {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	for _, turn := range turns {
		if turn.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, openai.UserMessage(turn.Text))
		}
	}

	chatOpts := openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       o.model,
		Temperature: openai.Float(o.temp),
	}

	res, err := o.client.Chat.Completions.New(ctx, chatOpts)
	if err != nil {
		slog.Error("openai error: chat completions failed", "error", err)
		return "", fmt.Errorf("openai generation failed: %w", err)
	}

	if len(res.Choices) == 0 {
		return "", nil
	}
	return res.Choices[0].Message.Content, nil
}

type OpenAIEmbedder struct {
	llm *lcopenai.LLM
}

func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	opts := []lcopenai.Option{}
	if apiKey != "" {
		opts = append(opts, lcopenai.WithToken(apiKey))
	}
	if model != "" {
		opts = append(opts, lcopenai.WithEmbeddingModel(model))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating openai embedding client: %w", err)
	}
	return &OpenAIEmbedder{llm: client}, nil
}

func (o *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := o.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("openai embedding failed: %w", err)
	}
	return vectors, nil
}
