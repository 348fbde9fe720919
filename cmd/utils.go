package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"rehearse-backend/internal/config"
	"rehearse-backend/internal/llm"
	"rehearse-backend/internal/storage"
)

// EnvFileFlag parses the -env flag pointing at an optional env file.
func EnvFileFlag() string {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	return configPath
}

// SetupLogging sends log and slog output to <root>/backend.log and stderr.
func SetupLogging(root string, level slog.Level) *os.File {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}

	log.SetOutput(io.MultiWriter(f, os.Stderr))
	slog.SetLogLoggerLevel(level)

	return f
}

// NewChatClient creates the configured chat model with the given temperature,
// wrapped with timeouts and metrics. The returned func releases the client.
func NewChatClient(ctx context.Context, cfg *config.Config, temperature float32) (llm.Client, func(), error) {
	switch cfg.LLMProvider {
	case "gemini":
		if cfg.GoogleAPIKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_API_KEY must be set for the gemini provider")
		}
		client, err := llm.NewGemini(ctx, cfg.GoogleAPIKey, cfg.ChatModel, temperature)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewInstrumented(cfg.LLMProvider, client, cfg.LLMTimeout), func() { client.Close() }, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY must be set for the openai provider")
		}
		client := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.ChatModel, float64(temperature))
		return llm.NewInstrumented(cfg.LLMProvider, client, cfg.LLMTimeout), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider '%s'", cfg.LLMProvider)
	}
}

func NewEmbedder(ctx context.Context, cfg *config.Config) (llm.Embedder, func(), error) {
	switch cfg.LLMProvider {
	case "gemini":
		embedder, err := llm.NewGeminiEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewInstrumentedEmbedder(cfg.LLMProvider, embedder, cfg.LLMTimeout), func() { embedder.Close() }, nil
	case "openai":
		embedder, err := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return llm.NewInstrumentedEmbedder(cfg.LLMProvider, embedder, cfg.LLMTimeout), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider '%s'", cfg.LLMProvider)
	}
}

func NewStorageProvider(ctx context.Context, cfg *config.Config) (storage.Provider, error) {
	var provider storage.Provider
	switch cfg.StorageBackend {
	case "s3":
		s3p, err := storage.NewS3Provider(storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
		if err != nil {
			return nil, err
		}
		provider = s3p
	default:
		provider = storage.NewLocalProvider(cfg.StorageDir)
	}

	if err := provider.CreateBucket(ctx, cfg.AudioBucket); err != nil {
		return nil, fmt.Errorf("error creating audio bucket '%s': %w", cfg.AudioBucket, err)
	}
	return provider, nil
}
