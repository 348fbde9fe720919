package config

import (
	"fmt"
	"log"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Root     string `env:"ROOT" envDefault:"."`
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"180s"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN    string `env:"DATABASE_DSN" envDefault:"rehearse.db"`

	SecretKey        string        `env:"SECRET_KEY,required,notEmpty"`
	SessionLifetime  time.Duration `env:"SESSION_LIFETIME" envDefault:"30m"`
	SessionCacheSize int           `env:"SESSION_CACHE_SIZE" envDefault:"1024"`
	CookieSecure     bool          `env:"COOKIE_SECURE" envDefault:"false"`

	LLMProvider    string        `env:"LLM_PROVIDER" envDefault:"gemini"`
	GoogleAPIKey   string        `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey   string        `env:"OPENAI_API_KEY"`
	ChatModel      string        `env:"CHAT_MODEL"`
	EmbeddingModel string        `env:"EMBEDDING_MODEL"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	FeedbackProfile              string `env:"FEEDBACK_PROFILE" envDefault:"bilingual"`
	FeedbackTranslate            bool   `env:"FEEDBACK_TRANSLATE" envDefault:"false"`
	FeedbackMaxPointsPerCategory int    `env:"FEEDBACK_MAX_POINTS_PER_CATEGORY" envDefault:"0"`
	FeedbackLogResourceUsage     bool   `env:"FEEDBACK_LOG_RESOURCE_USAGE" envDefault:"false"`
	FeedbackConcurrency          int    `env:"FEEDBACK_CONCURRENCY" envDefault:"4"`
	FeedbackPromptsFile          string `env:"FEEDBACK_PROMPTS_FILE"`

	CustomerFewShot int `env:"CUSTOMER_FEW_SHOT" envDefault:"0"`

	PersonaCSV string `env:"PERSONA_CSV" envDefault:"static/persona_details.csv"`
	DataDir    string `env:"DATA_DIR" envDefault:"data"`
	ChatDir    string `env:"CHAT_DIR" envDefault:"static/chat"`

	StorageBackend    string `env:"STORAGE_BACKEND" envDefault:"local"`
	StorageDir        string `env:"STORAGE_DIR" envDefault:"static"`
	AudioBucket       string `env:"AUDIO_BUCKET" envDefault:"audio"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region          string `env:"AWS_REGION" envDefault:"us-east-1"`

	TTSBaseURL       string        `env:"TTS_BASE_URL" envDefault:"https://translate.google.com"`
	TTSLanguage      string        `env:"TTS_LANGUAGE" envDefault:"hi"`
	TranslateBaseURL string        `env:"TRANSLATE_BASE_URL" envDefault:"https://translate.googleapis.com"`
	TranslateTarget  string        `env:"TRANSLATE_TARGET" envDefault:"hi"`
	HTTPTimeout      time.Duration `env:"HTTP_CLIENT_TIMEOUT" envDefault:"30s"`

	IndexDir     string `env:"INDEX_DIR" envDefault:"faiss_index"`
	ChunkSize    int    `env:"CHUNK_SIZE" envDefault:"10000"`
	ChunkOverlap int    `env:"CHUNK_OVERLAP" envDefault:"1000"`
	RetrievalK   int    `env:"RETRIEVAL_K" envDefault:"4"`
}

// Load reads envFile (or ./.env when envFile is empty) into the process
// environment and parses the result into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		log.Printf("loading env from file %s", envFile)
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, continuing with environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type providerModels struct {
	chat      string
	embedding string
}

var defaultModels = map[string]providerModels{
	"gemini": {chat: "gemini-1.5-flash", embedding: "models/embedding-001"},
	"openai": {chat: "gpt-4o-mini", embedding: "text-embedding-3-small"},
}

func (c *Config) validate() error {
	models, ok := defaultModels[c.LLMProvider]
	if !ok {
		return fmt.Errorf("invalid LLM_PROVIDER '%s': expected gemini or openai", c.LLMProvider)
	}
	if c.ChatModel == "" {
		c.ChatModel = models.chat
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = models.embedding
	}

	switch c.StorageBackend {
	case "local", "s3":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND '%s': expected local or s3", c.StorageBackend)
	}

	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}

	if c.StorageBackend == "s3" && c.S3EndpointURL != "" && (c.S3AccessKeyID == "" || c.S3SecretAccessKey == "") {
		slog.Warn("S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing")
	}

	return nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
