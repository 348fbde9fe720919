package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rehearse-backend/cmd"
	"rehearse-backend/internal/api"
	"rehearse-backend/internal/auth"
	"rehearse-backend/internal/config"
	"rehearse-backend/internal/conversation"
	"rehearse-backend/internal/database"
	"rehearse-backend/internal/knowledge"
	"rehearse-backend/internal/personas"
	"rehearse-backend/internal/speech"
	"rehearse-backend/internal/thumbs"
	"rehearse-backend/internal/translate"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	chatTemperature      = 0.7
	knowledgeTemperature = 0.3
)

func createServer(cfg *config.Config, backend *api.BackendService) *http.Server {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Handle("/metrics", promhttp.Handler())
	backend.AddRoutes(r)

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
}

func main() {
	cfg, err := config.Load(cmd.EnvFileFlag())
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	logFile := cmd.SetupLogging(cfg.Root, cfg.SlogLevel())
	defer logFile.Close()

	slog.Info("starting backend", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "storage", cfg.StorageBackend, "feedback_profile", cfg.FeedbackProfile)

	ctx := context.Background()

	db, err := database.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	chatClient, closeChat, err := cmd.NewChatClient(ctx, cfg, chatTemperature)
	if err != nil {
		log.Fatalf("Failed to create chat model: %v", err)
	}
	defer closeChat()

	qaClient, closeQA, err := cmd.NewChatClient(ctx, cfg, knowledgeTemperature)
	if err != nil {
		log.Fatalf("Failed to create question answering model: %v", err)
	}
	defer closeQA()

	embedder, closeEmbedder, err := cmd.NewEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create embedding model: %v", err)
	}
	defer closeEmbedder()

	catalog, err := personas.LoadFile(cfg.PersonaCSV)
	if err != nil {
		log.Fatalf("Failed to load personas: %v", err)
	}

	examples, err := thumbs.LoadExamples(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to load example datasets: %v", err)
	}

	profile, err := conversation.LoadProfile(cfg.FeedbackProfile, cfg.FeedbackPromptsFile)
	if err != nil {
		log.Fatalf("Failed to load feedback profile: %v", err)
	}

	translator := translate.NewClient(cfg.TranslateBaseURL, cfg.TranslateTarget, cfg.HTTPTimeout)
	generator := conversation.NewGenerator(chatClient, translator, conversation.FeedbackOptions{
		Profile:              profile,
		Translate:            cfg.FeedbackTranslate,
		MaxPointsPerCategory: cfg.FeedbackMaxPointsPerCategory,
		LogResourceUsage:     cfg.FeedbackLogResourceUsage,
		Concurrency:          cfg.FeedbackConcurrency,
	})

	provider, err := cmd.NewStorageProvider(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create storage provider: %v", err)
	}

	index, err := knowledge.OpenIndex(cfg.IndexDir)
	if err != nil {
		log.Fatalf("Failed to open knowledge index: %v", err)
	}
	defer index.Close()

	issuer := auth.NewIssuer(cfg.SecretKey, cfg.SessionLifetime)

	backend := api.NewBackendService(api.Dependencies{
		DB:            db,
		Conversations: conversation.NewService(db, generator),
		Sessions:      conversation.NewSessionStore(cfg.SessionCacheSize),
		Customer:      conversation.NewSimulator(chatClient, catalog, examples, cfg.CustomerFewShot),
		Personas:      catalog,
		Thumbs:        thumbs.NewStore(cfg.DataDir),
		Audio:         speech.NewAudioStore(speech.NewTTS(cfg.TTSBaseURL, cfg.TTSLanguage, cfg.HTTPTimeout), provider, cfg.AudioBucket),
		Knowledge: knowledge.NewService(index, embedder, qaClient, knowledge.Options{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
			K:            cfg.RetrievalK,
		}),
		Auth:          auth.NewService(db, issuer),
		Issuer:        issuer,
		ChatDir:       cfg.ChatDir,
		SecureCookies: cfg.CookieSecure,
	})

	server := createServer(cfg, backend)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
