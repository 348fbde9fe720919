package api

import (
	"context"
	"net/http"

	"rehearse-backend/internal/auth"
	"rehearse-backend/internal/conversation"
	"rehearse-backend/internal/database"
	"rehearse-backend/internal/knowledge"
	"rehearse-backend/internal/personas"
	"rehearse-backend/internal/thumbs"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type CustomerSimulator interface {
	Reply(ctx context.Context, persona string, history []database.Message, agentMessage string) (string, error)
}

type AudioStore interface {
	Save(ctx context.Context, text string) (string, error)
	Open(ctx context.Context, name string) ([]byte, error)
	RemoveAll(ctx context.Context) (int, error)
}

type KnowledgeBase interface {
	Ingest(ctx context.Context, docs []knowledge.Document) (knowledge.IngestResult, error)
	Ask(ctx context.Context, question string) (string, error)
}

type Dependencies struct {
	DB            *gorm.DB
	Conversations *conversation.Service
	Sessions      *conversation.SessionStore
	Customer      CustomerSimulator
	Personas      *personas.Catalog
	Thumbs        *thumbs.Store
	Audio         AudioStore
	Knowledge     KnowledgeBase
	Auth          *auth.Service
	Issuer        *auth.Issuer
	ChatDir       string
	// SecureCookies marks the session cookie as HTTPS only.
	SecureCookies bool
}

type BackendService struct {
	db            *gorm.DB
	conversations *conversation.Service
	sessions      *conversation.SessionStore
	customer      CustomerSimulator
	personas      *personas.Catalog
	thumbs        *thumbs.Store
	audio         AudioStore
	knowledge     KnowledgeBase
	auth          *auth.Service
	issuer        *auth.Issuer
	chatDir       string
	secureCookies bool
}

func NewBackendService(deps Dependencies) *BackendService {
	return &BackendService{
		db:            deps.DB,
		conversations: deps.Conversations,
		sessions:      deps.Sessions,
		customer:      deps.Customer,
		personas:      deps.Personas,
		thumbs:        deps.Thumbs,
		audio:         deps.Audio,
		knowledge:     deps.Knowledge,
		auth:          deps.Auth,
		issuer:        deps.Issuer,
		chatDir:       deps.ChatDir,
		secureCookies: deps.SecureCookies,
	}
}

func (s *BackendService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.Register)
		r.Post("/login", s.Login)
		r.With(auth.Middleware(s.issuer)).Post("/logout", s.Logout)
	})

	r.Get("/static/{file}", s.GetAudio)
	r.Post("/remove_all_audio_files", RestHandler(s.RemoveAllAudioFiles))
	r.Post("/recall/ask", RestHandler(s.AskQuestion))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.issuer))

		r.Post("/start_conversation/{persona}", RestHandler(s.StartConversation))
		r.Post("/add_message", RestHandler(s.AddMessage))
		r.Post("/close_conversation", RestHandler(s.CloseConversation))
		r.Post("/clear_session", RestHandler(s.ClearSession))
		r.Get("/get_past_conversations", RestHandler(s.GetPastConversations))
		r.Post("/save_feedback", RestHandler(s.SaveFeedback))

		r.Get("/load-personas", RestHandler(s.LoadPersonas))
		r.Get("/get_persona_details/{persona}", RestHandler(s.GetPersonaDetails))
		r.Get("/get_chat", s.GetChat)

		r.Post("/recall/upload", RestHandler(s.UploadDocuments))
		r.Get("/analytics/product_userwise", RestHandler(s.ProductUserwiseReport))
	})
}

func claimsFromRequest(r *http.Request) (auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return auth.Claims{}, CodedErrorf(http.StatusUnauthorized, "missing or invalid token")
	}
	return claims, nil
}
