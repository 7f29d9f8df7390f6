package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studytrack-backend/internal/handlers"
	"studytrack-backend/internal/middleware"
	"studytrack-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	sessionHandler *handlers.SessionHandler,
	studyLogHandler *handlers.StudyLogHandler,
	coachHandler *handlers.CoachHandler,
	weakTopicHandler *handlers.WeakTopicHandler,
	planHandler *handlers.PlanHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Coach rate limiter (20 req/min per IP, Gemini is metered)
	coachLimiter := middleware.NewRateLimiter(20, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtAuth.Middleware)

		// ──── Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Post("/", sessionHandler.Create)
			r.Get("/active", sessionHandler.Active)
			r.Get("/{id}", sessionHandler.Get)
			r.Put("/{id}", sessionHandler.Update)
			r.Delete("/{id}", sessionHandler.Delete)
		})

		// ──── Study Log Routes ────
		r.Route("/study-logs", func(r chi.Router) {
			r.Get("/", studyLogHandler.List)
			r.Post("/", studyLogHandler.Create)
		})

		// ──── Coach Routes ────
		r.Route("/coach", func(r chi.Router) {
			r.Use(coachLimiter.Middleware)
			r.Post("/chat", coachHandler.Chat)
			r.Post("/quick-action", coachHandler.QuickAction)
			r.Get("/stats", coachHandler.Stats)
			r.Get("/conversations", coachHandler.Conversations)
			r.Delete("/conversations", coachHandler.ClearConversations)
		})

		// ──── Weak Topic Routes ────
		r.Route("/weak-topics", func(r chi.Router) {
			r.Get("/", weakTopicHandler.List)
			r.Post("/", weakTopicHandler.Create)
			r.Delete("/{id}", weakTopicHandler.Delete)
		})

		// ──── Plan Routes ────
		r.Route("/plan", func(r chi.Router) {
			r.Get("/", planHandler.Get)
			r.Put("/progress", planHandler.UpdateProgress)
		})
	})

	// WebSocket (token via query param)
	r.Get("/api/v1/ws", wsHub.HandleWebSocket)

	return r
}
