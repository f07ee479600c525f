package api

import (
	"net/http"

	"github.com/dom/english-proficiency-api/internal/api/handlers"
	"github.com/dom/english-proficiency-api/internal/api/middleware"
	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth)
	sessionHandler := handlers.NewSessionHandler(services.Session, services.Scoring)
	answerHandler := handlers.NewAnswerHandler(services.Answer)
	paymentHandler := handlers.NewPaymentHandler(services.Promotion, cfg)

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Payment routes. Verify is public: the caller holds only a temp
		// token at this point, not an account.
		r.Route("/payments", func(r chi.Router) {
			r.Post("/verify", paymentHandler.Verify)
			r.Post("/initialize-mpesa", paymentHandler.InitializeMpesa)
			r.Post("/webhook", paymentHandler.Webhook)
		})

		// Session routes gated by the session token header, not the auth
		// middleware: the anonymous pre-payment flow has no account yet.
		r.Route("/test-sessions", func(r chi.Router) {
			r.Post("/pre-payment", sessionHandler.CreatePrePayment)
			r.Get("/{id}", sessionHandler.Get)
			r.Patch("/{id}", sessionHandler.Update)
			r.Post("/{id}/submit", sessionHandler.Submit)
			r.Get("/{id}/answers", sessionHandler.Answers)

			// Authenticated session creation
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(services.Token))
				r.Post("/", sessionHandler.Create)
			})
		})

		r.Post("/test-answers", answerHandler.Upsert)

		// Account-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Token))
			r.Get("/users/{userId}", authHandler.GetUser)
			r.Get("/users/{userId}/test-sessions", sessionHandler.ListByUser)
			r.Get("/users/{userId}/incomplete-sessions", sessionHandler.ListIncomplete)
			r.Post("/users/{userId}/resume-session/{sessionId}", sessionHandler.Resume)
		})
	})

	return r
}
