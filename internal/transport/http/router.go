package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-classifieds/internal/application/session"
	"github.com/go-classifieds/internal/application/verification"
	"github.com/go-classifieds/internal/config"
	"github.com/go-classifieds/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-classifieds/internal/infrastructure/jwt"
	"github.com/go-classifieds/internal/transport/http/handler"
	appmiddleware "github.com/go-classifieds/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	VerificationRepo *dynamo.VerificationRepo
	PostRepo         *dynamo.ChannelPostRepo
	JWTProvider      *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the verification endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	refreshDur := time.Duration(cfg.RefreshTokenExpiryDays) * 24 * time.Hour
	verificationSvc := verification.NewService(verification.ServiceDeps{
		Verifications:   deps.VerificationRepo,
		Users:           deps.UserRepo,
		Sessions:        deps.SessionRepo,
		Signer:          deps.JWTProvider,
		BotUsername:     cfg.TelegramBotUsername,
		AdminTgID:       cfg.AdminTgID,
		VerificationTTL: cfg.VerificationTTL,
		RefreshTokenDur: refreshDur,
	})
	sessionSvc := session.NewService(deps.SessionRepo, deps.UserRepo, deps.JWTProvider, refreshDur)

	healthH := handler.NewHealthHandler()
	verificationH := handler.NewVerificationHandler(verificationSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	postH := handler.NewPostHandler(deps.PostRepo)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/telegram/{flow}/init", verificationH.Init)
		r.With(sensitiveRL.Limit).Post("/auth/telegram/{flow}/complete", verificationH.Complete)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.Get("/posts", postH.List)
		r.Get("/countries", postH.Countries)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)
		})
	})

	return r
}
