package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/telehealthhq/telehealth-api/internal/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 10 << 10 // 10kb

// RouterOptions configures the cross-cutting HTTP behavior.
type RouterOptions struct {
	CORSOrigins []string
	// Verbose enables per-request logging for every request, not just failures.
	Verbose bool
}

// NewRouter wires the full HTTP surface.
func NewRouter(
	logger zerolog.Logger,
	opts RouterOptions,
	auth *AuthHandler,
	chat *ChatHandler,
	guard *middleware.SessionGuard,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger, opts.Verbose))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.BodyLimit(maxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, response{Status: "success", Message: "ok"})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/signup", auth.Signup)
		r.Post("/verify", auth.Verify)
		r.Post("/resend-otp", auth.ResendOTP)
		r.Post("/login", auth.Login)
		r.With(guard.Authenticate).Post("/logout", auth.Logout)
		r.Post("/forget-password", auth.ForgetPassword)
		r.Post("/reset-password", auth.ResetPassword)
	})

	r.Route("/api/stream", func(r chi.Router) {
		r.With(guard.Authenticate).Get("/get-token", chat.GetToken)
		r.Post("/token", chat.PublicToken)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, http.StatusNotFound, response{
			Status:  "fail",
			Message: fmt.Sprintf("can't find %s on this server", req.URL.Path),
		})
	})

	return r
}
