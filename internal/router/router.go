package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-auth-api/internal/config"
	"go-auth-api/internal/handler"
	"go-auth-api/internal/middleware"
)

type Handlers struct {
	Auth *handler.AuthHandler
	User *handler.UserHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers, health func(http.ResponseWriter, *http.Request)) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", health)

	// Session lifecycle
	r.Post("/login", h.Auth.Login)
	r.With(authMiddleware.RequireRefresh).Get("/refresh", h.Auth.Refresh)
	r.Post("/logout", h.Auth.Logout)

	// Account lifecycle
	r.Post("/user", h.User.Create)
	r.With(authMiddleware.RequireAuth).Get("/profile", h.User.Profile)
	r.With(authMiddleware.RequireAuth).Patch("/profile", h.User.Update)
	r.With(authMiddleware.RequireAuth).Delete("/profile", h.User.Delete)

	// Password reset
	r.Post("/forgot-password", h.User.ForgotPassword)
	r.Patch("/reset-password", h.User.ResetPassword)

	return r
}
