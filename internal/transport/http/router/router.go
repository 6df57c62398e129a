// Package router wires the route table.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careercompass/auth-service/internal/transport/http/handlers"
	"github.com/careercompass/auth-service/internal/transport/http/middleware"
)

type Deps struct {
	Auth   *handlers.AuthHandler
	Social *handlers.SocialHandler
	User   *handlers.UserHandler
	Health *handlers.HealthHandler
	Guard  *middleware.Guard
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)

	r.Get("/healthz", d.Health.Healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		// guest-only entry points
		r.Group(func(r chi.Router) {
			r.Use(d.Guard.RequireGuest)
			r.Post("/register", d.Auth.Register)
			r.Post("/login", d.Auth.Login)
			r.Post("/forgot-password", d.Auth.ForgotPassword)
			r.Post("/reset-password", d.Auth.ResetPassword)
			r.Get("/social/{provider}", d.Social.Redirect)
			r.Get("/social/{provider}/callback", d.Social.Callback)
		})

		// authenticated
		r.Group(func(r chi.Router) {
			r.Use(d.Guard.RequireAuth)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/email/verify/{id}/{hash}", d.Auth.VerifyEmail)
			r.Post("/email/verification-notification", d.Auth.ResendVerification)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(d.Guard.RequireAuth)
		r.Get("/user", d.User.Me)
	})

	return r
}
