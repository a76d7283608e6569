package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kriya-gateway/internal/config"
	"kriya-gateway/internal/handler"
	"kriya-gateway/internal/middleware"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Session    *handler.SessionHandler
	Proxy      *handler.ProxyHandler
	Task       *handler.TaskHandler
	Onboarding *handler.OnboardingHandler
	Admin      *handler.AdminHandler
	Info       *handler.InfoHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/", h.Info.Root)
	r.Get("/health", h.Info.Health)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout, "/api/plane/"))

		api.Route("/api/auth", func(auth chi.Router) {
			auth.Post("/register", h.Auth.Register)
			auth.Post("/validate-token", h.Auth.ValidateToken)
			auth.Get("/user", h.Auth.GetUser)
			auth.Delete("/logout", h.Auth.Logout)
		})

		api.Route("/api/session", func(session chi.Router) {
			session.Post("/login", h.Session.Login)
			session.Post("/logout", h.Session.Logout)
			session.Get("/me", h.Session.Me)
		})

		api.Route("/api/plane", func(proxy chi.Router) {
			proxy.Use(authMiddleware.RequireUser)
			proxy.Handle("/*", http.HandlerFunc(h.Proxy.Forward))
		})

		api.Post("/api/admin/set-plane-token", h.Admin.SetPlaneToken)
		api.Post("/create_task", h.Task.Create)
		api.Post("/onboarding", h.Onboarding.Onboard)
	})

	return r
}
