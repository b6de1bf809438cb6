package router

import (
	"net/http"

	"hdgstudio-market-api/internal/handler"
	"hdgstudio-market-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler           *handler.Handler
	AccountHandler    *handler.AccountHandler
	PostHandler       *handler.PostHandler
	WithdrawalHandler *handler.WithdrawalHandler
	AdminHandler      *handler.AdminHandler
	AuthHandler       *handler.AuthHandler
	AuthMiddleware    func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes). RequestID runs
	// first so Recovery and Logging can tag their lines with it.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Token exchange is public; everything else under /auth needs a session.
		if cfg.AuthHandler != nil {
			r.Post("/auth/token", cfg.AuthHandler.GenerateToken)
		}

		// The storefront is public: anyone can browse listings and posts.
		if cfg.AccountHandler != nil {
			r.Get("/accounts", cfg.AccountHandler.List)
			r.Get("/accounts/{id}", cfg.AccountHandler.Get)
		}
		if cfg.PostHandler != nil {
			r.Get("/posts", cfg.PostHandler.List)
			r.Get("/posts/{id}", cfg.PostHandler.Get)
		}

		// AUTHENTICATED routes
		r.Group(func(r chi.Router) {
			if cfg.AuthMiddleware != nil {
				r.Use(cfg.AuthMiddleware)
			}

			if cfg.AuthHandler != nil {
				r.Post("/auth/revoke", cfg.AuthHandler.RevokeToken)
				r.Post("/auth/refresh", cfg.AuthHandler.RefreshToken)
			}

			if cfg.AccountHandler != nil {
				r.Post("/accounts", cfg.AccountHandler.Create)
				r.Get("/accounts/mine", cfg.AccountHandler.Mine)
				r.Get("/accounts/purchased", cfg.AccountHandler.Purchased)
				r.Put("/accounts/{id}", cfg.AccountHandler.Update)
				r.Delete("/accounts/{id}", cfg.AccountHandler.Delete)
				r.Post("/accounts/{id}/purchase", cfg.AccountHandler.Purchase)
			}

			if cfg.PostHandler != nil {
				r.Post("/posts", cfg.PostHandler.Create)
				r.Get("/posts/mine", cfg.PostHandler.Mine)
				r.Put("/posts/{id}", cfg.PostHandler.Update)
				r.Delete("/posts/{id}", cfg.PostHandler.Delete)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole("admin"))
					r.Post("/posts/{id}/lock", cfg.PostHandler.Lock)
					r.Post("/posts/{id}/unlock", cfg.PostHandler.Unlock)
				})
			}

			if cfg.WithdrawalHandler != nil {
				r.Post("/withdrawals", cfg.WithdrawalHandler.Create)
				r.Get("/withdrawals/mine", cfg.WithdrawalHandler.Mine)
				r.Get("/finance/mine", cfg.WithdrawalHandler.CashFlow)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole("admin"))
					r.Get("/withdrawals", cfg.WithdrawalHandler.List)
					r.Post("/withdrawals/{id}/approve", cfg.WithdrawalHandler.Approve)
					r.Post("/withdrawals/{id}/reject", cfg.WithdrawalHandler.Reject)
				})
			}

			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Post("/login", cfg.AdminHandler.VerifyLogin)
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Get("/finance", cfg.AdminHandler.GetFinanceRecords)
					r.Get("/finance/summary", cfg.AdminHandler.GetFinanceSummary)
				})
			}
		})
	})

	return r
}
