package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sms-confirm-api/internal/application/confirmation"
	"github.com/sms-confirm-api/internal/config"
	"github.com/sms-confirm-api/internal/transport/http/handler"
	appmiddleware "github.com/sms-confirm-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
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

	// 5 requests/second, burst of 10 — applied to the public code endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	confirmationSvc := confirmation.NewService(confirmation.ServiceDeps{
		Tenant:     cfg.CompanyName,
		Store:      deps.ConfirmationRepo,
		Deliveries: deps.DeliveryRepo,
		Sender:     deps.SMSSender,
		PendingTTL: cfg.PendingTTL,
	})

	healthH := handler.NewHealthHandler()
	confirmationH := handler.NewConfirmationHandler(confirmationSvc, cfg.DefaultMessage)
	deliveryH := handler.NewDeliveryHandler(deps.DeliveryRepo, cfg.CompanyName)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/confirmations", confirmationH.Request)
		r.With(sensitiveRL.Limit).Post("/confirmations/verify", confirmationH.Verify)
		r.Get("/confirmations/hash/{hash}", confirmationH.Resolve)

		// ── Authenticated routes (admin surface) ─────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/confirmations", confirmationH.List)
			r.Delete("/confirmations/{identifier}", confirmationH.Delete)
			r.Get("/deliveries", deliveryH.List)
		})
	})

	return r
}
