// Package router assembles the HTTP API surface.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atendeai/clinic-platform/internal/http/handlers"
	httpmiddleware "github.com/atendeai/clinic-platform/internal/http/middleware"
	"github.com/atendeai/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	FlowHandler     *handlers.FlowHandler
	WhatsAppWebhook *handlers.WhatsAppWebhookHandler
	MetricsHandler  http.Handler
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, metrics, provider webhooks.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.WhatsAppWebhook != nil {
			public.Route("/webhooks/whatsapp", func(r chi.Router) {
				r.Get("/", cfg.WhatsAppWebhook.HandleVerify)
				r.Post("/", cfg.WhatsAppWebhook.HandleEvents)
			})
		}
	})

	// Tenant API: every route requires the clinic header.
	r.Group(func(api chi.Router) {
		api.Use(httpmiddleware.RequireClinicID)
		if cfg.FlowHandler != nil {
			api.Mount("/appointments/flow", cfg.FlowHandler.Routes())
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
