package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/careloop/clinic-assistant/internal/chat"
	httpmiddleware "github.com/careloop/clinic-assistant/internal/http/middleware"
	"github.com/careloop/clinic-assistant/internal/scheduling"
	"github.com/careloop/clinic-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger            *logging.Logger
	ChatHandler       *chat.Handler
	SchedulingHandler *scheduling.Handler
	MetricsHandler    http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.ChatHandler != nil {
		r.Post("/chat", cfg.ChatHandler.HandleTurn)
	}

	if cfg.SchedulingHandler != nil {
		r.Route("/api", func(api chi.Router) {
			api.Post("/book-appointment", cfg.SchedulingHandler.BookAppointment)
			api.Post("/reschedule-appointment", cfg.SchedulingHandler.RescheduleAppointment)
			api.Post("/cancel-appointment", cfg.SchedulingHandler.CancelAppointment)
			api.Get("/appointments", cfg.SchedulingHandler.ListAppointments)
		})
	}

	return r
}
