package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/standings-engine/handlers"
	"github.com/Dosada05/standings-engine/middleware"
)

type Handlers struct {
	Standings *handlers.StandingsHandler
	Payouts   *handlers.PayoutHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func SetupRoutes(router chi.Router, h Handlers, opts Options) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", h.Health.Healthz)

	// The websocket route is registered outside the timeout middleware so
	// long-lived connections are not cut.
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	organizerOnly := middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin)

	router.Group(func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(chiMiddleware.Timeout(opts.RequestTimeout))
		}

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/standings", h.Standings.GetStandings)
			r.Get("/payouts", h.Payouts.GetPayouts)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(organizerOnly)

				r.Post("/standings/recompute", h.Standings.RecomputeStandings)
				r.Post("/payouts/generate", h.Payouts.GeneratePayouts)
				r.Put("/payouts", h.Payouts.SaveManualPayouts)
				// ?credit_to={place} hands the removed amount to another place.
				r.Delete("/payouts/places/{place}", h.Payouts.RemovePayoutPlace)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"the requested resource could not be found"}` + "\n"))
	})
}
