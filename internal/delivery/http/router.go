package http

import (
	"log/slog"
	"net/http"

	"eventmanager/internal/delivery/http/controllers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"
	"eventmanager/internal/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps bundles what NewRouter wires into the mux.
type RouterDeps struct {
	Logger         *slog.Logger
	Events         *controllers.EventController
	Attendees      *controllers.AttendeeController
	Auth           *controllers.AuthController
	Health         *controllers.HealthController
	Tokens         domain.TokenVerifier
	AuthRateLimit  *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes and
// wraps it in the middleware chain.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Tokens, d.Logger)

	// Auth
	mux.HandleFunc("POST /register", d.AuthRateLimit.Wrap(d.Auth.Register))
	mux.HandleFunc("POST /register/{$}", d.AuthRateLimit.Wrap(d.Auth.Register))
	mux.HandleFunc("POST /token", d.AuthRateLimit.Wrap(d.Auth.Token))
	mux.HandleFunc("GET /protected/{$}", auth(d.Auth.Protected))

	// Events
	mux.HandleFunc("GET /events/{id}", d.Events.GetEvent)
	mux.HandleFunc("GET /events/{id}/{$}", d.Events.GetEvent)
	mux.HandleFunc("GET /events/{$}", auth(d.Events.ListEvents))
	mux.HandleFunc("POST /events/{$}", auth(d.Events.CreateEvent))
	mux.HandleFunc("PUT /events/{id}/{$}", auth(d.Events.UpdateEvent))

	// Attendees
	mux.HandleFunc("POST /events/{seg}/{sub}/{$}", eventSubresource(d.Attendees.RegisterAttendee, auth(d.Attendees.BulkCheckIn)))
	mux.HandleFunc("GET /events/attendees/{event_id}/{$}", d.Attendees.ListAttendees)
	mux.HandleFunc("PUT /attendees/checkin/{attendee_id}/{$}", auth(d.Attendees.CheckIn))

	// Operations
	mux.HandleFunc("GET /healthz", d.Health.Health)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var h http.Handler = mux
	h = middleware.CORS(d.AllowedOrigins, h)
	h = metrics.HTTPMiddleware(h)
	h = middleware.LoggingMiddleware(d.Logger, h)
	h = middleware.Recovery(d.Logger, h)
	h = middleware.RequestID(h)
	return h
}

// eventSubresource serves both POST /events/attendees/{event_id}/ and
// POST /events/{event_id}/bulk_checkin/. ServeMux rejects the two as
// separate patterns because neither is more specific than the other.
func eventSubresource(register, bulkCheckIn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seg, sub := r.PathValue("seg"), r.PathValue("sub")
		switch {
		case seg == "attendees":
			r.SetPathValue("event_id", sub)
			register(w, r)
		case sub == "bulk_checkin":
			r.SetPathValue("event_id", seg)
			bulkCheckIn(w, r)
		default:
			http.NotFound(w, r)
		}
	}
}
