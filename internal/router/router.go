package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/FACorreiaa/go-trip-planner/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner/internal/api/share"
	"github.com/FACorreiaa/go-trip-planner/internal/api/trip"
)

// Config contains dependencies needed for the router setup
type Config struct {
	TripHandler            *trip.HandlerImpl
	ChatHandler            *chat.HandlerImpl
	ShareHandler           *share.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
	MetricsHandler         http.Handler
	AllowedOrigins         []string
	// RequestsPerMinute caps trip generation and chat per client IP. Zero disables it.
	RequestsPerMinute int
}

// SetupRouter builds the application routes. Server-wide middleware
// (request ID, logging, recoverer) is applied by the caller.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	expensive := func(next http.Handler) http.Handler { return next }
	if cfg.RequestsPerMinute > 0 {
		expensive = httprate.LimitByIP(cfg.RequestsPerMinute, time.Minute)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cfg.AuthenticateMiddleware)

		r.Route("/trips", func(r chi.Router) {
			r.With(expensive).Post("/", cfg.TripHandler.CreateTrip)
			r.Get("/{tripID}", cfg.TripHandler.GetTrip)

			r.With(expensive).Post("/{tripID}/chat", cfg.ChatHandler.SendMessage)
			r.Get("/{tripID}/chat", cfg.ChatHandler.GetHistory)

			r.Post("/{tripID}/shares", cfg.ShareHandler.CreateShare)
		})
		r.Post("/shares/{shareID}/accept", cfg.ShareHandler.AcceptShare)
	})

	return r
}
