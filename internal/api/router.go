package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/internal/storage/sqlite"
	"github.com/aeroconcept/sizer/internal/tradestudy"
	"github.com/aeroconcept/sizer/internal/websocket"
	"github.com/aeroconcept/sizer/pkg/logger"
)

// Router wires the API handlers into a chi route tree.
type Router struct {
	handler *Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(sizer *sizing.Sizer, runner *tradestudy.Runner, designStorage *sqlite.DesignStorage, config *config.Config, logger *logger.Logger, wsServer *websocket.Server) *Router {
	return &Router{
		handler: NewHandler(sizer, runner, designStorage, config, logger, wsServer),
		config:  config,
		logger:  logger.Named("api-router"),
	}
}

// Routes returns the HTTP handler for the API
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(rt.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/designs", func(r chi.Router) {
			r.Post("/", rt.handler.CreateDesign)
			r.Get("/", rt.handler.ListDesigns)
			r.Get("/{id}", rt.handler.GetDesign)
			r.Get("/{id}/constraints", rt.handler.GetDesignConstraints)
		})
		r.Post("/tradestudies", rt.handler.RunTradeStudy)
		r.Get("/ws", rt.handler.HandleWebSocket)
		r.Get("/health", rt.healthCheck)
	})

	return r
}

func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","time":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}

// corsMiddleware applies the configured allowed origins to every response.
func (rt *Router) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && rt.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rt *Router) originAllowed(origin string) bool {
	for _, allowed := range rt.config.Server.CORSAllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
