package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"familybudget/internal/logger"
	"familybudget/internal/security"
	"familybudget/internal/service"
)

// RouterConfig holds what NewRouter needs besides the services
type RouterConfig struct {
	BasePath       string
	AllowedOrigins []string
	DevMode        bool
	RateLimiter    *security.RateLimiter
	// StoreHealth reports store readiness and its state name for /healthz
	StoreHealth func() (ready bool, state string)
	Log         *logger.Logger
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// NewRouter wires every route of the API
func NewRouter(cfg RouterConfig, authService *service.AuthService, familyService *service.FamilyService) http.Handler {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mw := NewMiddleware(authService, log, cfg.DevMode)
	authHandler := NewAuthHandler(authService, log, cfg.DevMode)
	familyHandler := NewFamilyHandler(familyService, log, cfg.DevMode)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ready, state := true, "unknown"
		if cfg.StoreHealth != nil {
			ready, state = cfg.StoreHealth()
		}
		if !ready {
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Store: state})
			return
		}
		respondJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: state})
	})

	api := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(mw.RateLimit(cfg.RateLimiter))
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/family/{familyId}", func(r chi.Router) {
			r.Use(mw.RequireAuth)
			r.Use(mw.RequireOwnFamily)

			r.Get("/", familyHandler.GetFamily)
			r.Post("/members", familyHandler.AddMember)
			r.Put("/members/{memberId}", familyHandler.UpdateMember)
			r.Delete("/members/{memberId}", familyHandler.DeleteMember)
			r.Post("/members/{memberId}/expenses", familyHandler.AddExpense)
		})
	}

	if cfg.BasePath == "" || cfg.BasePath == "/" {
		api(r)
	} else {
		r.Route(cfg.BasePath, api)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, errorResponse{Message: "Route not found"})
	})

	return r
}
