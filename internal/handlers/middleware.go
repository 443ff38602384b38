package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"familybudget/internal/logger"
	"familybudget/internal/models"
	"familybudget/internal/security"
	"familybudget/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const FamilyContextKey ContextKey = "family"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	responder
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, log *logger.Logger, devMode bool) *Middleware {
	return &Middleware{
		responder:   responder{log: log, devMode: devMode},
		authService: authService,
	}
}

// RequireAuth verifies the bearer token and puts the family in the context
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		family, err := m.authService.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			m.respondServiceError(w, r, "authentication failed", err)
			return
		}

		ctx := context.WithValue(r.Context(), FamilyContextKey, family)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireOwnFamily rejects requests whose {familyId} is not the token's
// family. Other families are reported as absent rather than forbidden.
func (m *Middleware) RequireOwnFamily(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		family := GetFamilyFromContext(r.Context())
		if family == nil || family.ID != chi.URLParam(r, "familyId") {
			m.respondWithError(w, r, http.StatusNotFound, MsgFamilyNotFound, "", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit throttles requests per client IP
func (m *Middleware) RateLimit(limiter *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(security.GetClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				m.respondWithError(w, r, http.StatusTooManyRequests, MsgTooManyRequests, "", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Logging middleware logs HTTP requests
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// GetFamilyFromContext retrieves the authenticated family from the request context
func GetFamilyFromContext(ctx context.Context) *models.Family {
	family, ok := ctx.Value(FamilyContextKey).(*models.Family)
	if !ok {
		return nil
	}
	return family
}
