package apiv1

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"quickscreen/internal/domain/model"
	"quickscreen/internal/domain/ports/adapter"
	"quickscreen/internal/domain/ports/repository"
	"quickscreen/internal/infra/logging"
	"quickscreen/internal/infra/metrics"
	red "quickscreen/internal/infra/redis"
	"quickscreen/internal/usecase"
)

// Server carries the use cases and cross-cutting services the v1 API
// exposes. Handlers live in handlers.go; this file owns routing and
// middleware.
type Server struct {
	uploader usecase.UploaderUseCase
	review   usecase.ReviewUseCase
	jobs     repository.JobRepository
	profiles repository.ProfileRepository
	identity adapter.IdentityService

	limiter     *red.RateLimiter
	submitLimit int

	log *zerolog.Logger
}

func NewServer(
	uploader usecase.UploaderUseCase,
	review usecase.ReviewUseCase,
	jobs repository.JobRepository,
	profiles repository.ProfileRepository,
	identity adapter.IdentityService,
	limiter *red.RateLimiter,
	submitLimit int,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "APIServer").Logger()
	return &Server{
		uploader:    uploader,
		review:      review,
		jobs:        jobs,
		profiles:    profiles,
		identity:    identity,
		limiter:     limiter,
		submitLimit: submitLimit,
		log:         &l,
	}
}

// RegisterAPIV1 attaches all v1 routes plus the health and metrics
// endpoints to the router.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimw.Recoverer)
		r.Use(s.traceMiddleware)
		r.Use(s.instrumentMiddleware)
		r.Use(s.authMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleCandidate))
			r.Use(s.rateLimitMiddleware("submit"))
			r.Post("/submissions", s.handleSubmit)
			r.Post("/applications", s.handleSubmitBatch)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleCandidate))
			r.Get("/candidates/me/submissions", s.handleCandidateHistory)
			r.Get("/jobs/{jobID}", s.handleGetJob)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleRecruiter))
			r.Get("/review/queue", s.handleReviewQueue)
			r.Patch("/submissions/{submissionID}/status", s.handleSetStatus)
		})
	})
}

type ctxKey int

const identityKey ctxKey = iota

func identityFrom(ctx context.Context) (*model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*model.Identity)
	return id, ok
}

// authMiddleware resolves the bearer token into an identity and stores it
// in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			http.Error(w, "Unauthorized: Malformed token", http.StatusUnauthorized)
			return
		}
		identity, err := s.identity.Resolve(r.Context(), tokenParts[1])
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		ctx = logging.WithIdentityRef(ctx, identity.Ref)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFrom(r.Context())
			if !ok || identity.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware counts attempts per identity within a one-minute
// fixed window. Limiter errors fail open: a Redis outage must not block
// submissions.
func (s *Server) rateLimitMiddleware(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFrom(r.Context())
			if ok && s.limiter != nil {
				allowed, err := s.limiter.Allow(r.Context(), red.SubmitKey(identity.Ref, route), s.submitLimit, time.Minute)
				if err != nil {
					s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
				} else if !allowed {
					http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) instrumentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.ObserveHTTPRequest(route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
