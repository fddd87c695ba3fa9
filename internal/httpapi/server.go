// Package httpapi — JSON API поверх сервисов ростеров (chi).
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leganyst/rollcall/internal/auth"
	"github.com/Leganyst/rollcall/internal/logging"
	"github.com/Leganyst/rollcall/internal/model"
	"github.com/Leganyst/rollcall/internal/service"
)

type Deps struct {
	Identity   *service.IdentityService
	Rosters    *service.RosterService
	Swaps      *service.SwapService
	Attendance *service.AttendanceService
	Tokens     *auth.Issuer
	Logger     *slog.Logger
	Gatherer   prometheus.Gatherer
	// Ping проверяет доступность БД для /health.
	Ping           func(ctx context.Context) error
	MaxUploadBytes int64
}

type Server struct {
	Deps
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = int64(model.MaxAttendanceImageMB) * 1024 * 1024
	}
	return &Server{Deps: d}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))

	r.Post("/auth/login", s.handleLogin)
	r.Post("/users", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.With(s.requireRole(model.RoleManager)).Post("/rosters", s.handleCreateRoster)
		r.With(s.requireRole(model.RoleManager)).Post("/rosters/{rosterID}/managers", s.handleCreateRosterManager)
		r.With(s.requireRole(model.RoleManager)).Post("/rosters/{rosterID}/schedules", s.handleBulkCreateSchedules)
		r.With(s.requireRole(model.RoleManager, model.RoleStaff)).Get("/rosters/{rosterID}/schedules", s.handleListSchedules)
		r.With(s.requireRole(model.RoleManager)).Put("/schedules/{scheduleID}", s.handleUpdateSchedule)

		r.With(s.requireRole(model.RoleStaff)).Post("/swap-requests", s.handleCreateSwapRequest)
		r.With(s.requireRole(model.RoleStaff)).Get("/swap-requests", s.handleListSwapRequests)
		r.With(s.requireRole(model.RoleStaff)).Post("/swap-requests/{requestID}/respond", s.handleRespondSwapRequest)

		r.With(s.requireRole(model.RoleStaff)).Post("/attendances", s.handleCreateAttendance)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, envelope{Errors: "database unavailable"})
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger кладёт в контекст логгер с request_id и пишет итог запроса.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := s.Logger.With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.ContextWithLogger(r.Context(), logger)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		logger.InfoContext(ctx, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
