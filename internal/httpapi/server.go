package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hamed0406/healthcheck/internal/domain"
	apimw "github.com/hamed0406/healthcheck/internal/httpapi/middleware"
	"github.com/hamed0406/healthcheck/internal/report"
)

// AppSource is the application pipeline as seen by the API.
type AppSource interface {
	Latest() (report.AppReport, bool)
	History(ctx context.Context, name string) ([]domain.CheckResult, bool, error)
}

// SystemSource is the resource pipeline as seen by the API.
type SystemSource interface {
	Latest() (report.SystemReport, bool)
}

// Options configures access to the /api routes.
type Options struct {
	Keys      []string // empty = open
	Origins   []string // empty = any
	ReqPerMin int      // 0 disables rate limiting
	Burst     int
}

// Server is the read-only status API served in watch mode. Either source may
// be nil; its routes then answer 404.
type Server struct {
	Logger  *zap.Logger
	Apps    AppSource
	System  SystemSource
	Metrics http.Handler // optional
}

func NewServer(l *zap.Logger, apps AppSource, sys SystemSource, metrics http.Handler) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Apps: apps, System: sys, Metrics: metrics}
}

func (s *Server) Router(opts Options) http.Handler {
	r := chi.NewRouter()
	if len(opts.Origins) == 0 {
		r.Use(cors.AllowAll().Handler)
	} else {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key"},
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(opts.ReqPerMin, opts.Burst))
		r.Use(apimw.RequireKey(opts.Keys))
		r.Get("/api/report", s.handleReport)
		r.Get("/api/results/{name}/history", s.handleHistory)
		r.Get("/api/system", s.handleSystem)
	})

	return gziphandler.GzipHandler(r)
}

// ListenAndServe serves h on addr until ctx is done, then shuts down.
func ListenAndServe(ctx context.Context, l *zap.Logger, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		l.Info("api_listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.Apps == nil {
		writeError(w, http.StatusNotFound, "application checks are not running")
		return
	}
	rep, ok := s.Apps.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}
	s.writeJSON(w, rep)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.Apps == nil {
		writeError(w, http.StatusNotFound, "application checks are not running")
		return
	}
	name := chi.URLParam(r, "name")
	h, found, err := s.Apps.History(r.Context(), name)
	if err != nil {
		s.Logger.Warn("history_error", zap.String("name", name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history error")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "unknown application")
		return
	}
	if h == nil {
		h = []domain.CheckResult{}
	}
	s.writeJSON(w, h)
}

func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	if s.System == nil {
		writeError(w, http.StatusNotFound, "system checks are not running")
		return
	}
	rep, ok := s.System.Latest()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no completed run yet")
		return
	}
	s.writeJSON(w, rep)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode_error", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
