package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"plancal/internal/config"
	"plancal/internal/layout"
	appLog "plancal/internal/log"
	"plancal/internal/store"
)

const (
	dateLayout     = "2006-01-02"
	layoutCacheTTL = 5 * time.Minute
	layoutCacheLen = 256
)

// layoutKey identifies a memoized day layout. The store version makes any
// task change a cache miss.
type layoutKey struct {
	day     string
	mode    layout.Mode
	version uint64
}

// Server provides the HTTP API over the task store and the layout engine.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	settings layout.Settings
	loc      *time.Location
	mux      *http.ServeMux

	layouts *expirable.LRU[layoutKey, layout.DayLayout]
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		settings: cfg.Settings(),
		loc:      cfg.Location(),
		mux:      http.NewServeMux(),
		layouts:  expirable.NewLRU[layoutKey, layout.DayLayout](layoutCacheLen, nil, layoutCacheTTL),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password disables auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="PlanCal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/week", s.handleWeek)
	s.mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	s.mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)
	s.mux.HandleFunc("POST /api/drag", s.handleDrag)
	s.mux.HandleFunc("GET /day", s.handleDayPage)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handlePreview serves the last captured PNG of /day.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, PreviewPath(s.cfg))
}

// PreviewPath is where the capture step writes the /day screenshot.
func PreviewPath(cfg *config.Config) string {
	return filepath.Join(cfg.CacheDir, "preview.png")
}

// dayLayout returns the memoized layout of day in mode.
func (s *Server) dayLayout(day time.Time, mode layout.Mode) (layout.DayLayout, error) {
	key := layoutKey{day: day.Format(dateLayout), mode: mode, version: s.store.Version()}
	if l, ok := s.layouts.Get(key); ok {
		return l, nil
	}

	settings := s.settings
	settings.Mode = mode
	l, err := layout.BuildDay(day, s.store.Day(day), settings)
	if err != nil {
		return layout.DayLayout{}, err
	}
	s.layouts.Add(key, l)
	return l, nil
}

// parseDay reads ?date=YYYY-MM-DD in the display timezone; empty means today.
func (s *Server) parseDay(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return layout.StartOfDay(time.Now().In(s.loc)), nil
	}
	return time.ParseInLocation(dateLayout, v, s.loc)
}

// parseMode reads ?mode=, defaulting to the configured plan/record mode.
func (s *Server) parseMode(r *http.Request) (layout.Mode, error) {
	v := r.URL.Query().Get("mode")
	if v == "" {
		return s.settings.Mode, nil
	}
	switch m := layout.Mode(v); m {
	case layout.ModePlan, layout.ModeRecord, layout.ModeBoth:
		return m, nil
	default:
		return "", layout.ErrInvalidMode
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
