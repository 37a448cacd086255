// Package httpapi exposes the scanner over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"GapSentinel/internal/gapscan"
	"GapSentinel/internal/model"
	"GapSentinel/internal/universe"
)

// Scanner is the part of gapscan.Service the API drives.
type Scanner interface {
	Run(ctx context.Context, opts gapscan.Options) (*model.Response, error)
	RefreshUniverse(ctx context.Context) (universe.RefreshResult, error)
}

// Server handles the scan trigger endpoints.
type Server struct {
	scanner Scanner
	now     func() time.Time
}

// NewServer creates a Server.
func NewServer(sc Scanner) *Server {
	return &Server{scanner: sc, now: time.Now}
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(s.recoverJSON)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": s.now()})
	})
	r.Get("/api/gap-scanner", s.handleScan)
	r.Post("/api/gap-scanner", s.handleAction)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found", "no route for "+r.URL.Path, s.now())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method+" is not supported here", s.now())
	})
	return r
}

// NewHTTPServer wraps the router in an http.Server. Scans can run for tens
// of minutes, so only header reads are bounded.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	opts, err := parseOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid parameter", err.Error(), start)
		return
	}
	resp, err := s.scanner.Run(r.Context(), opts)
	if err != nil {
		var failure *gapscan.Failure
		if errors.As(err, &failure) {
			writeJSON(w, http.StatusInternalServerError, failure.Response)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error(), "gap scan failed", start)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type actionRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	var req actionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body", err.Error(), start)
		return
	}
	switch req.Action {
	case "refresh-universe":
		res, err := s.scanner.RefreshUniverse(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error(), "universe refresh failed", start)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		s.writeError(w, http.StatusBadRequest, "unknown action", fmt.Sprintf("unsupported action %q", req.Action), start)
	}
}

// parseOptions reads scan parameters from the query string, falling back to
// the defaults for absent ones.
func parseOptions(r *http.Request) (gapscan.Options, error) {
	opts := gapscan.DefaultOptions()
	q := r.URL.Query()
	var err error
	if v := q.Get("dryRun"); v != "" {
		if opts.DryRun, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("dryRun: %w", err)
		}
	}
	if v := q.Get("forceRefresh"); v != "" {
		if opts.ForceRefresh, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("forceRefresh: %w", err)
		}
	}
	if v := q.Get("useCache"); v != "" {
		if opts.UseCache, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("useCache: %w", err)
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("limit must be a positive integer, got %q", v)
		}
		opts.Limit = n
	}
	if v := q.Get("minGap"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return opts, fmt.Errorf("minGap must be a positive number, got %q", v)
		}
		opts.MinGapPercent = f
	}
	return opts, nil
}

func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[ERROR] panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				s.writeError(w, http.StatusInternalServerError, fmt.Sprint(rec), "internal error", start)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeError(w http.ResponseWriter, status int, errMsg, message string, start time.Time) {
	now := s.now()
	writeJSON(w, status, model.ErrorResponse{
		Success:    false,
		Error:      errMsg,
		Message:    message,
		Timestamp:  now,
		DurationMs: now.Sub(start).Milliseconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}
