package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/probeexporter/internal/domain"
	apimw "github.com/hamed0406/probeexporter/internal/httpapi/middleware"
	"github.com/hamed0406/probeexporter/internal/probe"
)

const (
	version           = "1.0.0"
	allTriggeredReply = "All checks triggered (Domain WHOIS + SSL Certificate + Port Connectivity + HTTP Availability)"
)

// TargetAdder persists a target so later batches pick it up.
type TargetAdder interface {
	AddTarget(ctx context.Context, kind domain.Kind, target string) error
}

type Options struct {
	ServiceName    string
	// Targets enables POST /api/{kind}/targets when set.
	Targets        TargetAdder
	Keys           apimw.Keys
	AllowedOrigins []string
	RatePerMinute  int
	RateBurst      int
}

type Server struct {
	Logger   *zap.Logger
	opts     Options
	monitors map[domain.Kind]Monitor
	order    []domain.Kind
}

func NewServer(l *zap.Logger, opts Options, monitors ...Monitor) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{Logger: l, opts: opts, monitors: make(map[domain.Kind]Monitor, len(monitors))}
	for _, m := range monitors {
		if _, dup := s.monitors[m.Kind()]; !dup {
			s.order = append(s.order, m.Kind())
		}
		s.monitors[m.Kind()] = m
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(s.opts.RatePerMinute, s.opts.RateBurst))

		r.Get("/monitor/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAdmin(s.opts.Keys))
			r.Post("/{kind}/check", s.handleTrigger)
			r.Post("/check/all", s.handleTriggerAll)
			r.Post("/monitor/check/all", s.handleTriggerAll)
			if s.opts.Targets != nil {
				r.Post("/{kind}/targets", s.handleAddTarget)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(apimw.RequireAny(s.opts.Keys))
			r.Get("/monitor/status/summary", s.handleSummary)
			r.Get("/{kind}/status", s.handleSnapshot)
			r.Get("/{kind}/status/{key}", s.handleLookup)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(msg))
}

// monitor resolves the {kind} path segment, answering 404 itself for an
// unknown kind.
func (s *Server) monitor(w http.ResponseWriter, r *http.Request) (Monitor, bool) {
	m, ok := s.monitors[domain.Kind(chi.URLParam(r, "kind"))]
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return m, true
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	m, ok := s.monitor(w, r)
	if !ok {
		return
	}
	m.Trigger()
	s.Logger.Info("check_triggered", zap.String("kind", string(m.Kind())), zap.String("remote", r.RemoteAddr))
	writeText(w, http.StatusAccepted, m.Triggered())
}

func (s *Server) handleTriggerAll(w http.ResponseWriter, r *http.Request) {
	for _, k := range s.order {
		s.monitors[k].Trigger()
	}
	s.Logger.Info("check_all_triggered", zap.Int("kinds", len(s.order)), zap.String("remote", r.RemoteAddr))
	writeText(w, http.StatusAccepted, allTriggeredReply)
}

type addPayload struct {
	Target string `json:"target"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	m, ok := s.monitor(w, r)
	if !ok {
		return
	}
	var p addPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	p.Target = strings.TrimSpace(p.Target)
	if !validTarget(m.Kind(), p.Target) {
		http.Error(w, "invalid target", http.StatusBadRequest)
		return
	}
	if err := s.opts.Targets.AddTarget(r.Context(), m.Kind(), p.Target); err != nil {
		s.Logger.Error("add_target_failed", zap.String("kind", string(m.Kind())), zap.String("target", p.Target), zap.Error(err))
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	// probe right away so the new target shows up without waiting a tick
	m.Trigger()
	s.Logger.Info("added_target", zap.String("kind", string(m.Kind())), zap.String("target", p.Target))
	writeJSON(w, http.StatusCreated, map[string]string{"kind": string(m.Kind()), "target": p.Target})
}

// validTarget rejects targets that could only ever produce INVALID_FORMAT or
// ERROR results.
func validTarget(kind domain.Kind, target string) bool {
	if target == "" || strings.ContainsAny(target, " \t\r\n") {
		return false
	}
	switch kind {
	case domain.KindPort:
		_, _, ok := probe.SplitTarget(target)
		return ok
	case domain.KindHTTP:
		u, err := url.Parse(target)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	default:
		return !strings.ContainsAny(target, "/:")
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	m, ok := s.monitor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	m, ok := s.monitor(w, r)
	if !ok {
		return
	}
	// chi hands back the raw segment when the path was escaped, so
	// "host%3A443" arrives here undecoded.
	key := chi.URLParam(r, "key")
	if k, err := url.PathUnescape(key); err == nil {
		key = k
	}
	res, found := m.Lookup(key)
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]map[string]int, len(s.order))
	for _, k := range s.order {
		out[string(k)] = s.monitors[k].Summary()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "UP",
		"service": s.opts.ServiceName,
		"version": version,
	})
}
