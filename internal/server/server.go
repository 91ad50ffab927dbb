// Package server is the realtime shell: a websocket endpoint that accepts one
// raw record per message and broadcasts one verdict per record to every
// connected client, plus small JSON APIs over the recent-verdict window.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/crimson-sun/warden/internal/model"
	"github.com/crimson-sun/warden/internal/observability"
	"github.com/crimson-sun/warden/internal/pipeline"
)

// recentCap bounds the in-memory verdict window served by /api/events.
const recentCap = 5000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server fans verdicts out to websocket clients and answers stats queries.
type Server struct {
	pipeline *pipeline.Pipeline
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu     sync.RWMutex
	conns  []*websocket.Conn
	recent []model.Verdict
}

// New creates a Server around a pipeline.
func New(p *pipeline.Pipeline, m *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{pipeline: p, metrics: m, logger: logger}
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws/alerts", s.handleWS)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/events", s.handleEvents)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// handleWS upgrades the connection, then loops: each inbound JSON record is
// triaged and the verdict broadcast to every client, sender included.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s.register(conn)
	defer s.unregister(conn)

	for {
		var raw model.RawRecord
		if err := conn.ReadJSON(&raw); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		verdict := s.pipeline.ProcessOne(raw)
		s.remember(verdict)
		s.broadcast(verdict)
	}
}

func (s *Server) register(conn *websocket.Conn) {
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	n := len(s.conns)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ClientConnected()
	}
	s.logger.Info("stream client connected", "clients", n)
}

func (s *Server) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	for i, c := range s.conns {
		if c == conn {
			s.conns = append(s.conns[:i], s.conns[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	conn.Close()
	if s.metrics != nil {
		s.metrics.ClientDisconnected()
	}
}

// broadcast sends the verdict to every connected client, dropping clients
// whose writes fail.
func (s *Server) broadcast(v model.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := s.conns[:0]
	for _, conn := range s.conns {
		if err := conn.WriteJSON(v); err != nil {
			conn.Close()
			if s.metrics != nil {
				s.metrics.ClientDisconnected()
			}
			continue
		}
		alive = append(alive, conn)
	}
	s.conns = alive
}

func (s *Server) remember(v model.Verdict) {
	s.mu.Lock()
	s.recent = append(s.recent, v)
	if len(s.recent) > recentCap {
		s.recent = s.recent[len(s.recent)-recentCap:]
	}
	s.mu.Unlock()
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	counts := make(map[model.Label]int)
	levels := make(map[model.SeverityLevel]int)
	degraded := 0
	for _, v := range s.recent {
		counts[v.Label]++
		levels[v.SeverityLevel]++
		if v.Degraded {
			degraded++
		}
	}
	total := len(s.recent)
	s.mu.RUnlock()

	writeJSON(w, map[string]any{
		"total":      total,
		"counts":     counts,
		"levels":     levels,
		"degraded":   degraded,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	s.mu.RLock()
	events := append([]model.Verdict(nil), s.recent...)
	s.mu.RUnlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > limit {
		events = events[:limit]
	}
	writeJSON(w, events)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}
