package scoreboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"scoresync/internal/metrics"
	"scoresync/internal/store"
	"scoresync/internal/transport"
)

// StateReporter exposes the socket state for the status endpoint.
type StateReporter interface {
	State() transport.State
}

// Server is the read-only HTTP surface for spectator displays. It only
// ever reads store snapshots; all mutation goes through the controller.
type Server struct {
	store    *store.Store
	socket   StateReporter
	recorder *metrics.Recorder
}

func NewServer(st *store.Store, socket StateReporter, recorder *metrics.Recorder) *Server {
	return &Server{store: st, socket: socket, recorder: recorder}
}

// Routes builds the router. metricsHandler may be nil when telemetry is
// disabled.
func (s *Server) Routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/healthz", s.healthz)
	r.Get("/status", s.status)
	r.Get("/matches", s.listMatches)
	r.Get("/matches/{id}", s.getMatch)
	r.Get("/matches/{id}/games", s.listGames)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}
	return r
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.recorder.RecordHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(started))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	state := "unknown"
	if s.socket != nil {
		state = s.socket.State().String()
	}
	writeJSON(w, map[string]any{
		"socket":  state,
		"matches": len(s.store.Snapshot()),
	})
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.Snapshot())
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	m, ok := s.store.MatchSnapshot(id)
	if !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, m)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid match id", http.StatusBadRequest)
		return
	}
	if _, ok := s.store.MatchSnapshot(id); !ok {
		http.Error(w, "match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, s.store.GamesSnapshot(id))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
