// SPDX-License-Identifier: Apache-2.0

// Package server is a development stand-in for the local backend. It
// answers the same HTTP routes the wizard calls.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"

	"github.com/Work-Fort/Onboard/pkg/api"
	"github.com/Work-Fort/Onboard/pkg/prefs"
)

// TelemetryLog is the file received events are appended to
const TelemetryLog = "telemetry.log"

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Server holds the backend state
type Server struct {
	dataDir string
	clock   clockwork.Clock
	router  *mux.Router

	mu          sync.Mutex
	preferences *prefs.Preferences
	onboarded   *prefs.Preferences
}

// New creates a server writing its files under dataDir
func New(dataDir string, clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Server{dataDir: dataDir, clock: clock, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/telemetry", s.telemetry).Methods(http.MethodPost)
	s.router.HandleFunc("/onboarding", s.onboarding).Methods(http.MethodPost)
	s.router.HandleFunc("/preferences", s.getPreferences).Methods(http.MethodGet)
	s.router.HandleFunc("/preferences", s.savePreferences).Methods(http.MethodPost)
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening", "addr", l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("backend shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ListenAndServe listens on addr and serves until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", s.clock.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.Health{Status: "ok"})
}

func (s *Server) telemetry(w http.ResponseWriter, r *http.Request) {
	var payload api.TelemetryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid telemetry payload")
		return
	}
	if payload.Event == "" {
		writeError(w, http.StatusBadRequest, "event is required")
		return
	}

	line, err := json.Marshal(struct {
		Received string         `json:"received"`
		Event    string         `json:"event"`
		Details  map[string]any `json:"details"`
	}{s.clock.Now().UTC().Format(time.RFC3339), payload.Event, payload.Details})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode event")
		return
	}

	if err := s.appendTelemetry(line); err != nil {
		log.Error("failed to record telemetry", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "received"})
}

func (s *Server) appendTelemetry(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.dataDir, TelemetryLog), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *Server) onboarding(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid onboarding payload")
		return
	}
	p = p.Normalize()

	// The final preferences become the stored ones
	s.mu.Lock()
	s.preferences = &p
	s.onboarded = &p
	s.mu.Unlock()

	log.Info("onboarding completed", "theme", p.Theme, "telemetry", p.Telemetry)
	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "saved"})
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := prefs.Default()
	if s.preferences != nil {
		p = *s.preferences
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) savePreferences(w http.ResponseWriter, r *http.Request) {
	var p prefs.Preferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid preferences")
		return
	}
	p = p.Normalize()

	s.mu.Lock()
	s.preferences = &p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, api.StatusResponse{Status: "updated"})
}

// Onboarded returns the preferences of the last onboarding report, if any
func (s *Server) Onboarded() *prefs.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onboarded
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg, Code: status})
}
