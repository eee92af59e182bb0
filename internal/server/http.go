package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/coursechat-go/internal/corpus"
	"github.com/raphaelgruber/coursechat-go/internal/models"
	"github.com/raphaelgruber/coursechat-go/internal/service"
)

// HTTPServer exposes the assistant and corpus over a JSON API.
type HTTPServer struct {
	assistant *service.Assistant
	store     *corpus.Store
	logger    *slog.Logger
	srv       *http.Server
}

// NewHTTP creates the HTTP API server.
func NewHTTP(addr string, assistant *service.Assistant, store *corpus.Store, logger *slog.Logger) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HTTPServer{
		assistant: assistant,
		store:     store,
		logger:    logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, exported for tests.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/courses", s.handleCourses)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type sourcePayload struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type queryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []sourcePayload `json:"sources"`
	SessionID string          `json:"session_id"`
}

func (s *HTTPServer) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	answer, err := s.assistant.Answer(r.Context(), req.SessionID, req.Query)
	if err != nil {
		s.logger.Error("query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:    answer.Text,
		Sources:   sourcePayloads(answer.Sources),
		SessionID: answer.SessionID,
	})
}

func (s *HTTPServer) handleCourses(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read corpus statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *HTTPServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assistant.Metrics().Snapshot())
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func sourcePayloads(sources []models.Source) []sourcePayload {
	out := make([]sourcePayload, 0, len(sources))
	for _, src := range sources {
		out = append(out, sourcePayload{Text: src.Label(), Link: src.Link})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
