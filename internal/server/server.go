package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
	"github.com/terskinalex/leetcode-activity-tracker/internal/storage"
)

// Ingestor is the coordinator surface the server triggers.
type Ingestor interface {
	IngestUser(ctx context.Context, username string) ([]models.Submission, *models.IngestSummary, error)
	Status() models.RunStatus
}

// Server handles HTTP requests
type Server struct {
	config   config.ServerConfig
	storage  storage.Storage
	ingestor Ingestor
	server   *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, store storage.Storage, ingestor Ingestor) *Server {
	s := &Server{
		config:   cfg,
		storage:  store,
		ingestor: ingestor,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/submissions", s.handleSubmissions)
	mux.HandleFunc("/submissions/daily", s.handleDailyCounts)
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/seed", s.handleSeed)
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

// Handler exposes the configured mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto status codes: validation errors
// are the caller's fault, everything else is a server-side failure.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseDateRange converts calendar dates (YYYY-MM-DD) to inclusive UTC
// day-boundary Unix timestamps: start of startDate through the last
// second of endDate.
func parseDateRange(startDate, endDate string) (int64, int64, error) {
	if startDate == "" || endDate == "" {
		return 0, 0, apperr.Validation("startDate and endDate are required")
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return 0, 0, apperr.Validation("invalid startDate %q", startDate)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return 0, 0, apperr.Validation("invalid endDate %q", endDate)
	}

	endOfDay := end.Add(24*time.Hour - time.Second)
	return start.Unix(), endOfDay.Unix(), nil
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleIngest triggers one full ingestion pass for a username.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	username := r.URL.Query().Get("username")
	if username == "" {
		writeError(w, apperr.Validation("username is required"))
		return
	}

	subs, summary, err := s.ingestor.IngestUser(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"submissions": subs,
		"stats":       summary,
	})
}

// handleSubmissions serves range queries and bulk idempotent writes.
func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleRangeQuery(w, r)
	case http.MethodPost:
		s.handleBulkStore(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRangeQuery(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	subs, err := s.storage.QueryRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if subs == nil {
		subs = []models.Submission{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (s *Server) handleBulkStore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Submissions []models.Submission `json:"submissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	added, err := s.storage.UpsertSubmissions(r.Context(), body.Submissions)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// handleDailyCounts aggregates the range query into per-day counts, the
// shape the activity chart consumes.
func (s *Server) handleDailyCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start, end, err := parseDateRange(
		r.URL.Query().Get("startDate"),
		r.URL.Query().Get("endDate"),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	subs, err := s.storage.QueryRange(r.Context(), start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	counts := make(map[string]int)
	for _, sub := range subs {
		day := time.Unix(sub.Timestamp, 0).UTC().Format("2006-01-02")
		counts[day]++
	}

	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// handleReset drops and recreates the submissions collection.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.storage.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Collection reset successfully"})
}

// handleSeed resets the store and loads deterministic submissions across
// the last seven days, for exercising the dashboard without upstream calls.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.storage.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	seeds := seedSubmissions(time.Now().UTC())
	if _, err := s.storage.UpsertSubmissions(r.Context(), seeds); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Test data seeded successfully",
		"count":   len(seeds),
	})
}

// seedSubmissions generates one to three submissions per day for the seven
// days ending at now.
func seedSubmissions(now time.Time) []models.Submission {
	var seeds []models.Submission
	for i := 0; i < 7; i++ {
		day := now.AddDate(0, 0, -i)
		perDay := i%3 + 1
		for j := 0; j < perDay; j++ {
			seeds = append(seeds, models.Submission{
				ID:        fmt.Sprintf("test-%d-%d", i, j),
				Title:     fmt.Sprintf("Test Problem %d", i+1),
				TitleSlug: fmt.Sprintf("test-problem-%d", i+1),
				Timestamp: day.Unix(),
			})
		}
	}
	return seeds
}

// handleStatus reports the coordinator's last run state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, s.ingestor.Status())
}
