package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/leetcode"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
	"github.com/terskinalex/leetcode-activity-tracker/internal/storage"
)

// Fetcher produces the complete upstream record set for a user.
type Fetcher interface {
	FetchSubmissions(ctx context.Context, username string) ([]leetcode.RawSubmission, error)
}

// Service orchestrates one ingestion pass: fetch -> normalize -> upsert.
type Service struct {
	config  config.IngestionConfig
	fetcher Fetcher
	storage storage.Storage

	statusMu sync.RWMutex
	status   models.RunStatus
}

// NewService creates a new ingestion service
func NewService(cfg config.IngestionConfig, fetcher Fetcher, store storage.Storage) *Service {
	return &Service{
		config:  cfg,
		fetcher: fetcher,
		storage: store,
		status:  models.RunStatus{Status: "never_run"},
	}
}

// Normalize maps raw upstream records to the canonical Submission shape,
// keeping only those inside the inclusive window [since, now]. A zero
// since means no window is configured and everything passes. Pure: no
// I/O, deterministic for the same input and window.
func Normalize(raw []leetcode.RawSubmission, since, now int64) []models.Submission {
	subs := make([]models.Submission, 0, len(raw))
	for _, r := range raw {
		ts := int64(r.Timestamp)
		if since > 0 && (ts < since || ts > now) {
			continue
		}
		subs = append(subs, models.Submission{
			ID:        r.ID,
			Title:     r.Title,
			TitleSlug: r.TitleSlug,
			Timestamp: ts,
			Status:    r.StatusDisplay,
			Language:  r.Lang,
		})
	}
	return subs
}

// IngestUser runs one full pass for the given username and returns the
// ingested submissions with a summary. Any stage failure aborts the pass
// with that stage's error; nothing beyond per-record upserts is committed.
func (s *Service) IngestUser(ctx context.Context, username string) ([]models.Submission, *models.IngestSummary, error) {
	s.setRunning()

	raw, err := s.fetcher.FetchSubmissions(ctx, username)
	if err != nil {
		s.setFailed(err)
		return nil, nil, err
	}

	subs := Normalize(raw, s.config.SinceCutoff, time.Now().UTC().Unix())

	added, err := s.storage.UpsertSubmissions(ctx, subs)
	if err != nil {
		s.setFailed(err)
		return nil, nil, err
	}

	summary := summarize(subs)
	s.setSucceeded(summary.Total)
	slog.Info("ingestion pass complete",
		"username", username,
		"fetched", len(raw),
		"ingested", summary.Total,
		"added", added)

	return subs, summary, nil
}

// summarize computes the count and min/max timestamp of a batch.
func summarize(subs []models.Submission) *models.IngestSummary {
	summary := &models.IngestSummary{Total: len(subs)}
	if len(subs) == 0 {
		return summary
	}

	min, max := subs[0].Timestamp, subs[0].Timestamp
	for _, sub := range subs[1:] {
		if sub.Timestamp < min {
			min = sub.Timestamp
		}
		if sub.Timestamp > max {
			max = sub.Timestamp
		}
	}
	summary.DateRange = &models.DateRange{From: min, To: max}
	return summary
}

// Start runs periodic ingestion passes for the configured default username.
// It returns immediately with nil when no username or interval is set.
func (s *Service) Start(ctx context.Context) error {
	if s.config.Username == "" || s.config.Interval <= 0 {
		slog.Info("periodic ingestion disabled")
		return nil
	}

	if _, _, err := s.IngestUser(ctx, s.config.Username); err != nil {
		slog.Error("initial ingestion failed", "error", err)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, _, err := s.IngestUser(ctx, s.config.Username); err != nil {
				// Log error but don't stop the service
				slog.Error("periodic ingestion failed", "error", err)
			}
		}
	}
}

// Status returns a snapshot of the last run state.
func (s *Service) Status() models.RunStatus {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Service) setRunning() {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.LastAttempt = time.Now().UTC()
	s.status.Status = "running"
	s.status.ErrorMessage = ""
}

func (s *Service) setFailed(err error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Status = "failure"
	s.status.ErrorMessage = err.Error()
}

func (s *Service) setSucceeded(records int) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Status = "success"
	s.status.LastSuccessfulRun = time.Now().UTC()
	s.status.RecordsIngested = records
}
