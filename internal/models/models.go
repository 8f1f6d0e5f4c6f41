package models

import "time"

// Submission is an accepted LeetCode submission after normalization.
// ID is the deduplication key; Timestamp is Unix seconds (upstream sends it
// as a string, parsed once at the client boundary and numeric everywhere else).
type Submission struct {
	ID         string `json:"id" bson:"id"`
	Title      string `json:"title" bson:"title"`
	TitleSlug  string `json:"titleSlug" bson:"titleSlug"`
	Timestamp  int64  `json:"timestamp" bson:"timestamp"`
	Status     string `json:"status,omitempty" bson:"status,omitempty"`
	Language   string `json:"language,omitempty" bson:"language,omitempty"`
	Difficulty string `json:"difficulty,omitempty" bson:"difficulty,omitempty"`
}

// DateRange is the min/max timestamp of an ingested batch.
type DateRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// IngestSummary reports one completed ingestion pass.
type IngestSummary struct {
	Total     int        `json:"total"`
	DateRange *DateRange `json:"dateRange"`
}

// RunStatus tracks the status of ingestion runs
type RunStatus struct {
	LastSuccessfulRun time.Time `json:"last_successful_run"`
	LastAttempt       time.Time `json:"last_attempt"`
	Status            string    `json:"status"` // "success", "failure", "running", "never_run"
	ErrorMessage      string    `json:"error_message,omitempty"`
	RecordsIngested   int       `json:"records_ingested"`
}
