package storage

import (
	"context"
	"fmt"

	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

// Storage interface defines the contract for submission persistence.
//
// UpsertSubmissions is idempotent per id (last write wins on all fields)
// and reports how many records were newly inserted. QueryRange is inclusive
// on both bounds and returns results sorted by timestamp descending.
// Reset drops everything and recreates the backing structure with a
// timestamp index; a missing collection/table is not an error.
type Storage interface {
	UpsertSubmissions(ctx context.Context, subs []models.Submission) (added int, err error)
	QueryRange(ctx context.Context, start, end int64) ([]models.Submission, error)
	Reset(ctx context.Context) error
	Close() error
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "mongodb":
		return NewMongoDBStorage(cfg), nil
	case "dynamodb":
		return NewDynamoDBStorage(cfg)
	case "postgresql":
		return NewPostgreSQLStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
