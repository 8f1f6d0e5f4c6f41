package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

func TestNewStorage_UnsupportedType(t *testing.T) {
	_, err := NewStorage(config.StorageConfig{Type: "redis"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
}

func TestNewStorage_MongoDBIsLazy(t *testing.T) {
	// Construction must succeed with no URI; the connection is deferred
	// to first use.
	store, err := NewStorage(config.StorageConfig{Type: "mongodb"})

	assert.NoError(t, err)
	assert.IsType(t, &MongoDBStorage{}, store)
}

func TestMongoDBStorage_MissingURISurfacesOnFirstUse(t *testing.T) {
	store := NewMongoDBStorage(config.StorageConfig{
		Database:       "leetcode-tracker",
		CollectionName: "submissions",
	})

	_, err := store.UpsertSubmissions(context.Background(), []models.Submission{
		{ID: "1", Timestamp: 100},
	})

	assert.Error(t, err)
	var storageErr *apperr.StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Contains(t, err.Error(), "MONGODB_URI")
}

func TestMongoDBStorage_EmptyBatchIsNoop(t *testing.T) {
	store := NewMongoDBStorage(config.StorageConfig{})

	added, err := store.UpsertSubmissions(context.Background(), nil)

	assert.NoError(t, err)
	assert.Zero(t, added)
}

func TestMongoDBStorage_CloseWithoutConnect(t *testing.T) {
	store := NewMongoDBStorage(config.StorageConfig{})

	assert.NoError(t, store.Close())
}

func TestNewPostgreSQLStorage_MissingURI(t *testing.T) {
	_, err := NewPostgreSQLStorage(config.StorageConfig{Type: "postgresql"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_URI")
}
