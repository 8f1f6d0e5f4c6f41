package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/terskinalex/leetcode-activity-tracker/internal/apperr"
	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

// MongoDBStorage implements Storage using a MongoDB collection of
// Submission documents keyed by id with a secondary index on timestamp.
// The client is a process-lifetime resource connected lazily on first use,
// so a missing URI is a configuration error surfaced at the first
// operation rather than a crash at startup.
type MongoDBStorage struct {
	cfg config.StorageConfig

	mu     sync.Mutex
	client *mongo.Client
}

// NewMongoDBStorage creates a MongoDB storage instance. No connection is
// established here.
func NewMongoDBStorage(cfg config.StorageConfig) *MongoDBStorage {
	return &MongoDBStorage{cfg: cfg}
}

// collection returns the submissions collection, connecting on first use.
func (m *MongoDBStorage) collection(ctx context.Context) (*mongo.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if m.cfg.MongoDBURI == "" {
			return nil, apperr.Storage(nil, "MONGODB_URI is not configured")
		}

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(m.cfg.MongoDBURI))
		if err != nil {
			return nil, apperr.Storage(err, "failed to connect to MongoDB")
		}
		if err := client.Ping(connectCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, apperr.Storage(err, "failed to ping MongoDB")
		}
		m.client = client
	}

	return m.client.Database(m.cfg.Database).Collection(m.cfg.CollectionName), nil
}

// UpsertSubmissions writes the batch as a single bulk upsert-by-id. Each
// record's write is atomic; replaying the same batch inserts nothing and
// returns added = 0.
func (m *MongoDBStorage) UpsertSubmissions(ctx context.Context, subs []models.Submission) (int, error) {
	if len(subs) == 0 {
		return 0, nil
	}

	coll, err := m.collection(ctx)
	if err != nil {
		return 0, err
	}

	ops := make([]mongo.WriteModel, len(subs))
	for i, sub := range subs {
		ops[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": sub.ID}).
			SetUpdate(bson.M{"$set": sub}).
			SetUpsert(true)
	}

	result, err := coll.BulkWrite(ctx, ops)
	if err != nil {
		return 0, apperr.Storage(err, "failed to upsert submissions")
	}

	return int(result.UpsertedCount), nil
}

// QueryRange returns submissions with start <= timestamp <= end, newest first.
func (m *MongoDBStorage) QueryRange(ctx context.Context, start, end int64) ([]models.Submission, error) {
	coll, err := m.collection(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"timestamp": bson.M{
			"$gte": start,
			"$lte": end,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Storage(err, "failed to query submissions")
	}
	defer cursor.Close(ctx)

	var subs []models.Submission
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, apperr.Storage(err, "failed to decode submissions")
	}

	return subs, nil
}

// Reset drops the submissions collection and recreates it with a
// descending timestamp index. A collection that does not exist yet is
// treated as already dropped.
func (m *MongoDBStorage) Reset(ctx context.Context) error {
	coll, err := m.collection(ctx)
	if err != nil {
		return err
	}

	if err := coll.Drop(ctx); err != nil && !isNamespaceNotFound(err) {
		return apperr.Storage(err, "failed to drop submissions collection")
	}

	db := m.client.Database(m.cfg.Database)
	if err := db.CreateCollection(ctx, m.cfg.CollectionName); err != nil {
		return apperr.Storage(err, "failed to create submissions collection")
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	}
	if _, err := db.Collection(m.cfg.CollectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return apperr.Storage(err, "failed to create timestamp index")
	}

	return nil
}

func isNamespaceNotFound(err error) bool {
	var cmdErr mongo.CommandError
	return errors.As(err, &cmdErr) && cmdErr.Code == 26
}

// Close disconnects the MongoDB client if it was ever connected.
func (m *MongoDBStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(context.Background())
	m.client = nil
	return err
}
