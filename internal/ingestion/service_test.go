package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/terskinalex/leetcode-activity-tracker/internal/config"
	"github.com/terskinalex/leetcode-activity-tracker/internal/leetcode"
	"github.com/terskinalex/leetcode-activity-tracker/internal/models"
)

// MockStorage is a mock implementation of the Storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UpsertSubmissions(ctx context.Context, subs []models.Submission) (int, error) {
	args := m.Called(ctx, subs)
	return args.Int(0), args.Error(1)
}

func (m *MockStorage) QueryRange(ctx context.Context, start, end int64) ([]models.Submission, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).([]models.Submission), args.Error(1)
}

func (m *MockStorage) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

// fakeFetcher returns a canned record set or error.
type fakeFetcher struct {
	raw []leetcode.RawSubmission
	err error
}

func (f *fakeFetcher) FetchSubmissions(ctx context.Context, username string) ([]leetcode.RawSubmission, error) {
	return f.raw, f.err
}

func TestNormalize_WindowFilter(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "a", Title: "Old", TitleSlug: "old", Timestamp: 100},
		{ID: "b", Title: "Mid", TitleSlug: "mid", Timestamp: 200},
		{ID: "c", Title: "New", TitleSlug: "new", Timestamp: 300},
	}

	subs := Normalize(raw, 150, 1000)

	assert.Len(t, subs, 2)
	assert.Equal(t, "b", subs[0].ID)
	assert.Equal(t, int64(200), subs[0].Timestamp)
	assert.Equal(t, "c", subs[1].ID)
}

func TestNormalize_WindowInclusiveBounds(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "low", Timestamp: 150},
		{ID: "high", Timestamp: 1000},
		{ID: "below", Timestamp: 149},
		{ID: "above", Timestamp: 1001},
	}

	subs := Normalize(raw, 150, 1000)

	assert.Len(t, subs, 2)
	assert.Equal(t, "low", subs[0].ID)
	assert.Equal(t, "high", subs[1].ID)
}

func TestNormalize_NoWindowKeepsAll(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "a", Timestamp: 1},
		{ID: "b", Timestamp: 1 << 40},
	}

	subs := Normalize(raw, 0, time.Now().Unix())

	assert.Len(t, subs, 2)
}

func TestNormalize_MissingOptionalFields(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "a", Title: "Two Sum", TitleSlug: "two-sum", Timestamp: 500},
	}

	subs := Normalize(raw, 0, 1000)

	assert.Len(t, subs, 1)
	assert.Empty(t, subs[0].Status)
	assert.Empty(t, subs[0].Language)
	assert.Empty(t, subs[0].Difficulty)
}

func TestService_IngestUser(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "1", Title: "Two Sum", TitleSlug: "two-sum", Timestamp: 1700000100},
		{ID: "2", Title: "LRU Cache", TitleSlug: "lru-cache", Timestamp: 1700000300},
	}

	mockStorage := new(MockStorage)
	mockStorage.On("UpsertSubmissions", mock.Anything, mock.AnythingOfType("[]models.Submission")).Return(2, nil)

	service := NewService(config.IngestionConfig{}, &fakeFetcher{raw: raw}, mockStorage)
	subs, summary, err := service.IngestUser(context.Background(), "testuser")

	assert.NoError(t, err)
	assert.Len(t, subs, 2)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, int64(1700000100), summary.DateRange.From)
	assert.Equal(t, int64(1700000300), summary.DateRange.To)
	assert.Equal(t, "success", service.Status().Status)
	assert.Equal(t, 2, service.Status().RecordsIngested)
	mockStorage.AssertExpectations(t)
}

func TestService_IngestUser_FilterBeforeStore(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "1", Timestamp: 100},
		{ID: "2", Timestamp: 200},
		{ID: "3", Timestamp: 300},
	}

	var stored []models.Submission
	mockStorage := new(MockStorage)
	mockStorage.On("UpsertSubmissions", mock.Anything, mock.AnythingOfType("[]models.Submission")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]models.Submission)
		}).
		Return(2, nil)

	cfg := config.IngestionConfig{SinceCutoff: 150}
	service := NewService(cfg, &fakeFetcher{raw: raw}, mockStorage)
	_, summary, err := service.IngestUser(context.Background(), "testuser")

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	// Records before the cutoff never reach storage.
	assert.Len(t, stored, 2)
	assert.Equal(t, "2", stored[0].ID)
	assert.Equal(t, "3", stored[1].ID)
}

func TestService_IngestUser_EmptyResult(t *testing.T) {
	mockStorage := new(MockStorage)
	mockStorage.On("UpsertSubmissions", mock.Anything, mock.AnythingOfType("[]models.Submission")).Return(0, nil)

	service := NewService(config.IngestionConfig{}, &fakeFetcher{}, mockStorage)
	subs, summary, err := service.IngestUser(context.Background(), "testuser")

	assert.NoError(t, err)
	assert.Empty(t, subs)
	assert.Equal(t, 0, summary.Total)
	assert.Nil(t, summary.DateRange)
}

func TestService_IngestUser_FetchError(t *testing.T) {
	mockStorage := new(MockStorage)

	service := NewService(config.IngestionConfig{}, &fakeFetcher{err: errors.New("upstream down")}, mockStorage)
	_, _, err := service.IngestUser(context.Background(), "testuser")

	assert.Error(t, err)
	assert.Equal(t, "failure", service.Status().Status)
	assert.Contains(t, service.Status().ErrorMessage, "upstream down")
	// Nothing is written when the fetch fails.
	mockStorage.AssertNotCalled(t, "UpsertSubmissions", mock.Anything, mock.Anything)
}

func TestService_IngestUser_StorageError(t *testing.T) {
	raw := []leetcode.RawSubmission{
		{ID: "1", Timestamp: 100},
	}

	mockStorage := new(MockStorage)
	mockStorage.On("UpsertSubmissions", mock.Anything, mock.AnythingOfType("[]models.Submission")).Return(0, assert.AnError)

	service := NewService(config.IngestionConfig{}, &fakeFetcher{raw: raw}, mockStorage)
	_, _, err := service.IngestUser(context.Background(), "testuser")

	assert.Error(t, err)
	assert.Equal(t, "failure", service.Status().Status)
	mockStorage.AssertExpectations(t)
}

func TestService_Start_DisabledWithoutUsername(t *testing.T) {
	mockStorage := new(MockStorage)
	service := NewService(config.IngestionConfig{Interval: time.Minute}, &fakeFetcher{}, mockStorage)

	err := service.Start(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, "never_run", service.Status().Status)
}
