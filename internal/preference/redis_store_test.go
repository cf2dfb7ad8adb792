package preference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palatehq/palate-platform/pkg/redis"
)

// fakeRedis is an in-memory stand-in for the Redis client interface
type fakeRedis struct {
	strings map[string]string
	hashes  map[string]map[string]string
	lists   map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: make(map[string]string),
		hashes:  make(map[string]map[string]string),
		lists:   make(map[string][]string),
	}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.strings[key] = fmt.Sprintf("%v", value)
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.strings[key]
	if !ok {
		return "", fmt.Errorf("key %s: %w", key, redis.ErrNotFound)
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, key string) error {
	delete(f.strings, key)
	delete(f.lists, key)
	delete(f.hashes, key)
	return nil
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) error {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	for i := 0; i+1 < len(values); i += 2 {
		f.hashes[key][fmt.Sprintf("%v", values[i])] = fmt.Sprintf("%v", values[i+1])
	}
	return nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) error {
	for _, v := range values {
		f.lists[key] = append([]string{fmt.Sprintf("%v", v)}, f.lists[key]...)
	}
	return nil
}

func (f *fakeRedis) LTrim(ctx context.Context, key string, start, stop int64) error {
	list := f.lists[key]
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		f.lists[key] = nil
		return nil
	}
	f.lists[key] = list[start : stop+1]
	return nil
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	list := f.lists[key]
	if stop < 0 || stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return list[start : stop+1], nil
}

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }
func (f *fakeRedis) Close() error                   { return nil }

func TestRedisStore_ProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newFakeRedis(), 200, slog.Default())

	// Missing profile is not an error
	loaded, err := store.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 1.2
	profile.LearningConfidence["chicken"] = 0.3
	require.NoError(t, store.SaveProfile(ctx, "alice", profile))

	loaded, err = store.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1.2, loaded.IngredientScores["chicken"])
	assert.Equal(t, 0.3, loaded.LearningConfidence["chicken"])
}

func TestRedisStore_MalformedProfile(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.strings[redis.ProfileKey("alice")] = `{"ingredientScores": {`

	store := NewRedisStore(rdb, 200, slog.Default())
	_, err := store.LoadProfile(ctx, "alice")
	assert.True(t, errors.Is(err, ErrMalformedProfile))
}

func TestRedisStore_HistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newFakeRedis(), 200, slog.Default())

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []RatingRecord{
		{ID: uuid.New(), MealName: "Newest", Rating: 5, CreatedAt: now},
		{ID: uuid.New(), MealName: "Oldest", Rating: 3, CreatedAt: now.Add(-time.Hour)},
	}
	require.NoError(t, store.SaveRatingHistory(ctx, "alice", records))

	loaded, err := store.LoadRatingHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Newest", loaded[0].MealName)
	assert.Equal(t, "Oldest", loaded[1].MealName)
}

func TestRedisStore_HistoryTrimmed(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newFakeRedis(), 3, slog.Default())

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var records []RatingRecord
	for i := 0; i < 5; i++ {
		records = append(records, RatingRecord{
			ID:        uuid.New(),
			MealName:  fmt.Sprintf("Meal %d", i),
			Rating:    4,
			CreatedAt: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	require.NoError(t, store.SaveRatingHistory(ctx, "alice", records))

	loaded, err := store.LoadRatingHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "Meal 0", loaded[0].MealName)
}

func TestRedisStore_StatsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(newFakeRedis(), 200, slog.Default())

	// Missing stats are not an error
	loaded, err := store.LoadStats(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	stats := LearningStats{
		TotalRatings:        12,
		AccuratePredictions: 9.5,
		LearningAccuracy:    9.5 / 12,
		LastAccuracyUpdate:  now,
	}
	require.NoError(t, store.SaveStats(ctx, "alice", stats))

	loaded, err = store.LoadStats(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 12, loaded.TotalRatings)
	assert.Equal(t, 9.5, loaded.AccuratePredictions)
	assert.True(t, loaded.LastAccuracyUpdate.Equal(now))
}
