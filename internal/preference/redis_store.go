package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/palatehq/palate-platform/pkg/redis"
)

// RedisStore persists profiles and rating history in Redis. It backs the
// local single-household mode where Postgres is not available, and loses
// nothing the engine needs: profile and stats as JSON/hash values, history
// as a bounded list.
type RedisStore struct {
	rdb        redis.Client
	logger     *slog.Logger
	maxHistory int
}

// NewRedisStore creates a Redis-backed profile store
func NewRedisStore(rdb redis.Client, maxHistory int, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		rdb:        rdb,
		logger:     logger,
		maxHistory: maxHistory,
	}
}

// LoadProfile loads the profile document for a user
func (s *RedisStore) LoadProfile(ctx context.Context, userID string) (*PreferenceProfile, error) {
	raw, err := s.rdb.Get(ctx, redis.ProfileKey(userID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	var profile PreferenceProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	return &profile, nil
}

// SaveProfile stores the profile document for a user
func (s *RedisStore) SaveProfile(ctx context.Context, userID string, profile *PreferenceProfile) error {
	blob, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}
	if err := s.rdb.Set(ctx, redis.ProfileKey(userID), string(blob), 0); err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", userID, err)
	}
	return nil
}

// LoadRatingHistory loads the stored rating records, newest first
func (s *RedisStore) LoadRatingHistory(ctx context.Context, userID string) ([]RatingRecord, error) {
	entries, err := s.rdb.LRange(ctx, redis.RatingsKey(userID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history for %s: %w", userID, err)
	}

	records := make([]RatingRecord, 0, len(entries))
	for _, entry := range entries {
		var rec RatingRecord
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			s.logger.Warn("Skipping malformed rating entry", "user", userID, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// SaveRatingHistory replaces the stored history with the given records.
// Records arrive newest first and are pushed oldest first so the list
// head stays the most recent rating.
func (s *RedisStore) SaveRatingHistory(ctx context.Context, userID string, records []RatingRecord) error {
	key := redis.RatingsKey(userID)
	if err := s.rdb.Del(ctx, key); err != nil {
		return fmt.Errorf("failed to reset rating history for %s: %w", userID, err)
	}

	for i := len(records) - 1; i >= 0; i-- {
		blob, err := json.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("failed to serialize rating: %w", err)
		}
		if err := s.rdb.LPush(ctx, key, string(blob)); err != nil {
			return fmt.Errorf("failed to push rating: %w", err)
		}
	}

	if s.maxHistory > 0 {
		if err := s.rdb.LTrim(ctx, key, 0, int64(s.maxHistory-1)); err != nil {
			return fmt.Errorf("failed to trim rating history: %w", err)
		}
	}
	return nil
}

// LoadStats loads persisted learning statistics
func (s *RedisStore) LoadStats(ctx context.Context, userID string) (*LearningStats, error) {
	fields, err := s.rdb.HGetAll(ctx, redis.StatsKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	stats := &LearningStats{}
	if v, ok := fields["totalRatings"]; ok {
		stats.TotalRatings, _ = strconv.Atoi(v)
	}
	if v, ok := fields["accuratePredictions"]; ok {
		stats.AccuratePredictions, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := fields["learningAccuracy"]; ok {
		stats.LearningAccuracy, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := fields["lastAccuracyUpdate"]; ok && v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			stats.LastAccuracyUpdate = t
		}
	}
	return stats, nil
}

// SaveStats stores learning statistics as a hash
func (s *RedisStore) SaveStats(ctx context.Context, userID string, stats LearningStats) error {
	lastUpdate := ""
	if !stats.LastAccuracyUpdate.IsZero() {
		lastUpdate = stats.LastAccuracyUpdate.Format(time.RFC3339Nano)
	}
	err := s.rdb.HSet(ctx, redis.StatsKey(userID),
		"totalRatings", strconv.Itoa(stats.TotalRatings),
		"accuratePredictions", strconv.FormatFloat(stats.AccuratePredictions, 'f', -1, 64),
		"learningAccuracy", strconv.FormatFloat(stats.LearningAccuracy, 'f', -1, 64),
		"lastAccuracyUpdate", lastUpdate,
	)
	if err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", userID, err)
	}
	return nil
}
