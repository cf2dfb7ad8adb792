package preference

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/palatehq/palate-platform/pkg/postgres"
)

// PostgresStore persists profiles and rating history as JSONB documents,
// one profile document per user. Rating rows carry a feature embedding
// for nearest-neighbour lookups.
type PostgresStore struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewPostgresStore creates a Postgres-backed profile store
func NewPostgresStore(pg postgres.Client, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		pg:     pg,
		logger: logger,
	}
}

// EnsureSchema creates the tables and the vector extension if missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS preference_profiles (
			user_id    TEXT PRIMARY KEY,
			profile    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS meal_ratings (
			id                   UUID PRIMARY KEY,
			user_id              TEXT NOT NULL,
			meal_name            TEXT NOT NULL,
			rating               INT NOT NULL,
			features             JSONB NOT NULL,
			context              JSONB NOT NULL,
			predicted_rating     DOUBLE PRECISION,
			predicted_confidence DOUBLE PRECISION,
			accuracy             DOUBLE PRECISION,
			feature_vec          vector(8),
			created_at           TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_meal_ratings_user_created
			ON meal_ratings (user_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS learning_stats (
			user_id              TEXT PRIMARY KEY,
			total_ratings        INT NOT NULL,
			accurate_predictions DOUBLE PRECISION NOT NULL,
			learning_accuracy    DOUBLE PRECISION NOT NULL,
			last_accuracy_update TIMESTAMPTZ
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pg.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema setup failed: %w", err)
		}
	}
	return nil
}

// LoadProfile loads the profile document for a user
func (s *PostgresStore) LoadProfile(ctx context.Context, userID string) (*PreferenceProfile, error) {
	var blob []byte
	err := s.pg.QueryRow(ctx,
		`SELECT profile FROM preference_profiles WHERE user_id = $1`, userID,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	var profile PreferenceProfile
	if err := json.Unmarshal(blob, &profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}
	return &profile, nil
}

// SaveProfile upserts the profile document for a user
func (s *PostgresStore) SaveProfile(ctx context.Context, userID string, profile *PreferenceProfile) error {
	blob, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	_, err = s.pg.Exec(ctx, `
		INSERT INTO preference_profiles (user_id, profile, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			profile = EXCLUDED.profile,
			updated_at = EXCLUDED.updated_at
	`, userID, blob)
	if err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", userID, err)
	}
	return nil
}

// LoadRatingHistory loads the most recent rating records, newest first
func (s *PostgresStore) LoadRatingHistory(ctx context.Context, userID string) ([]RatingRecord, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, meal_name, rating, features, context,
		       predicted_rating, predicted_confidence, accuracy, created_at
		FROM meal_ratings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history for %s: %w", userID, err)
	}
	defer rows.Close()

	var records []RatingRecord
	for rows.Next() {
		var (
			rec                 RatingRecord
			featuresJSON        []byte
			contextJSON         []byte
			predRating, predConf *float64
		)
		err := rows.Scan(
			&rec.ID,
			&rec.MealName,
			&rec.Rating,
			&featuresJSON,
			&contextJSON,
			&predRating,
			&predConf,
			&rec.Accuracy,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if err := json.Unmarshal(featuresJSON, &rec.Features); err != nil {
			s.logger.Warn("Skipping rating with malformed features", "id", rec.ID, "error", err)
			continue
		}
		if err := json.Unmarshal(contextJSON, &rec.Context); err != nil {
			s.logger.Warn("Skipping rating with malformed context", "id", rec.ID, "error", err)
			continue
		}
		if predRating != nil && predConf != nil {
			rec.Prediction = &Prediction{Rating: *predRating, Confidence: *predConf}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveRatingHistory inserts new records and prunes rows that fell out of
// the caller's bounded window. Existing rows are never rewritten.
func (s *PostgresStore) SaveRatingHistory(ctx context.Context, userID string, records []RatingRecord) error {
	return s.pg.Transaction(ctx, func(tx *sql.Tx) error {
		keep := make([]uuid.UUID, 0, len(records))
		for _, rec := range records {
			keep = append(keep, rec.ID)

			featuresJSON, err := json.Marshal(rec.Features)
			if err != nil {
				return fmt.Errorf("failed to serialize features: %w", err)
			}
			contextJSON, err := json.Marshal(rec.Context)
			if err != nil {
				return fmt.Errorf("failed to serialize context: %w", err)
			}

			var predRating, predConf *float64
			if rec.Prediction != nil {
				predRating = &rec.Prediction.Rating
				predConf = &rec.Prediction.Confidence
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO meal_ratings (
					id, user_id, meal_name, rating, features, context,
					predicted_rating, predicted_confidence, accuracy,
					feature_vec, created_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
				ON CONFLICT (id) DO NOTHING
			`,
				rec.ID, userID, rec.MealName, rec.Rating,
				featuresJSON, contextJSON,
				predRating, predConf, rec.Accuracy,
				rec.Features.Vector(), rec.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert rating: %w", err)
			}
		}

		// Drop rows outside the caller's retained window
		if len(keep) > 0 {
			var oldest time.Time
			for i, rec := range records {
				if i == 0 || rec.CreatedAt.Before(oldest) {
					oldest = rec.CreatedAt
				}
			}
			_, err := tx.ExecContext(ctx, `
				DELETE FROM meal_ratings
				WHERE user_id = $1 AND created_at < $2
			`, userID, oldest)
			if err != nil {
				return fmt.Errorf("failed to prune ratings: %w", err)
			}
		}
		return nil
	})
}

// LoadStats loads persisted learning statistics
func (s *PostgresStore) LoadStats(ctx context.Context, userID string) (*LearningStats, error) {
	var (
		stats      LearningStats
		lastUpdate sql.NullTime
	)
	err := s.pg.QueryRow(ctx, `
		SELECT total_ratings, accurate_predictions, learning_accuracy, last_accuracy_update
		FROM learning_stats
		WHERE user_id = $1
	`, userID).Scan(
		&stats.TotalRatings,
		&stats.AccuratePredictions,
		&stats.LearningAccuracy,
		&lastUpdate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stats for %s: %w", userID, err)
	}
	if lastUpdate.Valid {
		stats.LastAccuracyUpdate = lastUpdate.Time
	}
	return &stats, nil
}

// SaveStats upserts learning statistics
func (s *PostgresStore) SaveStats(ctx context.Context, userID string, stats LearningStats) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO learning_stats (
			user_id, total_ratings, accurate_predictions, learning_accuracy, last_accuracy_update
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			total_ratings = EXCLUDED.total_ratings,
			accurate_predictions = EXCLUDED.accurate_predictions,
			learning_accuracy = EXCLUDED.learning_accuracy,
			last_accuracy_update = EXCLUDED.last_accuracy_update
	`, userID, stats.TotalRatings, stats.AccuratePredictions, stats.LearningAccuracy, stats.LastAccuracyUpdate)
	if err != nil {
		return fmt.Errorf("failed to save stats for %s: %w", userID, err)
	}
	return nil
}

// SimilarRatings returns the rated meals closest to the given feature
// embedding, nearest first
func (s *PostgresStore) SimilarRatings(ctx context.Context, userID string, vec pgvector.Vector, limit int) ([]RatingRecord, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, meal_name, rating, features, context, accuracy, created_at
		FROM meal_ratings
		WHERE user_id = $1 AND feature_vec IS NOT NULL
		ORDER BY feature_vec <-> $2
		LIMIT $3
	`, userID, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var records []RatingRecord
	for rows.Next() {
		var (
			rec          RatingRecord
			featuresJSON []byte
			contextJSON  []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.MealName, &rec.Rating,
			&featuresJSON, &contextJSON, &rec.Accuracy, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if err := json.Unmarshal(featuresJSON, &rec.Features); err != nil {
			continue
		}
		if err := json.Unmarshal(contextJSON, &rec.Context); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
