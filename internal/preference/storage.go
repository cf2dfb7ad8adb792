package preference

import (
	"context"
	"errors"
)

// ErrMalformedProfile marks a persisted profile blob that failed to parse.
// Callers fall back to the default profile; the corrupt blob is not
// retried automatically.
var ErrMalformedProfile = errors.New("malformed preference profile")

// ProfileStore is the persistence collaborator for the engine. Load
// methods return (nil, nil) when nothing is persisted yet. Save failures
// are reported as errors; the engine logs them and keeps its in-memory
// state authoritative for the session.
type ProfileStore interface {
	LoadProfile(ctx context.Context, userID string) (*PreferenceProfile, error)
	SaveProfile(ctx context.Context, userID string, profile *PreferenceProfile) error

	LoadRatingHistory(ctx context.Context, userID string) ([]RatingRecord, error)
	SaveRatingHistory(ctx context.Context, userID string, records []RatingRecord) error

	LoadStats(ctx context.Context, userID string) (*LearningStats, error)
	SaveStats(ctx context.Context, userID string, stats LearningStats) error
}
