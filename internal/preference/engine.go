package preference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Engine is the per-user learning and prediction core. All public methods
// are safe for concurrent use; rating calls for the same user serialize on
// the engine mutex so no two events mutate the profile at once.
//
// Persistence is best-effort: a failed save is logged and the in-memory
// state stays authoritative for the session.
type Engine struct {
	mu sync.Mutex

	userID    string
	params    Params
	extractor *Extractor
	store     ProfileStore
	clock     Clock
	logger    *slog.Logger

	latitude  float64
	longitude float64

	profile *PreferenceProfile
	history []RatingRecord
	tracker *AccuracyTracker
}

// EngineOptions configures a new Engine. Zero-value fields fall back to
// sensible defaults (system clock, default tables, default params).
type EngineOptions struct {
	UserID    string
	Params    Params
	Tables    *Tables
	Store     ProfileStore
	Clock     Clock
	Logger    *slog.Logger
	Latitude  float64
	Longitude float64
}

// NewEngine creates an engine with an empty default profile. Call Load to
// hydrate persisted state.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Tables == nil {
		opts.Tables = DefaultTables()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Params == (Params{}) {
		opts.Params = DefaultParams()
	}

	return &Engine{
		userID:    opts.UserID,
		params:    opts.Params,
		extractor: NewExtractor(opts.Tables),
		store:     opts.Store,
		clock:     opts.Clock,
		logger:    opts.Logger,
		latitude:  opts.Latitude,
		longitude: opts.Longitude,
		profile:   DefaultProfile(),
		tracker:   NewAccuracyTracker(nil),
	}
}

// Load hydrates the profile, rating history and stats from the store.
// A malformed persisted profile falls back to the default profile; load
// errors on history or stats degrade to empty state with a log line.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store == nil {
		return nil
	}

	persisted, err := e.store.LoadProfile(ctx, e.userID)
	switch {
	case errors.Is(err, ErrMalformedProfile):
		e.logger.Warn("Persisted profile is malformed, starting fresh", "user", e.userID, "error", err)
		persisted = nil
	case err != nil:
		return fmt.Errorf("failed to load profile: %w", err)
	}

	now := e.clock.Now()
	e.profile = MergeProfile(persisted)
	e.profile.ApplyDecay(now, e.params)
	e.profile.Prune(now, e.params)

	history, err := e.store.LoadRatingHistory(ctx, e.userID)
	if err != nil {
		e.logger.Warn("Failed to load rating history", "user", e.userID, "error", err)
		history = nil
	}
	e.history = pruneHistory(history, now, e.params)

	stats, err := e.store.LoadStats(ctx, e.userID)
	if err != nil {
		e.logger.Warn("Failed to load learning stats", "user", e.userID, "error", err)
		stats = nil
	}
	e.tracker = NewAccuracyTracker(stats)

	e.logger.Info("Preference profile loaded",
		"user", e.userID,
		"ratings", len(e.history),
		"totalRatings", e.tracker.Stats().TotalRatings)
	return nil
}

// RateMeal records a rating event: it predicts first (for accuracy
// bookkeeping), then updates preference scores, context maps, nutrition
// buckets and history, and persists best-effort.
func (e *Engine) RateMeal(ctx context.Context, mealName string, rating int, ratingCtx RatingContext) (result RateResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Rating processing panicked", "meal", mealName, "panic", r)
			result = RateResult{Success: false, Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	mealName = strings.TrimSpace(mealName)
	if mealName == "" {
		return RateResult{Success: false, Error: "meal name must not be empty"}
	}
	if rating < 1 || rating > 5 {
		return RateResult{Success: false, Error: fmt.Sprintf("rating %d out of range [1,5]", rating)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	ratingCtx = e.resolveContext(ratingCtx, now)
	features := e.extractor.Extract(mealName)

	// Predict against the pre-update profile so accuracy measures what
	// the engine believed before seeing this rating.
	prediction := predictRating(e.profile, features, ratingCtx, e.tracker.Stats().TotalRatings)

	e.tracker.AddRating()

	var accuracy *float64
	if prediction.Confidence > e.params.ConfidenceThreshold {
		a := 1 - math.Abs(prediction.Rating-float64(rating))/4
		accuracy = &a
		e.tracker.Record(a, now)
	}

	weight := learningWeight(rating, mealName, e.history, now, e.params)
	applyRating(e.profile, features, rating, ratingCtx, weight, e.params)

	e.profile.PreferenceHistory = append(e.profile.PreferenceHistory, HistoryEntry{
		Timestamp:   now,
		Description: fmt.Sprintf("rated %q %d/5", mealName, rating),
		Context:     ratingCtx,
	})
	e.profile.LastUpdated = now

	record := RatingRecord{
		ID:         uuid.New(),
		MealName:   mealName,
		Rating:     rating,
		Features:   features,
		Context:    ratingCtx,
		Prediction: &prediction,
		Accuracy:   accuracy,
		CreatedAt:  now,
	}
	e.history = append([]RatingRecord{record}, e.history...)
	if len(e.history) > e.params.MaxRatingHistory {
		e.history = e.history[:e.params.MaxRatingHistory]
	}

	e.persist(ctx)

	stats := e.tracker.Stats()
	return RateResult{
		Success:        true,
		Prediction:     &prediction,
		Accuracy:       accuracy,
		Feedback:       feedbackFor(rating),
		TotalRatings:   stats.TotalRatings,
		SystemAccuracy: stats.LearningAccuracy,
	}
}

// PredictRating predicts a 1..5 rating for a meal name without mutating
// any state
func (e *Engine) PredictRating(mealName string, ratingCtx RatingContext) Prediction {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	ratingCtx = e.resolveContext(ratingCtx, now)
	features := e.extractor.Extract(mealName)
	return predictRating(e.profile, features, ratingCtx, e.tracker.Stats().TotalRatings)
}

// ScoreCandidates ranks meal candidates by learned preference
func (e *Engine) ScoreCandidates(candidates []Candidate, userFoods []string) []ScoredCandidate {
	e.mu.Lock()
	defer e.mu.Unlock()

	return ScoreCandidates(e.profile, e.extractor, candidates, userFoods)
}

// PickCandidate scores the candidates and draws one by cumulative weight
func (e *Engine) PickCandidate(candidates []Candidate, userFoods []string, rng *rand.Rand) (ScoredCandidate, bool) {
	return WeightedDraw(e.ScoreCandidates(candidates, userFoods), rng)
}

// GetStats returns a copy of the current learning statistics
func (e *Engine) GetStats() LearningStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tracker.Stats()
}

// History returns a copy of the in-memory rating history, newest first
func (e *Engine) History() []RatingRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]RatingRecord, len(e.history))
	copy(out, e.history)
	return out
}

// ExportProfile serializes the current profile
func (e *Engine) ExportProfile() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return json.Marshal(e.profile)
}

// ImportProfile replaces the current profile with a deserialized blob,
// merged over defaults. The imported profile is persisted immediately.
func (e *Engine) ImportProfile(ctx context.Context, blob []byte) error {
	var imported PreferenceProfile
	if err := json.Unmarshal(blob, &imported); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProfile, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.profile = MergeProfile(&imported)
	e.persist(ctx)
	return nil
}

// resolveContext fills missing context fields from the clock
func (e *Engine) resolveContext(ratingCtx RatingContext, now time.Time) RatingContext {
	if ratingCtx.TimeOfDay == "" {
		ratingCtx.TimeOfDay = TimeOfDayFor(now)
	}
	if ratingCtx.Season == "" {
		ratingCtx.Season = SeasonFor(now)
	}
	if ratingCtx.Mood == "" {
		ratingCtx.Mood = "neutral"
	}
	if ratingCtx.DayOfWeek == "" {
		ratingCtx.DayOfWeek = strings.ToLower(now.Weekday().String())
	}
	ratingCtx.Daylight = Daylight(now, e.latitude, e.longitude)
	if ratingCtx.Timestamp.IsZero() {
		ratingCtx.Timestamp = now
	}
	return ratingCtx
}

// persist writes profile, history and stats best-effort. Failures are
// logged and do not invalidate the in-memory update.
func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveProfile(ctx, e.userID, e.profile); err != nil {
		e.logger.Warn("Failed to persist profile", "user", e.userID, "error", err)
	}
	if err := e.store.SaveRatingHistory(ctx, e.userID, e.history); err != nil {
		e.logger.Warn("Failed to persist rating history", "user", e.userID, "error", err)
	}
	if err := e.store.SaveStats(ctx, e.userID, e.tracker.Stats()); err != nil {
		e.logger.Warn("Failed to persist learning stats", "user", e.userID, "error", err)
	}
}

// pruneHistory drops records older than the retention window and caps the
// slice at the configured maximum, keeping the newest entries
func pruneHistory(records []RatingRecord, now time.Time, params Params) []RatingRecord {
	cutoff := now.Add(-params.HistoryRetention)
	kept := make([]RatingRecord, 0, len(records))
	for _, rec := range records {
		if rec.CreatedAt.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	if len(kept) > params.MaxRatingHistory {
		kept = kept[:params.MaxRatingHistory]
	}
	return kept
}

func feedbackFor(rating int) string {
	switch rating {
	case 5:
		return "Excellent, this one goes on the favorites list."
	case 4:
		return "Good to know, expect more meals like this."
	case 3:
		return "Noted, keeping this one neutral."
	case 2:
		return "Understood, meals like this will come up less often."
	default:
		return "Got it, this one is off the menu."
	}
}
