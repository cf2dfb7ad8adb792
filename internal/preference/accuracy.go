package preference

import "time"

// AccuracyTracker accumulates per-event prediction accuracy into the
// aggregate learning statistics
type AccuracyTracker struct {
	stats LearningStats
}

// NewAccuracyTracker creates a tracker, optionally seeded from persisted stats
func NewAccuracyTracker(seed *LearningStats) *AccuracyTracker {
	t := &AccuracyTracker{}
	if seed != nil {
		t.stats = *seed
	}
	return t
}

// AddRating counts a rating event and refreshes the aggregate ratio
func (t *AccuracyTracker) AddRating() {
	t.stats.TotalRatings++
	t.recompute()
}

// Record accumulates one prediction accuracy score in [0, 1]
func (t *AccuracyTracker) Record(accuracy float64, now time.Time) {
	t.stats.AccuratePredictions += accuracy
	t.stats.LastAccuracyUpdate = now
	t.recompute()
}

func (t *AccuracyTracker) recompute() {
	if t.stats.TotalRatings > 0 {
		t.stats.LearningAccuracy = t.stats.AccuratePredictions / float64(t.stats.TotalRatings)
	} else {
		t.stats.LearningAccuracy = 0
	}
}

// Stats returns a copy of the current statistics
func (t *AccuracyTracker) Stats() LearningStats {
	return t.stats
}
