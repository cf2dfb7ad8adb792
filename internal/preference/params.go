package preference

import (
	"time"

	"github.com/palatehq/palate-platform/pkg/config"
)

// Fixed update-rule weights. These are part of the learning model, not
// deployment tuning, so they stay compiled in.
const (
	scoreMin = -2.0
	scoreMax = 2.0

	// (rating-3) * preferenceScale maps 1..5 onto -1.34..+1.34
	preferenceScale = 0.67

	extremeMultiplier = 1.3
	recencyMultiplier = 1.2

	confidenceGain = 0.1
	// Confidence halves the effective learning rate at full certainty
	confidenceDamping = 0.5

	temporalWeight  = 0.3
	timeOfDayWeight = 0.5
	seasonWeight    = 0.3
	moodWeight      = 0.4

	nutritionStep = 0.1

	cuisineBaseWeight = 0.8
	methodBaseWeight  = 0.6

	// Predicted confidence saturates after this many ratings
	dataConfidenceScale = 50

	// Candidate scoring weights
	candidateCuisineWeight  = 0.3
	candidateTemplateWeight = 0.2
	candidateMethodWeight   = 0.2
	candidateFoodWeight     = 0.15
	candidateScoreFloor     = 0.1
)

// Params holds the tunable engine configuration
type Params struct {
	BaseLearningRate    float64
	DecayRate           float64
	ConfidenceThreshold float64
	MaxRatingHistory    int
	HistoryRetention    time.Duration
	RecencyWindow       time.Duration
	ConsistencyWindow   time.Duration
	DecayAfter          time.Duration
}

// DefaultParams returns the engine defaults
func DefaultParams() Params {
	return Params{
		BaseLearningRate:    0.1,
		DecayRate:           0.02,
		ConfidenceThreshold: 0.7,
		MaxRatingHistory:    200,
		HistoryRetention:    90 * 24 * time.Hour,
		RecencyWindow:       7 * 24 * time.Hour,
		ConsistencyWindow:   30 * 24 * time.Hour,
		DecayAfter:          7 * 24 * time.Hour,
	}
}

// ParamsFromConfig builds engine params from agent configuration
func ParamsFromConfig(cfg *config.Config) Params {
	p := DefaultParams()
	p.BaseLearningRate = cfg.BaseLearningRate
	p.DecayRate = cfg.DecayRate
	p.ConfidenceThreshold = cfg.ConfidenceThreshold
	p.MaxRatingHistory = cfg.MaxRatingHistory
	p.HistoryRetention = time.Duration(cfg.HistoryRetentionDays) * 24 * time.Hour
	return p
}
