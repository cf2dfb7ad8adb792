package preference

import (
	"time"

	"github.com/google/uuid"
)

// ScoreMap holds per-key preference scores in [-2, 2]
type ScoreMap map[string]float64

// ContextMap holds per-context score maps, e.g. season → ingredient scores
type ContextMap map[string]ScoreMap

// NutritionPreferences holds learned macro-profile preferences in [-2, 2]
type NutritionPreferences struct {
	HighProtein float64 `json:"highProtein"`
	LowCarb     float64 `json:"lowCarb"`
	HighFiber   float64 `json:"highFiber"`
	LowCalorie  float64 `json:"lowCalorie"`
	Balanced    float64 `json:"balanced"`
}

// RatingContext carries the situational tags attached to a rating event
type RatingContext struct {
	TimeOfDay string    `json:"timeOfDay,omitempty"`
	Season    string    `json:"season,omitempty"`
	Mood      string    `json:"mood,omitempty"`
	DayOfWeek string    `json:"dayOfWeek,omitempty"`
	Daylight  bool      `json:"daylight,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// HistoryEntry is one entry in the bounded preference change log
type HistoryEntry struct {
	Timestamp   time.Time     `json:"timestamp"`
	Description string        `json:"description"`
	Context     RatingContext `json:"context"`
}

// NutritionProfile is the estimated macro content of a meal
type NutritionProfile struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
	Fiber   float64 `json:"fiber"`
}

// FeatureSet is the structured feature view of a meal name.
// Derived purely from the name string and the keyword tables.
type FeatureSet struct {
	Ingredients   []string         `json:"ingredients"`
	Cuisine       string           `json:"cuisine,omitempty"`
	CookingMethod string           `json:"cookingMethod,omitempty"`
	Template      string           `json:"template,omitempty"`
	Nutrition     NutritionProfile `json:"nutritionProfile"`
	Complexity    string           `json:"complexity"`
	SpiceLevel    string           `json:"spiceLevel"`
}

// PredictionBreakdown exposes the component contributions of a prediction
type PredictionBreakdown struct {
	Ingredients   float64 `json:"ingredients"`
	Cuisine       float64 `json:"cuisine"`
	CookingMethod float64 `json:"cookingMethod"`
	Contextual    float64 `json:"contextual"`
}

// Prediction is a predicted rating with its confidence
type Prediction struct {
	Rating     float64             `json:"rating"`
	Confidence float64             `json:"confidence"`
	Breakdown  PredictionBreakdown `json:"breakdown"`
}

// RatingRecord is one append-only rating event. Records are never mutated
// after creation except by history pruning.
type RatingRecord struct {
	ID         uuid.UUID     `json:"id"`
	MealName   string        `json:"mealName"`
	Rating     int           `json:"rating"`
	Features   FeatureSet    `json:"features"`
	Context    RatingContext `json:"context"`
	Prediction *Prediction   `json:"prediction,omitempty"`
	Accuracy   *float64      `json:"accuracy,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// LearningStats tracks the engine's prediction accuracy over time
type LearningStats struct {
	TotalRatings        int       `json:"totalRatings"`
	AccuratePredictions float64   `json:"accuratePredictions"`
	LearningAccuracy    float64   `json:"learningAccuracy"`
	LastAccuracyUpdate  time.Time `json:"lastAccuracyUpdate"`
}

// RateResult is the structured outcome of a RateMeal call
type RateResult struct {
	Success        bool        `json:"success"`
	Error          string      `json:"error,omitempty"`
	Prediction     *Prediction `json:"prediction,omitempty"`
	Accuracy       *float64    `json:"accuracy,omitempty"`
	Feedback       string      `json:"feedback,omitempty"`
	TotalRatings   int         `json:"totalRatings"`
	SystemAccuracy float64     `json:"systemAccuracy"`
}

// Candidate is a meal template offered to the scoring engine
type Candidate struct {
	Name          string   `json:"name"`
	Skeleton      string   `json:"skeleton,omitempty"`
	Cuisine       string   `json:"cuisine,omitempty"`
	CookingMethod string   `json:"cookingMethod,omitempty"`
	Slots         []string `json:"slots,omitempty"`
}

// ScoredCandidate pairs a candidate with its selection weight
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Score     float64   `json:"score"`
}
