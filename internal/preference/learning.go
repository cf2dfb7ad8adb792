package preference

import (
	"math"
	"strings"
	"time"
)

// Nutrition-bucket update thresholds on the estimated macro profile
const (
	highProteinThreshold = 15.0
	lowCarbThreshold     = 20.0
	highFiberThreshold   = 8.0
)

// learningWeight computes the update multiplier for one rating event:
// extreme ratings teach more, recent events teach more (always true at
// insert time), and a consistent rating history amplifies the signal.
func learningWeight(rating int, mealName string, history []RatingRecord, now time.Time, params Params) float64 {
	weight := 1.0

	if rating != 3 {
		weight *= extremeMultiplier
	}

	// The event timestamp is "now" at insert time, so the recency
	// multiplier always applies to live ratings
	weight *= recencyMultiplier

	if consistency, ok := consistencyOf(mealName, history, now, params); ok {
		weight *= 0.8 + 0.4*consistency
	}

	return weight
}

// consistencyOf measures how uniformly similar meals were rated recently.
// Similarity is substring containment of the current name within the
// historical name, case-insensitive. Needs at least two similar ratings.
func consistencyOf(mealName string, history []RatingRecord, now time.Time, params Params) (float64, bool) {
	cutoff := now.Add(-params.ConsistencyWindow)
	needle := strings.ToLower(mealName)

	var ratings []float64
	for _, r := range history {
		if r.CreatedAt.Before(cutoff) {
			continue
		}
		if strings.Contains(strings.ToLower(r.MealName), needle) {
			ratings = append(ratings, float64(r.Rating))
		}
	}
	if len(ratings) < 2 {
		return 0, false
	}

	consistency := 1 - stddev(ratings)/2
	if consistency < 0 {
		consistency = 0
	}
	return consistency, true
}

func stddev(values []float64) float64 {
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))

	return math.Sqrt(variance)
}

// updateScore applies the adaptive score-update rule for one key: the
// learning rate shrinks as confidence grows, confidence only ever rises
func updateScore(scores, confidence ScoreMap, key string, preferenceScore, weight float64, params Params) {
	current := scores[key]
	conf := confidence[key]

	rate := params.BaseLearningRate * weight * (1 - conf*confidenceDamping)
	scores[key] = clampScore(current + (preferenceScore-current)*rate)
	confidence[key] = math.Min(1, conf+confidenceGain*weight)
}

// applyRating folds one rating event into the profile
func applyRating(profile *PreferenceProfile, features FeatureSet, rating int, ctx RatingContext, weight float64, params Params) {
	preferenceScore := float64(rating-3) * preferenceScale

	for _, ing := range features.Ingredients {
		updateScore(profile.IngredientScores, profile.LearningConfidence, ing, preferenceScore, weight, params)
	}
	if features.Cuisine != "" {
		updateScore(profile.CuisineScores, profile.LearningConfidence, features.Cuisine, preferenceScore, weight, params)
	}
	if features.CookingMethod != "" {
		updateScore(profile.CookingMethodScores, profile.LearningConfidence, features.CookingMethod, preferenceScore, weight, params)
	}
	for _, pair := range IngredientPairs(features.Ingredients) {
		updateScore(profile.CombinationScores, profile.LearningConfidence, pair, preferenceScore, weight, params)
	}
	if features.Template != "" {
		updateScore(profile.TemplateScores, profile.LearningConfidence, features.Template, preferenceScore, weight, params)
	}

	// Contextual maps use the plain learning rate at smaller fixed
	// weights, with no confidence damping: direct exponential moving
	// averages rather than confidence-tracked updates
	updateContextMap(profile.TimeOfDayPreferences, ctx.TimeOfDay, features.Ingredients, preferenceScore, params.BaseLearningRate*timeOfDayWeight)
	updateContextMap(profile.SeasonalPreferences, ctx.Season, features.Ingredients, preferenceScore, params.BaseLearningRate*seasonWeight)
	updateContextMap(profile.MoodPreferences, ctx.Mood, features.Ingredients, preferenceScore, params.BaseLearningRate*moodWeight)

	applyNutrition(&profile.NutritionPreferences, features.Nutrition, rating)
}

func updateContextMap(contexts ContextMap, key string, ingredients []string, preferenceScore, rate float64) {
	if key == "" {
		return
	}
	scores := contexts[key]
	if scores == nil {
		scores = ScoreMap{}
		contexts[key] = scores
	}
	for _, ing := range ingredients {
		current := scores[ing]
		scores[ing] = clampScore(current + (preferenceScore-current)*rate)
	}
}

func applyNutrition(prefs *NutritionPreferences, nutrition NutritionProfile, rating int) {
	step := float64(rating-3) * nutritionStep

	if nutrition.Protein > highProteinThreshold {
		prefs.HighProtein = clampScore(prefs.HighProtein + step)
	}
	if nutrition.Carbs < lowCarbThreshold {
		prefs.LowCarb = clampScore(prefs.LowCarb + step)
	}
	if nutrition.Fiber > highFiberThreshold {
		prefs.HighFiber = clampScore(prefs.HighFiber + step)
	}
}
