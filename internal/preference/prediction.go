package preference

import "math"

// predictRating combines weighted preference lookups into a predicted
// rating in [1, 5] with a confidence in [0, 1]. Pure function of the
// profile, the features, the context, and the rating count.
func predictRating(profile *PreferenceProfile, features FeatureSet, ctx RatingContext, totalRatings int) Prediction {
	var (
		totalWeighted float64
		totalWeight   float64
		confidences   []float64
		breakdown     PredictionBreakdown
	)

	for _, ing := range features.Ingredients {
		conf := profile.LearningConfidence[ing]
		weight := 1.0 + conf
		contribution := profile.IngredientScores[ing] * weight
		totalWeighted += contribution
		totalWeight += weight
		confidences = append(confidences, conf)
		breakdown.Ingredients += contribution
	}

	if features.Cuisine != "" {
		conf := profile.LearningConfidence[features.Cuisine]
		weight := cuisineBaseWeight + conf
		contribution := profile.CuisineScores[features.Cuisine] * weight
		totalWeighted += contribution
		totalWeight += weight
		confidences = append(confidences, conf)
		breakdown.Cuisine = contribution
	}

	if features.CookingMethod != "" {
		conf := profile.LearningConfidence[features.CookingMethod]
		weight := methodBaseWeight + conf
		contribution := profile.CookingMethodScores[features.CookingMethod] * weight
		totalWeighted += contribution
		totalWeight += weight
		confidences = append(confidences, conf)
		breakdown.CookingMethod = contribution
	}

	// Contextual adjustment from the time-of-day and season maps
	contextualConf := 0.0
	for _, scores := range []ScoreMap{
		profile.TimeOfDayPreferences[ctx.TimeOfDay],
		profile.SeasonalPreferences[ctx.Season],
	} {
		if scores == nil {
			continue
		}
		for _, ing := range features.Ingredients {
			score, ok := scores[ing]
			if !ok {
				continue
			}
			contribution := score * temporalWeight
			totalWeighted += contribution
			totalWeight += temporalWeight
			contextualConf += 0.1
			breakdown.Contextual += contribution
		}
	}
	if contextualConf > 0 {
		confidences = append(confidences, math.Min(1, contextualConf))
	}

	baseRating := 0.0
	if totalWeight > 0 {
		baseRating = totalWeighted / totalWeight
	}
	finalRating := math.Max(1, math.Min(5, 3+baseRating*1.5))

	avgConfidence := 0.0
	if len(confidences) > 0 {
		sum := 0.0
		for _, c := range confidences {
			sum += c
		}
		avgConfidence = sum / float64(len(confidences))
	}
	dataConfidence := math.Min(1, float64(totalRatings)/dataConfidenceScale)
	finalConfidence := (avgConfidence + dataConfidence) / 2

	return Prediction{
		Rating:     finalRating,
		Confidence: finalConfidence,
		Breakdown:  breakdown,
	}
}
