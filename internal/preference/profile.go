package preference

import (
	"encoding/json"
	"math"
	"time"
)

// PreferenceProfile is the single learned-preference document per user.
// Scores live in [-2, 2], confidence in [0, 1]. Unknown top-level keys
// from persisted blobs survive a load/save round trip.
type PreferenceProfile struct {
	IngredientScores    ScoreMap `json:"ingredientScores"`
	CuisineScores       ScoreMap `json:"cuisineScores"`
	CookingMethodScores ScoreMap `json:"cookingMethodScores"`
	CombinationScores   ScoreMap `json:"combinationScores"`
	TemplateScores      ScoreMap `json:"templateScores"`

	TimeOfDayPreferences ContextMap `json:"timeOfDayPreferences"`
	SeasonalPreferences  ContextMap `json:"seasonalPreferences"`
	MoodPreferences      ContextMap `json:"moodPreferences"`

	NutritionPreferences NutritionPreferences `json:"nutritionPreferences"`

	LearningConfidence ScoreMap       `json:"learningConfidence"`
	PreferenceHistory  []HistoryEntry `json:"preferenceHistory"`
	LastUpdated        time.Time      `json:"lastUpdated"`

	// Unknown top-level keys carried through from the persisted document
	extra map[string]json.RawMessage
}

// DefaultProfile returns an empty profile with all maps initialized
func DefaultProfile() *PreferenceProfile {
	return &PreferenceProfile{
		IngredientScores:    ScoreMap{},
		CuisineScores:       ScoreMap{},
		CookingMethodScores: ScoreMap{},
		CombinationScores:   ScoreMap{},
		TemplateScores:      ScoreMap{},
		TimeOfDayPreferences: ContextMap{
			"breakfast": {}, "lunch": {}, "dinner": {}, "snack": {},
		},
		SeasonalPreferences: ContextMap{
			"spring": {}, "summer": {}, "fall": {}, "winter": {},
		},
		MoodPreferences:    ContextMap{},
		LearningConfidence: ScoreMap{},
		PreferenceHistory:  nil,
	}
}

func clampScore(v float64) float64 {
	return math.Max(scoreMin, math.Min(scoreMax, v))
}

func clampConfidence(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// profileDoc mirrors the exported fields for JSON round-tripping
type profileDoc struct {
	IngredientScores     ScoreMap             `json:"ingredientScores"`
	CuisineScores        ScoreMap             `json:"cuisineScores"`
	CookingMethodScores  ScoreMap             `json:"cookingMethodScores"`
	CombinationScores    ScoreMap             `json:"combinationScores"`
	TemplateScores       ScoreMap             `json:"templateScores"`
	TimeOfDayPreferences ContextMap           `json:"timeOfDayPreferences"`
	SeasonalPreferences  ContextMap           `json:"seasonalPreferences"`
	MoodPreferences      ContextMap           `json:"moodPreferences"`
	NutritionPreferences NutritionPreferences `json:"nutritionPreferences"`
	LearningConfidence   ScoreMap             `json:"learningConfidence"`
	PreferenceHistory    []HistoryEntry       `json:"preferenceHistory"`
	LastUpdated          time.Time            `json:"lastUpdated"`
}

var knownProfileKeys = map[string]bool{
	"ingredientScores":     true,
	"cuisineScores":        true,
	"cookingMethodScores":  true,
	"combinationScores":    true,
	"templateScores":       true,
	"timeOfDayPreferences": true,
	"seasonalPreferences":  true,
	"moodPreferences":      true,
	"nutritionPreferences": true,
	"learningConfidence":   true,
	"preferenceHistory":    true,
	"lastUpdated":          true,
}

// MarshalJSON serializes the profile including carried-through unknown keys
func (p *PreferenceProfile) MarshalJSON() ([]byte, error) {
	doc := profileDoc{
		IngredientScores:     p.IngredientScores,
		CuisineScores:        p.CuisineScores,
		CookingMethodScores:  p.CookingMethodScores,
		CombinationScores:    p.CombinationScores,
		TemplateScores:       p.TemplateScores,
		TimeOfDayPreferences: p.TimeOfDayPreferences,
		SeasonalPreferences:  p.SeasonalPreferences,
		MoodPreferences:      p.MoodPreferences,
		NutritionPreferences: p.NutritionPreferences,
		LearningConfidence:   p.LearningConfidence,
		PreferenceHistory:    p.PreferenceHistory,
		LastUpdated:          p.LastUpdated,
	}

	known, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if len(p.extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON parses a persisted profile document, keeping unknown
// top-level keys in the extras map
func (p *PreferenceProfile) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	p.IngredientScores = doc.IngredientScores
	p.CuisineScores = doc.CuisineScores
	p.CookingMethodScores = doc.CookingMethodScores
	p.CombinationScores = doc.CombinationScores
	p.TemplateScores = doc.TemplateScores
	p.TimeOfDayPreferences = doc.TimeOfDayPreferences
	p.SeasonalPreferences = doc.SeasonalPreferences
	p.MoodPreferences = doc.MoodPreferences
	p.NutritionPreferences = doc.NutritionPreferences
	p.LearningConfidence = doc.LearningConfidence
	p.PreferenceHistory = doc.PreferenceHistory
	p.LastUpdated = doc.LastUpdated

	p.extra = nil
	for k, v := range raw {
		if knownProfileKeys[k] {
			continue
		}
		if p.extra == nil {
			p.extra = make(map[string]json.RawMessage)
		}
		p.extra[k] = v
	}
	return nil
}

// MergeProfile shallow-merges a persisted profile over defaults: known
// categories are merged key-by-key, unknown top-level keys are preserved
func MergeProfile(persisted *PreferenceProfile) *PreferenceProfile {
	merged := DefaultProfile()
	if persisted == nil {
		return merged
	}

	mergeScores := func(dst, src ScoreMap) {
		for k, v := range src {
			dst[k] = v
		}
	}
	mergeContext := func(dst, src ContextMap) {
		for ctx, scores := range src {
			if dst[ctx] == nil {
				dst[ctx] = ScoreMap{}
			}
			mergeScores(dst[ctx], scores)
		}
	}

	mergeScores(merged.IngredientScores, persisted.IngredientScores)
	mergeScores(merged.CuisineScores, persisted.CuisineScores)
	mergeScores(merged.CookingMethodScores, persisted.CookingMethodScores)
	mergeScores(merged.CombinationScores, persisted.CombinationScores)
	mergeScores(merged.TemplateScores, persisted.TemplateScores)
	mergeContext(merged.TimeOfDayPreferences, persisted.TimeOfDayPreferences)
	mergeContext(merged.SeasonalPreferences, persisted.SeasonalPreferences)
	mergeContext(merged.MoodPreferences, persisted.MoodPreferences)
	mergeScores(merged.LearningConfidence, persisted.LearningConfidence)

	merged.NutritionPreferences = persisted.NutritionPreferences
	merged.PreferenceHistory = persisted.PreferenceHistory
	merged.LastUpdated = persisted.LastUpdated
	merged.extra = persisted.extra

	return merged
}

// ApplyDecay shrinks the four core score maps toward zero when the profile
// has been idle for longer than the decay window. Confidence is untouched.
// LastUpdated advances to now, so reapplying with no elapsed time is a
// no-op.
func (p *PreferenceProfile) ApplyDecay(now time.Time, params Params) {
	if p.LastUpdated.IsZero() {
		return
	}
	elapsed := now.Sub(p.LastUpdated)
	if elapsed <= params.DecayAfter {
		return
	}

	days := math.Floor(elapsed.Hours() / 24)
	factor := math.Pow(1-params.DecayRate, days)

	for _, scores := range []ScoreMap{
		p.IngredientScores,
		p.CuisineScores,
		p.CookingMethodScores,
		p.CombinationScores,
	} {
		for k, v := range scores {
			scores[k] = v * factor
		}
	}

	p.LastUpdated = now
}

// Prune drops preference-history entries older than the retention window
func (p *PreferenceProfile) Prune(now time.Time, params Params) {
	cutoff := now.Add(-params.HistoryRetention)
	kept := p.PreferenceHistory[:0]
	for _, entry := range p.PreferenceHistory {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	p.PreferenceHistory = kept
}
