package preference

import (
	"math"
	"testing"
	"time"
)

func TestLearningWeight(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	params := DefaultParams()

	history := func(ratings ...int) []RatingRecord {
		var recs []RatingRecord
		for _, r := range ratings {
			recs = append(recs, RatingRecord{
				MealName:  "Spicy Tofu Stir Fry",
				Rating:    r,
				CreatedAt: now.Add(-24 * time.Hour),
			})
		}
		return recs
	}

	tests := []struct {
		name     string
		rating   int
		history  []RatingRecord
		expected float64
	}{
		// Recency always applies at insert time
		{"neutral rating", 3, nil, 1.2},
		{"extreme rating", 5, nil, 1.3 * 1.2},
		{"extreme low rating", 1, nil, 1.3 * 1.2},
		// Two identical similar ratings: stddev 0, consistency 1
		{"consistent history", 5, history(5, 5), 1.3 * 1.2 * 1.2},
		// One similar rating is not enough for the consistency term
		{"single similar rating", 5, history(5), 1.3 * 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := learningWeight(tt.rating, "Tofu Stir Fry", tt.history, now, params)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestConsistencyOf(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	params := DefaultParams()

	recent := func(name string, rating int, age time.Duration) RatingRecord {
		return RatingRecord{MealName: name, Rating: rating, CreatedAt: now.Add(-age)}
	}

	t.Run("identical ratings are fully consistent", func(t *testing.T) {
		history := []RatingRecord{
			recent("Chicken Stir Fry", 4, 24*time.Hour),
			recent("Spicy Chicken Stir Fry", 4, 48*time.Hour),
		}
		consistency, ok := consistencyOf("Stir Fry", history, now, params)
		if !ok || consistency != 1 {
			t.Errorf("expected consistency 1, got %v (ok=%v)", consistency, ok)
		}
	})

	t.Run("divergent ratings reduce consistency", func(t *testing.T) {
		history := []RatingRecord{
			recent("Chicken Stir Fry", 1, 24*time.Hour),
			recent("Spicy Chicken Stir Fry", 5, 48*time.Hour),
		}
		consistency, ok := consistencyOf("Stir Fry", history, now, params)
		if !ok {
			t.Fatal("expected two similar ratings to qualify")
		}
		if consistency != 0 {
			// stddev of {1,5} is 2, so 1 - 2/2 clamps to 0
			t.Errorf("expected consistency 0, got %v", consistency)
		}
	})

	t.Run("old ratings fall outside the window", func(t *testing.T) {
		history := []RatingRecord{
			recent("Chicken Stir Fry", 4, 40*24*time.Hour),
			recent("Spicy Chicken Stir Fry", 4, 50*24*time.Hour),
		}
		if _, ok := consistencyOf("Stir Fry", history, now, params); ok {
			t.Error("ratings older than 30 days must not count")
		}
	})

	t.Run("substring match is case insensitive", func(t *testing.T) {
		history := []RatingRecord{
			recent("CHICKEN STIR FRY", 4, 24*time.Hour),
			recent("chicken stir fry deluxe", 4, 48*time.Hour),
		}
		if _, ok := consistencyOf("Stir Fry", history, now, params); !ok {
			t.Error("expected case-insensitive substring matching")
		}
	})
}

func TestUpdateScore_BoundsAndMonotonicConfidence(t *testing.T) {
	params := DefaultParams()
	scores := ScoreMap{}
	confidence := ScoreMap{}

	prevConf := 0.0
	for i := 0; i < 500; i++ {
		updateScore(scores, confidence, "tofu", -1.34, 1.56, params)

		if scores["tofu"] < -2 || scores["tofu"] > 2 {
			t.Fatalf("score out of bounds at step %d: %v", i, scores["tofu"])
		}
		if confidence["tofu"] < prevConf {
			t.Fatalf("confidence decreased at step %d: %v -> %v", i, prevConf, confidence["tofu"])
		}
		if confidence["tofu"] > 1 {
			t.Fatalf("confidence above 1 at step %d: %v", i, confidence["tofu"])
		}
		prevConf = confidence["tofu"]
	}

	// Scores converge toward the preference score, never past it
	if scores["tofu"] > -1 {
		t.Errorf("expected strong negative score after 500 updates, got %v", scores["tofu"])
	}
}

func TestApplyRating_ExtremeMovesScoreFurther(t *testing.T) {
	extractor := NewExtractor(nil)
	params := DefaultParams()
	features := extractor.Extract("Grilled Chicken")
	ctx := RatingContext{TimeOfDay: "dinner", Season: "summer", Mood: "neutral"}

	rate := func(rating int) float64 {
		profile := DefaultProfile()
		weight := learningWeight(rating, "Grilled Chicken", nil, time.Now(), params)
		applyRating(profile, features, rating, ctx, weight, params)
		return profile.IngredientScores["chicken"]
	}

	if !(rate(5) > rate(4)) {
		t.Errorf("rating 5 must move the score further than rating 4: %v vs %v", rate(5), rate(4))
	}
	if !(rate(1) < rate(2)) {
		t.Errorf("rating 1 must move the score further than rating 2: %v vs %v", rate(1), rate(2))
	}
}

func TestApplyRating_UpdatesAllCategories(t *testing.T) {
	extractor := NewExtractor(nil)
	params := DefaultParams()
	profile := DefaultProfile()

	features := extractor.Extract("Grilled Chicken with Broccoli")
	ctx := RatingContext{TimeOfDay: "dinner", Season: "summer", Mood: "happy"}
	applyRating(profile, features, 5, ctx, 1.56, params)

	if profile.IngredientScores["chicken"] <= 0 || profile.IngredientScores["broccoli"] <= 0 {
		t.Error("ingredient scores must turn positive")
	}
	if profile.CookingMethodScores["grilled"] <= 0 {
		t.Error("cooking method score must turn positive")
	}
	if profile.CombinationScores["broccoli + chicken"] <= 0 {
		t.Error("ingredient pair score must turn positive")
	}
	if profile.TemplateScores["grilled-with-side"] <= 0 {
		t.Error("template score must turn positive")
	}
	if profile.TimeOfDayPreferences["dinner"]["chicken"] <= 0 {
		t.Error("time-of-day context must turn positive")
	}
	if profile.SeasonalPreferences["summer"]["broccoli"] <= 0 {
		t.Error("seasonal context must turn positive")
	}
	if profile.MoodPreferences["happy"]["chicken"] <= 0 {
		t.Error("mood context must turn positive")
	}
}

func TestApplyNutrition(t *testing.T) {
	tests := []struct {
		name      string
		nutrition NutritionProfile
		rating    int
		check     func(NutritionPreferences) bool
	}{
		{
			"high protein liked",
			NutritionProfile{Protein: 20, Carbs: 30},
			5,
			func(p NutritionPreferences) bool { return p.HighProtein == 0.2 && p.LowCarb == 0 },
		},
		{
			"low carb liked",
			NutritionProfile{Protein: 10, Carbs: 10},
			4,
			func(p NutritionPreferences) bool { return p.LowCarb == 0.1 && p.HighProtein == 0 },
		},
		{
			"high fiber disliked",
			NutritionProfile{Fiber: 10, Carbs: 30},
			1,
			func(p NutritionPreferences) bool { return p.HighFiber == -0.2 },
		},
		{
			"neutral rating no change",
			NutritionProfile{Protein: 20, Fiber: 10},
			3,
			func(p NutritionPreferences) bool { return p == NutritionPreferences{} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prefs NutritionPreferences
			applyNutrition(&prefs, tt.nutrition, tt.rating)
			if !tt.check(prefs) {
				t.Errorf("unexpected preferences: %+v", prefs)
			}
		})
	}
}
