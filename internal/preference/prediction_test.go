package preference

import (
	"reflect"
	"testing"
)

func TestPredictRating_EmptyProfile(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	features := extractor.Extract("Grilled Chicken with Broccoli")

	p := predictRating(profile, features, RatingContext{TimeOfDay: "dinner", Season: "summer"}, 0)

	// All scores zero: base rating 0 maps to the neutral midpoint
	if p.Rating != 3 {
		t.Errorf("expected neutral rating 3, got %v", p.Rating)
	}
	if p.Confidence != 0 {
		t.Errorf("expected zero confidence, got %v", p.Confidence)
	}
}

func TestPredictRating_PositiveScoresRaiseRating(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 1.0
	profile.IngredientScores["broccoli"] = 0.8
	profile.CookingMethodScores["grilled"] = 0.6
	profile.LearningConfidence["chicken"] = 0.3
	profile.LearningConfidence["broccoli"] = 0.2
	profile.LearningConfidence["grilled"] = 0.2

	features := extractor.Extract("Grilled Chicken with Broccoli")
	p := predictRating(profile, features, RatingContext{TimeOfDay: "dinner", Season: "summer"}, 10)

	if p.Rating <= 3 {
		t.Errorf("expected rating above 3, got %v", p.Rating)
	}
	if p.Rating > 5 {
		t.Errorf("rating above cap: %v", p.Rating)
	}
	if p.Confidence <= 0 {
		t.Errorf("expected positive confidence, got %v", p.Confidence)
	}
	if p.Breakdown.Ingredients <= 0 {
		t.Errorf("expected positive ingredient contribution, got %v", p.Breakdown.Ingredients)
	}
}

func TestPredictRating_NegativeScoresLowerRating(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.IngredientScores["tofu"] = -1.5
	profile.LearningConfidence["tofu"] = 0.5

	features := extractor.Extract("Spicy Tofu Stir Fry")
	p := predictRating(profile, features, RatingContext{TimeOfDay: "dinner", Season: "winter"}, 10)

	if p.Rating >= 3 {
		t.Errorf("expected rating below 3, got %v", p.Rating)
	}
	if p.Rating < 1 {
		t.Errorf("rating below floor: %v", p.Rating)
	}
}

func TestPredictRating_Deterministic(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 1.2
	profile.LearningConfidence["chicken"] = 0.4
	profile.TimeOfDayPreferences["dinner"] = ScoreMap{"chicken": 0.5}

	features := extractor.Extract("Grilled Chicken")
	ctx := RatingContext{TimeOfDay: "dinner", Season: "summer"}

	a := predictRating(profile, features, ctx, 20)
	b := predictRating(profile, features, ctx, 20)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("prediction not deterministic: %+v vs %+v", a, b)
	}
}

func TestPredictRating_ContextualContribution(t *testing.T) {
	extractor := NewExtractor(nil)
	features := extractor.Extract("Grilled Chicken")
	ctx := RatingContext{TimeOfDay: "dinner", Season: "summer"}

	base := DefaultProfile()
	without := predictRating(base, features, ctx, 0)

	contextual := DefaultProfile()
	contextual.TimeOfDayPreferences["dinner"] = ScoreMap{"chicken": 1.0}
	with := predictRating(contextual, features, ctx, 0)

	if with.Rating <= without.Rating {
		t.Errorf("contextual score must raise the rating: %v vs %v", with.Rating, without.Rating)
	}
	if with.Breakdown.Contextual <= 0 {
		t.Errorf("expected contextual contribution, got %v", with.Breakdown.Contextual)
	}
}

func TestPredictRating_DataConfidenceGrowsWithRatings(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 1.0
	profile.LearningConfidence["chicken"] = 0.5

	features := extractor.Extract("Grilled Chicken")
	ctx := RatingContext{TimeOfDay: "dinner", Season: "summer"}

	few := predictRating(profile, features, ctx, 5)
	many := predictRating(profile, features, ctx, 50)

	if many.Confidence <= few.Confidence {
		t.Errorf("confidence must grow with rating volume: %v vs %v", few.Confidence, many.Confidence)
	}

	// Data confidence saturates at 50 ratings
	more := predictRating(profile, features, ctx, 500)
	if more.Confidence != many.Confidence {
		t.Errorf("confidence must saturate: %v vs %v", many.Confidence, more.Confidence)
	}
}
