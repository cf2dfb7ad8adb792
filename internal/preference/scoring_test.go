package preference

import (
	"math/rand"
	"testing"
)

func TestScoreCandidates_PreferredCuisineRanksFirst(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.CuisineScores["italian"] = 2.0
	profile.CuisineScores["mexican"] = -1.0

	candidates := []Candidate{
		{Name: "Beef Tacos", Cuisine: "mexican"},
		{Name: "Chicken Pasta", Cuisine: "italian"},
		{Name: "Mystery Dish"},
	}

	scored := ScoreCandidates(profile, extractor, candidates, nil)
	if scored[0].Candidate.Name != "Chicken Pasta" {
		t.Errorf("expected Chicken Pasta first, got %s", scored[0].Candidate.Name)
	}
	// 1 + 2.0*0.3
	if scored[0].Score != 1.6 {
		t.Errorf("expected score 1.6, got %v", scored[0].Score)
	}
}

func TestScoreCandidates_Floor(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.CuisineScores["mexican"] = -2.0
	profile.TemplateScores["Beef Tacos"] = -2.0
	profile.CookingMethodScores["fried"] = -2.0

	scored := ScoreCandidates(profile, extractor, []Candidate{
		{Name: "Beef Tacos", Cuisine: "mexican", CookingMethod: "fried"},
	}, nil)

	if scored[0].Score != candidateScoreFloor {
		t.Errorf("expected floor %v, got %v", candidateScoreFloor, scored[0].Score)
	}
}

func TestScoreCandidates_MethodFromSkeleton(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.CookingMethodScores["grilled"] = 1.0

	scored := ScoreCandidates(profile, extractor, []Candidate{
		{Name: "grilled-with-side", Skeleton: "Grilled {protein} with {vegetable}"},
	}, nil)

	// 1 + 1.0*0.2 from the method extracted out of the skeleton
	if scored[0].Score != 1.2 {
		t.Errorf("expected score 1.2, got %v", scored[0].Score)
	}
}

func TestScoreCandidates_TemplateFromName(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.TemplateScores["stir-fry"] = 1.0

	scored := ScoreCandidates(profile, extractor, []Candidate{
		{Name: "Chicken Stir Fry"},
	}, nil)

	// The learned template key is extracted from the name: 1 + 1.0*0.2
	if scored[0].Score != 1.2 {
		t.Errorf("expected score 1.2, got %v", scored[0].Score)
	}

	// A direct hit on the candidate name still wins
	profile.TemplateScores["Chicken Stir Fry"] = -1.0
	scored = ScoreCandidates(profile, extractor, []Candidate{
		{Name: "Chicken Stir Fry"},
	}, nil)
	if scored[0].Score != 0.8 {
		t.Errorf("expected score 0.8, got %v", scored[0].Score)
	}
}

func TestScoreCandidates_FoodCompatibility(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.IngredientScores["chicken"] = 2.0
	profile.IngredientScores["broccoli"] = 1.0

	t.Run("unslotted candidate takes every liked food", func(t *testing.T) {
		scored := ScoreCandidates(profile, extractor, []Candidate{
			{Name: "Mystery Dish"},
		}, []string{"chicken", "broccoli"})

		// 1 + 2.0*0.15 + 1.0*0.15
		if scored[0].Score != 1.45 {
			t.Errorf("expected score 1.45, got %v", scored[0].Score)
		}
	})

	t.Run("slots gate foods by category", func(t *testing.T) {
		scored := ScoreCandidates(profile, extractor, []Candidate{
			{Name: "soup", Slots: []string{"vegetable"}},
		}, []string{"chicken", "broccoli"})

		// Only broccoli fits a vegetable slot: 1 + 1.0*0.15
		if scored[0].Score != 1.15 {
			t.Errorf("expected score 1.15, got %v", scored[0].Score)
		}
	})
}

func TestWeightedDraw_Empty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, ok := WeightedDraw(nil, rng); ok {
		t.Error("expected no draw from empty list")
	}
}

func TestWeightedDraw_PreferredCuisineDominates(t *testing.T) {
	extractor := NewExtractor(nil)
	profile := DefaultProfile()
	profile.CuisineScores["italian"] = 2.0

	candidates := []Candidate{
		{Name: "Chicken Pasta", Cuisine: "italian"},
		{Name: "Beef Tacos", Cuisine: "mexican"},
		{Name: "Tofu Stir Fry", Cuisine: "asian"},
		{Name: "Falafel Wrap", Cuisine: "mediterranean"},
		{Name: "Turkey Sandwich", Cuisine: "american"},
	}

	scored := ScoreCandidates(profile, extractor, candidates, nil)
	rng := rand.New(rand.NewSource(42))

	wins := 0
	for i := 0; i < 1000; i++ {
		pick, ok := WeightedDraw(scored, rng)
		if !ok {
			t.Fatal("draw failed")
		}
		if pick.Candidate.Name == "Chicken Pasta" {
			wins++
		}
	}

	// Weight 1.6 against four weights of 1.0: expected share ~29%, and
	// every candidate keeps a nonzero chance
	if wins < 200 || wins > 450 {
		t.Errorf("expected the preferred cuisine to win 200-450 of 1000 draws, got %d", wins)
	}
}

func TestWeightedDraw_StrongPreferenceSelectedMostOften(t *testing.T) {
	// One candidate carries most of the total weight
	scored := []ScoredCandidate{
		{Candidate: Candidate{Name: "favorite"}, Score: 6.0},
		{Candidate: Candidate{Name: "a"}, Score: 1.0},
		{Candidate: Candidate{Name: "b"}, Score: 1.0},
		{Candidate: Candidate{Name: "c"}, Score: 1.0},
		{Candidate: Candidate{Name: "d"}, Score: 1.0},
	}

	rng := rand.New(rand.NewSource(7))
	wins := 0
	for i := 0; i < 1000; i++ {
		pick, _ := WeightedDraw(scored, rng)
		if pick.Candidate.Name == "favorite" {
			wins++
		}
	}

	if wins < 540 {
		t.Errorf("expected the dominant candidate in at least 60%% of draws, got %d/1000", wins)
	}
}
