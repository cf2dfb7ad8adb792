package preference

import (
	"math/rand"
	"sort"
	"strings"
)

// ScoreCandidates scores meal templates against the profile for plan
// generation. Every candidate keeps a nonzero floor so the weighted draw
// can always select it.
func ScoreCandidates(profile *PreferenceProfile, extractor *Extractor, candidates []Candidate, userFoods []string) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(candidates))

	for _, c := range candidates {
		score := 1.0

		if c.Cuisine != "" {
			score += profile.CuisineScores[c.Cuisine] * candidateCuisineWeight
		}

		// Template preferences key on extracted template names, so a
		// candidate named after a concrete meal falls back to extraction
		if _, ok := profile.TemplateScores[c.Name]; ok {
			score += profile.TemplateScores[c.Name] * candidateTemplateWeight
		} else if tpl := extractor.Extract(c.Name).Template; tpl != "" {
			score += profile.TemplateScores[tpl] * candidateTemplateWeight
		}

		// First matching cooking method only
		method := c.CookingMethod
		if method == "" {
			method = extractor.Extract(c.Skeleton).CookingMethod
		}
		if method != "" {
			score += profile.CookingMethodScores[method] * candidateMethodWeight
		}

		score += foodCompatibility(profile, extractor, c, userFoods)

		if score < candidateScoreFloor {
			score = candidateScoreFloor
		}

		scored = append(scored, ScoredCandidate{Candidate: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	return scored
}

// foodCompatibility rewards candidates whose slots can be filled with
// foods the user already has and likes
func foodCompatibility(profile *PreferenceProfile, extractor *Extractor, c Candidate, userFoods []string) float64 {
	bonus := 0.0
	for _, food := range userFoods {
		food = strings.ToLower(food)
		score, ok := profile.IngredientScores[food]
		if !ok {
			continue
		}
		if len(c.Slots) > 0 && !slotsAccept(extractor.Tables(), c.Slots, food) {
			continue
		}
		bonus += score * candidateFoodWeight
	}
	return bonus
}

// slotsAccept reports whether any template slot names the category the
// food belongs to. Slot names are singular category names ("protein");
// table categories are plural ("proteins").
func slotsAccept(tables *Tables, slots []string, food string) bool {
	for _, slot := range slots {
		for _, cat := range tables.Ingredients {
			if !strings.HasPrefix(cat.Name, strings.ToLower(slot)) {
				continue
			}
			for _, kw := range cat.Keywords {
				if kw == food {
					return true
				}
			}
		}
	}
	return false
}

// WeightedDraw selects one candidate by cumulative-weight random draw.
// Intentionally not argmax: the randomness preserves variety across plans.
func WeightedDraw(scored []ScoredCandidate, rng *rand.Rand) (ScoredCandidate, bool) {
	if len(scored) == 0 {
		return ScoredCandidate{}, false
	}

	total := 0.0
	for _, sc := range scored {
		total += sc.Score
	}
	if total <= 0 {
		return scored[len(scored)-1], true
	}

	draw := rng.Float64() * total
	cumulative := 0.0
	for _, sc := range scored {
		cumulative += sc.Score
		if draw <= cumulative {
			return sc, true
		}
	}
	return scored[len(scored)-1], true
}
