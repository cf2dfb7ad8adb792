package planner

import (
	"log/slog"
	"math/rand"

	"github.com/palatehq/palate-platform/internal/preference"
)

// Scorer ranks meal candidates by learned preference. Satisfied by
// preference.Engine.
type Scorer interface {
	ScoreCandidates(candidates []preference.Candidate, userFoods []string) []preference.ScoredCandidate
}

const (
	varietyWeight  = 0.15
	varietyPenalty = 0.5
	drawBaseWeight = 0.1
)

// Generator builds multi-day meal plans from a catalog of meals, learned
// preference scores and a variety heuristic over recent meals
type Generator struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGenerator creates a plan generator using the given random source
func NewGenerator(rng *rand.Rand, logger *slog.Logger) *Generator {
	return &Generator{rng: rng, logger: logger}
}

// PlanRequest carries the inputs for one plan generation
type PlanRequest struct {
	Meals        []Meal   `json:"meals"`
	Days         int      `json:"days"`
	Restrictions []string `json:"restrictions,omitempty"`
	RecentMeals  []string `json:"recentMeals,omitempty"`
	UserFoods    []string `json:"userFoods,omitempty"`
}

// Generate produces a plan of the requested length. Each day draws a meal
// by weighted random from the scored pool; a meal is not repeated until
// the pool of unused meals runs dry, at which point repeats are allowed.
// Full weeks are reordered for nutritional balance.
func (g *Generator) Generate(scorer Scorer, req PlanRequest) []PlanDay {
	days := req.Days
	if days <= 0 {
		days = 7
	}

	eligible := make([]Meal, 0, len(req.Meals))
	for _, meal := range req.Meals {
		if MeetsRestrictions(meal, req.Restrictions) {
			eligible = append(eligible, meal)
		}
	}
	if len(eligible) == 0 {
		g.logger.Warn("No meals pass dietary restrictions",
			"catalog", len(req.Meals),
			"restrictions", req.Restrictions)
		return nil
	}

	byName := make(map[string]Meal, len(eligible))
	candidates := make([]preference.Candidate, 0, len(eligible))
	for _, meal := range eligible {
		byName[meal.Name] = meal
		candidates = append(candidates, preference.Candidate{
			Name:          meal.Name,
			Cuisine:       meal.Cuisine,
			CookingMethod: meal.CookingMethod,
		})
	}

	scored := scorer.ScoreCandidates(candidates, req.UserFoods)
	for i := range scored {
		scored[i].Score = adjustForVariety(scored[i], req.RecentMeals)
	}

	plan := make([]PlanDay, 0, days)
	used := make(map[string]bool)

	for day := 1; day <= days; day++ {
		pool := make([]preference.ScoredCandidate, 0, len(scored))
		for _, sc := range scored {
			if !used[sc.Candidate.Name] {
				pool = append(pool, sc)
			}
		}
		if len(pool) == 0 {
			// Catalog exhausted, allow repeats from here on
			pool = scored
			used = make(map[string]bool)
		}

		pick, ok := preference.WeightedDraw(pool, g.rng)
		if !ok {
			break
		}
		used[pick.Candidate.Name] = true
		plan = append(plan, PlanDay{
			Day:   day,
			Meal:  byName[pick.Candidate.Name],
			Score: pick.Score,
		})
	}

	return BalanceWeekly(plan)
}

// adjustForVariety penalizes meals seen recently and rewards new ones.
// The penalty fades with how long ago the meal appeared in the recent
// list (index 0 is the oldest entry).
func adjustForVariety(sc preference.ScoredCandidate, recent []string) float64 {
	score := sc.Score
	found := false
	for i, name := range recent {
		if name == sc.Candidate.Name {
			penalty := varietyPenalty * (1 - float64(i)/float64(len(recent)))
			score -= penalty * varietyWeight
			found = true
			break
		}
	}
	if !found {
		score += varietyWeight
	}
	if score < drawBaseWeight {
		score = drawBaseWeight
	}
	return score
}
