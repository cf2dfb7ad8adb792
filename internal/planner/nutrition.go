package planner

import (
	"math"
	"sort"
)

// WeeklyTargets returns the default nutrition targets for a seven-day plan
func WeeklyTargets() map[string]float64 {
	return map[string]float64{
		"protein":     350,
		"carbs":       1400,
		"fiber":       175,
		"healthyFats": 280,
		"vitamins":    100,
		"minerals":    100,
	}
}

func nutritionValues(n Nutrition) map[string]float64 {
	return map[string]float64{
		"protein":     n.Protein,
		"carbs":       n.Carbs,
		"fiber":       n.Fiber,
		"healthyFats": n.HealthyFats,
		"vitamins":    n.Vitamins,
		"minerals":    n.Minerals,
	}
}

func planTotals(days []PlanDay) map[string]float64 {
	totals := make(map[string]float64)
	for _, day := range days {
		for nutrient, value := range nutritionValues(day.Meal.Nutrition) {
			totals[nutrient] += value
		}
	}
	return totals
}

// BalanceWeekly reorders a full week so that meals contributing most to
// the remaining nutrient gaps come first. Plans shorter than seven days
// are returned unchanged.
func BalanceWeekly(days []PlanDay) []PlanDay {
	if len(days) < 7 {
		return days
	}

	totals := planTotals(days)
	targets := WeeklyTargets()

	gaps := make(map[string]float64)
	for nutrient, target := range targets {
		gaps[nutrient] = math.Max(0, target-totals[nutrient])
	}

	priority := func(meal Meal) float64 {
		values := nutritionValues(meal.Nutrition)
		score := 0.0
		for nutrient, gap := range gaps {
			if gap > 0 {
				score += values[nutrient] * (gap / targets[nutrient])
			}
		}
		return score
	}

	reordered := make([]PlanDay, len(days))
	copy(reordered, days)
	sort.SliceStable(reordered, func(i, j int) bool {
		return priority(reordered[i].Meal) > priority(reordered[j].Meal)
	})
	for i := range reordered {
		reordered[i].Day = i + 1
	}
	return reordered
}

// AnalyzeGaps compares a plan against the weekly targets
func AnalyzeGaps(days []PlanDay) GapAnalysis {
	totals := planTotals(days)
	targets := WeeklyTargets()

	analysis := GapAnalysis{
		Totals:   totals,
		Targets:  targets,
		Gaps:     make(map[string]float64),
		Excesses: make(map[string]float64),
	}

	var balanceSum float64
	for nutrient, target := range targets {
		current := totals[nutrient]
		if current < target*0.8 {
			analysis.Gaps[nutrient] = target - current
		} else if current > target*1.2 {
			analysis.Excesses[nutrient] = current - target
		}

		ratio := current / target
		if ratio <= 2 {
			balanceSum += 1 - math.Abs(1-ratio)
		}
	}
	analysis.BalanceScore = balanceSum / float64(len(targets))
	return analysis
}
