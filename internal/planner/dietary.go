package planner

import "strings"

var (
	meatWords   = []string{"chicken", "beef", "pork", "fish", "turkey", "lamb"}
	dairyWords  = []string{"milk", "cheese", "butter", "cream", "yogurt"}
	glutenWords = []string{"wheat", "flour", "bread", "pasta", "barley", "rye"}
)

// MeetsRestrictions reports whether a meal satisfies every restriction in
// the list. Unknown restriction names are ignored. A matching tag on the
// meal short-circuits the ingredient check for that restriction.
func MeetsRestrictions(meal Meal, restrictions []string) bool {
	for _, restriction := range restrictions {
		if !meetsRestriction(meal, strings.ToLower(restriction)) {
			return false
		}
	}
	return true
}

func meetsRestriction(meal Meal, restriction string) bool {
	switch restriction {
	case "vegetarian":
		return hasTag(meal, "vegetarian") || !containsAnyIngredient(meal, meatWords)
	case "vegan":
		if hasTag(meal, "vegan") {
			return true
		}
		return hasTag(meal, "vegetarian") &&
			!containsAnyIngredient(meal, append(dairyWords, "egg"))
	case "gluten-free":
		return hasTag(meal, "gluten-free") || !containsAnyIngredient(meal, glutenWords)
	case "dairy-free":
		return hasTag(meal, "dairy-free") || !containsAnyIngredient(meal, dairyWords)
	case "low-carb":
		return meal.Nutrition.Carbs < 30
	case "keto":
		return meal.Nutrition.Carbs < 20 && meal.Nutrition.HealthyFats > 15
	default:
		return true
	}
}

func hasTag(meal Meal, tag string) bool {
	for _, t := range meal.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func containsAnyIngredient(meal Meal, words []string) bool {
	joined := strings.ToLower(strings.Join(meal.Ingredients, " "))
	for _, word := range words {
		if strings.Contains(joined, word) {
			return true
		}
	}
	return false
}
