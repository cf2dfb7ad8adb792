package planner

// Nutrition is the weekly-planning macro view of a meal. Units are grams
// except vitamins and minerals, which are relative index values.
type Nutrition struct {
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fiber       float64 `json:"fiber"`
	HealthyFats float64 `json:"healthyFats"`
	Vitamins    float64 `json:"vitamins"`
	Minerals    float64 `json:"minerals"`
}

// Meal is a plannable meal from the household catalog
type Meal struct {
	Name          string    `json:"name"`
	Cuisine       string    `json:"cuisine,omitempty"`
	CookingMethod string    `json:"cookingMethod,omitempty"`
	Ingredients   []string  `json:"ingredients,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Nutrition     Nutrition `json:"nutrition"`
}

// PlanDay is one slot of a generated plan
type PlanDay struct {
	Day   int     `json:"day"`
	Meal  Meal    `json:"meal"`
	Score float64 `json:"score"`
}

// GapAnalysis summarizes how a plan compares against weekly targets.
// Gaps hold nutrients below 80% of target, excesses those above 120%.
type GapAnalysis struct {
	Totals       map[string]float64 `json:"currentTotals"`
	Targets      map[string]float64 `json:"recommendations"`
	Gaps         map[string]float64 `json:"gaps"`
	Excesses     map[string]float64 `json:"excesses"`
	BalanceScore float64            `json:"balanceScore"`
}
