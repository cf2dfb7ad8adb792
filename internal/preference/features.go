package preference

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
	"gopkg.in/yaml.v3"
)

// IngredientCategory is an ordered keyword group for ingredient detection
type IngredientCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// CuisineEntry is one cuisine with its detection keywords. Slice order is
// the match priority: the first cuisine with a keyword hit wins.
type CuisineEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// MethodEntry maps a keyword to a cooking method. Slice order is the match
// priority; multi-word keywords must precede their substrings ("stir fry"
// before "fry").
type MethodEntry struct {
	Keyword string `yaml:"keyword"`
	Method  string `yaml:"method"`
}

// TemplateEntry is a meal template skeleton. A meal name matches when every
// literal word of the skeleton (placeholders stripped) appears in the name.
type TemplateEntry struct {
	Name     string `yaml:"name"`
	Skeleton string `yaml:"skeleton"`
}

// Tables holds all keyword tables used by the extractor
type Tables struct {
	Ingredients []IngredientCategory `yaml:"ingredients"`
	Cuisines    []CuisineEntry       `yaml:"cuisines"`
	Methods     []MethodEntry        `yaml:"methods"`
	Templates   []TemplateEntry      `yaml:"templates"`

	FatKeywords   []string `yaml:"fat_keywords"`
	FiberKeywords []string `yaml:"fiber_keywords"`

	SimpleKeywords  []string `yaml:"simple_keywords"`
	ComplexKeywords []string `yaml:"complex_keywords"`

	HighSpiceKeywords []string `yaml:"high_spice_keywords"`
	LowSpiceKeywords  []string `yaml:"low_spice_keywords"`
}

// DefaultTables returns the compiled-in keyword tables
func DefaultTables() *Tables {
	return &Tables{
		Ingredients: []IngredientCategory{
			{Name: "proteins", Keywords: []string{
				"chicken", "beef", "pork", "salmon", "fish", "shrimp",
				"tofu", "turkey", "lamb", "egg", "beans", "lentils",
			}},
			{Name: "vegetables", Keywords: []string{
				"broccoli", "spinach", "carrot", "pepper", "onion",
				"tomato", "mushroom", "zucchini", "kale", "cauliflower",
				"asparagus", "potato",
			}},
			{Name: "grains", Keywords: []string{
				"rice", "pasta", "bread", "quinoa", "noodle", "oat",
				"tortilla", "couscous", "barley",
			}},
			{Name: "dairy", Keywords: []string{
				"cheese", "milk", "yogurt", "butter", "cream",
				"mozzarella", "parmesan",
			}},
			{Name: "fruits", Keywords: []string{
				"apple", "banana", "berry", "mango", "pineapple",
				"lemon", "lime", "avocado",
			}},
			{Name: "herbs", Keywords: []string{
				"basil", "cilantro", "garlic", "ginger", "rosemary",
				"thyme", "mint", "parsley",
			}},
		},
		Cuisines: []CuisineEntry{
			{Name: "italian", Keywords: []string{"pasta", "pizza", "risotto", "lasagna", "parmesan", "marinara"}},
			{Name: "mexican", Keywords: []string{"taco", "burrito", "quesadilla", "salsa", "enchilada", "fajita"}},
			{Name: "asian", Keywords: []string{"stir fry", "teriyaki", "soy", "ramen", "sushi", "fried rice"}},
			{Name: "indian", Keywords: []string{"curry", "masala", "tikka", "naan", "dal"}},
			{Name: "mediterranean", Keywords: []string{"hummus", "falafel", "gyro", "tzatziki", "feta"}},
			{Name: "american", Keywords: []string{"burger", "bbq", "meatloaf", "mac and cheese", "sandwich"}},
		},
		Methods: []MethodEntry{
			{Keyword: "stir fry", Method: "stir-fried"},
			{Keyword: "stir-fry", Method: "stir-fried"},
			{Keyword: "slow cook", Method: "slow-cooked"},
			{Keyword: "grill", Method: "grilled"},
			{Keyword: "roast", Method: "roasted"},
			{Keyword: "bake", Method: "baked"},
			{Keyword: "fried", Method: "fried"},
			{Keyword: "fry", Method: "fried"},
			{Keyword: "steam", Method: "steamed"},
			{Keyword: "saute", Method: "sauteed"},
			{Keyword: "braise", Method: "braised"},
			{Keyword: "poach", Method: "poached"},
		},
		Templates: []TemplateEntry{
			{Name: "grilled-with-side", Skeleton: "Grilled {protein} with {vegetable}"},
			{Name: "stir-fry", Skeleton: "{protein} Stir Fry"},
			{Name: "pasta-dish", Skeleton: "{protein} Pasta"},
			{Name: "curry-dish", Skeleton: "{protein} Curry"},
			{Name: "tacos", Skeleton: "{protein} Tacos"},
			{Name: "salad", Skeleton: "{protein} Salad"},
			{Name: "soup", Skeleton: "{vegetable} Soup"},
			{Name: "sandwich", Skeleton: "{protein} Sandwich"},
			{Name: "rice-bowl", Skeleton: "{protein} Rice Bowl"},
		},
		FatKeywords: []string{
			"cheese", "butter", "cream", "avocado", "bacon", "oil",
			"peanut", "almond", "salmon",
		},
		FiberKeywords: []string{
			"beans", "lentils", "broccoli", "spinach", "kale", "oat",
			"quinoa", "apple", "berry", "carrot",
		},
		SimpleKeywords:  []string{"sandwich", "salad", "toast", "wrap", "smoothie"},
		ComplexKeywords: []string{"casserole", "braised", "stew", "curry", "risotto", "lasagna", "roast"},

		HighSpiceKeywords: []string{"spicy", "hot", "chili", "jalapeno", "sriracha", "cajun", "buffalo"},
		LowSpiceKeywords:  []string{"mild", "plain", "steamed", "buttered"},
	}
}

// LoadTables reads keyword tables from a YAML file. Sections absent from
// the file keep their compiled-in defaults.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse tables file: %w", err)
	}

	t := DefaultTables()
	if len(override.Ingredients) > 0 {
		t.Ingredients = override.Ingredients
	}
	if len(override.Cuisines) > 0 {
		t.Cuisines = override.Cuisines
	}
	if len(override.Methods) > 0 {
		t.Methods = override.Methods
	}
	if len(override.Templates) > 0 {
		t.Templates = override.Templates
	}
	if len(override.FatKeywords) > 0 {
		t.FatKeywords = override.FatKeywords
	}
	if len(override.FiberKeywords) > 0 {
		t.FiberKeywords = override.FiberKeywords
	}
	if len(override.SimpleKeywords) > 0 {
		t.SimpleKeywords = override.SimpleKeywords
	}
	if len(override.ComplexKeywords) > 0 {
		t.ComplexKeywords = override.ComplexKeywords
	}
	if len(override.HighSpiceKeywords) > 0 {
		t.HighSpiceKeywords = override.HighSpiceKeywords
	}
	if len(override.LowSpiceKeywords) > 0 {
		t.LowSpiceKeywords = override.LowSpiceKeywords
	}

	return t, nil
}

// Extractor derives a FeatureSet from a meal name. Extraction is a pure
// function of the name and the tables.
type Extractor struct {
	tables *Tables
}

// NewExtractor creates an extractor over the given tables
func NewExtractor(tables *Tables) *Extractor {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Extractor{tables: tables}
}

// Extract computes the feature set for a meal name
func (e *Extractor) Extract(mealName string) FeatureSet {
	name := strings.ToLower(mealName)

	fs := FeatureSet{
		Complexity: "moderate",
		SpiceLevel: "medium",
	}

	// Ingredient detection: deduplicated substring hits across categories
	seen := make(map[string]bool)
	proteinHits := 0
	grainHits := 0
	for _, cat := range e.tables.Ingredients {
		for _, kw := range cat.Keywords {
			if !strings.Contains(name, kw) || seen[kw] {
				continue
			}
			seen[kw] = true
			fs.Ingredients = append(fs.Ingredients, kw)
			switch cat.Name {
			case "proteins":
				proteinHits++
			case "grains":
				grainHits++
			}
		}
	}

	// Nutrition estimate, not a nutrition database
	fs.Nutrition.Protein = float64(proteinHits) * 20
	fs.Nutrition.Carbs = float64(grainHits) * 30
	fs.Nutrition.Fat = float64(countHits(name, e.tables.FatKeywords)) * 15
	fs.Nutrition.Fiber = float64(countHits(name, e.tables.FiberKeywords)) * 5

	// First cuisine in priority order with a keyword hit
	for _, cuisine := range e.tables.Cuisines {
		if containsAny(name, cuisine.Keywords) {
			fs.Cuisine = cuisine.Name
			break
		}
	}

	// First method keyword in priority order
	for _, m := range e.tables.Methods {
		if strings.Contains(name, m.Keyword) {
			fs.CookingMethod = m.Method
			break
		}
	}

	// A template matches when all of its literal words are present
	for _, tpl := range e.tables.Templates {
		if matchesSkeleton(name, tpl.Skeleton) {
			fs.Template = tpl.Name
			break
		}
	}

	if containsAny(name, e.tables.ComplexKeywords) {
		fs.Complexity = "complex"
	} else if containsAny(name, e.tables.SimpleKeywords) {
		fs.Complexity = "simple"
	}

	if containsAny(name, e.tables.HighSpiceKeywords) {
		fs.SpiceLevel = "high"
	} else if containsAny(name, e.tables.LowSpiceKeywords) {
		fs.SpiceLevel = "low"
	}

	return fs
}

// Tables returns the extractor's keyword tables
func (e *Extractor) Tables() *Tables {
	return e.tables
}

func countHits(name string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			n++
		}
	}
	return n
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// matchesSkeleton checks that every literal word of the skeleton
// (placeholders stripped) is present in the lowercased meal name
func matchesSkeleton(name, skeleton string) bool {
	words := SkeletonWords(skeleton)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if !strings.Contains(name, w) {
			return false
		}
	}
	return true
}

// SkeletonWords returns the lowercased literal words of a template
// skeleton with {placeholder} segments removed
func SkeletonWords(skeleton string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(skeleton)) {
		if strings.HasPrefix(w, "{") && strings.HasSuffix(w, "}") {
			continue
		}
		words = append(words, w)
	}
	return words
}

// IngredientPairs returns every unordered ingredient pair joined as
// "a + b" with the pair alphabetically sorted
func IngredientPairs(ingredients []string) []string {
	if len(ingredients) < 2 {
		return nil
	}
	sorted := make([]string, len(ingredients))
	copy(sorted, ingredients)
	sort.Strings(sorted)

	var pairs []string
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			pairs = append(pairs, sorted[i]+" + "+sorted[j])
		}
	}
	return pairs
}

// Vector encodes the feature set as a fixed 8-dimension embedding for
// nearest-neighbour queries over rated meals
func (fs FeatureSet) Vector() pgvector.Vector {
	complexity := float32(0.5)
	switch fs.Complexity {
	case "simple":
		complexity = 0
	case "complex":
		complexity = 1
	}

	spice := float32(0.5)
	switch fs.SpiceLevel {
	case "low":
		spice = 0
	case "high":
		spice = 1
	}

	template := float32(0)
	if fs.Template != "" {
		template = 1
	}

	return pgvector.NewVector([]float32{
		float32(fs.Nutrition.Protein) / 100,
		float32(fs.Nutrition.Carbs) / 100,
		float32(fs.Nutrition.Fat) / 100,
		float32(fs.Nutrition.Fiber) / 40,
		complexity,
		spice,
		float32(len(fs.Ingredients)) / 8,
		template,
	})
}
