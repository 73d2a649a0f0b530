package schema

import "strings"

// Lexicon holds the word lists the rule-based parser scans.
// Entries are lower-case and ordered by priority.
type Lexicon struct {
	Interventions    []string              `json:"interventions"`
	Outcomes         []string              `json:"outcomes"`
	CategoryKeywords map[Category][]string `json:"category_keywords"`
	CausalWords      []string              `json:"causal_words"`
}

// Thresholds drive the verdict mapping and the data sufficiency gate.
// Supported and Rejected are intentionally asymmetric.
type Thresholds struct {
	Supported  float64 `json:"supported"`   // r strictly above this is supported
	Rejected   float64 `json:"rejected"`    // r strictly below this is rejected
	MinPoints  int     `json:"min_points"`  // per series
	MinOverlap int     `json:"min_overlap"` // paired points
}

// DefaultThresholds returns the thresholds used when nothing is configured.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Supported:  0.4,
		Rejected:   -0.2,
		MinPoints:  5,
		MinOverlap: 5,
	}
}

// defaultInterventions is scanned in order, so longer phrases come before their substrings.
var defaultInterventions = []string{
	"omega-3",
	"fish oil",
	"vitamin d",
	"magnesium",
	"creatine",
	"caffeine",
	"coffee",
	"green tea",
	"meditation",
	"mindfulness",
	"breathwork",
	"yoga",
	"exercise",
	"running",
	"walking",
	"cycling",
	"swimming",
	"weightlifting",
	"stretching",
	"cold showers",
	"intermittent fasting",
	"fasting",
	"journaling",
	"reading",
	"gratitude",
	"sunlight",
	"napping",
	"alcohol",
	"sugar",
	"screen time",
	"social media",
}

var defaultOutcomes = []string{
	"sleep quality",
	"sleep",
	"focus",
	"concentration",
	"productivity",
	"memory",
	"clarity",
	"stress",
	"anxiety",
	"mood",
	"happiness",
	"energy",
	"fatigue",
	"strength",
	"endurance",
	"recovery",
	"pain",
	"weight",
	"digestion",
	"motivation",
}

// defaultCategoryKeywords match at the start of a word, so "rest" does not hit "stress".
var defaultCategoryKeywords = map[Category][]string{
	CognitiveCategory: {
		"focus", "concentrat", "memory", "clarity", "productiv", "cognit",
		"attention", "brain", "think", "learn",
	},
	PhysicalCategory: {
		"exercis", "running", "walking", "cycling", "swimming", "weightlift",
		"strength", "endurance", "energy", "fatigue", "fitness", "workout",
		"pain", "recovery", "yoga", "stretch", "weight",
	},
	EmotionalCategory: {
		"stress", "mood", "anxi", "happ", "calm", "emotion", "depress",
		"gratitude", "meditat", "mindful",
	},
	SleepCategory: {
		"sleep", "nap", "rest", "insomnia", "bedtime", "dream",
	},
	NutritionCategory: {
		"diet", "food", "eat", "omega", "vitamin", "supplement", "caffeine",
		"coffee", "tea", "sugar", "fasting", "magnesium", "creatine", "fish oil",
		"water", "hydrat", "digest", "meal",
	},
	BehavioralCategory: {
		"habit", "screen", "phone", "social media", "journal", "reading",
		"routine", "alcohol", "sunlight", "cold shower", "procrastinat",
	},
}

var defaultCausalWords = []string{
	"improve", "help", "affect", "reduce", "increase", "boost", "impact",
	"decrease", "lower", "cause", "lead to", "effect", "better", "worse",
	"because",
}

// DefaultLexicon returns a fresh copy of the built-in lexicon.
func DefaultLexicon() Lexicon {
	keywords := make(map[Category][]string, len(defaultCategoryKeywords))
	for category, words := range defaultCategoryKeywords {
		keywords[category] = append([]string(nil), words...)
	}
	return Lexicon{
		Interventions:    append([]string(nil), defaultInterventions...),
		Outcomes:         append([]string(nil), defaultOutcomes...),
		CategoryKeywords: keywords,
		CausalWords:      append([]string(nil), defaultCausalWords...),
	}
}

// Extend returns a copy of the lexicon with extra interventions and outcomes
// prepended, so user entries win over built-in ones.
func (l Lexicon) Extend(interventions, outcomes []string) Lexicon {
	extended := l
	extended.Interventions = mergeEntries(interventions, l.Interventions)
	extended.Outcomes = mergeEntries(outcomes, l.Outcomes)
	return extended
}

// mergeEntries lower-cases and trims entries, dropping blanks and duplicates.
func mergeEntries(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, list := range lists {
		for _, entry := range list {
			entry = strings.ToLower(strings.TrimSpace(entry))
			if entry == "" {
				continue
			}
			if _, ok := seen[entry]; ok {
				continue
			}
			seen[entry] = struct{}{}
			merged = append(merged, entry)
		}
	}
	return merged
}
