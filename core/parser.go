package core

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/huangsam/hypolog/schema"
)

// Confidence deltas applied on top of the base score.
const (
	baseConfidence         = 0.5
	interventionConfidence = 0.2
	outcomeConfidence      = 0.2
	causalConfidence       = 0.1
)

// effectVerbs covers the verb forms that link an intervention to an outcome.
const effectVerbs = `improves?|helps?|affects?|reduces?|increases?|boosts?|impacts?|decreases?|lowers?|changes?|enhances?`

// interventionPatterns are tried in order and the first match wins.
var interventionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:taking|using|doing|eating|drinking|practicing)\s+(.+?)\s+(?:` + effectVerbs + `)\b`),
	regexp.MustCompile(`\b(?:does|do|can|will|would|could)\s+(.+?)\s+(?:` + effectVerbs + `)\b`),
	regexp.MustCompile(`\b(?:if|when)\s+i\s+([^,]+?)\s*(?:,|\bthen\b|$)`),
	regexp.MustCompile(`^(.+?)\s+(?:` + effectVerbs + `)\s`),
}

// outcomePattern captures what follows a chain of effect verbs, e.g. "help reduce my stress".
var outcomePattern = regexp.MustCompile(`\b(?:` + effectVerbs + `)(?:\s+(?:` + effectVerbs + `))*\s+(?:my\s+|the\s+|our\s+)?([a-z0-9][a-z0-9 '-]*)`)

// outcomeStops end a captured outcome phrase.
var outcomeStops = []string{" when ", " if ", " after ", " during ", " while ", " because ", " at ", " in the ", " and ", " or "}

var leadingFillers = []string{"my ", "the ", "a ", "an ", "some ", "more ", "daily ", "regular "}

// RuleParser extracts a ParsedHypothesis from free text using a static lexicon.
// It is safe for concurrent use once constructed.
type RuleParser struct {
	lexicon  schema.Lexicon
	keywords map[schema.Category][]*regexp.Regexp
	causal   []*regexp.Regexp
}

// NewRuleParser compiles the keyword tables of the given lexicon.
func NewRuleParser(lexicon schema.Lexicon) *RuleParser {
	p := &RuleParser{
		lexicon:  lexicon,
		keywords: make(map[schema.Category][]*regexp.Regexp, len(lexicon.CategoryKeywords)),
	}
	for category, words := range lexicon.CategoryKeywords {
		p.keywords[category] = compileWordStarts(words)
	}
	p.causal = compileWordStarts(lexicon.CausalWords)
	return p
}

// NewDefaultRuleParser returns a parser over the built-in lexicon.
func NewDefaultRuleParser() *RuleParser {
	return NewRuleParser(schema.DefaultLexicon())
}

// compileWordStarts turns keywords into patterns anchored at a word start.
func compileWordStarts(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(`(?:^|[^a-z0-9])`+regexp.QuoteMeta(w)))
	}
	return patterns
}

// Parse never fails. Unmatched inputs fall back to placeholder values.
func (p *RuleParser) Parse(_ context.Context, text string) schema.ParsedHypothesis {
	lower := strings.ToLower(strings.TrimSpace(text))

	intervention := p.extractIntervention(lower)
	outcome := p.extractOutcome(lower)
	category := p.categorize(intervention + " " + outcome + " " + lower)

	confidence := baseConfidence
	if intervention != schema.DefaultIntervention {
		confidence += interventionConfidence
	}
	if outcome != schema.DefaultOutcome {
		confidence += outcomeConfidence
	}
	if p.hasCausalLanguage(lower) {
		confidence += causalConfidence
	}
	confidence = math.Min(1.0, math.Round(confidence*100)/100)

	return schema.ParsedHypothesis{
		Intervention: intervention,
		Outcome:      outcome,
		Category:     category,
		Confidence:   confidence,
	}
}

// extractIntervention prefers lexicon entries, so any text naming a known
// intervention yields exactly that entry.
func (p *RuleParser) extractIntervention(lower string) string {
	var captured string
	for _, re := range interventionPatterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			captured = cleanPhrase(m[1])
			if captured != "" {
				break
			}
		}
	}
	if entry := firstContained(p.lexicon.Interventions, captured); entry != "" {
		return entry
	}
	if entry := firstContained(p.lexicon.Interventions, lower); entry != "" {
		return entry
	}
	if captured != "" {
		return captured
	}
	return schema.DefaultIntervention
}

func (p *RuleParser) extractOutcome(lower string) string {
	var captured string
	if m := outcomePattern.FindStringSubmatch(lower); m != nil {
		captured = m[1]
		for _, stop := range outcomeStops {
			if idx := strings.Index(captured+" ", stop); idx >= 0 {
				captured = captured[:idx]
			}
		}
		captured = cleanPhrase(captured)
	}
	if entry := firstContained(p.lexicon.Outcomes, captured); entry != "" {
		return entry
	}
	if captured != "" {
		return captured
	}
	if entry := firstContained(p.lexicon.Outcomes, lower); entry != "" {
		return entry
	}
	return schema.DefaultOutcome
}

// categorize scans keyword sets in the fixed priority order of schema.AllCategories.
func (p *RuleParser) categorize(haystack string) schema.Category {
	for _, category := range schema.AllCategories {
		for _, re := range p.keywords[category] {
			if re.MatchString(haystack) {
				return category
			}
		}
	}
	return schema.GeneralCategory
}

func (p *RuleParser) hasCausalLanguage(lower string) bool {
	for _, re := range p.causal {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// firstContained returns the first entry found as a substring of s.
func firstContained(entries []string, s string) string {
	if s == "" {
		return ""
	}
	for _, entry := range entries {
		if entry != "" && strings.Contains(s, entry) {
			return entry
		}
	}
	return ""
}

// cleanPhrase strips punctuation and filler words from a captured phrase.
func cleanPhrase(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	phrase = strings.TrimRight(phrase, "?!.,;: ")
	for changed := true; changed; {
		changed = false
		for _, filler := range leadingFillers {
			if strings.HasPrefix(phrase, filler) {
				phrase = strings.TrimSpace(strings.TrimPrefix(phrase, filler))
				changed = true
			}
		}
	}
	return strings.Join(strings.Fields(phrase), " ")
}
