package core

import (
	"strings"
	"time"
	"unicode"

	"github.com/huangsam/hypolog/schema"
)

// sleepKey is the canonical merge key for every variable whose name starts with "sleep".
const sleepKey = "sleep"

// NormalizeVariableName returns the merge key for a variable display name.
func NormalizeVariableName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	tokens := strings.FieldsFunc(key, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) > 0 && tokens[0] == sleepKey {
		return sleepKey
	}
	return key
}

// mergeGroup identifies one card. Variables of different types never share one.
type mergeGroup struct {
	key string
	typ schema.VariableType
}

// DedupeVariables merges variables sharing a merge key and a type. Output
// order follows the first time each group is seen. The representative is the
// variable with the shortest display name, ties going to the earliest one.
func DedupeVariables(vars []schema.Variable) []schema.MergedVariable {
	if len(vars) == 0 {
		return []schema.MergedVariable{}
	}

	index := make(map[mergeGroup]int)
	seenIDs := make(map[mergeGroup]map[string]struct{})
	var merged []schema.MergedVariable

	for _, v := range vars {
		key := NormalizeVariableName(v.Name)
		group := mergeGroup{key: key, typ: v.Type}
		pos, ok := index[group]
		if !ok {
			index[group] = len(merged)
			seenIDs[group] = map[string]struct{}{v.ID: {}}
			merged = append(merged, schema.MergedVariable{
				Key:         key,
				Variable:    v,
				VariableIDs: []string{v.ID},
			})
			continue
		}

		card := &merged[pos]
		if len(strings.TrimSpace(v.Name)) < len(strings.TrimSpace(card.Variable.Name)) {
			card.Variable = v
		}
		if _, dup := seenIDs[group][v.ID]; !dup {
			seenIDs[group][v.ID] = struct{}{}
			card.VariableIDs = append(card.VariableIDs, v.ID)
		}
	}
	return merged
}

// ActiveVariables returns the merged variables of every non-archived hypothesis.
func ActiveVariables(hypotheses []schema.Hypothesis) []schema.MergedVariable {
	var vars []schema.Variable
	for _, h := range hypotheses {
		if h.IsArchived() {
			continue
		}
		vars = append(vars, h.Variables...)
	}
	return DedupeVariables(vars)
}

// MatchMerged returns the cards ref names. An identifier selects the one card
// holding it. A name selects one card per variable type sharing its key.
func MatchMerged(merged []schema.MergedVariable, ref string) []schema.MergedVariable {
	for _, card := range merged {
		for _, id := range card.VariableIDs {
			if id == ref {
				return []schema.MergedVariable{card}
			}
		}
	}
	key := NormalizeVariableName(ref)
	var matches []schema.MergedVariable
	for _, card := range merged {
		if card.Key == key {
			matches = append(matches, card)
		}
	}
	return matches
}

// FindMerged returns the first card ref names.
func FindMerged(merged []schema.MergedVariable, ref string) (schema.MergedVariable, bool) {
	matches := MatchMerged(merged, ref)
	if len(matches) == 0 {
		return schema.MergedVariable{}, false
	}
	return matches[0], true
}

// MergedDataPoints returns the points logged against any identifier of the
// card. Fan-out copies sharing timestamp, value and note collapse into one,
// keeping the first point seen.
func MergedDataPoints(card schema.MergedVariable, points []schema.DataPoint) []schema.DataPoint {
	ids := make(map[string]struct{}, len(card.VariableIDs))
	for _, id := range card.VariableIDs {
		ids[id] = struct{}{}
	}

	type copyKey struct {
		timestamp string
		value     float64
		note      string
	}
	seen := make(map[copyKey]struct{})
	result := []schema.DataPoint{}
	for _, dp := range points {
		if _, ok := ids[dp.VariableID]; !ok {
			continue
		}
		k := copyKey{timestamp: dp.Timestamp, value: dp.Value, note: dp.Note}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		result = append(result, dp)
	}
	return result
}

// SummarizeMerged fills the entry count and latest reading of each card from
// the points logged against any of its identifiers.
func SummarizeMerged(merged []schema.MergedVariable, points []schema.DataPoint) []schema.MergedVariable {
	result := make([]schema.MergedVariable, 0, len(merged))
	for _, card := range merged {
		card.Entries = 0
		card.LastTimestamp = ""
		card.LastValue = nil

		var latest time.Time
		for _, dp := range MergedDataPoints(card, points) {
			card.Entries++
			ts, err := ParseTimestamp(dp.Timestamp)
			if err != nil {
				continue
			}
			if card.LastValue == nil || !ts.Before(latest) {
				value := dp.Value
				latest = ts
				card.LastTimestamp = dp.Timestamp
				card.LastValue = &value
			}
		}
		result = append(result, card)
	}
	return result
}
