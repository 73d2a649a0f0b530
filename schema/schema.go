// Package schema has models, enums and lookup tables for all parts of hypolog.
package schema

import "time"

// Variable is a trackable quantity owned by exactly one hypothesis.
// Its Type never changes once the variable has been saved.
type Variable struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Type          VariableType  `json:"type"`
	HypothesisID  string        `json:"hypothesis_id"`
	IsControl     bool          `json:"is_control"`               // Excluded from the primary correlation
	PreferredTime PreferredTime `json:"preferred_time,omitempty"` // When to prompt for a value
	Additive      bool          `json:"additive,omitempty"`       // Same-day entries sum (e.g. water intake)
}

// DataPointMetadata holds optional details attached by the source of a data point.
type DataPointMetadata struct {
	Source   string            `json:"source,omitempty"`   // manual, import, sync
	Activity string            `json:"activity,omitempty"` // activity detail, e.g. "30 min run"
	Extra    map[string]string `json:"extra,omitempty"`
}

// DataPoint is one logged observation of a variable.
// Timestamp is kept as the literal ISO-8601 string it was logged with, since
// correlation pairing compares the stored strings.
type DataPoint struct {
	ID         string             `json:"id"`
	VariableID string             `json:"variable_id"`
	Value      float64            `json:"value"`
	Timestamp  string             `json:"timestamp"`
	Note       string             `json:"note,omitempty"`
	Metadata   *DataPointMetadata `json:"metadata,omitempty"`
}

// ParsedHypothesis is the structured reading of a free-text hypothesis.
type ParsedHypothesis struct {
	Intervention string   `json:"intervention"`
	Outcome      string   `json:"outcome"`
	Category     Category `json:"category"`
	Confidence   float64  `json:"confidence"` // 0.0-1.0, heuristic
}

// BaselinePhase is the observation window that precedes the intervention.
type BaselinePhase struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Completed bool      `json:"completed"`
}

// HypothesisContext describes how and when the intervention is applied.
type HypothesisContext struct {
	Frequency       string `json:"frequency,omitempty"`
	Timing          string `json:"timing,omitempty"`
	SpecificContext string `json:"specific_context,omitempty"`
}

// KnowledgeCard is background research attached to a hypothesis.
type KnowledgeCard struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Sources []string `json:"sources,omitempty"`
}

// Conclusion is the verdict produced from the paired intervention/outcome series.
type Conclusion struct {
	Verdict      Verdict   `json:"verdict"`
	Summary      string    `json:"summary"`
	Correlation  float64   `json:"correlation"`
	PairedPoints int       `json:"paired_points"`
	ConcludedAt  time.Time `json:"concluded_at"`
}

// Hypothesis is the aggregate root: a question, its variables and its lifecycle.
type Hypothesis struct {
	ID                string             `json:"id"`
	Question          string             `json:"question"`
	Variables         []Variable         `json:"variables"`
	CreatedAt         time.Time          `json:"created_at"`
	Status            HypothesisStatus   `json:"status"`
	Parsed            *ParsedHypothesis  `json:"parsed,omitempty"`
	Knowledge         *KnowledgeCard     `json:"knowledge,omitempty"`
	Baseline          *BaselinePhase     `json:"baseline,omitempty"`
	InterventionStart *time.Time         `json:"intervention_start,omitempty"`
	Context           *HypothesisContext `json:"context,omitempty"`
	Conclusion        *Conclusion        `json:"conclusion,omitempty"`
}

// IsArchived reports whether the hypothesis has reached its soft end of life.
func (h *Hypothesis) IsArchived() bool {
	return h.Status == ArchivedStatus
}

// PrimaryVariables returns the non-control variables in declared order.
func (h *Hypothesis) PrimaryVariables() []Variable {
	var primaries []Variable
	for _, v := range h.Variables {
		if !v.IsControl {
			primaries = append(primaries, v)
		}
	}
	return primaries
}

// MergedVariable is one display card standing in for same-named variables of
// one type across several hypotheses.
type MergedVariable struct {
	Key         string   `json:"key"`
	Variable    Variable `json:"variable"`     // Representative
	VariableIDs []string `json:"variable_ids"` // Every underlying identifier

	Entries       int      `json:"entries"`
	LastTimestamp string   `json:"last_timestamp,omitempty"`
	LastValue     *float64 `json:"last_value,omitempty"`
}

// DailyValue is the per-calendar-day reading of a variable.
type DailyValue struct {
	Day     string  `json:"day"` // YYYY-MM-DD
	Value   float64 `json:"value"`
	Entries int     `json:"entries"`
}

// VariableProgress summarizes logging activity for one variable.
type VariableProgress struct {
	Variable    Variable     `json:"variable"`
	TotalPoints int          `json:"total_points"`
	Days        []DailyValue `json:"days"`
}

// HypothesisProgress summarizes where a hypothesis stands right now.
type HypothesisProgress struct {
	Hypothesis    Hypothesis         `json:"hypothesis"`
	Phase         PhaseState         `json:"phase"`
	DaysRemaining int                `json:"days_remaining"`
	Variables     []VariableProgress `json:"variables"`
}
