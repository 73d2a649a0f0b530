package core

import (
	"math"
	"time"

	"github.com/huangsam/hypolog/schema"
)

const day = 24 * time.Hour

// NewBaseline returns a baseline window of the given number of days from start.
// A non-positive length yields nil, meaning no baseline.
func NewBaseline(start time.Time, days int) *schema.BaselinePhase {
	if days <= 0 {
		return nil
	}
	return &schema.BaselinePhase{
		StartDate: start,
		EndDate:   start.Add(time.Duration(days) * day),
	}
}

// baselineDone reports whether a window is over. Malformed windows count as done.
func baselineDone(b *schema.BaselinePhase, now time.Time) bool {
	return b.Completed || b.EndDate.Before(b.StartDate) || now.After(b.EndDate)
}

// PhaseOf derives the phase of a hypothesis at the given instant.
func PhaseOf(h *schema.Hypothesis, now time.Time) schema.PhaseState {
	if h == nil || h.Baseline == nil {
		return schema.NoBaseline
	}
	if baselineDone(h.Baseline, now) {
		return schema.BaselineComplete
	}
	return schema.BaselineActive
}

// InBaseline reports whether the hypothesis is still observing its baseline.
func InBaseline(h *schema.Hypothesis, now time.Time) bool {
	return PhaseOf(h, now) == schema.BaselineActive
}

// DaysRemaining is the ceiling of whole days left in the window, 0 once done.
func DaysRemaining(b *schema.BaselinePhase, now time.Time) int {
	if b == nil || baselineDone(b, now) {
		return 0
	}
	return int(math.Ceil(float64(b.EndDate.Sub(now)) / float64(day)))
}

// CompleteBaseline marks the baseline done and starts the intervention.
// It reports whether anything changed. An existing intervention start is kept.
func CompleteBaseline(h *schema.Hypothesis, now time.Time) bool {
	if h == nil {
		return false
	}
	changed := false
	if h.Baseline != nil && !h.Baseline.Completed {
		h.Baseline.Completed = true
		changed = true
	}
	if h.InterventionStart == nil {
		start := now
		if h.Baseline != nil && !h.Baseline.EndDate.Before(h.Baseline.StartDate) && now.After(h.Baseline.EndDate) {
			start = h.Baseline.EndDate
		}
		h.InterventionStart = &start
		changed = true
	}
	return changed
}
