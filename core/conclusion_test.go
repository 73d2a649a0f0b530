package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/huangsam/hypolog/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var concludeNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

func meditationHypothesis() *schema.Hypothesis {
	return &schema.Hypothesis{
		ID:       "h1",
		Question: "Does meditation help reduce my stress?",
		Parsed: &schema.ParsedHypothesis{
			Intervention: "meditation",
			Outcome:      "stress",
			Category:     schema.EmotionalCategory,
			Confidence:   1.0,
		},
		Variables: []schema.Variable{
			{ID: "iv", Name: "Meditation", Type: schema.NumericVariable},
			{ID: "ov", Name: "Stress", Type: schema.NumericVariable},
			{ID: "ctl", Name: "Caffeine", Type: schema.NumericVariable, IsControl: true},
		},
	}
}

// series builds one point per day starting 2026-03-01, using the given timestamp suffix.
func series(variableID string, suffix string, values ...float64) []schema.DataPoint {
	points := make([]schema.DataPoint, 0, len(values))
	for i, v := range values {
		points = append(points, schema.DataPoint{
			ID:         fmt.Sprintf("%s-%d", variableID, i),
			VariableID: variableID,
			Value:      v,
			Timestamp:  fmt.Sprintf("2026-03-%02d%s", i+1, suffix),
		})
	}
	return points
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name     string
		xs, ys   []float64
		expected float64
	}{
		{"perfect positive", []float64{1, 2, 3, 4, 5, 6}, []float64{2, 4, 6, 8, 10, 12}, 1.0},
		{"perfect negative", []float64{1, 2, 3, 4, 5, 6}, []float64{6, 5, 4, 3, 2, 1}, -1.0},
		{"no variance", []float64{3, 3, 3}, []float64{1, 2, 3}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Pearson(tt.xs, tt.ys), 1e-9)
		})
	}
}

func TestVerdictFor(t *testing.T) {
	th := schema.DefaultThresholds()
	tests := []struct {
		r        float64
		expected schema.Verdict
	}{
		{1.0, schema.SupportedVerdict},
		{0.41, schema.SupportedVerdict},
		{0.4, schema.InconclusiveVerdict},
		{0.1, schema.InconclusiveVerdict},
		{0, schema.InconclusiveVerdict},
		{-0.2, schema.InconclusiveVerdict},
		{-0.21, schema.RejectedVerdict},
		{-1.0, schema.RejectedVerdict},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("r=%v", tt.r), func(t *testing.T) {
			assert.Equal(t, tt.expected, VerdictFor(tt.r, th))
		})
	}
}

func TestSelectVariables(t *testing.T) {
	t.Run("parsed phrases pick variables", func(t *testing.T) {
		h := meditationHypothesis()
		h.Variables[0], h.Variables[1] = h.Variables[1], h.Variables[0]
		iv, ov, ok := SelectVariables(h)
		require.True(t, ok)
		assert.Equal(t, "iv", iv.ID)
		assert.Equal(t, "ov", ov.ID)
	})

	t.Run("falls back to declared order", func(t *testing.T) {
		h := &schema.Hypothesis{Variables: []schema.Variable{
			{ID: "x", Name: "Walks"}, {ID: "y", Name: "Mood"},
		}}
		iv, ov, ok := SelectVariables(h)
		require.True(t, ok)
		assert.Equal(t, "x", iv.ID)
		assert.Equal(t, "y", ov.ID)
	})

	t.Run("controls do not count", func(t *testing.T) {
		h := &schema.Hypothesis{Variables: []schema.Variable{
			{ID: "x", Name: "Walks"}, {ID: "c", Name: "Coffee", IsControl: true},
		}}
		_, _, ok := SelectVariables(h)
		assert.False(t, ok)
	})
}

func TestGenerate(t *testing.T) {
	gen := NewConclusionGenerator()

	t.Run("perfect positive correlation is supported", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ov", "", 2, 4, 6, 8, 10, 12)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.SupportedVerdict, c.Verdict)
		assert.InDelta(t, 1.0, c.Correlation, 1e-9)
		assert.Equal(t, 6, c.PairedPoints)
		assert.Equal(t, concludeNow, c.ConcludedAt)
		assert.Contains(t, c.Summary, "100%")
		assert.Contains(t, c.Summary, "Consider continuing meditation")
	})

	t.Run("perfect negative correlation is rejected", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ov", "", 12, 10, 8, 6, 4, 2)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.RejectedVerdict, c.Verdict)
		assert.InDelta(t, -1.0, c.Correlation, 1e-9)
		assert.Contains(t, c.Summary, "Consider reconsidering meditation")
	})

	t.Run("flat outcome is inconclusive", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ov", "", 5, 5, 5, 5, 5, 5)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
		assert.Zero(t, c.Correlation)
		assert.Contains(t, c.Summary, "Collect more data")
	})

	t.Run("three intervention points against ten outcome points", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3), series("ov", "", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
		assert.Contains(t, c.Summary, "need more data")
		assert.Zero(t, c.PairedPoints)
	})

	t.Run("control points are ignored", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ctl", "", 1, 2, 3, 4, 5, 6)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
		assert.Contains(t, c.Summary, "need more data")
	})

	t.Run("too few primary variables", func(t *testing.T) {
		h := meditationHypothesis()
		h.Variables = h.Variables[:1]
		c := gen.Generate(h, nil, concludeNow)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
		assert.Equal(t, msgTooFewVariables, c.Summary)
	})

	t.Run("exact pairing misses different times of day", func(t *testing.T) {
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ov", "T21:00:00Z", 2, 4, 6, 8, 10, 12)...)
		c := gen.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
		assert.Zero(t, c.PairedPoints)
		assert.Contains(t, c.Summary, "Log on the same days")
	})

	t.Run("calendar-day pairing matches different times of day", func(t *testing.T) {
		daily := ConclusionGenerator{Thresholds: schema.DefaultThresholds(), Pairing: schema.CalendarDayPairing}
		points := append(series("iv", "", 1, 2, 3, 4, 5, 6), series("ov", "T21:00:00Z", 2, 4, 6, 8, 10, 12)...)
		c := daily.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, schema.SupportedVerdict, c.Verdict)
		assert.Equal(t, 6, c.PairedPoints)
	})

	t.Run("custom thresholds", func(t *testing.T) {
		strict := ConclusionGenerator{
			Thresholds: schema.Thresholds{Supported: 0.99, Rejected: -0.99, MinPoints: 3, MinOverlap: 3},
			Pairing:    schema.ExactPairing,
		}
		points := append(series("iv", "", 1, 2, 3), series("ov", "", 1, 3, 2)...)
		c := strict.Generate(meditationHypothesis(), points, concludeNow)
		assert.Equal(t, 3, c.PairedPoints)
		assert.Equal(t, schema.InconclusiveVerdict, c.Verdict)
	})
}

func TestPairPoints_FirstMatchWins(t *testing.T) {
	xs := series("iv", "", 1, 2)
	ys := []schema.DataPoint{
		{VariableID: "ov", Value: 9, Timestamp: "2026-03-01"},
		{VariableID: "ov", Value: 4, Timestamp: "2026-03-01"},
	}
	px, py := PairPoints(xs, ys, schema.ExactPairing, false, false)
	assert.Equal(t, []float64{1}, px)
	assert.Equal(t, []float64{9}, py)
}

func TestDailySeries(t *testing.T) {
	points := []schema.DataPoint{
		{Value: 2, Timestamp: "2026-03-01T08:00:00Z"},
		{Value: 3, Timestamp: "2026-03-01T20:00:00Z"},
		{Value: 5, Timestamp: "2026-03-02"},
	}

	additive := DailySeries(points, true)
	require.Len(t, additive, 2)
	assert.Equal(t, schema.DailyValue{Day: "2026-03-01", Value: 5, Entries: 2}, additive[0])
	assert.Equal(t, schema.DailyValue{Day: "2026-03-02", Value: 5, Entries: 1}, additive[1])

	last := DailySeries(points, false)
	require.Len(t, last, 2)
	assert.Equal(t, 3.0, last[0].Value)
	assert.Equal(t, 2, last[0].Entries)
}

func TestDayOf(t *testing.T) {
	assert.Equal(t, "2026-03-01", DayOf("2026-03-01T08:00:00Z"))
	assert.Equal(t, "2026-03-01", DayOf(" 2026-03-01 "))
	assert.Equal(t, "2026", DayOf("2026"))
}
