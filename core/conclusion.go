package core

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/huangsam/hypolog/schema"
)

// Fixed explanations for verdicts that never reach the statistic.
const (
	msgTooFewVariables = "At least two primary variables are needed to draw a conclusion. " +
		"Add an intervention and an outcome variable to this hypothesis."
	dayLayoutLen = len("2006-01-02")
)

// ConclusionGenerator turns paired intervention and outcome series into a verdict.
// It is a pure value type; callers persist the returned conclusion.
type ConclusionGenerator struct {
	Thresholds schema.Thresholds
	Pairing    schema.PairingMode
}

// NewConclusionGenerator returns a generator with default thresholds and exact pairing.
func NewConclusionGenerator() ConclusionGenerator {
	return ConclusionGenerator{
		Thresholds: schema.DefaultThresholds(),
		Pairing:    schema.ExactPairing,
	}
}

// SelectVariables picks the intervention and outcome variables among the
// primaries. A primary whose name the parsed intervention (or outcome)
// references wins; otherwise the first and second primaries are used.
func SelectVariables(h *schema.Hypothesis) (intervention, outcome schema.Variable, ok bool) {
	primaries := h.PrimaryVariables()
	if len(primaries) < 2 {
		return schema.Variable{}, schema.Variable{}, false
	}

	iIdx, oIdx := -1, -1
	if h.Parsed != nil {
		iIdx = referencedBy(primaries, h.Parsed.Intervention, -1)
		oIdx = referencedBy(primaries, h.Parsed.Outcome, iIdx)
	}
	if iIdx < 0 {
		iIdx = firstOther(primaries, oIdx)
	}
	if oIdx < 0 {
		oIdx = firstOther(primaries, iIdx)
	}
	return primaries[iIdx], primaries[oIdx], true
}

// referencedBy finds the first primary whose name and the phrase contain one another.
func referencedBy(primaries []schema.Variable, phrase string, skip int) int {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	if phrase == "" {
		return -1
	}
	for i, v := range primaries {
		if i == skip {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(v.Name))
		if name == "" {
			continue
		}
		if strings.Contains(phrase, name) || strings.Contains(name, phrase) {
			return i
		}
	}
	return -1
}

func firstOther(primaries []schema.Variable, skip int) int {
	for i := range primaries {
		if i != skip {
			return i
		}
	}
	return -1
}

// Pearson computes the correlation coefficient of two equally long series.
// It returns 0 when either series has no variance.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	var meanX, meanY float64
	for i := range n {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var sumXY, sumXX, sumYY float64
	for i := range n {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		sumXY += dx * dy
		sumXX += dx * dx
		sumYY += dy * dy
	}
	if sumXX == 0 || sumYY == 0 {
		return 0
	}
	return sumXY / math.Sqrt(sumXX*sumYY)
}

// VerdictFor maps a coefficient to a verdict. Both bounds are strict.
func VerdictFor(r float64, th schema.Thresholds) schema.Verdict {
	switch {
	case r > th.Supported:
		return schema.SupportedVerdict
	case r < th.Rejected:
		return schema.RejectedVerdict
	default:
		return schema.InconclusiveVerdict
	}
}

// PairPoints lines up the two series. Exact pairing matches stored timestamp
// strings literally, each intervention point taking the first outcome point
// with the same string. Calendar-day pairing compares daily values instead.
func PairPoints(xs, ys []schema.DataPoint, mode schema.PairingMode, xAdditive, yAdditive bool) ([]float64, []float64) {
	if mode == schema.CalendarDayPairing {
		return pairDaily(DailySeries(xs, xAdditive), DailySeries(ys, yAdditive))
	}

	byStamp := make(map[string]float64, len(ys))
	for _, dp := range ys {
		if _, ok := byStamp[dp.Timestamp]; !ok {
			byStamp[dp.Timestamp] = dp.Value
		}
	}
	var px, py []float64
	for _, dp := range xs {
		if v, ok := byStamp[dp.Timestamp]; ok {
			px = append(px, dp.Value)
			py = append(py, v)
		}
	}
	return px, py
}

func pairDaily(xs, ys []schema.DailyValue) ([]float64, []float64) {
	byDay := make(map[string]float64, len(ys))
	for _, d := range ys {
		byDay[d.Day] = d.Value
	}
	var px, py []float64
	for _, d := range xs {
		if v, ok := byDay[d.Day]; ok {
			px = append(px, d.Value)
			py = append(py, v)
		}
	}
	return px, py
}

// DayOf returns the YYYY-MM-DD prefix of an ISO-8601 timestamp.
func DayOf(timestamp string) string {
	timestamp = strings.TrimSpace(timestamp)
	if len(timestamp) < dayLayoutLen {
		return timestamp
	}
	return timestamp[:dayLayoutLen]
}

// DailySeries folds points into one value per calendar day, in day order of
// first appearance. Additive variables sum their entries; others keep the last.
func DailySeries(points []schema.DataPoint, additive bool) []schema.DailyValue {
	index := make(map[string]int)
	var days []schema.DailyValue
	for _, dp := range points {
		d := DayOf(dp.Timestamp)
		pos, ok := index[d]
		if !ok {
			index[d] = len(days)
			days = append(days, schema.DailyValue{Day: d, Value: dp.Value, Entries: 1})
			continue
		}
		days[pos].Entries++
		if additive {
			days[pos].Value += dp.Value
		} else {
			days[pos].Value = dp.Value
		}
	}
	return days
}

// Generate evaluates the hypothesis. points holds the data points of its
// variables in any order; insufficiency yields an inconclusive verdict, never an error.
func (g ConclusionGenerator) Generate(h *schema.Hypothesis, points []schema.DataPoint, now time.Time) schema.Conclusion {
	conclusion := schema.Conclusion{Verdict: schema.InconclusiveVerdict, ConcludedAt: now}

	iv, ov, ok := SelectVariables(h)
	if !ok {
		conclusion.Summary = msgTooFewVariables
		return conclusion
	}
	interventionName, outcomeName := describe(h, iv, ov)

	var xs, ys []schema.DataPoint
	for _, dp := range points {
		switch dp.VariableID {
		case iv.ID:
			xs = append(xs, dp)
		case ov.ID:
			ys = append(ys, dp)
		}
	}

	th := g.Thresholds
	if len(xs) < th.MinPoints || len(ys) < th.MinPoints {
		conclusion.Summary = fmt.Sprintf(
			"Not enough data yet to evaluate whether %s affects %s: we need more data, at least %d entries for each "+
				"(currently %d for %s and %d for %s). Keep logging to collect more data.",
			interventionName, outcomeName, th.MinPoints, len(xs), iv.Name, len(ys), ov.Name)
		return conclusion
	}

	px, py := PairPoints(xs, ys, g.Pairing, iv.Additive, ov.Additive)
	conclusion.PairedPoints = len(px)
	if len(px) < th.MinOverlap {
		conclusion.Summary = fmt.Sprintf(
			"Only %d entries for %s and %s line up. Log on the same days so at least %d entries can be compared, "+
				"then collect more data before drawing a conclusion.",
			len(px), iv.Name, ov.Name, th.MinOverlap)
		return conclusion
	}

	r := Pearson(px, py)
	conclusion.Correlation = r
	conclusion.Verdict = VerdictFor(r, th)
	conclusion.Summary = summarize(conclusion.Verdict, r, len(px), interventionName, outcomeName)
	return conclusion
}

// describe prefers the parsed phrases and falls back to variable names.
func describe(h *schema.Hypothesis, iv, ov schema.Variable) (string, string) {
	interventionName, outcomeName := iv.Name, ov.Name
	if h.Parsed != nil {
		if h.Parsed.Intervention != "" && h.Parsed.Intervention != schema.DefaultIntervention {
			interventionName = h.Parsed.Intervention
		}
		if h.Parsed.Outcome != "" && h.Parsed.Outcome != schema.DefaultOutcome {
			outcomeName = h.Parsed.Outcome
		}
	}
	return interventionName, outcomeName
}

func summarize(verdict schema.Verdict, r float64, pairs int, intervention, outcome string) string {
	switch verdict {
	case schema.SupportedVerdict:
		percent := int(math.Round(math.Abs(r) * 100))
		return fmt.Sprintf(
			"Your data supports the hypothesis that %s improves %s. Across %d paired entries, %s rose together with %s "+
				"(a %d%% correlation). Consider continuing %s and keep tracking to confirm the effect.",
			intervention, outcome, pairs, outcome, intervention, percent, intervention)
	case schema.RejectedVerdict:
		return fmt.Sprintf(
			"Your data does not support the hypothesis that %s improves %s. Across %d paired entries, %s tended to move "+
				"against %s (r = %.2f). Consider reconsidering %s or trying a different approach.",
			intervention, outcome, pairs, outcome, intervention, r, intervention)
	default:
		return fmt.Sprintf(
			"No clear relationship between %s and %s was found across %d paired entries (r = %.2f). "+
				"Collect more data or adjust how consistently you apply %s before drawing a conclusion.",
			intervention, outcome, pairs, r, intervention)
	}
}
