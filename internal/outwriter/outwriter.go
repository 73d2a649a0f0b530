// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteParsed prints the structured reading of a hypothesis text.
func (ow *OutWriter) WriteParsed(text string, parsed schema.ParsedHypothesis, cfg *contract.Config) error {
	return WriteParsedResult(text, parsed, cfg)
}

// WriteHypotheses prints a list of hypotheses with their derived phase at now.
func (ow *OutWriter) WriteHypotheses(hypotheses []schema.Hypothesis, cfg *contract.Config, now time.Time) error {
	return WriteHypothesisList(hypotheses, cfg, now)
}

// WriteProgress prints the details and logging progress of one hypothesis.
func (ow *OutWriter) WriteProgress(progress schema.HypothesisProgress, cfg *contract.Config) error {
	return WriteProgressResult(progress, cfg)
}

// WriteVariables prints merged variable cards.
func (ow *OutWriter) WriteVariables(merged []schema.MergedVariable, cfg *contract.Config) error {
	return WriteVariableList(merged, cfg)
}

// WriteDataPoints prints freshly logged data points.
func (ow *OutWriter) WriteDataPoints(points []schema.DataPoint, cfg *contract.Config) error {
	return WriteDataPointList(points, cfg)
}

// WriteConclusion prints the conclusion of a hypothesis.
func (ow *OutWriter) WriteConclusion(h schema.Hypothesis, cfg *contract.Config) error {
	return WriteConclusionResult(h, cfg)
}
