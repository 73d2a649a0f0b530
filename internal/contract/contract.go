// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/hypolog/schema"
)

// Parser turns free text into a structured hypothesis.
// Implementations never fail; they degrade to placeholder values instead.
type Parser interface {
	Parse(ctx context.Context, text string) schema.ParsedHypothesis
}

// Store defines the persistence port for hypotheses, variables and data points.
// This allows the engine to be tested without a real database.
type Store interface {
	// --- Hypotheses ---

	// LoadHypotheses returns every hypothesis with its variables, oldest first.
	LoadHypotheses(ctx context.Context) ([]schema.Hypothesis, error)

	// SaveHypothesis upserts the hypothesis and its variables in one transaction.
	SaveHypothesis(ctx context.Context, h schema.Hypothesis) error

	// --- Variables ---

	// LoadVariables returns every variable across all hypotheses.
	LoadVariables(ctx context.Context) ([]schema.Variable, error)

	// SaveVariable upserts a single variable.
	SaveVariable(ctx context.Context, v schema.Variable) error

	// --- Data points ---

	// LoadDataPoints returns the points of the given variables, or all points when none are given.
	LoadDataPoints(ctx context.Context, variableIDs ...string) ([]schema.DataPoint, error)

	// SaveDataPoint upserts a single data point.
	SaveDataPoint(ctx context.Context, dp schema.DataPoint) error

	// SaveDataPoints upserts a batch atomically: either every point is stored or none is.
	SaveDataPoints(ctx context.Context, dps []schema.DataPoint) error

	// --- Lifecycle ---

	// GetStatus reports connectivity and table statistics.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Clear removes all stored records.
	Clear(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
