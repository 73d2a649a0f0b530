// Package parquet provides data structures and functions for exporting hypolog
// data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/hypolog/schema"
	"github.com/parquet-go/parquet-go"
)

// Hypothesis is one exported hypothesis row.
// Optional nested parts are flattened into nullable columns.
type Hypothesis struct {
	HypothesisID      string     `parquet:"hypothesis_id,snappy"`
	Question          string     `parquet:"question,snappy"`
	Status            string     `parquet:"status,snappy"`
	CreatedAt         time.Time  `parquet:"created_at,snappy"`
	Intervention      *string    `parquet:"intervention,optional,snappy"`
	Outcome           *string    `parquet:"outcome,optional,snappy"`
	Category          *string    `parquet:"category,optional,snappy"`
	Confidence        *float64   `parquet:"confidence,optional,snappy"`
	BaselineStart     *time.Time `parquet:"baseline_start,optional,snappy"`
	BaselineEnd       *time.Time `parquet:"baseline_end,optional,snappy"`
	InterventionStart *time.Time `parquet:"intervention_start,optional,snappy"`
	Verdict           *string    `parquet:"verdict,optional,snappy"`
	Correlation       *float64   `parquet:"correlation,optional,snappy"`
	PairedPoints      *int32     `parquet:"paired_points,optional,snappy"`
	ConcludedAt       *time.Time `parquet:"concluded_at,optional,snappy"`
}

// Variable is one exported variable row.
type Variable struct {
	VariableID    string `parquet:"variable_id,snappy"`
	HypothesisID  string `parquet:"hypothesis_id,snappy"`
	Name          string `parquet:"name,snappy"`
	Type          string `parquet:"type,snappy"`
	IsControl     bool   `parquet:"is_control"`
	PreferredTime string `parquet:"preferred_time,snappy"`
	Additive      bool   `parquet:"additive"`
}

// DataPoint is one exported data point row.
type DataPoint struct {
	DataPointID string  `parquet:"data_point_id,snappy"`
	VariableID  string  `parquet:"variable_id,snappy"`
	Value       float64 `parquet:"value,snappy"`
	Timestamp   string  `parquet:"timestamp,snappy"`
	Note        *string `parquet:"note,optional,snappy"`
	Source      *string `parquet:"source,optional,snappy"`
	Activity    *string `parquet:"activity,optional,snappy"`
}

// writeParquet writes rows to outputPath with a schema inferred from T.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteHypothesesParquet writes hypothesis rows to a Parquet file.
func WriteHypothesesParquet(rows []Hypothesis, outputPath string) error {
	return writeParquet(rows, outputPath)
}

// WriteVariablesParquet writes variable rows to a Parquet file.
func WriteVariablesParquet(rows []Variable, outputPath string) error {
	return writeParquet(rows, outputPath)
}

// WriteDataPointsParquet writes data point rows to a Parquet file.
func WriteDataPointsParquet(rows []DataPoint, outputPath string) error {
	return writeParquet(rows, outputPath)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ConvertHypotheses flattens hypotheses into export rows.
func ConvertHypotheses(hypotheses []schema.Hypothesis) []Hypothesis {
	rows := make([]Hypothesis, 0, len(hypotheses))
	for _, h := range hypotheses {
		row := Hypothesis{
			HypothesisID:      h.ID,
			Question:          h.Question,
			Status:            string(h.Status),
			CreatedAt:         h.CreatedAt,
			InterventionStart: h.InterventionStart,
		}
		if p := h.Parsed; p != nil {
			category := string(p.Category)
			confidence := p.Confidence
			row.Intervention = optionalString(p.Intervention)
			row.Outcome = optionalString(p.Outcome)
			row.Category = &category
			row.Confidence = &confidence
		}
		if b := h.Baseline; b != nil {
			start, end := b.StartDate, b.EndDate
			row.BaselineStart = &start
			row.BaselineEnd = &end
		}
		if c := h.Conclusion; c != nil {
			verdict := string(c.Verdict)
			correlation := c.Correlation
			paired := int32(c.PairedPoints)
			concluded := c.ConcludedAt
			row.Verdict = &verdict
			row.Correlation = &correlation
			row.PairedPoints = &paired
			row.ConcludedAt = &concluded
		}
		rows = append(rows, row)
	}
	return rows
}

// ConvertVariables flattens the variables of every hypothesis into export rows.
func ConvertVariables(hypotheses []schema.Hypothesis) []Variable {
	var rows []Variable
	for _, h := range hypotheses {
		for _, v := range h.Variables {
			rows = append(rows, Variable{
				VariableID:    v.ID,
				HypothesisID:  h.ID,
				Name:          v.Name,
				Type:          string(v.Type),
				IsControl:     v.IsControl,
				PreferredTime: string(v.PreferredTime),
				Additive:      v.Additive,
			})
		}
	}
	return rows
}

// ConvertDataPoints converts data points into export rows.
func ConvertDataPoints(points []schema.DataPoint) []DataPoint {
	rows := make([]DataPoint, 0, len(points))
	for _, dp := range points {
		row := DataPoint{
			DataPointID: dp.ID,
			VariableID:  dp.VariableID,
			Value:       dp.Value,
			Timestamp:   dp.Timestamp,
			Note:        optionalString(dp.Note),
		}
		if dp.Metadata != nil {
			row.Source = optionalString(dp.Metadata.Source)
			row.Activity = optionalString(dp.Metadata.Activity)
		}
		rows = append(rows, row)
	}
	return rows
}
