package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/internal/parquet"
)

// ExecuteExport exports every hypothesis, variable and data point to Parquet
// files sharing the outputFile prefix.
func ExecuteExport(ctx context.Context, w io.Writer, store contract.Store, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}
	if status.TotalHypotheses == 0 {
		return errors.New("no hypotheses found to export")
	}
	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)

	hypotheses, err := store.LoadHypotheses(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve hypotheses: %w", err)
	}
	points, err := store.LoadDataPoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve data points: %w", err)
	}

	hypothesisRows := parquet.ConvertHypotheses(hypotheses)
	variableRows := parquet.ConvertVariables(hypotheses)
	pointRows := parquet.ConvertDataPoints(points)

	hypothesesFile := outputFile + ".hypotheses.parquet"
	if err := parquet.WriteHypothesesParquet(hypothesisRows, hypothesesFile); err != nil {
		return fmt.Errorf("failed to write hypotheses: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d hypotheses to: %s\n", len(hypothesisRows), hypothesesFile)

	variablesFile := outputFile + ".variables.parquet"
	if err := parquet.WriteVariablesParquet(variableRows, variablesFile); err != nil {
		return fmt.Errorf("failed to write variables: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d variables to: %s\n", len(variableRows), variablesFile)

	pointsFile := outputFile + ".data_points.parquet"
	if err := parquet.WriteDataPointsParquet(pointRows, pointsFile); err != nil {
		return fmt.Errorf("failed to write data points: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d data points to: %s\n", len(pointRows), pointsFile)
	return nil
}
