package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDataPointList prints data points in the configured output mode.
func WriteDataPointList(points []schema.DataPoint, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, points)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDataPointsCSV(w, points, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDataPointsTable(w, points, cfg)
		}, "Wrote table")
	}
}

func pointSource(dp schema.DataPoint) string {
	if dp.Metadata == nil {
		return ""
	}
	return dp.Metadata.Source
}

func writeDataPointsCSV(w io.Writer, points []schema.DataPoint, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	header := []string{"id", "variable_id", "value", "timestamp", "note", "source"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, dp := range points {
			rec := []string{dp.ID, dp.VariableID, fmtFloat(dp.Value), dp.Timestamp, dp.Note, pointSource(dp)}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record for %s: %w", dp.ID, err)
			}
		}
		return nil
	})
}

func writeDataPointsTable(w io.Writer, points []schema.DataPoint, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	maxNoteWidth := getMaxTableTextWidth(cfg, 8+10+10+20)

	headers := []string{"ID", "Variable", "Value", "Timestamp", "Note"}
	var data [][]string
	for _, dp := range points {
		data = append(data, []string{
			shortID(dp.ID),
			shortID(dp.VariableID),
			fmtFloat(dp.Value),
			dp.Timestamp,
			contract.TruncateText(dp.Note, maxNoteWidth),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Logged %d entries\n", len(points))
	return err
}
