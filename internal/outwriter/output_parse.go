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

// parsedRow is the JSON shape of a parse result.
type parsedRow struct {
	Text string `json:"text"`
	schema.ParsedHypothesis
}

// WriteParsedResult prints the structured reading of a hypothesis text.
func WriteParsedResult(text string, parsed schema.ParsedHypothesis, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, parsedRow{Text: text, ParsedHypothesis: parsed})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeParsedCSV(w, text, parsed, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeParsedTable(w, parsed, cfg)
		}, "Wrote table")
	}
}

func writeParsedCSV(w io.Writer, text string, parsed schema.ParsedHypothesis, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	header := []string{"text", "intervention", "outcome", "category", "confidence"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		rec := []string{text, parsed.Intervention, parsed.Outcome, string(parsed.Category), fmtFloat(parsed.Confidence)}
		if err := csvWriter.Write(rec); err != nil {
			return fmt.Errorf("error writing CSV record: %w", err)
		}
		return nil
	})
}

func writeParsedTable(w io.Writer, parsed schema.ParsedHypothesis, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)
	data := [][]string{
		{"Intervention", parsed.Intervention},
		{"Outcome", parsed.Outcome},
		{"Category", string(parsed.Category)},
		{"Confidence", fmtFloat(parsed.Confidence)},
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Field", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
