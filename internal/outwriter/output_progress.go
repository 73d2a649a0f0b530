package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteProgressResult prints one hypothesis with per-variable logging progress.
func WriteProgressResult(progress schema.HypothesisProgress, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, progress)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProgressCSV(w, progress, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeProgressTable(w, progress, cfg)
		}, "Wrote table")
	}
}

func variableRole(v schema.Variable) string {
	if v.IsControl {
		return "control"
	}
	return "primary"
}

// lastDay returns the most recent daily reading, if any.
func lastDay(vp schema.VariableProgress) (schema.DailyValue, bool) {
	if len(vp.Days) == 0 {
		return schema.DailyValue{}, false
	}
	return vp.Days[len(vp.Days)-1], true
}

func writeProgressCSV(w io.Writer, progress schema.HypothesisProgress, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	header := []string{
		"hypothesis_id", "variable_id", "name", "type", "role",
		"total_points", "days", "last_day", "last_value",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, vp := range progress.Variables {
			var day, value string
			if last, ok := lastDay(vp); ok {
				day = last.Day
				value = fmtFloat(last.Value)
			}
			rec := []string{
				progress.Hypothesis.ID,
				vp.Variable.ID,
				vp.Variable.Name,
				string(vp.Variable.Type),
				variableRole(vp.Variable),
				fmt.Sprintf(intFmt, vp.TotalPoints),
				fmt.Sprintf(intFmt, len(vp.Days)),
				day,
				value,
			}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record for %s: %w", vp.Variable.ID, err)
			}
		}
		return nil
	})
}

func writeProgressTable(w io.Writer, progress schema.HypothesisProgress, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	h := progress.Hypothesis

	_, _ = fmt.Fprintf(w, "Hypothesis: %s\n", h.ID)
	_, _ = fmt.Fprintf(w, "Question:   %s\n", h.Question)
	_, _ = fmt.Fprintf(w, "Status:     %s (%s)\n", h.Status, verdictLabel(h, cfg))
	_, _ = fmt.Fprintf(w, "Created:    %s\n", h.CreatedAt.Local().Format(contract.DateTimeFormat))
	if p := h.Parsed; p != nil {
		_, _ = fmt.Fprintf(w, "Parsed:     %s -> %s [%s, confidence %s]\n",
			p.Intervention, p.Outcome, p.Category, fmtFloat(p.Confidence))
	}
	switch progress.Phase {
	case schema.BaselineActive:
		_, _ = fmt.Fprintf(w, "Phase:      %s (%d days remaining)\n", progress.Phase, progress.DaysRemaining)
	default:
		_, _ = fmt.Fprintf(w, "Phase:      %s\n", progress.Phase)
	}
	if h.InterventionStart != nil {
		_, _ = fmt.Fprintf(w, "Intervention since %s\n", h.InterventionStart.Local().Format(time.DateOnly))
	}
	if c := h.Context; c != nil {
		_, _ = fmt.Fprintf(w, "Context:    %s %s %s\n", c.Frequency, c.Timing, c.SpecificContext)
	}
	_, _ = fmt.Fprintln(w)

	headers := []string{"Variable", "Type", "Role", "Entries", "Days", "Last Day", "Last Value"}
	var data [][]string
	for _, vp := range progress.Variables {
		day, value := "-", "-"
		if last, ok := lastDay(vp); ok {
			day = last.Day
			value = fmtFloat(last.Value)
		}
		data = append(data, []string{
			vp.Variable.Name,
			string(vp.Variable.Type),
			variableRole(vp.Variable),
			fmt.Sprintf(intFmt, vp.TotalPoints),
			fmt.Sprintf(intFmt, len(vp.Days)),
			day,
			value,
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

	if h.Conclusion != nil {
		_, _ = fmt.Fprintln(w)
		return writeConclusionText(w, h, cfg)
	}
	return nil
}
