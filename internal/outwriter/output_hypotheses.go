package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// hypothesisRow is the JSON shape of a listed hypothesis.
type hypothesisRow struct {
	schema.Hypothesis
	Phase schema.PhaseState `json:"phase"`
	Label string            `json:"label"`
}

// WriteHypothesisList prints hypotheses in the configured output mode.
func WriteHypothesisList(hypotheses []schema.Hypothesis, cfg *contract.Config, now time.Time) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHypothesesJSON(w, hypotheses, now)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHypothesesCSV(w, hypotheses, cfg, now)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHypothesesTable(w, hypotheses, cfg, now)
		}, "Wrote table")
	}
}

func writeHypothesesJSON(w io.Writer, hypotheses []schema.Hypothesis, now time.Time) error {
	rows := make([]hypothesisRow, 0, len(hypotheses))
	for _, h := range hypotheses {
		rows = append(rows, hypothesisRow{
			Hypothesis: h,
			Phase:      core.PhaseOf(&h, now),
			Label:      contract.GetPlainLabel(h),
		})
	}
	return writeJSON(w, rows)
}

func writeHypothesesCSV(w io.Writer, hypotheses []schema.Hypothesis, cfg *contract.Config, now time.Time) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	header := []string{
		"id", "question", "status", "phase", "category", "intervention", "outcome",
		"confidence", "verdict", "correlation", "paired_points", "created_at",
	}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, h := range hypotheses {
			var category, intervention, outcome, confidence string
			if p := h.Parsed; p != nil {
				category = string(p.Category)
				intervention = p.Intervention
				outcome = p.Outcome
				confidence = fmtFloat(p.Confidence)
			}
			var correlation, paired string
			if c := h.Conclusion; c != nil {
				correlation = fmtFloat(c.Correlation)
				paired = fmt.Sprintf(intFmt, c.PairedPoints)
			}
			rec := []string{
				h.ID,
				h.Question,
				string(h.Status),
				string(core.PhaseOf(&h, now)),
				category,
				intervention,
				outcome,
				confidence,
				contract.GetPlainLabel(h),
				correlation,
				paired,
				h.CreatedAt.UTC().Format(time.RFC3339),
			}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record for %s: %w", h.ID, err)
			}
		}
		return nil
	})
}

func writeHypothesesTable(w io.Writer, hypotheses []schema.Hypothesis, cfg *contract.Config, now time.Time) error {
	if len(hypotheses) == 0 {
		_, err := fmt.Fprintln(w, "No hypotheses yet. Create one with `hypolog new`.")
		return err
	}

	// ID, category, phase, status, verdict and created columns
	maxQuestionWidth := getMaxTableTextWidth(cfg, 8+10+17+9+12+16)

	headers := []string{"ID", "Question", "Category", "Phase", "Status", "Verdict", "Created"}
	var data [][]string
	active := 0
	for _, h := range hypotheses {
		if h.Status == schema.ActiveStatus {
			active++
		}
		category := "-"
		if h.Parsed != nil {
			category = string(h.Parsed.Category)
		}
		data = append(data, []string{
			shortID(h.ID),
			contract.TruncateText(h.Question, maxQuestionWidth),
			category,
			string(core.PhaseOf(&h, now)),
			string(h.Status),
			verdictLabel(h, cfg),
			h.CreatedAt.Local().Format(contract.DateTimeFormat),
		})
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Showing %d hypotheses (%d active)\n", len(hypotheses), active)
	return err
}
