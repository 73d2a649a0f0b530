package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
)

// conclusionRow is the JSON shape of a concluded hypothesis.
type conclusionRow struct {
	ID         string                  `json:"id"`
	Question   string                  `json:"question"`
	Status     schema.HypothesisStatus `json:"status"`
	Conclusion *schema.Conclusion      `json:"conclusion"`
}

// WriteConclusionResult prints the verdict and summary of a hypothesis.
func WriteConclusionResult(h schema.Hypothesis, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, conclusionRow{ID: h.ID, Question: h.Question, Status: h.Status, Conclusion: h.Conclusion})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConclusionCSV(w, h, cfg)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeConclusionText(w, h, cfg)
		}, "Wrote text")
	}
}

func writeConclusionCSV(w io.Writer, h schema.Hypothesis, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	header := []string{"id", "status", "verdict", "correlation", "paired_points", "concluded_at", "summary"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		rec := []string{h.ID, string(h.Status), contract.GetPlainLabel(h), "", "", "", ""}
		if c := h.Conclusion; c != nil {
			rec[3] = fmtFloat(c.Correlation)
			rec[4] = fmt.Sprintf(intFmt, c.PairedPoints)
			rec[5] = c.ConcludedAt.UTC().Format(time.RFC3339)
			rec[6] = c.Summary
		}
		if err := csvWriter.Write(rec); err != nil {
			return fmt.Errorf("error writing CSV record for %s: %w", h.ID, err)
		}
		return nil
	})
}

func writeConclusionText(w io.Writer, h schema.Hypothesis, cfg *contract.Config) error {
	c := h.Conclusion
	if c == nil {
		_, err := fmt.Fprintf(w, "Hypothesis %s has not been concluded yet.\n", shortID(h.ID))
		return err
	}
	fmtFloat, _ := createFormatters(cfg.Precision)
	_, _ = fmt.Fprintf(w, "Verdict:     %s\n", verdictLabel(h, cfg))
	_, _ = fmt.Fprintf(w, "Correlation: %s (%d paired entries)\n", fmtFloat(c.Correlation), c.PairedPoints)
	_, _ = fmt.Fprintf(w, "Concluded:   %s\n", c.ConcludedAt.Local().Format(contract.DateTimeFormat))
	_, err := fmt.Fprintf(w, "\n%s\n", c.Summary)
	return err
}
