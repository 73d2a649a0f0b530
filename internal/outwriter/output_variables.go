package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteVariableList prints merged variable cards in the configured output mode.
func WriteVariableList(merged []schema.MergedVariable, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, merged)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVariablesCSV(w, merged)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeVariablesTable(w, merged, cfg)
		}, "Wrote table")
	}
}

func preferredLabel(v schema.Variable) string {
	if v.PreferredTime == "" {
		return string(schema.AnyTime)
	}
	return string(v.PreferredTime)
}

func writeVariablesCSV(w io.Writer, merged []schema.MergedVariable) error {
	header := []string{"key", "name", "type", "variable_ids", "preferred_time", "additive", "entries", "last_timestamp", "last_value"}
	return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
		for _, card := range merged {
			lastValue := ""
			if card.LastValue != nil {
				lastValue = strconv.FormatFloat(*card.LastValue, 'f', -1, 64)
			}
			rec := []string{
				card.Key,
				card.Variable.Name,
				string(card.Variable.Type),
				strings.Join(card.VariableIDs, "|"),
				preferredLabel(card.Variable),
				strconv.FormatBool(card.Variable.Additive),
				strconv.Itoa(card.Entries),
				card.LastTimestamp,
				lastValue,
			}
			if err := csvWriter.Write(rec); err != nil {
				return fmt.Errorf("error writing CSV record for %s: %w", card.Key, err)
			}
		}
		return nil
	})
}

func writeVariablesTable(w io.Writer, merged []schema.MergedVariable, cfg *contract.Config) error {
	if len(merged) == 0 {
		_, err := fmt.Fprintln(w, "No active variables to log.")
		return err
	}
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	headers := []string{"Key", "Name", "Type", "Hypotheses", "Preferred", "Additive", "Entries", "Last Value"}
	var data [][]string
	for _, card := range merged {
		additive := ""
		if card.Variable.Additive {
			additive = "yes"
		}
		last := "-"
		if card.LastValue != nil {
			last = fmt.Sprintf("%s (%s)", fmtFloat(*card.LastValue), card.LastTimestamp)
		}
		data = append(data, []string{
			card.Key,
			card.Variable.Name,
			string(card.Variable.Type),
			fmt.Sprintf(intFmt, len(card.VariableIDs)),
			preferredLabel(card.Variable),
			additive,
			fmt.Sprintf(intFmt, card.Entries),
			last,
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
	return table.Render()
}
