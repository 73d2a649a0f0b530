package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/spf13/cobra"
)

// newLogInput reads the variable, value and flags of the log command.
func newLogInput(cmd *cobra.Command, args []string) (core.LogInput, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return core.LogInput{}, fmt.Errorf("invalid value '%s': %w", args[1], err)
	}
	flags := cmd.Flags()
	in := core.LogInput{Variable: args[0], Value: value}
	in.Timestamp, _ = flags.GetString("at")
	in.Note, _ = flags.GetString("note")

	source, _ := flags.GetString("source")
	activity, _ := flags.GetString("activity")
	if source != "" || activity != "" {
		in.Metadata = &schema.DataPointMetadata{Source: source, Activity: activity}
	}
	return in, nil
}

// logCmd logs a value.
var logCmd = &cobra.Command{
	Use:   "log <variable> <value>",
	Short: "Log a value for a variable across all hypotheses tracking it.",
	Long: `Log one value. Variables with the same name in several active hypotheses
share one entry, so the value is recorded for each of them.

Scale values are 1-10, binary values are 0 or 1, numeric values are unbounded.

Examples:
  hypolog log meditation 1
  hypolog log stress 4 --note "busy day"
  hypolog log water 500 --at 2026-03-02`,
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		in, err := newLogInput(cmd, args)
		if err != nil {
			contract.LogFatal("Invalid entry", err)
		}
		points, err := engine.LogValue(rootCtx, in)
		if err != nil {
			contract.LogFatal("Failed to log value", err)
		}
		if err := writer.WriteDataPoints(points, cfg); err != nil {
			contract.LogFatal("Failed to write entries", err)
		}
	},
}

// variablesCmd lists what to log.
var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the variables to log, merged across active hypotheses.",
	Long: `List the variables of active hypotheses. Same-named variables are merged
into one entry so each value is logged once.

Subcommands:
  add - Add a variable to a hypothesis`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		merged, err := engine.VariableCards(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to load variables", err)
		}
		if err := writer.WriteVariables(merged, cfg); err != nil {
			contract.LogFatal("Failed to write variables", err)
		}
	},
}

// variablesAddCmd adds a variable to a hypothesis.
var variablesAddCmd = &cobra.Command{
	Use:     "add <hypothesis-id> <name>",
	Short:   "Add a variable to a hypothesis.",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		typeStr, _ := cmd.Flags().GetString("type")
		typ, err := parseVariableType(typeStr)
		if err != nil {
			contract.LogFatal("Invalid variable", err)
		}
		control, _ := cmd.Flags().GetBool("control")
		v, err := engine.AddVariable(rootCtx, args[0], args[1], typ, control)
		if err != nil {
			contract.LogFatal("Failed to add variable", err)
		}
		cmd.Printf("Added %s variable %s (%s) to %s.\n", v.Type, v.Name, v.ID, v.HypothesisID)
	},
}
