package cmd

import (
	"fmt"
	"strings"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/spf13/cobra"
)

// parseVariableType validates a variable type flag value.
func parseVariableType(s string) (schema.VariableType, error) {
	typ := schema.VariableType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidVariableTypes[typ]; !ok {
		return "", fmt.Errorf("invalid variable type '%s'. must be scale, binary, numeric", s)
	}
	return typ, nil
}

// parseControl reads a control variable given as name[:type][:additive].
func parseControl(s string) (core.ControlInput, error) {
	parts := strings.Split(s, ":")
	control := core.ControlInput{Name: strings.TrimSpace(parts[0]), Type: schema.ScaleVariable}
	if control.Name == "" {
		return core.ControlInput{}, fmt.Errorf("invalid control '%s': name is empty", s)
	}
	if len(parts) > 3 {
		return core.ControlInput{}, fmt.Errorf("invalid control '%s': expected name[:type][:additive]", s)
	}
	if len(parts) >= 2 && parts[1] != "" {
		typ, err := parseVariableType(parts[1])
		if err != nil {
			return core.ControlInput{}, err
		}
		control.Type = typ
	}
	if len(parts) == 3 {
		if strings.TrimSpace(parts[2]) != "additive" {
			return core.ControlInput{}, fmt.Errorf("invalid control '%s': unknown option '%s'", s, parts[2])
		}
		control.Additive = true
	}
	return control, nil
}

// parsePreferredTime validates a preferred time flag value.
func parsePreferredTime(s string) (schema.PreferredTime, error) {
	pt := schema.PreferredTime(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidPreferredTimes[pt]; !ok {
		return "", fmt.Errorf("invalid preferred time '%s'. must be morning, afternoon, evening, anytime", s)
	}
	return pt, nil
}

// newHypothesisInput collects the flags of the new command.
func newHypothesisInput(cmd *cobra.Command, question string) (core.NewHypothesisInput, error) {
	flags := cmd.Flags()
	in := core.NewHypothesisInput{Question: question}
	in.Intervention, _ = flags.GetString("intervention")
	in.Outcome, _ = flags.GetString("outcome")
	in.SkipBaseline, _ = flags.GetBool("skip-baseline")
	in.BaselineDays, _ = flags.GetInt("days")
	if in.BaselineDays < 0 || in.BaselineDays > contract.MaxBaselineDays {
		return in, fmt.Errorf("--days must be between 0 and %d", contract.MaxBaselineDays)
	}

	var err error
	ivType, _ := flags.GetString("intervention-type")
	if in.InterventionType, err = parseVariableType(ivType); err != nil {
		return in, err
	}
	ovType, _ := flags.GetString("outcome-type")
	if in.OutcomeType, err = parseVariableType(ovType); err != nil {
		return in, err
	}
	preferred, _ := flags.GetString("preferred-time")
	if in.PreferredTime, err = parsePreferredTime(preferred); err != nil {
		return in, err
	}

	controls, _ := flags.GetStringArray("control")
	for _, s := range controls {
		control, err := parseControl(s)
		if err != nil {
			return in, err
		}
		in.Controls = append(in.Controls, control)
	}

	frequency, _ := flags.GetString("frequency")
	timing, _ := flags.GetString("timing")
	specific, _ := flags.GetString("context")
	if frequency != "" || timing != "" || specific != "" {
		in.Context = &schema.HypothesisContext{Frequency: frequency, Timing: timing, SpecificContext: specific}
	}
	return in, nil
}

// parseCmd previews how a question would be parsed.
var parseCmd = &cobra.Command{
	Use:   "parse <question>",
	Short: "Show the intervention, outcome and category read from a question.",
	Long: `Parse a free-text hypothesis without saving anything.

Examples:
  # Preview a hypothesis
  hypolog parse "Does meditation help reduce my stress?"

  # Use the OpenAI-backed parser
  HYPOLOG_OPENAI_KEY=... hypolog parse --parser openai "Will cold showers boost my energy?"`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		text := strings.Join(args, " ")
		if err := writer.WriteParsed(text, engine.ParseHypothesis(rootCtx, text), cfg); err != nil {
			contract.LogFatal("Failed to write parse result", err)
		}
	},
}

// newCmd creates a hypothesis.
var newCmd = &cobra.Command{
	Use:   "new <question>",
	Short: "Create a hypothesis with its variables and baseline.",
	Long: `Create a hypothesis from a question. The intervention and outcome become
variables to log, and a baseline window starts unless skipped.

Examples:
  hypolog new "Does meditation help reduce my stress?"
  hypolog new "Does magnesium improve my sleep?" --control "Caffeine:numeric:additive" --days 14
  hypolog new "Does running boost my mood?" --intervention running --skip-baseline`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		in, err := newHypothesisInput(cmd, strings.Join(args, " "))
		if err != nil {
			contract.LogFatal("Invalid hypothesis", err)
		}
		h, err := engine.CreateHypothesis(rootCtx, in)
		if err != nil {
			contract.LogFatal("Failed to create hypothesis", err)
		}
		progress, err := engine.Progress(rootCtx, h.ID)
		if err != nil {
			contract.LogFatal("Failed to load hypothesis", err)
		}
		if err := writer.WriteProgress(progress, cfg); err != nil {
			contract.LogFatal("Failed to write hypothesis", err)
		}
	},
}

// listCmd lists hypotheses.
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List hypotheses with their phase and verdict.",
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		all, _ := cmd.Flags().GetBool("all")
		hypotheses, err := engine.ListHypotheses(rootCtx, all)
		if err != nil {
			contract.LogFatal("Failed to list hypotheses", err)
		}
		if err := writer.WriteHypotheses(hypotheses, cfg, engine.Now()); err != nil {
			contract.LogFatal("Failed to write hypotheses", err)
		}
	},
}

// showCmd shows one hypothesis with its progress.
var showCmd = &cobra.Command{
	Use:     "show <id>",
	Short:   "Show a hypothesis with per-variable logging progress.",
	Long:    `Show a hypothesis. The identifier may be any unique prefix, as printed by list.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		progress, err := engine.Progress(rootCtx, args[0])
		if err != nil {
			contract.LogFatal("Failed to load hypothesis", err)
		}
		if err := writer.WriteProgress(progress, cfg); err != nil {
			contract.LogFatal("Failed to write hypothesis", err)
		}
	},
}

// archiveCmd archives a hypothesis.
var archiveCmd = &cobra.Command{
	Use:     "archive <id>",
	Short:   "Archive a hypothesis so its variables are no longer logged.",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := engine.ArchiveHypothesis(rootCtx, args[0])
		if err != nil {
			contract.LogFatal("Failed to archive hypothesis", err)
		}
		cmd.Printf("Archived hypothesis %s.\n", h.ID)
	},
}

// baselineCmd groups baseline operations.
var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage the baseline phase of a hypothesis",
	Long: `The baseline is an observation window before the intervention starts.
It completes on its own once the window has passed, or early on request.

Subcommands:
  complete - End the baseline now and start the intervention`,
}

// baselineCompleteCmd ends a baseline early.
var baselineCompleteCmd = &cobra.Command{
	Use:     "complete <id>",
	Short:   "End the baseline now and start the intervention.",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		h, err := engine.CompleteBaseline(rootCtx, args[0])
		if err != nil {
			contract.LogFatal("Failed to complete baseline", err)
		}
		cmd.Printf("Baseline of %s is %s.\n", h.ID, core.PhaseOf(&h, engine.Now()))
	},
}

// concludeCmd evaluates a hypothesis.
var concludeCmd = &cobra.Command{
	Use:   "conclude <id>",
	Short: "Correlate the logged values and record a verdict.",
	Long: `Pair the intervention and outcome entries, compute their correlation and
record a supported, rejected or inconclusive verdict with a summary.

Examples:
  hypolog conclude 3f2a
  hypolog conclude 3f2a --archive --pairing calendar-day`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		archive, _ := cmd.Flags().GetBool("archive")
		h, err := engine.Conclude(rootCtx, args[0], archive)
		if err != nil {
			contract.LogFatal("Failed to conclude hypothesis", err)
		}
		if err := writer.WriteConclusion(h, cfg); err != nil {
			contract.LogFatal("Failed to write conclusion", err)
		}
	},
}
