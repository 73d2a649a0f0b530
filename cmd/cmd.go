// Package cmd defines the command-line interface for hypolog.
package cmd

import (
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(baselineCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(variablesCmd)
	rootCmd.AddCommand(concludeCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the baseline subcommands to the parent baseline command
	baselineCmd.AddCommand(baselineCompleteCmd)

	// Add the variables subcommands to the parent variables command
	variablesCmd.AddCommand(variablesAddCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("backend", string(schema.SQLiteBackend), "Storage backend: sqlite or mysql or postgresql or memory")
	rootCmd.PersistentFlags().String("db-connect", "", "Database connection string (sqlite file path, or DSN for mysql/postgresql)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("parser", string(schema.RuleParser), "Hypothesis parser: rule or openai")
	rootCmd.PersistentFlags().String("pairing", string(schema.ExactPairing), "Correlation pairing: exact or calendar-day")
	rootCmd.PersistentFlags().Int("baseline-days", contract.DefaultBaselineDays, "Default baseline length in days for new hypotheses")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Flags of newCmd
	newCmd.Flags().String("intervention", "", "Confirmed intervention phrase (skips the parsed one)")
	newCmd.Flags().String("outcome", "", "Confirmed outcome phrase (skips the parsed one)")
	newCmd.Flags().String("intervention-type", string(schema.BinaryVariable), "Intervention variable type: scale or binary or numeric")
	newCmd.Flags().String("outcome-type", string(schema.ScaleVariable), "Outcome variable type: scale or binary or numeric")
	newCmd.Flags().String("preferred-time", string(schema.AnyTime), "When to log: morning or afternoon or evening or anytime")
	newCmd.Flags().StringArray("control", nil, "Control variable as name[:type][:additive], repeatable")
	newCmd.Flags().Bool("skip-baseline", false, "Start the intervention immediately without a baseline")
	newCmd.Flags().Int("days", 0, "Baseline length in days for this hypothesis (0 = configured default)")
	newCmd.Flags().String("frequency", "", "How often the intervention is applied")
	newCmd.Flags().String("timing", "", "When the intervention is applied")
	newCmd.Flags().String("context", "", "Any specific context for the intervention")

	// Flags of listCmd
	listCmd.Flags().BoolP("all", "a", false, "Include archived hypotheses")

	// Flags of logCmd
	logCmd.Flags().String("at", "", "ISO-8601 date or timestamp of the entry (defaults to today)")
	logCmd.Flags().String("note", "", "Optional note for the entry")
	logCmd.Flags().String("source", "manual", "Where the value came from")
	logCmd.Flags().String("activity", "", "Optional activity detail, e.g. '30 min run'")

	// Flags of variablesAddCmd
	variablesAddCmd.Flags().String("type", string(schema.ScaleVariable), "Variable type: scale or binary or numeric")
	variablesAddCmd.Flags().Bool("control", false, "Mark the variable as a control")

	// Flags of concludeCmd
	concludeCmd.Flags().Bool("archive", false, "Archive the hypothesis after concluding")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
