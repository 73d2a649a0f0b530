package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/hypolog/core"
	"github.com/huangsam/hypolog/internal/aiparse"
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/internal/datastore"
	"github.com/huangsam/hypolog/internal/outwriter"
	"github.com/huangsam/hypolog/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// engine is the experiment engine built from the validated configuration.
var engine *core.Engine

// writer renders command results in the configured output mode.
var writer = outwriter.NewOutWriter()

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "hypolog",
	Short:              "Run personal n-of-1 experiments from the command line.",
	Long:               `Hypolog turns a question like "Does meditation help reduce my stress?" into a tracked experiment with a verdict.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigPaths()

	// Set environment variable prefix
	viper.SetEnvPrefix("HYPOLOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("backend", schema.SQLiteBackend)
	viper.SetDefault("db-connect", "")
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("color", "yes")
	viper.SetDefault("parser", schema.RuleParser)
	viper.SetDefault("openai-model", contract.DefaultOpenAIModel)
	viper.SetDefault("baseline-days", contract.DefaultBaselineDays)
	viper.SetDefault("pairing", schema.ExactPairing)
	viper.SetDefault("log-level", "warn")
}

// setConfigPaths points Viper at an explicit config file or the default search paths.
func setConfigPaths() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".hypolog") // Name of config file (without extension)
	viper.SetConfigType("yaml")     // We'll use YAML format
	viper.AddConfigPath(".")        // Look in the current directory
	viper.AddConfigPath("$HOME")    // Look in the home directory
}

// loadConfigFile reads the config file if one is present.
func loadConfigFile() error {
	setConfigPaths()
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// resolveConfig merges file, env and flags into cfg and sets up logging.
func resolveConfig() error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	contract.InitLogger(os.Stderr, cfg.LogLevel)
	return nil
}

// sharedSetup validates config, opens the store and builds the engine.
func sharedSetup(ctx context.Context, _ *cobra.Command, _ []string) error {
	if err := resolveConfig(); err != nil {
		return err
	}

	// Initialize persistence layer with validated config
	if err := datastore.InitStore(ctx, cfg.Backend, cfg.DBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	engine = newEngine(cfg, datastore.Manager.GetStore())
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// newParser picks the parser backend named by the config.
func newParser(c *contract.Config) contract.Parser {
	if c.Parser == schema.OpenAIParser {
		return aiparse.New(c.OpenAIKey, c.OpenAIModel, c.OpenAIBaseURL, c.Lexicon)
	}
	return core.NewRuleParser(c.Lexicon)
}

// newEngine wires the parser, store and tuning knobs into an engine.
func newEngine(c *contract.Config, store contract.Store) *core.Engine {
	return core.NewEngine(newParser(c), store,
		core.WithThresholds(c.Thresholds),
		core.WithPairing(c.Pairing),
		core.WithBaselineDays(c.BaselineDays),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
