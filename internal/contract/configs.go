package contract

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/huangsam/hypolog/schema"
)

// Default values for configuration.
const (
	DefaultPrecision    = 2
	DefaultBaselineDays = 7
	MaxBaselineDays     = 90
	DefaultOpenAIModel  = "gpt-4o-mini"
)

// DateTimeFormat is the default date time representation.
const DateTimeFormat = "2006-01-02 15:04"

// ThresholdsRawInput holds verdict threshold overrides from the YAML config file.
type ThresholdsRawInput struct {
	Supported  *float64 `mapstructure:"supported"`
	Rejected   *float64 `mapstructure:"rejected"`
	MinPoints  *int     `mapstructure:"min-points"`
	MinOverlap *int     `mapstructure:"min-overlap"`
}

// LexiconRawInput holds extra lexicon entries from the YAML config file.
type LexiconRawInput struct {
	Interventions []string `mapstructure:"interventions"`
	Outcomes      []string `mapstructure:"outcomes"`
}

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	Backend   schema.DatabaseBackend
	DBConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int  // Terminal width override (0 = auto-detect)
	UseColors  bool // Enable colored labels in table output

	Parser        schema.ParserKind
	OpenAIModel   string
	OpenAIKey     string // Please use env var as this is plaintext
	OpenAIBaseURL string

	BaselineDays int
	Pairing      schema.PairingMode
	Thresholds   schema.Thresholds
	Lexicon      schema.Lexicon

	LogLevel slog.Level
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Backend    string `mapstructure:"backend"`
	DBConnect  string `mapstructure:"db-connect"`
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
	Parser     string `mapstructure:"parser"`
	LogLevel   string `mapstructure:"log-level"`

	// --- Fields from the config file or environment ---
	OpenAIModel   string `mapstructure:"openai-model"`
	OpenAIKey     string `mapstructure:"openai-key"`
	OpenAIBaseURL string `mapstructure:"openai-base-url"`
	BaselineDays  int    `mapstructure:"baseline-days"`
	Pairing       string `mapstructure:"pairing"`

	Thresholds ThresholdsRawInput `mapstructure:"thresholds"`
	Lexicon    LexiconRawInput    `mapstructure:"lexicon"`
}

// ProcessAndValidate validates input and populates cfg.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processParserConfig(cfg, input); err != nil {
		return err
	}
	if err := processThresholds(cfg, input); err != nil {
		return err
	}
	processLexicon(cfg, input)
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") && !strings.HasPrefix(connStr, "postgres") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter or be a postgres:// URL")
		}
		if !strings.Contains(connStr, "dbname=") && !strings.HasPrefix(connStr, "postgres") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the persistence backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.Backend))
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.Backend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.Backend]; !ok {
		return fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, memory", input.Backend)
	}
	cfg.DBConnect = input.DBConnect
	return ValidateDatabaseConnectionString(cfg.Backend, cfg.DBConnect)
}

// validateSimpleInputs processes and validates output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", cfg.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	days := input.BaselineDays
	if days == 0 {
		days = DefaultBaselineDays
	}
	if days < 0 || days > MaxBaselineDays {
		return fmt.Errorf("baseline-days must be between 0 and %d (received %d)", MaxBaselineDays, input.BaselineDays)
	}
	cfg.BaselineDays = days

	pairing := strings.ToLower(strings.TrimSpace(input.Pairing))
	if pairing == "" {
		pairing = string(schema.ExactPairing)
	}
	cfg.Pairing = schema.PairingMode(pairing)
	if _, ok := schema.ValidPairingModes[cfg.Pairing]; !ok {
		return fmt.Errorf("invalid pairing '%s'. must be exact, calendar-day", input.Pairing)
	}
	return nil
}

// processParserConfig selects the hypothesis parser backend.
func processParserConfig(cfg *Config, input *ConfigRawInput) error {
	kind := strings.ToLower(strings.TrimSpace(input.Parser))
	if kind == "" {
		kind = string(schema.RuleParser)
	}
	cfg.Parser = schema.ParserKind(kind)
	if _, ok := schema.ValidParserKinds[cfg.Parser]; !ok {
		return fmt.Errorf("invalid parser '%s'. must be rule, openai", input.Parser)
	}

	cfg.OpenAIModel = input.OpenAIModel
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
	cfg.OpenAIBaseURL = input.OpenAIBaseURL
	cfg.OpenAIKey = input.OpenAIKey
	if cfg.OpenAIKey == "" {
		cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Parser == schema.OpenAIParser && cfg.OpenAIKey == "" {
		return fmt.Errorf("openai parser requires an API key via HYPOLOG_OPENAI_KEY or OPENAI_API_KEY")
	}
	return nil
}

// processThresholds applies threshold overrides on top of the defaults.
func processThresholds(cfg *Config, input *ConfigRawInput) error {
	th := schema.DefaultThresholds()
	raw := input.Thresholds
	if raw.Supported != nil {
		th.Supported = *raw.Supported
	}
	if raw.Rejected != nil {
		th.Rejected = *raw.Rejected
	}
	if raw.MinPoints != nil {
		th.MinPoints = *raw.MinPoints
	}
	if raw.MinOverlap != nil {
		th.MinOverlap = *raw.MinOverlap
	}

	if th.Supported < -1 || th.Supported > 1 || th.Rejected < -1 || th.Rejected > 1 {
		return fmt.Errorf("thresholds must be within [-1, 1] (supported=%.2f, rejected=%.2f)", th.Supported, th.Rejected)
	}
	if th.Rejected > th.Supported {
		return fmt.Errorf("rejected threshold %.2f cannot exceed supported threshold %.2f", th.Rejected, th.Supported)
	}
	if th.MinPoints < 2 || th.MinOverlap < 2 {
		return fmt.Errorf("min-points and min-overlap must be at least 2 (received %d and %d)", th.MinPoints, th.MinOverlap)
	}
	cfg.Thresholds = th
	return nil
}

// processLexicon prepends user lexicon entries to the built-in one.
func processLexicon(cfg *Config, input *ConfigRawInput) {
	cfg.Lexicon = schema.DefaultLexicon().Extend(input.Lexicon.Interventions, input.Lexicon.Outcomes)
}
