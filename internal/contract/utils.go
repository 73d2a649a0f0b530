package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/hypolog/schema"
)

// Color variables for console output.
var (
	SupportedColor    = color.New(color.FgGreen, color.Bold) // SupportedColor marks a confirmed hypothesis.
	RejectedColor     = color.New(color.FgRed, color.Bold)   // RejectedColor marks a refuted hypothesis.
	InconclusiveColor = color.New(color.FgYellow)            // InconclusiveColor marks missing or weak evidence.
	PendingColor      = color.New(color.FgCyan)              // PendingColor marks hypotheses without a conclusion.
)

// PendingLabel is shown for hypotheses that have not been concluded yet.
const PendingLabel = "pending"

// GetPlainLabel returns the plain verdict label of a hypothesis.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(h schema.Hypothesis) string {
	if h.Conclusion == nil {
		return PendingLabel
	}
	return string(h.Conclusion.Verdict)
}

// GetColorLabel returns a colored verdict label for console output (table).
func GetColorLabel(h schema.Hypothesis) string {
	text := GetPlainLabel(h)

	switch schema.Verdict(text) {
	case schema.SupportedVerdict:
		return SupportedColor.Sprint(text)
	case schema.RejectedVerdict:
		return RejectedColor.Sprint(text)
	case schema.InconclusiveVerdict:
		return InconclusiveColor.Sprint(text)
	default:
		return PendingColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file for hypothesis storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hypolog.db"
	}
	return filepath.Join(homeDir, ".hypolog.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so the ellipsis always fits.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseLogLevel maps a level name to a slog level. Empty means warn.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
}

// InitLogger installs a text slog handler writing to w as the default logger.
func InitLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
