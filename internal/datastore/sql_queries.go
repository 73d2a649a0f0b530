package datastore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/huangsam/hypolog/schema"
)

// Table names for persistence.
const (
	hypothesesTable = "hypolog_hypotheses"
	variablesTable  = "hypolog_variables"
	dataPointsTable = "hypolog_data_points"
)

// allTables lists the tables in creation order.
var allTables = []string{hypothesesTable, variablesTable, dataPointsTable}

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// validateTableName ensures the table name is safe to interpolate into SQL.
func validateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name: %s (must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$)", name)
	}
	return nil
}

// quoteTableName returns the properly quoted table name for the given backend.
func quoteTableName(name string, backend schema.DatabaseBackend) string {
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf("`%s`", name)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf("\"%s\"", name)
	}
}

// placeholder returns the n-th (1-based) parameter placeholder for the backend.
func placeholder(backend schema.DatabaseBackend, n int) string {
	if backend == schema.PostgreSQLBackend {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// placeholderList returns count placeholders starting at position start.
func placeholderList(backend schema.DatabaseBackend, start, count int) string {
	parts := make([]string, count)
	for i := range count {
		parts[i] = placeholder(backend, start+i)
	}
	return strings.Join(parts, ", ")
}

// getCreateTableQueries returns the CREATE TABLE statements for the backend.
func getCreateTableQueries(backend schema.DatabaseBackend) map[string]string {
	h := quoteTableName(hypothesesTable, backend)
	v := quoteTableName(variablesTable, backend)
	d := quoteTableName(dataPointsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return map[string]string{
			hypothesesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id VARCHAR(64) PRIMARY KEY,
					question TEXT NOT NULL,
					status VARCHAR(16) NOT NULL,
					created_at BIGINT NOT NULL,
					details TEXT NOT NULL
				)`, h),
			variablesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id VARCHAR(64) PRIMARY KEY,
					hypothesis_id VARCHAR(64) NOT NULL,
					name VARCHAR(255) NOT NULL,
					var_type VARCHAR(16) NOT NULL,
					is_control INT NOT NULL,
					preferred_time VARCHAR(16) NOT NULL,
					additive INT NOT NULL,
					position INT NOT NULL
				)`, v),
			dataPointsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id VARCHAR(64) PRIMARY KEY,
					variable_id VARCHAR(64) NOT NULL,
					value DOUBLE NOT NULL,
					ts VARCHAR(64) NOT NULL,
					note TEXT NOT NULL,
					metadata TEXT NOT NULL,
					logged_at BIGINT NOT NULL
				)`, d),
		}

	case schema.PostgreSQLBackend:
		return map[string]string{
			hypothesesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					question TEXT NOT NULL,
					status TEXT NOT NULL,
					created_at BIGINT NOT NULL,
					details TEXT NOT NULL
				)`, h),
			variablesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					hypothesis_id TEXT NOT NULL,
					name TEXT NOT NULL,
					var_type TEXT NOT NULL,
					is_control INTEGER NOT NULL,
					preferred_time TEXT NOT NULL,
					additive INTEGER NOT NULL,
					position INTEGER NOT NULL
				)`, v),
			dataPointsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					variable_id TEXT NOT NULL,
					value DOUBLE PRECISION NOT NULL,
					ts TEXT NOT NULL,
					note TEXT NOT NULL,
					metadata TEXT NOT NULL,
					logged_at BIGINT NOT NULL
				)`, d),
		}

	default: // SQLite
		return map[string]string{
			hypothesesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					question TEXT NOT NULL,
					status TEXT NOT NULL,
					created_at INTEGER NOT NULL,
					details TEXT NOT NULL
				)`, h),
			variablesTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					hypothesis_id TEXT NOT NULL,
					name TEXT NOT NULL,
					var_type TEXT NOT NULL,
					is_control INTEGER NOT NULL,
					preferred_time TEXT NOT NULL,
					additive INTEGER NOT NULL,
					position INTEGER NOT NULL
				)`, v),
			dataPointsTable: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					id TEXT PRIMARY KEY,
					variable_id TEXT NOT NULL,
					value REAL NOT NULL,
					ts TEXT NOT NULL,
					note TEXT NOT NULL,
					metadata TEXT NOT NULL,
					logged_at INTEGER NOT NULL
				)`, d),
		}
	}
}

// getUpsertQuery returns the insert-or-update statement for a table whose
// first column is the primary key.
func getUpsertQuery(table string, columns []string, backend schema.DatabaseBackend) string {
	quoted := quoteTableName(table, backend)
	values := placeholderList(backend, 1, len(columns))
	cols := strings.Join(columns, ", ")

	updates := make([]string, 0, len(columns)-1)
	switch backend {
	case schema.MySQLBackend:
		for _, c := range columns[1:] {
			updates = append(updates, fmt.Sprintf("%s = new.%s", c, c))
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE %s`, quoted, cols, values, strings.Join(updates, ", "))

	default: // SQLite and PostgreSQL
		for _, c := range columns[1:] {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (%s) DO UPDATE SET %s`, quoted, cols, values, columns[0], strings.Join(updates, ", "))
	}
}

// Column lists shared by inserts and selects.
var (
	hypothesisColumns = []string{"id", "question", "status", "created_at", "details"}
	variableColumns   = []string{"id", "hypothesis_id", "name", "var_type", "is_control", "preferred_time", "additive", "position"}
	dataPointColumns  = []string{"id", "variable_id", "value", "ts", "note", "metadata", "logged_at"}
)
