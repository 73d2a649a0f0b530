package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/huangsam/hypolog/internal/contract"
	"github.com/huangsam/hypolog/schema"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// SQLStore persists hypotheses, variables and data points in a SQL database.
type SQLStore struct {
	db         *sql.DB
	backend    schema.DatabaseBackend
	driverName string
	connStr    string
}

var _ contract.Store = &SQLStore{} // Compile-time check

// hypothesisDetails holds the optional nested parts of a hypothesis, stored as JSON.
type hypothesisDetails struct {
	Parsed            *schema.ParsedHypothesis  `json:"parsed,omitempty"`
	Knowledge         *schema.KnowledgeCard     `json:"knowledge,omitempty"`
	Baseline          *schema.BaselinePhase     `json:"baseline,omitempty"`
	InterventionStart *time.Time                `json:"intervention_start,omitempty"`
	Context           *schema.HypothesisContext `json:"context,omitempty"`
	Conclusion        *schema.Conclusion        `json:"conclusion,omitempty"`
}

// driverFor returns the database/sql driver name for a SQL backend.
func driverFor(backend schema.DatabaseBackend) (string, error) {
	switch backend {
	case schema.SQLiteBackend:
		return "sqlite", nil
	case schema.MySQLBackend:
		return "mysql", nil
	case schema.PostgreSQLBackend:
		return "pgx", nil
	default:
		return "", fmt.Errorf("unsupported SQL backend: %s", backend)
	}
}

// openDB opens and pings a database for the backend.
func openDB(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*sql.DB, string, error) {
	driverName, err := driverFor(backend)
	if err != nil {
		return nil, "", err
	}

	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = GetDBFilePath()
		}
	case schema.MySQLBackend:
		// connStr should be: user:password@tcp(host:port)/dbname
		if _, err := mysql.ParseDSN(connStr); err != nil {
			return nil, "", fmt.Errorf("invalid MySQL connection string: %w. Check connection format: user:password@tcp(host:port)/dbname", err)
		}
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if backend == schema.SQLiteBackend {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		var connDetail string
		switch backend {
		case schema.MySQLBackend:
			connDetail = "Check that MySQL is running and the connection string is correct. Ensure user/password are valid."
		case schema.PostgreSQLBackend:
			connDetail = "Check that PostgreSQL is running and the connection string is correct. Ensure user/password are valid."
		default:
			connDetail = "Check that the directory is writable."
		}
		return nil, "", fmt.Errorf("failed to connect to %s database: %w. %s", backend, err, connDetail)
	}
	return db, connStr, nil
}

// NewSQLStore connects to the backend and creates the tables if needed.
func NewSQLStore(ctx context.Context, backend schema.DatabaseBackend, connStr string) (*SQLStore, error) {
	db, resolved, err := openDB(ctx, backend, connStr)
	if err != nil {
		return nil, err
	}
	driverName, _ := driverFor(backend)

	if err := createTables(ctx, db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLStore{
		db:         db,
		backend:    backend,
		driverName: driverName,
		connStr:    resolved,
	}, nil
}

// createTables creates every table in order.
func createTables(ctx context.Context, db *sql.DB, backend schema.DatabaseBackend) error {
	queries := getCreateTableQueries(backend)
	for _, table := range allTables {
		if err := validateTableName(table); err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, queries[table]); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// LoadHypotheses returns every hypothesis with its variables in declared order.
func (s *SQLStore) LoadHypotheses(ctx context.Context) ([]schema.Hypothesis, error) {
	query := fmt.Sprintf("SELECT id, question, status, created_at, details FROM %s ORDER BY created_at, id",
		quoteTableName(hypothesesTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query hypotheses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hypotheses := []schema.Hypothesis{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			h         schema.Hypothesis
			status    string
			createdAt int64
			details   string
		)
		if err := rows.Scan(&h.ID, &h.Question, &status, &createdAt, &details); err != nil {
			return nil, fmt.Errorf("failed to scan hypothesis: %w", err)
		}
		h.Status = schema.HypothesisStatus(status)
		h.CreatedAt = time.Unix(0, createdAt).UTC()

		var d hypothesisDetails
		if details != "" {
			if err := json.Unmarshal([]byte(details), &d); err != nil {
				return nil, fmt.Errorf("failed to decode hypothesis %s: %w", h.ID, err)
			}
		}
		h.Parsed, h.Knowledge, h.Baseline = d.Parsed, d.Knowledge, d.Baseline
		h.InterventionStart, h.Context, h.Conclusion = d.InterventionStart, d.Context, d.Conclusion
		h.Variables = []schema.Variable{}

		index[h.ID] = len(hypotheses)
		hypotheses = append(hypotheses, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hypotheses: %w", err)
	}

	vars, err := s.LoadVariables(ctx)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		if pos, ok := index[v.HypothesisID]; ok {
			hypotheses[pos].Variables = append(hypotheses[pos].Variables, v)
		}
	}
	return hypotheses, nil
}

// SaveHypothesis upserts the hypothesis and replaces its variables in one transaction.
// Data points of variables dropped from the hypothesis are left untouched.
func (s *SQLStore) SaveHypothesis(ctx context.Context, h schema.Hypothesis) error {
	details, err := json.Marshal(hypothesisDetails{
		Parsed:            h.Parsed,
		Knowledge:         h.Knowledge,
		Baseline:          h.Baseline,
		InterventionStart: h.InterventionStart,
		Context:           h.Context,
		Conclusion:        h.Conclusion,
	})
	if err != nil {
		return fmt.Errorf("failed to encode hypothesis %s: %w", h.ID, err)
	}
	status := h.Status
	if status == "" {
		status = schema.ActiveStatus
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, getUpsertQuery(hypothesesTable, hypothesisColumns, s.backend),
		h.ID, h.Question, string(status), h.CreatedAt.UnixNano(), string(details)); err != nil {
		return fmt.Errorf("failed to save hypothesis %s: %w", h.ID, err)
	}

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE hypothesis_id = %s",
		quoteTableName(variablesTable, s.backend), placeholder(s.backend, 1))
	if _, err := tx.ExecContext(ctx, deleteQuery, h.ID); err != nil {
		return fmt.Errorf("failed to unlink variables of %s: %w", h.ID, err)
	}

	upsert := getUpsertQuery(variablesTable, variableColumns, s.backend)
	for i, v := range h.Variables {
		v.HypothesisID = h.ID
		if _, err := tx.ExecContext(ctx, upsert, variableArgs(v, i)...); err != nil {
			return fmt.Errorf("failed to save variable %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit hypothesis %s: %w", h.ID, err)
	}
	return nil
}

func variableArgs(v schema.Variable, position int) []any {
	preferred := v.PreferredTime
	if preferred == "" {
		preferred = schema.AnyTime
	}
	return []any{
		v.ID, v.HypothesisID, v.Name, string(v.Type),
		boolToInt(v.IsControl), string(preferred), boolToInt(v.Additive), position,
	}
}

// LoadVariables returns every variable, grouped by hypothesis in declared order.
func (s *SQLStore) LoadVariables(ctx context.Context) ([]schema.Variable, error) {
	query := fmt.Sprintf(`SELECT v.id, v.hypothesis_id, v.name, v.var_type, v.is_control, v.preferred_time, v.additive
		FROM %s v LEFT JOIN %s h ON h.id = v.hypothesis_id
		ORDER BY h.created_at, v.hypothesis_id, v.position`,
		quoteTableName(variablesTable, s.backend), quoteTableName(hypothesesTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query variables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	vars := []schema.Variable{}
	for rows.Next() {
		var (
			v                  schema.Variable
			varType, preferred string
			isControl, add     int
		)
		if err := rows.Scan(&v.ID, &v.HypothesisID, &v.Name, &varType, &isControl, &preferred, &add); err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		v.Type = schema.VariableType(varType)
		v.PreferredTime = schema.PreferredTime(preferred)
		v.IsControl = isControl != 0
		v.Additive = add != 0
		vars = append(vars, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating variables: %w", err)
	}
	return vars, nil
}

// SaveVariable upserts a single variable at the end of its hypothesis.
func (s *SQLStore) SaveVariable(ctx context.Context, v schema.Variable) error {
	quoted := quoteTableName(variablesTable, s.backend)

	position := 0
	posQuery := fmt.Sprintf("SELECT COALESCE(MAX(position) + 1, 0) FROM %s WHERE hypothesis_id = %s AND id <> %s",
		quoted, placeholder(s.backend, 1), placeholder(s.backend, 2))
	if err := s.db.QueryRowContext(ctx, posQuery, v.HypothesisID, v.ID).Scan(&position); err != nil {
		return fmt.Errorf("failed to find position for variable %s: %w", v.ID, err)
	}

	var existing int
	findQuery := fmt.Sprintf("SELECT position FROM %s WHERE id = %s", quoted, placeholder(s.backend, 1))
	switch err := s.db.QueryRowContext(ctx, findQuery, v.ID).Scan(&existing); err {
	case nil:
		position = existing
	case sql.ErrNoRows:
	default:
		return fmt.Errorf("failed to look up variable %s: %w", v.ID, err)
	}

	if _, err := s.db.ExecContext(ctx, getUpsertQuery(variablesTable, variableColumns, s.backend), variableArgs(v, position)...); err != nil {
		return fmt.Errorf("failed to save variable %s: %w", v.ID, err)
	}
	return nil
}

// LoadDataPoints returns points of the given variables, or all points, in logging order.
func (s *SQLStore) LoadDataPoints(ctx context.Context, variableIDs ...string) ([]schema.DataPoint, error) {
	query := fmt.Sprintf("SELECT id, variable_id, value, ts, note, metadata FROM %s",
		quoteTableName(dataPointsTable, s.backend))
	args := make([]any, 0, len(variableIDs))
	if len(variableIDs) > 0 {
		query += fmt.Sprintf(" WHERE variable_id IN (%s)", placeholderList(s.backend, 1, len(variableIDs)))
		for _, id := range variableIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY logged_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query data points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	points := []schema.DataPoint{}
	for rows.Next() {
		var (
			dp       schema.DataPoint
			metadata string
		)
		if err := rows.Scan(&dp.ID, &dp.VariableID, &dp.Value, &dp.Timestamp, &dp.Note, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan data point: %w", err)
		}
		if metadata != "" {
			dp.Metadata = &schema.DataPointMetadata{}
			if err := json.Unmarshal([]byte(metadata), dp.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata of %s: %w", dp.ID, err)
			}
		}
		points = append(points, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating data points: %w", err)
	}
	return points, nil
}

func dataPointArgs(dp schema.DataPoint, loggedAt int64) ([]any, error) {
	metadata := ""
	if dp.Metadata != nil {
		raw, err := json.Marshal(dp.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to encode metadata of %s: %w", dp.ID, err)
		}
		metadata = string(raw)
	}
	return []any{dp.ID, dp.VariableID, dp.Value, dp.Timestamp, dp.Note, metadata, loggedAt}, nil
}

// SaveDataPoint upserts a single data point.
func (s *SQLStore) SaveDataPoint(ctx context.Context, dp schema.DataPoint) error {
	return s.SaveDataPoints(ctx, []schema.DataPoint{dp})
}

// SaveDataPoints upserts the batch in one transaction.
func (s *SQLStore) SaveDataPoints(ctx context.Context, dps []schema.DataPoint) error {
	if len(dps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, getUpsertQuery(dataPointsTable, dataPointColumns, s.backend))
	if err != nil {
		return fmt.Errorf("failed to prepare data point upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	base := time.Now().UnixNano()
	for i, dp := range dps {
		args, err := dataPointArgs(dp, base+int64(i))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to save data point %s: %w", dp.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit data points: %w", err)
	}
	return nil
}

// GetStatus returns status information about the store.
func (s *SQLStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.db == nil {
		return status, nil
	}

	for _, table := range allTables {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend))
		if err := s.db.QueryRowContext(ctx, countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalHypotheses = int(status.TableSizes[hypothesesTable])
	if status.TotalHypotheses == 0 {
		return status, nil
	}

	quoted := quoteTableName(hypothesesTable, s.backend)
	activeQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = %s", quoted, placeholder(s.backend, 1))
	if err := s.db.QueryRowContext(ctx, activeQuery, string(schema.ActiveStatus)).Scan(&status.ActiveCount); err != nil {
		return status, fmt.Errorf("failed to get active count: %w", err)
	}

	var lastCreated int64
	lastQuery := fmt.Sprintf("SELECT MAX(created_at) FROM %s", quoted)
	if err := s.db.QueryRowContext(ctx, lastQuery).Scan(&lastCreated); err != nil {
		return status, fmt.Errorf("failed to get last created time: %w", err)
	}
	status.LastCreatedTime = time.Unix(0, lastCreated).UTC()
	return status, nil
}

// Clear removes every row from every table.
func (s *SQLStore) Clear(ctx context.Context) error {
	for _, table := range allTables {
		query := fmt.Sprintf("DELETE FROM %s", quoteTableName(table, s.backend))
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the underlying DB connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
