package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "symnet_analysis_runs"
	networksTable     = "symnet_networks"
	edgesTable        = "symnet_edges"
)

// analysisTables lists the tracking tables in creation order.
var analysisTables = []string{analysisRunsTable, networksTable, edgesTable}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDatabase(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables creates the analysis tracking tables.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{analysisRunsTable, getCreateAnalysisRunsQuery(backend)},
		{networksTable, getCreateNetworksQuery(backend)},
		{edgesTable, getCreateEdgesQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateAnalysisRunsQuery returns the CREATE TABLE query for symnet_analysis_runs.
func getCreateAnalysisRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(analysisRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_networks INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_networks INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_networks INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateNetworksQuery returns the CREATE TABLE query for symnet_networks.
func getCreateNetworksQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(networksTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				subject_id VARCHAR(255) NOT NULL,
				analysis_time DATETIME(6) NOT NULL,
				edge_threshold DOUBLE NOT NULL,
				observations INT NOT NULL,
				lagged_rows INT NOT NULL,
				estimated_outcomes INT NOT NULL,
				failed_outcomes INT NOT NULL,
				edge_count INT NOT NULL,
				densest_node VARCHAR(255),
				PRIMARY KEY (analysis_id, subject_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				subject_id TEXT NOT NULL,
				analysis_time TIMESTAMPTZ NOT NULL,
				edge_threshold DOUBLE PRECISION NOT NULL,
				observations INT NOT NULL,
				lagged_rows INT NOT NULL,
				estimated_outcomes INT NOT NULL,
				failed_outcomes INT NOT NULL,
				edge_count INT NOT NULL,
				densest_node TEXT,
				PRIMARY KEY (analysis_id, subject_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				subject_id TEXT NOT NULL,
				analysis_time TEXT NOT NULL,
				edge_threshold REAL NOT NULL,
				observations INTEGER NOT NULL,
				lagged_rows INTEGER NOT NULL,
				estimated_outcomes INTEGER NOT NULL,
				failed_outcomes INTEGER NOT NULL,
				edge_count INTEGER NOT NULL,
				densest_node TEXT,
				PRIMARY KEY (analysis_id, subject_id)
			);
		`, quotedTableName)
	}
}

// getCreateEdgesQuery returns the CREATE TABLE query for symnet_edges.
func getCreateEdgesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(edgesTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				subject_id VARCHAR(255) NOT NULL,
				source_symptom VARCHAR(255) NOT NULL,
				target_symptom VARCHAR(255) NOT NULL,
				weight DOUBLE NOT NULL,
				PRIMARY KEY (analysis_id, subject_id, source_symptom, target_symptom)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id BIGINT NOT NULL,
				subject_id TEXT NOT NULL,
				source_symptom TEXT NOT NULL,
				target_symptom TEXT NOT NULL,
				weight DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (analysis_id, subject_id, source_symptom, target_symptom)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				analysis_id INTEGER NOT NULL,
				subject_id TEXT NOT NULL,
				source_symptom TEXT NOT NULL,
				target_symptom TEXT NOT NULL,
				weight REAL NOT NULL,
				PRIMARY KEY (analysis_id, subject_id, source_symptom, target_symptom)
			);
		`, quotedTableName)
	}
}

// disabled reports whether the store is a no-op.
func (as *AnalysisStoreImpl) disabled() bool {
	return as.backend == schema.NoneBackend || as.db == nil
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.disabled() {
		return 0, nil
	}

	// Serialize config params to JSON
	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (%s)`, quotedTableName, bindVars(as.backend, 3))
	args := []any{runUUID, formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		err = as.db.QueryRow(query+" RETURNING analysis_id", args...).Scan(&analysisID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = as.db.Exec(query, args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}

	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalNetworks int) error {
	if as.disabled() {
		return nil
	}

	// First, get the start_time to calculate duration
	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, bindVars(as.backend, 1))
	startTime, err := scanTime(as.db.QueryRow(query, analysisID), as.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	var updateQuery string
	switch as.backend {
	case schema.PostgreSQLBackend:
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = $1, run_duration_ms = $2, total_networks = $3 WHERE analysis_id = $4`, quotedTableName)
	default: // SQLite and MySQL
		updateQuery = fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_networks = ? WHERE analysis_id = ?`, quotedTableName)
	}

	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalNetworks, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}

	return nil
}

// RecordNetwork stores the summary row and every edge of one subject network in a single transaction.
func (as *AnalysisStoreImpl) RecordNetwork(analysisID int64, result schema.NetworkResult, analysisTime time.Time) error {
	if as.disabled() {
		return nil
	}

	summary := result.Summarize()
	var densest *string
	if summary.DensestNode != "" {
		densest = &summary.DensestNode
	}

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	networkQuery := fmt.Sprintf(`
		INSERT INTO %s (analysis_id, subject_id, analysis_time, edge_threshold, observations, lagged_rows,
		                estimated_outcomes, failed_outcomes, edge_count, densest_node)
		VALUES (%s)
	`, quoteTableName(networksTable, as.backend), bindVars(as.backend, 10))
	if _, err := tx.Exec(networkQuery,
		analysisID, result.Subject, formatTime(analysisTime, as.backend), result.Threshold,
		summary.Observations, summary.LaggedRows, summary.EstimatedOutcomes, summary.FailedOutcomes,
		summary.Edges, densest,
	); err != nil {
		return fmt.Errorf("failed to insert network for subject %s: %w", result.Subject, err)
	}

	if len(result.Edges) > 0 {
		edgeQuery := fmt.Sprintf(`INSERT INTO %s (analysis_id, subject_id, source_symptom, target_symptom, weight) VALUES (%s)`,
			quoteTableName(edgesTable, as.backend), bindVars(as.backend, 5))
		stmt, err := tx.Prepare(edgeQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare edge insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, e := range result.Edges {
			if _, err := stmt.Exec(analysisID, result.Subject, e.Source, e.Target, e.Weight); err != nil {
				return fmt.Errorf("failed to insert edge %s -> %s: %w", e.Source, e.Target, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit network for subject %s: %w", result.Subject, err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}

	if as.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(analysisRunsTable, as.backend)
	row := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns))
	if err := row.Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		// Get last run info
		row = as.db.QueryRow(fmt.Sprintf("SELECT analysis_id FROM %s ORDER BY analysis_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := scanTime(as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", quotedRuns)), as.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		oldestRunTime, err := scanTime(as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", quotedRuns)), as.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_networks), 0) FROM %s", quotedRuns))
		if err := row.Scan(&status.TotalNetworks); err != nil {
			return status, fmt.Errorf("failed to get total networks: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		row = as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT analysis_id, run_uuid, start_time, end_time, run_duration_ms, total_networks, config_params FROM %s ORDER BY analysis_id",
		quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord

		switch as.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.TotalNetworks, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalNetworks, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return results, nil
}

// GetAllNetworkRecords retrieves every stored network summary.
func (as *AnalysisStoreImpl) GetAllNetworkRecords() ([]schema.NetworkRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, subject_id, analysis_time, edge_threshold, observations, lagged_rows,
    estimated_outcomes, failed_outcomes, edge_count, densest_node
    FROM %s ORDER BY analysis_id, subject_id`, quoteTableName(networksTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query networks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.NetworkRecord
	for rows.Next() {
		var record schema.NetworkRecord
		var analysisTime any = &record.AnalysisTime
		var analysisTimeStr string
		if as.backend == schema.SQLiteBackend {
			analysisTime = &analysisTimeStr
		}
		if err := rows.Scan(&record.AnalysisID, &record.SubjectID, analysisTime, &record.Threshold,
			&record.Observations, &record.LaggedRows, &record.EstimatedOutcomes, &record.FailedOutcomes,
			&record.EdgeCount, &record.DensestNode); err != nil {
			return nil, fmt.Errorf("failed to scan network: %w", err)
		}
		if as.backend == schema.SQLiteBackend {
			if record.AnalysisTime, err = time.Parse(time.RFC3339Nano, analysisTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
			}
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating networks: %w", err)
	}

	return results, nil
}

// GetAllEdgeRecords retrieves every stored edge.
func (as *AnalysisStoreImpl) GetAllEdgeRecords() ([]schema.EdgeRecord, error) {
	if as.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, subject_id, source_symptom, target_symptom, weight
    FROM %s ORDER BY analysis_id, subject_id, source_symptom, target_symptom`, quoteTableName(edgesTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.EdgeRecord
	for rows.Next() {
		var record schema.EdgeRecord
		if err := rows.Scan(&record.AnalysisID, &record.SubjectID, &record.Source, &record.Target, &record.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return results, nil
}

// scanTime reads a single timestamp column, parsing the text form SQLite stores.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
