package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// Table names for ranking history.
const (
	rankingRunsTable   = "domainx_ranking_runs"
	rankingScoresTable = "domainx_ranking_scores"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
// NoneBackend yields a store that records nothing.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (*HistoryStoreImpl, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, err
	}

	tables := []struct {
		name  string
		query string
	}{
		{rankingRunsTable, getCreateRankingRunsQuery(backend)},
		{rankingScoresTable, getCreateRankingScoresQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// getCreateRankingRunsQuery returns the CREATE TABLE query for the runs table.
func getCreateRankingRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(rankingRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				domain_id VARCHAR(64) NOT NULL,
				domain_name VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms BIGINT,
				library_count INT,
				skipped_count INT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				domain_id TEXT NOT NULL,
				domain_name TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms BIGINT,
				library_count INT,
				skipped_count INT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				domain_id TEXT NOT NULL,
				domain_name TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				library_count INTEGER,
				skipped_count INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateRankingScoresQuery returns the CREATE TABLE query for the scores table.
func getCreateRankingScoresQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(rankingScoresTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				library_id VARCHAR(64) NOT NULL,
				library_name VARCHAR(255) NOT NULL,
				library_rank INT NOT NULL,
				overall_score DOUBLE NOT NULL,
				completeness DOUBLE NOT NULL,
				category_scores TEXT NOT NULL,
				PRIMARY KEY (run_id, library_id)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				library_id TEXT NOT NULL,
				library_name TEXT NOT NULL,
				library_rank INT NOT NULL,
				overall_score DOUBLE PRECISION NOT NULL,
				completeness DOUBLE PRECISION NOT NULL,
				category_scores TEXT NOT NULL,
				PRIMARY KEY (run_id, library_id)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				library_id TEXT NOT NULL,
				library_name TEXT NOT NULL,
				library_rank INTEGER NOT NULL,
				overall_score REAL NOT NULL,
				completeness REAL NOT NULL,
				category_scores TEXT NOT NULL,
				PRIMARY KEY (run_id, library_id)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new ranking run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, domain schema.Domain, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(rankingRunsTable, hs.backend)

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (domain_id, domain_name, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = hs.db.QueryRow(query, domain.ID, domain.Name, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (domain_id, domain_name, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = hs.db.Exec(query, domain.ID, domain.Name, formatTime(startTime, hs.backend), string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert ranking run: %w", err)
	}

	return runID, nil
}

// EndRun updates the ranking run with completion data.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, libraryCount, skippedCount int) error {
	if hs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(rankingRunsTable, hs.backend)

	var rawStart any
	query := rebind(hs.backend, fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName))
	if err := hs.db.QueryRow(query, runID).Scan(&rawStart); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := scanTime(rawStart)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	update := rebind(hs.backend, fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, library_count = ?, skipped_count = ? WHERE run_id = ?`, quotedTableName))
	if _, err := hs.db.Exec(update, formatTime(endTime, hs.backend), durationMs, libraryCount, skippedCount, runID); err != nil {
		return fmt.Errorf("failed to update ranking run: %w", err)
	}

	return nil
}

// RecordLibraryScore stores the final score of one library in a run.
func (hs *HistoryStoreImpl) RecordLibraryScore(runID int64, lib schema.RankedLibrary) error {
	if hs.db == nil {
		return nil
	}

	categoryJSON, err := json.Marshal(lib.CategoryScores)
	if err != nil {
		return fmt.Errorf("failed to marshal category scores: %w", err)
	}

	query := rebind(hs.backend, fmt.Sprintf(`
		INSERT INTO %s (run_id, library_id, library_name, library_rank, overall_score, completeness, category_scores)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteTableName(rankingScoresTable, hs.backend)))
	if _, err := hs.db.Exec(query, runID, lib.LibraryID, lib.LibraryName, lib.Rank, lib.Score, lib.Completeness(), string(categoryJSON)); err != nil {
		return fmt.Errorf("failed to insert library score: %w", err)
	}

	return nil
}

// GetAllRuns retrieves all ranking runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RankingRunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, domain_id, domain_name, start_time, end_time, run_duration_ms, library_count, skipped_count, config_params
		FROM %s ORDER BY run_id`, quoteTableName(rankingRunsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ranking runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RankingRunRecord
	for rows.Next() {
		var record schema.RankingRunRecord
		var rawStart, rawEnd any
		var libCount, skipCount sql.NullInt64
		if err := rows.Scan(&record.RunID, &record.DomainID, &record.DomainName, &rawStart, &rawEnd,
			&record.DurationMs, &libCount, &skipCount, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan ranking run: %w", err)
		}
		if record.StartTime, err = scanTime(rawStart); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if rawEnd != nil {
			endTime, err := scanTime(rawEnd)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		record.LibraryCount = int(libCount.Int64)
		record.SkippedCount = int(skipCount.Int64)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ranking runs: %w", err)
	}

	return results, nil
}

// GetAllLibraryScores retrieves all recorded library scores from the store.
func (hs *HistoryStoreImpl) GetAllLibraryScores() ([]schema.LibraryScoreRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, library_id, library_name, library_rank, overall_score, completeness, category_scores
		FROM %s ORDER BY run_id, library_rank`, quoteTableName(rankingScoresTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query library scores: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.LibraryScoreRecord
	for rows.Next() {
		var r schema.LibraryScoreRecord
		if err := rows.Scan(&r.RunID, &r.LibraryID, &r.LibraryName, &r.Rank, &r.OverallScore, &r.Completeness, &r.CategoryScores); err != nil {
			return nil, fmt.Errorf("failed to scan library score: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating library scores: %w", err)
	}

	return results, nil
}

// Clear removes all runs and scores.
func (hs *HistoryStoreImpl) Clear() error {
	if hs.db == nil {
		return nil
	}
	for _, table := range []string{rankingScoresTable, rankingRunsTable} {
		if _, err := hs.db.Exec(fmt.Sprintf("DELETE FROM %s", quoteTableName(table, hs.backend))); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(rankingRunsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var rawLast, rawOldest any
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)).Scan(&status.LastRunID, &rawLast); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)).Scan(&rawOldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		var err error
		if status.LastRunTime, err = scanTime(rawLast); err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		if status.OldestRunTime, err = scanTime(rawOldest); err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(library_count), 0) FROM %s", quotedRuns)).Scan(&status.TotalLibraries); err != nil {
			return status, fmt.Errorf("failed to get total libraries: %w", err)
		}
	}

	sizes, err := countRows(hs.db, hs.backend, rankingRunsTable, rankingScoresTable)
	status.TableSizes = sizes
	return status, err
}
