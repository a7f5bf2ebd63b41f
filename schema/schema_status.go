package schema

import "time"

// CacheStatus represents the status of the ranking cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// StoreStatus represents the status of the domain store.
type StoreStatus struct {
	Backend    string           `json:"backend"`
	Connected  bool             `json:"connected"`
	TableSizes map[string]int64 `json:"table_sizes"`
}

// HistoryStatus represents the status of the ranking history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int              `json:"total_runs"`
	LastRunID      int64            `json:"last_run_id"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	TotalLibraries int              `json:"total_libraries"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// RankingRunRecord represents a row from the ranking runs table.
type RankingRunRecord struct {
	RunID        int64
	DomainID     string
	DomainName   string
	StartTime    time.Time
	EndTime      *time.Time
	DurationMs   *int64
	LibraryCount int
	SkippedCount int
	ConfigParams *string
}

// LibraryScoreRecord represents a row from the ranking scores table.
type LibraryScoreRecord struct {
	RunID          int64
	LibraryID      string
	LibraryName    string
	Rank           int
	OverallScore   float64
	Completeness   float64
	CategoryScores string // JSON object of category → score
}
