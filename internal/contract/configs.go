package contract

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/thaafei/domainx/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit  = 0 // all libraries
	MaxResultLimit      = 10000
	DefaultPrecision    = schema.ScorePrecision
	DefaultServerAddr   = ":8080"
	DefaultReadTimeout  = 15 * time.Second
	DefaultWriteTimeout = 15 * time.Second
	DefaultIdleTimeout  = 60 * time.Second
	DefaultRateLimit    = 20.0
	DefaultRateBurst    = 40
	DefaultLogFormat    = "text"
	DefaultLogLevel     = "info"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	DomainID    string
	AllDomains  bool
	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	Detail      bool
	UseColors   bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	RulesFile       string
	WatchRules      bool
	NumericUnranged schema.NumericPolicy

	LogLevel  slog.Level
	LogFormat string

	ServerAddr         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RateLimit          float64
	RateBurst          int
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	DomainID string

	// --- Fields from rootCmd.PersistentFlags() ---
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Limit            int    `mapstructure:"limit"`
	Workers          int    `mapstructure:"workers"`
	Precision        int    `mapstructure:"precision"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	StoreBackend     string `mapstructure:"store-backend"`
	StoreDBConnect   string `mapstructure:"store-db-connect"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	RulesFile        string `mapstructure:"rules-file"`
	NumericUnranged  string `mapstructure:"numeric-unranged"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`

	// --- Fields from rankCmd.Flags() ---
	All    bool `mapstructure:"all"`
	Detail bool `mapstructure:"detail"`

	// --- Fields from serveCmd.Flags() ---
	ServerAddr         string        `mapstructure:"server-addr"`
	ServerReadTimeout  time.Duration `mapstructure:"server-read-timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server-write-timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server-idle-timeout"`
	RateLimit          float64       `mapstructure:"rate-limit"`
	RateBurst          int           `mapstructure:"rate-burst"`
	WatchRules         bool          `mapstructure:"watch-rules"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processLogging(cfg, input); err != nil {
		return err
	}
	if err := processServer(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends. key names the setting in error messages.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr, key string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", key, backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("%s is required when using %s backend", key, backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend lower-cases and validates a backend name. Empty input yields NoneBackend.
func ParseBackend(raw, key string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(raw) == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid %s '%s'. must be sqlite, mysql, postgresql, none", key, raw)
	}
	return backend, nil
}

// validateBackendConfigs validates the store, cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	var err error

	// --- Domain Store Validation ---
	cfg.StoreBackend, err = ParseBackend(input.StoreBackend, "store backend")
	if err != nil {
		return err
	}
	if cfg.StoreBackend == schema.NoneBackend {
		return fmt.Errorf("store backend cannot be none. must be sqlite, mysql, postgresql")
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect, "store-db-connect"); err != nil {
		return err
	}

	// --- Ranking Cache Validation ---
	cfg.CacheBackend, err = ParseBackend(input.CacheBackend, "cache backend")
	if err != nil {
		return err
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect, "cache-db-connect"); err != nil {
		return err
	}

	// --- History Validation ---
	cfg.HistoryBackend, err = ParseBackend(input.HistoryBackend, "history backend")
	if err != nil {
		return err
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect, "history-db-connect"); err != nil {
		return err
	}

	// SQLite files must not be shared between stores, since each store owns its tables.
	paths := map[string]string{}
	check := func(name string, backend schema.DatabaseBackend, connStr, fallback string) error {
		if backend != schema.SQLiteBackend {
			return nil
		}
		path := connStr
		if path == "" {
			path = fallback
		}
		if path == ":memory:" {
			return nil
		}
		if other, ok := paths[path]; ok {
			return fmt.Errorf("%s and %s storage must use different SQLite database files. Both resolve to %q", other, name, path)
		}
		paths[path] = name
		return nil
	}
	if err := check("store", cfg.StoreBackend, cfg.StoreDBConnect, GetStoreDBFilePath()); err != nil {
		return err
	}
	if err := check("cache", cfg.CacheBackend, cfg.CacheDBConnect, GetCacheDBFilePath()); err != nil {
		return err
	}
	return check("history", cfg.HistoryBackend, cfg.HistoryDBConnect, GetHistoryDBFilePath())
}

// validateSimpleInputs processes and validates all output and scoring fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.DomainID = strings.TrimSpace(input.DomainID)
	cfg.AllDomains = input.All
	cfg.Detail = input.Detail
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.RulesFile = input.RulesFile
	cfg.WatchRules = input.WatchRules

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 4. Numeric Policy Validation ---
	policy := schema.NumericPolicy(strings.ToLower(input.NumericUnranged))
	if policy == "" {
		policy = schema.PassThroughNumeric
	}
	if _, ok := schema.ValidNumericPolicies[policy]; !ok {
		return fmt.Errorf("invalid numeric-unranged '%s'. must be passthrough, exclude", input.NumericUnranged)
	}
	cfg.NumericUnranged = policy

	return nil
}

// processLogging parses the log level and format.
func processLogging(cfg *Config, input *ConfigRawInput) error {
	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	format := strings.ToLower(input.LogFormat)
	if format == "" {
		format = DefaultLogFormat
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log-format '%s'. must be text, json", input.LogFormat)
	}
	cfg.LogFormat = format
	return nil
}

// processServer validates the HTTP server settings.
func processServer(cfg *Config, input *ConfigRawInput) error {
	cfg.ServerAddr = input.ServerAddr
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = DefaultServerAddr
	}

	timeouts := []struct {
		name string
		in   time.Duration
		def  time.Duration
		out  *time.Duration
	}{
		{"server-read-timeout", input.ServerReadTimeout, DefaultReadTimeout, &cfg.ServerReadTimeout},
		{"server-write-timeout", input.ServerWriteTimeout, DefaultWriteTimeout, &cfg.ServerWriteTimeout},
		{"server-idle-timeout", input.ServerIdleTimeout, DefaultIdleTimeout, &cfg.ServerIdleTimeout},
	}
	for _, t := range timeouts {
		if t.in < 0 {
			return fmt.Errorf("%s cannot be negative (received %s)", t.name, t.in)
		}
		*t.out = t.in
		if t.in == 0 {
			*t.out = t.def
		}
	}

	if input.RateLimit < 0 {
		return fmt.Errorf("rate-limit cannot be negative (received %v)", input.RateLimit)
	}
	cfg.RateLimit = input.RateLimit
	if input.RateBurst < 0 {
		return fmt.Errorf("rate-burst cannot be negative (received %d)", input.RateBurst)
	}
	cfg.RateBurst = input.RateBurst
	if cfg.RateLimit > 0 && cfg.RateBurst == 0 {
		cfg.RateBurst = 1
	}
	return nil
}
