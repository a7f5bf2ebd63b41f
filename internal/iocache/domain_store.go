package iocache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thaafei/domainx/internal/contract"
	"github.com/thaafei/domainx/schema"
)

// Table names owned by the domain store migrations.
const (
	domainsTable         = "domains"
	librariesTable       = "libraries"
	metricsTable         = "metrics"
	metricValuesTable    = "metric_values"
	categoryWeightsTable = "category_weights"
)

// DomainStoreImpl implements contract.DomainStore on a SQL database.
type DomainStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
}

var _ contract.DomainStore = &DomainStoreImpl{} // Compile-time check

// NewDomainStore opens the store and migrates its schema to the latest version.
func NewDomainStore(backend schema.DatabaseBackend, connStr string) (*DomainStoreImpl, error) {
	if backend == schema.NoneBackend {
		return nil, fmt.Errorf("domain store requires a database backend. Must be sqlite, mysql, postgresql")
	}
	db, err := openDB(backend, connStr, GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := migrateLatest(db, backend); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DomainStoreImpl{db: db, backend: backend, connStr: connStr}, nil
}

func (ds *DomainStoreImpl) q(query string) string {
	return rebind(ds.backend, query)
}

// ListDomains returns every domain with library and metric counts, ordered by name.
func (ds *DomainStoreImpl) ListDomains(ctx context.Context) ([]schema.DomainSummary, error) {
	rows, err := ds.db.QueryContext(ctx, `
		SELECT d.domain_id, d.domain_name, d.description, d.created_at,
			(SELECT COUNT(*) FROM libraries l WHERE l.domain_id = d.domain_id),
			(SELECT COUNT(*) FROM metrics m WHERE m.domain_id = d.domain_id)
		FROM domains d ORDER BY d.domain_name, d.domain_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.DomainSummary
	for rows.Next() {
		var s schema.DomainSummary
		var desc sql.NullString
		var created int64
		if err := rows.Scan(&s.ID, &s.Name, &desc, &created, &s.LibraryCount, &s.MetricCount); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		s.Description = desc.String
		s.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetDomain returns one domain or contract.ErrDomainNotFound.
func (ds *DomainStoreImpl) GetDomain(ctx context.Context, domainID string) (schema.Domain, error) {
	return ds.getDomain(ctx, ds.db, domainID)
}

func (ds *DomainStoreImpl) getDomain(ctx context.Context, q queryer, domainID string) (schema.Domain, error) {
	var d schema.Domain
	var desc sql.NullString
	var created int64
	row := q.QueryRowContext(ctx, ds.q(`SELECT domain_id, domain_name, description, created_at FROM domains WHERE domain_id = ?`), domainID)
	if err := row.Scan(&d.ID, &d.Name, &desc, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, fmt.Errorf("%w: %s", contract.ErrDomainNotFound, domainID)
		}
		return d, fmt.Errorf("failed to get domain %s: %w", domainID, err)
	}
	d.Description = desc.String
	d.CreatedAt = time.Unix(created, 0).UTC()
	return d, nil
}

// GetMetricsForDomain returns the metrics of a domain in insertion order.
func (ds *DomainStoreImpl) GetMetricsForDomain(ctx context.Context, domainID string) ([]schema.Metric, error) {
	return ds.getMetrics(ctx, ds.db, domainID)
}

func (ds *DomainStoreImpl) getMetrics(ctx context.Context, q queryer, domainID string) ([]schema.Metric, error) {
	rows, err := q.QueryContext(ctx, ds.q(`
		SELECT metric_id, domain_id, metric_name, description, category, value_type,
			option_category, rule_key, range_min, range_max
		FROM metrics WHERE domain_id = ? ORDER BY position, metric_id`), domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []schema.Metric
	for rows.Next() {
		var m schema.Metric
		var desc, category, optionCategory, rule sql.NullString
		var vt string
		var lo, hi sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.DomainID, &m.Name, &desc, &category, &vt, &optionCategory, &rule, &lo, &hi); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.Description = desc.String
		m.Category = category.String
		m.ValueType = schema.ValueType(vt)
		m.OptionCategory = optionCategory.String
		m.Rule = rule.String
		if lo.Valid {
			m.RangeMin = &lo.Float64
		}
		if hi.Valid {
			m.RangeMax = &hi.Float64
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetLibrariesWithValues returns the libraries of a domain with raw values keyed by metric ID.
// Values are fetched in one query for the whole domain.
func (ds *DomainStoreImpl) GetLibrariesWithValues(ctx context.Context, domainID string) ([]schema.LibraryValues, error) {
	return ds.getLibrariesWithValues(ctx, ds.db, domainID)
}

func (ds *DomainStoreImpl) getLibrariesWithValues(ctx context.Context, q queryer, domainID string) ([]schema.LibraryValues, error) {
	rows, err := q.QueryContext(ctx, ds.q(`
		SELECT library_id, domain_id, library_name, url, programming_language
		FROM libraries WHERE domain_id = ? ORDER BY position, library_id`), domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query libraries: %w", err)
	}

	var out []schema.LibraryValues
	index := make(map[string]int)
	for rows.Next() {
		var lib schema.Library
		var url, lang sql.NullString
		if err := rows.Scan(&lib.ID, &lib.DomainID, &lib.Name, &url, &lang); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan library: %w", err)
		}
		lib.URL = url.String
		lib.ProgrammingLanguage = lang.String
		index[lib.ID] = len(out)
		out = append(out, schema.LibraryValues{Library: lib, Values: make(map[string]any)})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	valueRows, err := q.QueryContext(ctx, ds.q(`
		SELECT v.library_id, v.metric_id, v.value_json
		FROM metric_values v JOIN libraries l ON l.library_id = v.library_id
		WHERE l.domain_id = ?`), domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric values: %w", err)
	}
	defer func() { _ = valueRows.Close() }()

	for valueRows.Next() {
		var libID, metricID string
		var raw sql.NullString
		if err := valueRows.Scan(&libID, &metricID, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan metric value: %w", err)
		}
		i, ok := index[libID]
		if !ok {
			continue
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value of library %s metric %s: %w", libID, metricID, err)
		}
		out[i].Values[metricID] = v
	}
	return out, valueRows.Err()
}

// GetCategoryWeights returns the stored weights of a domain.
func (ds *DomainStoreImpl) GetCategoryWeights(ctx context.Context, domainID string) (map[string]float64, error) {
	return ds.getWeights(ctx, ds.db, domainID)
}

func (ds *DomainStoreImpl) getWeights(ctx context.Context, q queryer, domainID string) (map[string]float64, error) {
	rows, err := q.QueryContext(ctx, ds.q(`SELECT category, weight FROM category_weights WHERE domain_id = ?`), domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to query category weights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	weights := make(map[string]float64)
	for rows.Next() {
		var category string
		var w float64
		if err := rows.Scan(&category, &w); err != nil {
			return nil, fmt.Errorf("failed to scan category weight: %w", err)
		}
		weights[category] = w
	}
	return weights, rows.Err()
}

// LoadDomainSnapshot reads a domain with its metrics, libraries, values and weights
// inside one transaction using a fixed number of queries.
func (ds *DomainStoreImpl) LoadDomainSnapshot(ctx context.Context, domainID string) (schema.DomainSnapshot, error) {
	var snap schema.DomainSnapshot

	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return snap, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if snap.Domain, err = ds.getDomain(ctx, tx, domainID); err != nil {
		return snap, err
	}
	if snap.Metrics, err = ds.getMetrics(ctx, tx, domainID); err != nil {
		return snap, err
	}
	if snap.Libraries, err = ds.getLibrariesWithValues(ctx, tx, domainID); err != nil {
		return snap, err
	}
	if snap.Weights, err = ds.getWeights(ctx, tx, domainID); err != nil {
		return snap, err
	}
	return snap, tx.Commit()
}

// CreateDomain inserts a domain. An empty ID is generated.
func (ds *DomainStoreImpl) CreateDomain(ctx context.Context, domain schema.Domain) (schema.Domain, error) {
	if strings.TrimSpace(domain.Name) == "" {
		return domain, fmt.Errorf("domain name cannot be empty")
	}
	if domain.ID == "" {
		domain.ID = uuid.NewString()
	}
	if domain.CreatedAt.IsZero() {
		domain.CreatedAt = time.Now().UTC()
	}
	_, err := ds.db.ExecContext(ctx, ds.q(`INSERT INTO domains (domain_id, domain_name, description, created_at) VALUES (?, ?, ?, ?)`),
		domain.ID, domain.Name, domain.Description, domain.CreatedAt.Unix())
	if err != nil {
		return domain, fmt.Errorf("failed to insert domain %s: %w", domain.Name, err)
	}
	return domain, nil
}

// AddLibrary inserts a library at the end of its domain. An empty ID is generated.
func (ds *DomainStoreImpl) AddLibrary(ctx context.Context, lib schema.Library) (schema.Library, error) {
	if strings.TrimSpace(lib.Name) == "" {
		return lib, fmt.Errorf("library name cannot be empty")
	}
	if _, err := ds.getDomain(ctx, ds.db, lib.DomainID); err != nil {
		return lib, err
	}
	var taken int
	if err := ds.db.QueryRowContext(ctx, ds.q(`SELECT COUNT(*) FROM libraries WHERE domain_id = ? AND library_name = ?`),
		lib.DomainID, lib.Name).Scan(&taken); err != nil {
		return lib, fmt.Errorf("failed to check library name %s: %w", lib.Name, err)
	}
	if taken > 0 {
		return lib, fmt.Errorf("%w: %s", contract.ErrDuplicateLibrary, lib.Name)
	}
	if lib.ID == "" {
		lib.ID = uuid.NewString()
	}
	pos, err := ds.nextPosition(ctx, librariesTable, lib.DomainID)
	if err != nil {
		return lib, err
	}
	_, err = ds.db.ExecContext(ctx, ds.q(`INSERT INTO libraries (library_id, domain_id, library_name, url, programming_language, position) VALUES (?, ?, ?, ?, ?, ?)`),
		lib.ID, lib.DomainID, lib.Name, lib.URL, lib.ProgrammingLanguage, pos)
	if err != nil {
		return lib, fmt.Errorf("failed to insert library %s: %w", lib.Name, err)
	}
	return lib, nil
}

// AddMetric inserts a metric at the end of its domain. An empty ID is generated.
func (ds *DomainStoreImpl) AddMetric(ctx context.Context, metric schema.Metric) (schema.Metric, error) {
	if strings.TrimSpace(metric.Name) == "" {
		return metric, fmt.Errorf("metric name cannot be empty")
	}
	if metric.ValueType == "" {
		metric.ValueType = schema.FloatValue
	}
	if _, ok := schema.ValidValueTypes[metric.ValueType]; !ok {
		return metric, fmt.Errorf("invalid value type '%s' for metric %s", metric.ValueType, metric.Name)
	}
	if _, err := ds.getDomain(ctx, ds.db, metric.DomainID); err != nil {
		return metric, err
	}
	if metric.ID == "" {
		metric.ID = uuid.NewString()
	}
	pos, err := ds.nextPosition(ctx, metricsTable, metric.DomainID)
	if err != nil {
		return metric, err
	}
	_, err = ds.db.ExecContext(ctx, ds.q(`
		INSERT INTO metrics (metric_id, domain_id, metric_name, description, category, value_type,
			option_category, rule_key, range_min, range_max, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		metric.ID, metric.DomainID, metric.Name, metric.Description, metric.Category, string(metric.ValueType),
		metric.OptionCategory, metric.Rule, nullFloat(metric.RangeMin), nullFloat(metric.RangeMax), pos)
	if err != nil {
		return metric, fmt.Errorf("failed to insert metric %s: %w", metric.Name, err)
	}
	return metric, nil
}

func (ds *DomainStoreImpl) nextPosition(ctx context.Context, table, domainID string) (int64, error) {
	var pos int64
	query := fmt.Sprintf(`SELECT COALESCE(MAX(position), 0) + 1 FROM %s WHERE domain_id = ?`, quoteTableName(table, ds.backend))
	if err := ds.db.QueryRowContext(ctx, ds.q(query), domainID).Scan(&pos); err != nil {
		return 0, fmt.Errorf("failed to compute position in %s: %w", table, err)
	}
	return pos, nil
}

// SaveCategoryWeights replaces all stored weights of a domain in one transaction.
func (ds *DomainStoreImpl) SaveCategoryWeights(ctx context.Context, domainID string, weights map[string]float64) error {
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := ds.getDomain(ctx, tx, domainID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ds.q(`DELETE FROM category_weights WHERE domain_id = ?`), domainID); err != nil {
		return fmt.Errorf("failed to clear category weights: %w", err)
	}
	for category, w := range weights {
		if _, err := tx.ExecContext(ctx, ds.q(`INSERT INTO category_weights (domain_id, category, weight) VALUES (?, ?, ?)`), domainID, category, w); err != nil {
			return fmt.Errorf("failed to insert weight for %s: %w", category, err)
		}
	}
	return tx.Commit()
}

// UpsertMetricValues writes raw values in a single transaction.
// Every library and metric must exist and belong to the same domain.
func (ds *DomainStoreImpl) UpsertMetricValues(ctx context.Context, updates []schema.MetricValueUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	upsert := ds.upsertValueQuery()
	for _, u := range updates {
		var libDomain, metricDomain string
		err := tx.QueryRowContext(ctx, ds.q(`SELECT domain_id FROM libraries WHERE library_id = ?`), u.LibraryID).Scan(&libDomain)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", contract.ErrLibraryNotFound, u.LibraryID)
		} else if err != nil {
			return fmt.Errorf("failed to look up library %s: %w", u.LibraryID, err)
		}
		err = tx.QueryRowContext(ctx, ds.q(`SELECT domain_id FROM metrics WHERE metric_id = ?`), u.MetricID).Scan(&metricDomain)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", contract.ErrMetricNotFound, u.MetricID)
		} else if err != nil {
			return fmt.Errorf("failed to look up metric %s: %w", u.MetricID, err)
		}
		if libDomain != metricDomain {
			return fmt.Errorf("library %s and metric %s belong to different domains", u.LibraryID, u.MetricID)
		}

		encoded, err := encodeValue(u.Value)
		if err != nil {
			return fmt.Errorf("failed to encode value of library %s metric %s: %w", u.LibraryID, u.MetricID, err)
		}
		if _, err := tx.ExecContext(ctx, upsert, u.LibraryID, u.MetricID, encoded, now); err != nil {
			return fmt.Errorf("failed to upsert value of library %s metric %s: %w", u.LibraryID, u.MetricID, err)
		}
	}
	return tx.Commit()
}

// upsertValueQuery returns the UPSERT query for the backend.
func (ds *DomainStoreImpl) upsertValueQuery() string {
	switch ds.backend {
	case schema.MySQLBackend:
		return `INSERT INTO metric_values (library_id, metric_id, value_json, updated_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE value_json = new.value_json, updated_at = new.updated_at`
	case schema.PostgreSQLBackend:
		return `INSERT INTO metric_values (library_id, metric_id, value_json, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (library_id, metric_id) DO UPDATE SET value_json = EXCLUDED.value_json, updated_at = EXCLUDED.updated_at`
	default: // SQLite
		return `INSERT OR REPLACE INTO metric_values (library_id, metric_id, value_json, updated_at) VALUES (?, ?, ?, ?)`
	}
}

// GetStatus returns row counts for every store table.
func (ds *DomainStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{Backend: string(ds.backend), Connected: ds.db != nil}
	if ds.db == nil {
		return status, nil
	}
	sizes, err := countRows(ds.db, ds.backend, domainsTable, librariesTable, metricsTable, metricValuesTable, categoryWeightsTable)
	status.TableSizes = sizes
	return status, err
}

// Close closes the underlying DB connection.
func (ds *DomainStoreImpl) Close() error {
	if ds.db != nil {
		return ds.db.Close()
	}
	return nil
}

// encodeValue stores a raw value as JSON text. nil stays NULL.
func encodeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// decodeValue parses a stored JSON value, keeping numbers as json.Number.
func decodeValue(raw sql.NullString) (any, error) {
	if !raw.Valid {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw.String)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
