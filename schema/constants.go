package schema

// Custom string types for type safety.
type (
	// ValueType represents the declared type of a metric.
	ValueType string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for storage and caching.
	DatabaseBackend string

	// NumericPolicy decides how numeric metrics without a range are scored.
	NumericPolicy string

	// WeightSource tells where the weights of a ranking came from.
	WeightSource string
)

// All metric value types supported.
const (
	FloatValue ValueType = "float" // default
	IntValue   ValueType = "int"
	BoolValue  ValueType = "bool"
	RangeValue ValueType = "range"
	TextValue  ValueType = "text"
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All numeric policies supported.
const (
	PassThroughNumeric NumericPolicy = "passthrough" // default
	ExcludeNumeric     NumericPolicy = "exclude"
)

// All weight sources.
const (
	StoredWeights     WeightSource = "stored"
	EqualSplitWeights WeightSource = "equal_split"
)

// UncategorizedCategory collects metrics that carry no category tag.
const UncategorizedCategory = "Uncategorized"

// WeightTolerance is the allowed deviation of a weight sum from 1.
const WeightTolerance = 1e-3

// Default rule references used when a metric does not name one.
const (
	DefaultBoolOptionCategory  = "yes_no"
	DefaultRangeOptionCategory = "file_ranges"
	DefaultRuleKey             = "standard"
)

// ValidValueTypes lists all valid metric value types.
var ValidValueTypes = map[ValueType]struct{}{
	FloatValue: {},
	IntValue:   {},
	BoolValue:  {},
	RangeValue: {},
	TextValue:  {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidNumericPolicies lists all valid numeric policies.
var ValidNumericPolicies = map[NumericPolicy]struct{}{
	PassThroughNumeric: {},
	ExcludeNumeric:     {},
}

// IsNumeric reports whether the value type is scored on a numeric scale.
func (v ValueType) IsNumeric() bool {
	return v == FloatValue || v == IntValue
}

// IsScorable reports whether metrics of this type take part in ranking.
func (v ValueType) IsScorable() bool {
	return v != TextValue
}
