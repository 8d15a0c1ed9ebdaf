package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// DedupPolicy represents how observations sharing a timestamp are collapsed.
	DedupPolicy string

	// LogFormat represents the encoding of structured log lines.
	LogFormat string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All dedup policies supported.
const (
	DedupNone  DedupPolicy = "none" // default
	DedupFirst DedupPolicy = "first"
	DedupLast  DedupPolicy = "last"
)

// All log formats supported.
const (
	LogText LogFormat = "text" // default
	LogJSON LogFormat = "json"
)

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

// ValidDedupPolicies lists all valid dedup policies.
var ValidDedupPolicies = map[DedupPolicy]struct{}{
	DedupNone:  {},
	DedupFirst: {},
	DedupLast:  {},
}

// ValidLogFormats lists all valid log formats.
var ValidLogFormats = map[LogFormat]struct{}{
	LogText: {},
	LogJSON: {},
}
