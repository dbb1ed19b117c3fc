package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// Granularity represents the width of an activity bucket.
	Granularity string

	// ChangeKind represents how a commit touched a file.
	ChangeKind string

	// ReaderBackend represents the implementation used to read the repository.
	ReaderBackend string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string

	// WarningKind represents the category of a non-fatal report warning.
	WarningKind string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	HTMLOut    OutputMode = "html"
	ParquetOut OutputMode = "parquet"
)

// All bucket granularities supported.
const (
	DayGranularity   Granularity = "day" // default
	WeekGranularity  Granularity = "week"
	MonthGranularity Granularity = "month"
)

// All change kinds reported by a repository reader.
const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRenamed  ChangeKind = "renamed"
)

// All repository reader backends supported.
const (
	GoGitBackend ReaderBackend = "gogit" // default
	ExecBackend  ReaderBackend = "git"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All warning kinds.
const (
	ReadWarning        WarningKind = "read"        // Commit metadata could not be read
	DiffWarning        WarningKind = "diff"        // Commit changes could not be computed
	CompositionWarning WarningKind = "composition" // Tree listing of the reference failed
)

// UnknownLanguage is the fallback bucket for paths the classifier cannot place.
const UnknownLanguage Language = "Unknown"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	HTMLOut:    {},
	ParquetOut: {},
}

// ValidGranularities lists all valid bucket granularities.
var ValidGranularities = map[Granularity]struct{}{
	DayGranularity:   {},
	WeekGranularity:  {},
	MonthGranularity: {},
}

// ValidReaderBackends lists all valid repository reader backends.
var ValidReaderBackends = map[ReaderBackend]struct{}{
	GoGitBackend: {},
	ExecBackend:  {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
