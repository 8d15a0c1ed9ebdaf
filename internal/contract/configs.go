package contract

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/symnet/schema"
)

// Default values for configuration.
const (
	DefaultThreshold        = 0.3
	DefaultPrecision        = 2
	MaxPrecision            = 4
	DefaultMinObservations  = 10
	DefaultLayoutIterations = 100
	DefaultLayoutSeed       = 42
	DefaultCacheTTL         = time.Hour
	DefaultSubjectColumn    = "PatientID"
	DefaultTimeColumn       = "Timestamp"
	DefaultTimeFormat       = "2006-01-02 15:04:05"
	DefaultSymptomSet       = "all"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	DataPath      string
	SubjectColumn string
	TimeColumn    string
	TimeFormat    string

	Subject  string
	Subjects []string

	// Symptoms is the tracked list; empty means every numeric column of the data.
	Symptoms   []string
	SymptomSet string
	Catalog    *Catalog

	Threshold        float64
	ExcludeSelf      bool
	Dedup            schema.DedupPolicy
	MaxGap           time.Duration
	MinObservations  int
	Workers          int
	LayoutIterations int
	LayoutSeed       uint64

	Output     schema.OutputMode
	OutputFile string
	OutputDir  string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	Abbreviate bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	LogLevel  slog.Level
	LogFormat schema.LogFormat
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Data source ---
	Data          string `mapstructure:"data"`
	SubjectColumn string `mapstructure:"subject-column"`
	TimeColumn    string `mapstructure:"time-column"`
	TimeFormat    string `mapstructure:"time-format"`
	Subject       string `mapstructure:"subject"`
	Subjects      string `mapstructure:"subjects"`

	// --- Symptom selection ---
	Symptoms    string `mapstructure:"symptoms"`
	SymptomSet  string `mapstructure:"symptom-set"`
	SymptomFile string `mapstructure:"symptom-file"`

	// --- Estimation ---
	Threshold       float64 `mapstructure:"threshold"`
	ExcludeSelf     bool    `mapstructure:"exclude-self"`
	Dedup           string  `mapstructure:"dedup"`
	MaxGap          string  `mapstructure:"max-gap"`
	MinObservations int     `mapstructure:"min-observations"`
	Workers         int     `mapstructure:"workers"`

	// --- Layout ---
	LayoutIterations int `mapstructure:"layout-iterations"`
	LayoutSeed       int `mapstructure:"layout-seed"`

	// --- Output ---
	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	OutputDir  string `mapstructure:"output-dir"`
	Precision  int    `mapstructure:"precision"`
	Width      int    `mapstructure:"width"`
	Color      string `mapstructure:"color"`
	Abbreviate bool   `mapstructure:"abbreviate"`

	// --- Persistence ---
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	CacheTTL          string `mapstructure:"cache-ttl"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Logging ---
	LogLevel  string `mapstructure:"log-level"`
	LogFormat string `mapstructure:"log-format"`

	// DataOptional lets long-running servers start without --data
	DataOptional bool `mapstructure:"-"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Subjects = slices.Clone(c.Subjects)
	clone.Symptoms = slices.Clone(c.Symptoms)
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(_ context.Context, cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processEstimation(cfg, input); err != nil {
		return err
	}
	if err := processSymptoms(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("cache-db-connect is required when using %s backend", backend)
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

// ProcessBackendInputs validates only the persistence settings.
// The cache and analysis subcommands use it instead of the full validation.
func ProcessBackendInputs(cfg *Config, input *ConfigRawInput) error {
	return validateBackendConfigs(cfg, input)
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid --cache-ttl value '%s': %w", input.CacheTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("cache-ttl must be positive (received %s)", ttl)
		}
		cfg.CacheTTL = ttl
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend != "" {
		if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
			return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
		}
		cfg.AnalysisDBConnect = input.AnalysisDBConnect
		if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
			return err
		}

		// Validate that cache and analysis use different databases
		if cfg.CacheBackend == cfg.AnalysisBackend && cfg.CacheBackend == schema.SQLiteBackend {
			cacheDBPath := cfg.CacheDBConnect
			if cacheDBPath == "" {
				cacheDBPath = GetCacheDBFilePath()
			}
			analysisDBPath := cfg.AnalysisDBConnect
			if analysisDBPath == "" {
				analysisDBPath = GetAnalysisDBFilePath()
			}
			if cacheDBPath == analysisDBPath {
				return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
			}
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the data source, output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.DataPath = strings.TrimSpace(input.Data)
	cfg.Subject = strings.TrimSpace(input.Subject)
	cfg.Subjects = splitList(input.Subjects)
	cfg.OutputFile = input.OutputFile
	cfg.OutputDir = input.OutputDir
	cfg.Width = input.Width
	cfg.Abbreviate = input.Abbreviate

	cfg.SubjectColumn = cmp.Or(input.SubjectColumn, DefaultSubjectColumn)
	cfg.TimeColumn = cmp.Or(input.TimeColumn, DefaultTimeColumn)
	cfg.TimeFormat = cmp.Or(input.TimeFormat, DefaultTimeFormat)

	colors, err := ParseBoolString(cmp.Or(input.Color, "yes"))
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Data Validation ---
	switch {
	case cfg.DataPath == "" && !input.DataOptional:
		return fmt.Errorf("--data is required")
	case cfg.DataPath != "":
		if _, err := os.Stat(cfg.DataPath); err != nil {
			return fmt.Errorf("cannot access data file %q: %w", cfg.DataPath, err)
		}
	}

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	// --- 3. Logging Validation ---
	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = schema.LogFormat(strings.ToLower(cmp.Or(input.LogFormat, string(schema.LogText))))
	if _, ok := schema.ValidLogFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}

	return nil
}

// processEstimation validates the pipeline parameters.
func processEstimation(cfg *Config, input *ConfigRawInput) error {
	// --- 1. Threshold Validation ---
	if math.IsNaN(input.Threshold) || math.IsInf(input.Threshold, 0) || input.Threshold < 0 {
		return fmt.Errorf("threshold must be a real number >= 0 (received %v)", input.Threshold)
	}
	cfg.Threshold = input.Threshold
	cfg.ExcludeSelf = input.ExcludeSelf

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Dedup Validation ---
	cfg.Dedup = schema.DedupPolicy(strings.ToLower(cmp.Or(input.Dedup, string(schema.DedupNone))))
	if _, ok := schema.ValidDedupPolicies[cfg.Dedup]; !ok {
		return fmt.Errorf("invalid dedup policy '%s'. must be none, first, last", input.Dedup)
	}

	// --- 4. Gap Validation ---
	cfg.MaxGap = 0
	if input.MaxGap != "" {
		gap, err := time.ParseDuration(input.MaxGap)
		if err != nil {
			return fmt.Errorf("invalid --max-gap value '%s': %w", input.MaxGap, err)
		}
		if gap < 0 {
			return fmt.Errorf("max-gap cannot be negative (received %s)", gap)
		}
		cfg.MaxGap = gap
	}

	// --- 5. Observation Floor Validation ---
	if input.MinObservations < 0 {
		return fmt.Errorf("min-observations cannot be negative (received %d)", input.MinObservations)
	}
	cfg.MinObservations = input.MinObservations
	if cfg.MinObservations == 0 {
		cfg.MinObservations = DefaultMinObservations
	}

	// --- 6. Layout Validation ---
	if input.LayoutIterations < 0 {
		return fmt.Errorf("layout-iterations cannot be negative (received %d)", input.LayoutIterations)
	}
	cfg.LayoutIterations = input.LayoutIterations
	if cfg.LayoutIterations == 0 {
		cfg.LayoutIterations = DefaultLayoutIterations
	}
	if input.LayoutSeed < 0 {
		return fmt.Errorf("layout-seed cannot be negative (received %d)", input.LayoutSeed)
	}
	cfg.LayoutSeed = uint64(input.LayoutSeed)

	return nil
}

// processSymptoms resolves the tracked symptom list from flags and the catalog.
// An explicit --symptoms list wins over --symptom-set.
func processSymptoms(cfg *Config, input *ConfigRawInput) error {
	catalog, err := LoadCatalog(input.SymptomFile)
	if err != nil {
		return err
	}
	cfg.Catalog = catalog
	return resolveSymptoms(cfg, input.Symptoms, input.SymptomSet)
}

// RevalidateSymptoms re-resolves the symptom list of an already processed config.
// Blank arguments keep the current selection. This is used by the MCP tools.
func RevalidateSymptoms(cfg *Config, symptoms, symptomSet string) error {
	if strings.TrimSpace(symptoms) == "" && strings.TrimSpace(symptomSet) == "" {
		return nil
	}
	if cfg.Catalog == nil {
		cfg.Catalog = DefaultCatalog()
	}
	return resolveSymptoms(cfg, symptoms, symptomSet)
}

// resolveSymptoms sets Symptoms and SymptomSet from a comma-separated list or a set name.
func resolveSymptoms(cfg *Config, symptoms, symptomSet string) error {
	if explicit := splitList(symptoms); len(explicit) > 0 {
		cfg.Symptoms = explicit
		cfg.SymptomSet = ""
		return nil
	}

	cfg.SymptomSet = cmp.Or(strings.TrimSpace(symptomSet), DefaultSymptomSet)
	if cfg.SymptomSet == ColumnsSet {
		cfg.Symptoms = nil
		return nil
	}
	set, ok := cfg.Catalog.Set(cfg.SymptomSet)
	if !ok {
		return fmt.Errorf("unknown symptom set '%s'. must be one of %s, %s", cfg.SymptomSet, strings.Join(cfg.Catalog.SetNames(), ", "), ColumnsSet)
	}
	cfg.Symptoms = set
	return nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ProcessProfilingConfig enables profiling when a file prefix is given.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
