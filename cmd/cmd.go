// Package cmd defines the command-line interface for symnet.
package cmd

import (
	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(matrixCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()

	// Data source
	flags.StringP("data", "d", "", "Path to the EMA data file (.csv or long-format .parquet)")
	flags.String("subject-column", contract.DefaultSubjectColumn, "Name of the subject identifier column")
	flags.String("time-column", contract.DefaultTimeColumn, "Name of the timestamp column")
	flags.String("time-format", contract.DefaultTimeFormat, "Go reference layout used to parse timestamps")
	flags.StringP("subject", "s", "", "Subject to build the network for")

	// Symptom selection
	flags.String("symptoms", "", "Comma-separated list of symptoms (overrides --symptom-set)")
	flags.String("symptom-set", contract.DefaultSymptomSet, "Named symptom set: madrs or anxiety or core or all or columns")
	flags.String("symptom-file", "", "YAML file with custom symptom sets and abbreviation rules")

	// Estimation
	flags.Float64P("threshold", "t", contract.DefaultThreshold, "Minimum absolute coefficient for an edge")
	flags.Bool("exclude-self", false, "Exclude autoregressive (self) coefficients from the network")
	flags.String("dedup", string(schema.DedupNone), "Duplicate timestamp policy: none or first or last")
	flags.String("max-gap", "", "Drop lag pairs further apart than this duration (e.g. 12h)")
	flags.Int("min-observations", contract.DefaultMinObservations, "Minimum observations required per subject")
	flags.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")

	// Layout
	flags.Int("layout-iterations", contract.DefaultLayoutIterations, "Force-directed layout iterations")
	flags.Int("layout-seed", contract.DefaultLayoutSeed, "Seed for the initial node placement")

	// Output
	flags.StringP("output", "o", string(schema.TextOut), "Output format: text or csv or json or parquet")
	flags.String("output-file", "", "Optional path to write output to")
	flags.String("output-dir", "", "Directory for per-subject network files (batch)")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.Bool("abbreviate", false, "Abbreviate symptom names using the catalog rules")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")

	// Persistence
	flags.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	flags.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("cache-ttl", contract.DefaultCacheTTL.String(), "How long cached networks stay valid")
	flags.String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	flags.String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")

	// Logging and diagnostics
	flags.String("log-level", "warn", "Log level: debug or info or warn or error")
	flags.String("log-format", string(schema.LogText), "Log format: text or json")
	flags.String("profile", "", "Enable profiling and write profiles to files with this prefix")
	flags.String("config", "", "Path to config file")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of batchCmd to Viper
	batchCmd.Flags().String("subjects", "", "Comma-separated list of subjects (default: every subject in the data)")
	if err := viper.BindPFlags(batchCmd.Flags()); err != nil {
		contract.LogFatal("Error binding batch flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
