package contract

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/symnet/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input that passes validation against a temp data file.
func validInput(t *testing.T) *ConfigRawInput {
	t.Helper()
	dataPath := filepath.Join(t.TempDir(), "ema.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte("PatientID,Timestamp,sleep\n"), 0o644))
	return &ConfigRawInput{
		Data:         dataPath,
		Threshold:    DefaultThreshold,
		Workers:      2,
		Precision:    DefaultPrecision,
		Output:       "text",
		CacheBackend: "none",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError string
	}{
		{
			name:   "valid minimal config",
			modify: func(*ConfigRawInput) {},
		},
		{
			name:        "missing data",
			modify:      func(in *ConfigRawInput) { in.Data = "" },
			expectError: "--data is required",
		},
		{
			name: "optional data",
			modify: func(in *ConfigRawInput) {
				in.Data = ""
				in.DataOptional = true
			},
		},
		{
			name:        "unreadable data",
			modify:      func(in *ConfigRawInput) { in.Data = filepath.Join(in.Data, "missing") },
			expectError: "cannot access data file",
		},
		{
			name:        "negative threshold",
			modify:      func(in *ConfigRawInput) { in.Threshold = -0.1 },
			expectError: "threshold",
		},
		{
			name:        "NaN threshold",
			modify:      func(in *ConfigRawInput) { in.Threshold = math.NaN() },
			expectError: "threshold",
		},
		{
			name:        "infinite threshold",
			modify:      func(in *ConfigRawInput) { in.Threshold = math.Inf(1) },
			expectError: "threshold",
		},
		{
			name:        "precision too high",
			modify:      func(in *ConfigRawInput) { in.Precision = MaxPrecision + 1 },
			expectError: "precision",
		},
		{
			name:        "invalid output",
			modify:      func(in *ConfigRawInput) { in.Output = "xml" },
			expectError: "invalid output format",
		},
		{
			name:        "zero workers",
			modify:      func(in *ConfigRawInput) { in.Workers = 0 },
			expectError: "workers",
		},
		{
			name:        "invalid dedup",
			modify:      func(in *ConfigRawInput) { in.Dedup = "mean" },
			expectError: "invalid dedup policy",
		},
		{
			name:        "invalid max gap",
			modify:      func(in *ConfigRawInput) { in.MaxGap = "soon" },
			expectError: "--max-gap",
		},
		{
			name:        "negative max gap",
			modify:      func(in *ConfigRawInput) { in.MaxGap = "-1h" },
			expectError: "max-gap cannot be negative",
		},
		{
			name:        "negative min observations",
			modify:      func(in *ConfigRawInput) { in.MinObservations = -1 },
			expectError: "min-observations",
		},
		{
			name:        "invalid log level",
			modify:      func(in *ConfigRawInput) { in.LogLevel = "loud" },
			expectError: "invalid log level",
		},
		{
			name:        "invalid log format",
			modify:      func(in *ConfigRawInput) { in.LogFormat = "xml" },
			expectError: "invalid log format",
		},
		{
			name:        "invalid color",
			modify:      func(in *ConfigRawInput) { in.Color = "maybe" },
			expectError: "--color",
		},
		{
			name:        "unknown symptom set",
			modify:      func(in *ConfigRawInput) { in.SymptomSet = "nope" },
			expectError: "unknown symptom set",
		},
		{
			name:        "invalid cache backend",
			modify:      func(in *ConfigRawInput) { in.CacheBackend = "redis" },
			expectError: "invalid cache backend",
		},
		{
			name:        "invalid cache ttl",
			modify:      func(in *ConfigRawInput) { in.CacheTTL = "0s" },
			expectError: "cache-ttl must be positive",
		},
		{
			name:        "mysql without connection string",
			modify:      func(in *ConfigRawInput) { in.CacheBackend = "mysql" },
			expectError: "cache-db-connect is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(t)
			tt.modify(input)
			cfg := &Config{}
			err := ProcessAndValidate(context.Background(), cfg, input)
			if tt.expectError != "" {
				assert.ErrorContains(t, err, tt.expectError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, validInput(t)))

	assert.Equal(t, DefaultSubjectColumn, cfg.SubjectColumn)
	assert.Equal(t, DefaultTimeColumn, cfg.TimeColumn)
	assert.Equal(t, DefaultTimeFormat, cfg.TimeFormat)
	assert.Equal(t, DefaultSymptomSet, cfg.SymptomSet)
	assert.Len(t, cfg.Symptoms, 18)
	assert.Equal(t, schema.DedupNone, cfg.Dedup)
	assert.Equal(t, time.Duration(0), cfg.MaxGap)
	assert.Equal(t, DefaultMinObservations, cfg.MinObservations)
	assert.Equal(t, DefaultLayoutIterations, cfg.LayoutIterations)
	assert.Equal(t, DefaultCacheTTL, cfg.CacheTTL)
	assert.Equal(t, schema.LogText, cfg.LogFormat)
	assert.True(t, cfg.UseColors)
	assert.NotNil(t, cfg.Catalog)
}

func TestProcessAndValidateSymptoms(t *testing.T) {
	t.Run("explicit list wins", func(t *testing.T) {
		input := validInput(t)
		input.Symptoms = " mood, sleep ,,energy"
		input.SymptomSet = "core"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(context.Background(), cfg, input))
		assert.Equal(t, []string{"mood", "sleep", "energy"}, cfg.Symptoms)
		assert.Empty(t, cfg.SymptomSet)
	})

	t.Run("named set", func(t *testing.T) {
		input := validInput(t)
		input.SymptomSet = "core"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(context.Background(), cfg, input))
		assert.Equal(t, []string{"sleep", "energy", "stress"}, cfg.Symptoms)
	})

	t.Run("columns set", func(t *testing.T) {
		input := validInput(t)
		input.SymptomSet = ColumnsSet
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(context.Background(), cfg, input))
		assert.Nil(t, cfg.Symptoms)
	})

	t.Run("symptom file", func(t *testing.T) {
		input := validInput(t)
		path := filepath.Join(t.TempDir(), "sets.yaml")
		require.NoError(t, os.WriteFile(path, []byte("sets:\n  pain: [pain_1, pain_2]\n"), 0o644))
		input.SymptomFile = path
		input.SymptomSet = "pain"
		cfg := &Config{}
		require.NoError(t, ProcessAndValidate(context.Background(), cfg, input))
		assert.Equal(t, []string{"pain_1", "pain_2"}, cfg.Symptoms)
	})
}

func TestRevalidateSymptoms(t *testing.T) {
	cfg := &Config{Symptoms: []string{"mood"}}
	require.NoError(t, RevalidateSymptoms(cfg, "", " "))
	assert.Equal(t, []string{"mood"}, cfg.Symptoms)
	assert.Nil(t, cfg.Catalog)

	require.NoError(t, RevalidateSymptoms(cfg, "", "core"))
	assert.Equal(t, []string{"sleep", "energy", "stress"}, cfg.Symptoms)
	assert.Equal(t, "core", cfg.SymptomSet)

	require.NoError(t, RevalidateSymptoms(cfg, "a,b", "core"))
	assert.Equal(t, []string{"a", "b"}, cfg.Symptoms)
	assert.Empty(t, cfg.SymptomSet)

	assert.ErrorContains(t, RevalidateSymptoms(cfg, "", "nope"), "unknown symptom set")
}

func TestProcessAndValidateParsedFields(t *testing.T) {
	input := validInput(t)
	input.Subjects = "S1, S2"
	input.Dedup = "LAST"
	input.MaxGap = "36h"
	input.MinObservations = 5
	input.LayoutSeed = 7
	input.CacheTTL = "30m"
	input.LogLevel = "debug"
	input.LogFormat = "json"
	input.Color = "no"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(context.Background(), cfg, input))

	assert.Equal(t, []string{"S1", "S2"}, cfg.Subjects)
	assert.Equal(t, schema.DedupLast, cfg.Dedup)
	assert.Equal(t, 36*time.Hour, cfg.MaxGap)
	assert.Equal(t, 5, cfg.MinObservations)
	assert.Equal(t, uint64(7), cfg.LayoutSeed)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, schema.LogJSON, cfg.LogFormat)
	assert.False(t, cfg.UseColors)
}

func TestProcessBackendInputs(t *testing.T) {
	t.Run("same sqlite file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shared.db")
		cfg := &Config{}
		err := ProcessBackendInputs(cfg, &ConfigRawInput{
			CacheBackend:      "sqlite",
			CacheDBConnect:    path,
			AnalysisBackend:   "sqlite",
			AnalysisDBConnect: path,
		})
		assert.ErrorContains(t, err, "different SQLite database files")
	})

	t.Run("default sqlite files differ", func(t *testing.T) {
		cfg := &Config{}
		require.NoError(t, ProcessBackendInputs(cfg, &ConfigRawInput{
			CacheBackend:    "sqlite",
			AnalysisBackend: "sqlite",
		}))
		assert.Equal(t, schema.SQLiteBackend, cfg.CacheBackend)
		assert.Equal(t, schema.SQLiteBackend, cfg.AnalysisBackend)
	})

	t.Run("invalid analysis backend", func(t *testing.T) {
		cfg := &Config{}
		err := ProcessBackendInputs(cfg, &ConfigRawInput{
			CacheBackend:    "none",
			AnalysisBackend: "mongo",
		})
		assert.ErrorContains(t, err, "invalid analysis backend")
	})
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite any", schema.SQLiteBackend, "", false},
		{"none any", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/symnet", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/symnet", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=symnet", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Subjects: []string{"S1"}, Symptoms: []string{"mood"}, Threshold: 0.3}
	clone := cfg.Clone()
	clone.Subjects[0] = "S2"
	clone.Symptoms[0] = "sleep"
	assert.Equal(t, "S1", cfg.Subjects[0])
	assert.Equal(t, "mood", cfg.Symptoms[0])
	assert.Equal(t, 0.3, clone.Threshold)
}

func TestProcessProfilingConfig(t *testing.T) {
	profile := &ProfileConfig{}
	require.NoError(t, ProcessProfilingConfig(profile, ""))
	assert.False(t, profile.Enabled)

	require.NoError(t, ProcessProfilingConfig(profile, "symnet"))
	assert.True(t, profile.Enabled)
	assert.Equal(t, "symnet", profile.Prefix)
}
