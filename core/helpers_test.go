package core

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/source"
	"github.com/huangsam/symnet/schema"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

// drivenTable builds hourly rows where b(t) = 0.8 * a(t-1) for every subject.
func drivenTable(n int, subjects ...string) *schema.Table {
	table := &schema.Table{Symptoms: []string{"a", "b"}}
	for s, subject := range subjects {
		rng := rand.New(rand.NewPCG(uint64(s+1), 11))
		prevA := rng.NormFloat64()
		for i := range n {
			a := rng.NormFloat64()
			table.Observations = append(table.Observations, schema.Observation{
				SubjectID: subject,
				Timestamp: baseTime.Add(time.Duration(i) * time.Hour),
				Values:    []float64{a, 0.8 * prevA},
			})
			prevA = a
		}
	}
	return table
}

// writeCSVTable writes table in the default column layout and returns its path.
func writeCSVTable(t *testing.T, table *schema.Table) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(contract.DefaultSubjectColumn + "," + contract.DefaultTimeColumn + "," + strings.Join(table.Symptoms, ",") + "\n")
	for _, o := range table.Observations {
		fields := []string{o.SubjectID, o.Timestamp.Format(contract.DefaultTimeFormat)}
		for _, v := range o.Values {
			fields = append(fields, fmt.Sprintf("%g", v))
		}
		b.WriteString(strings.Join(fields, ",") + "\n")
	}
	path := filepath.Join(t.TempDir(), "ema.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func testConfig() *contract.Config {
	return &contract.Config{
		Threshold:        0.5,
		Dedup:            schema.DedupNone,
		MinObservations:  contract.DefaultMinObservations,
		Workers:          2,
		LayoutIterations: 20,
		LayoutSeed:       contract.DefaultLayoutSeed,
		Output:           schema.JSONOut,
		Precision:        contract.DefaultPrecision,
		CacheTTL:         contract.DefaultCacheTTL,
	}
}

func sourceFor(t *testing.T, table *schema.Table) contract.ObservationSource {
	t.Helper()
	return source.FromTable(table)
}
