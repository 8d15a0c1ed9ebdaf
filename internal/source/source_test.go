package source

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/parquet"
	"github.com/huangsam/symnet/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `PatientID,Timestamp,mood,sleep
S1,2024-03-01 09:00:00,3,4
S1,2024-03-01 13:00:00,NA,5
S2,2024-03-01 09:30:00,2,
S1,2024-03-02T09:00:00Z,4.5,null
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	src, err := New("data.csv", Options{})
	require.NoError(t, err)
	assert.IsType(t, &CSVSource{}, src)

	src, err = New("data.PARQUET", Options{})
	require.NoError(t, err)
	assert.IsType(t, &ParquetSource{}, src)

	_, err = New("data.xlsx", Options{})
	assert.ErrorContains(t, err, "unsupported data file")
}

func TestNewFromConfig(t *testing.T) {
	src, err := NewFromConfig(&contract.Config{DataPath: "ema.csv", SubjectColumn: "id"})
	require.NoError(t, err)
	csvSrc, ok := src.(*CSVSource)
	require.True(t, ok)
	assert.Equal(t, "id", csvSrc.opts.SubjectColumn)
	assert.Equal(t, contract.DefaultTimeColumn, csvSrc.opts.TimeColumn)
}

func TestCSVSourceLoad(t *testing.T) {
	path := writeTemp(t, "ema.csv", sampleCSV)
	src, err := New(path, Options{})
	require.NoError(t, err)

	table, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"mood", "sleep"}, table.Symptoms)
	require.Len(t, table.Observations, 4)
	assert.Equal(t, []string{"S1", "S2"}, table.Subjects())

	first := table.Observations[0]
	assert.Equal(t, "S1", first.SubjectID)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, []float64{3, 4}, first.Values)

	assert.True(t, math.IsNaN(table.Observations[1].Values[0]))
	assert.True(t, math.IsNaN(table.Observations[2].Values[1]))
	assert.True(t, math.IsNaN(table.Observations[3].Values[1]))
	assert.Equal(t, 4.5, table.Observations[3].Values[0])
	assert.Equal(t, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), table.Observations[3].Timestamp)
}

func TestCSVSourceCustomColumns(t *testing.T) {
	content := "when;who;stress\n01/03/2024;P1;2\n"
	content = strings.ReplaceAll(content, ";", ",")
	table, err := readCSV(context.Background(), strings.NewReader(content), Options{
		SubjectColumn: "who",
		TimeColumn:    "when",
		TimeFormat:    "02/01/2006",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stress"}, table.Symptoms)
	assert.Equal(t, time.March, table.Observations[0].Timestamp.Month())
}

func TestCSVSourceErrors(t *testing.T) {
	opts := Options{Tracked: []string{"mood"}}.withDefaults()
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"empty file", "", "empty"},
		{"missing subject column", "Timestamp,mood\n", "subject column"},
		{"missing time column", "PatientID,mood\n", "time column"},
		{"duplicate column", "PatientID,Timestamp,mood,mood\n", "duplicate column"},
		{"bad number", "PatientID,Timestamp,mood\nS1,2024-03-01 09:00:00,high\n", "invalid numeric value"},
		{"infinite number", "PatientID,Timestamp,mood\nS1,2024-03-01 09:00:00,Inf\n", "infinite"},
		{"bad time", "PatientID,Timestamp,mood\nS1,yesterday,1\n", "cannot parse time"},
		{"empty subject", "PatientID,Timestamp,mood\n,2024-03-01 09:00:00,1\n", "empty PatientID"},
		{"ragged row", "PatientID,Timestamp,mood\nS1,2024-03-01 09:00:00\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCSV(context.Background(), strings.NewReader(tt.content), opts)
			assert.ErrorContains(t, err, tt.errText)
		})
	}
}

func TestCSVSourceSkipsTextColumns(t *testing.T) {
	content := `PatientID,Timestamp,protocol,mood,sleep,note
S1,2024-03-01 09:00:00,HF - 10Hz,3,4,
S1,2024-03-01 13:00:00,HF - 10Hz,2,NA,slept badly
`
	for _, tracked := range [][]string{nil, {"mood", "sleep"}} {
		table, err := readCSV(context.Background(), strings.NewReader(content), Options{Tracked: tracked}.withDefaults())
		require.NoError(t, err)
		assert.Equal(t, []string{"mood", "sleep"}, table.Symptoms)
		require.Len(t, table.Observations, 2)
		assert.Equal(t, []float64{3, 4}, table.Observations[0].Values)
		assert.Equal(t, 2.0, table.Observations[1].Values[0])
		assert.True(t, math.IsNaN(table.Observations[1].Values[1]))
	}

	_, err := readCSV(context.Background(), strings.NewReader(content), Options{Tracked: []string{"mood", "protocol"}}.withDefaults())
	assert.ErrorContains(t, err, `column "protocol": invalid numeric value "HF - 10Hz"`)
}

func TestCSVSourceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := readCSV(ctx, strings.NewReader(sampleCSV), Options{}.withDefaults())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVSourceMissingFile(t *testing.T) {
	src, err := New(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	require.NoError(t, err)
	_, err = src.Load(context.Background())
	assert.Error(t, err)
	_, err = src.Fingerprint()
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	path := writeTemp(t, "ema.csv", sampleCSV)
	a, err := New(path, Options{})
	require.NoError(t, err)
	b, err := New(path, Options{SubjectColumn: "Other"})
	require.NoError(t, err)

	fa1, err := a.Fingerprint()
	require.NoError(t, err)
	fa2, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)

	assert.Len(t, fa1, 64)
	assert.Equal(t, fa1, fa2)
	assert.NotEqual(t, fa1, fb)

	require.NoError(t, os.WriteFile(path, []byte(sampleCSV+"S2,2024-03-03 09:00:00,1,1\n"), 0o644))
	fa3, err := a.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fa1, fa3)
}

func TestParquetSourceLoad(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	v := func(f float64) *float64 { return &f }
	records := []parquet.Observation{
		{SubjectID: "S1", Timestamp: base, Symptom: "mood", Value: v(3)},
		{SubjectID: "S1", Timestamp: base, Symptom: "sleep", Value: v(4)},
		{SubjectID: "S1", Timestamp: base.Add(time.Hour), Symptom: "mood", Value: v(2)},
		{SubjectID: "S2", Timestamp: base, Symptom: "sleep", Value: nil},
		{SubjectID: "S1", Timestamp: base, Symptom: "mood", Value: v(5)},
	}
	path := filepath.Join(t.TempDir(), "ema.parquet")
	require.NoError(t, parquet.WriteObservationsParquet(records, path))

	src, err := New(path, Options{})
	require.NoError(t, err)
	table, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"mood", "sleep"}, table.Symptoms)
	require.Len(t, table.Observations, 3)
	assert.Equal(t, []float64{5, 4}, table.Observations[0].Values)
	assert.Equal(t, 2.0, table.Observations[1].Values[0])
	assert.True(t, math.IsNaN(table.Observations[1].Values[1]))
	assert.Equal(t, "S2", table.Observations[2].SubjectID)
	assert.True(t, math.IsNaN(table.Observations[2].Values[1]))

	fp, err := src.Fingerprint()
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
}

func TestPivotErrors(t *testing.T) {
	_, err := pivot([]parquet.Observation{{SubjectID: "S1"}})
	assert.ErrorContains(t, err, "empty symptom")
	_, err = pivot([]parquet.Observation{{Symptom: "mood"}})
	assert.ErrorContains(t, err, "empty subject_id")
}

func TestTableSource(t *testing.T) {
	table := &schema.Table{
		Symptoms: []string{"mood"},
		Observations: []schema.Observation{
			{SubjectID: "S1", Timestamp: time.Unix(0, 0), Values: []float64{1}},
		},
	}
	src := FromTable(table)
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, table, got)

	fp1, err := src.Fingerprint()
	require.NoError(t, err)
	table.Observations[0].Values[0] = 2
	fp2, err := src.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)

	_, err = FromTable(nil).Load(context.Background())
	assert.Error(t, err)
	_, err = FromTable(nil).Fingerprint()
	assert.Error(t, err)
}
