package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{"precision 2", 2, 0.41873, "0.42"},
		{"precision 0", 0, 0.41873, "0"},
		{"precision 4", 4, 0.41873, "0.4187"},
		{"negative weight", 2, -0.356, "-0.36"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestFormatCell(t *testing.T) {
	fmtFloat, _ := createFormatters(3)
	v := -0.12345
	assert.Equal(t, "-0.123", formatCell(&v, fmtFloat, absentCell))
	assert.Equal(t, absentCell, formatCell(nil, fmtFloat, absentCell))
	assert.Equal(t, "", formatCell(nil, fmtFloat, ""))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]any{"subject": "S1", "edges": 2}))
	assert.Equal(t, "{\n  \"edges\": 2,\n  \"subject\": \"S1\"\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"source", "target"}, func(w *csv.Writer) error {
		return w.Write([]string{"low mood", "sleep, fragmented"})
	})
	require.NoError(t, err)
	assert.Equal(t, "source,target\nlow mood,\"sleep, fragmented\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(w *csv.Writer) error {
		return assert.AnError
	})
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(w io.Writer) error {
			called = true
			return nil
		}, "Wrote nothing")
		require.NoError(t, err)
		assert.True(t, called, "Writer function should have been called")
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "network.json")
		err := writeWithFile(path, func(w io.Writer) error {
			return writeJSON(w, map[string]int{"nodes": 3})
		}, "Wrote JSON")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc map[string]int
		require.NoError(t, json.Unmarshal(content, &doc))
		assert.Equal(t, 3, doc["nodes"])
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		err := writeWithFile(path, func(w io.Writer) error { return assert.AnError }, "Wrote CSV")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(w io.Writer) error { return nil }, "Wrote")
		assert.Error(t, err)
	})
}

func TestParquetFiles(t *testing.T) {
	for _, prefix := range []string{"out/run", "out/run.parquet"} {
		nodes, edges, coefficients := parquetFiles(prefix)
		assert.True(t, strings.HasSuffix(nodes, "run.nodes.parquet"), nodes)
		assert.Equal(t, "out/run.edges.parquet", edges)
		assert.Equal(t, "out/run.coefficients.parquet", coefficients)
	}
}
