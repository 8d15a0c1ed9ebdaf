package outwriter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/symnet/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMatrixTable(t *testing.T) {
	cfg := textConfig()
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	var buf bytes.Buffer
	require.NoError(t, writeMatrixTable(&buf, sampleNetwork(), cfg, fmtFloat, intFmt, time.Second))
	out := buf.String()

	assert.Contains(t, out, "Coefficient matrix: S1")
	assert.Contains(t, out, "0.42")
	assert.Contains(t, out, absentCell)
	assert.Contains(t, out, "unavailable (insufficient data)")
	assert.Contains(t, out, "Estimated 2 of 3 outcomes")
}

func TestWriteCSVMatrix(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	var buf bytes.Buffer
	require.NoError(t, writeCSVMatrix(&buf, sampleNetwork().Matrix, fmtFloat))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "outcome,mood,sleep,stress,intercept,rows,r_squared,estimated,reason", lines[0])
	assert.Equal(t, "mood,0.20,-0.35,0.05,0.10,39,0.50,true,", lines[1])
	assert.Equal(t, "stress,,,,,0,0.00,false,insufficient data", lines[3])
}

func TestPrintMatrixJSON(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = t.TempDir() + "/matrix.json"
	require.NoError(t, PrintMatrix(sampleNetwork(), cfg, time.Second))
}

func TestPrintMatrixParquetRequiresFile(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.ParquetOut
	assert.ErrorIs(t, PrintMatrix(sampleNetwork(), cfg, time.Second), errParquetFileRequired)
}

func TestMatrixJSONShape(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, sampleNetwork().Matrix))

	var m schema.CoefficientTable
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, []string{"mood", "sleep", "stress"}, m.Symptoms)
	assert.Equal(t, []string{"stress"}, m.FailedOutcomes())
}
