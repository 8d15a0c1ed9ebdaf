package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/symnet/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportAnalysis_Validation(t *testing.T) {
	var buf bytes.Buffer

	err := ExportAnalysis(&buf, new(MockAnalysisStore), "")
	assert.ErrorContains(t, err, "--output-file is required")

	err = ExportAnalysis(&buf, nil, "out")
	assert.ErrorContains(t, err, "analysis tracking is not configured")
}

func TestExportAnalysis_NoData(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("GetStatus").Return(schema.AnalysisStatus{Backend: "sqlite", Connected: true}, nil)

	err := ExportAnalysis(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "out"))
	assert.ErrorContains(t, err, "no analysis data found to export")
	store.AssertExpectations(t)
}

func TestExportAnalysis_StatusError(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("GetStatus").Return(schema.AnalysisStatus{}, errors.New("boom"))

	err := ExportAnalysis(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "out"))
	assert.ErrorContains(t, err, "failed to get analysis status")
}

func TestExportAnalysis_WritesFiles(t *testing.T) {
	densest := "mood"
	store := new(MockAnalysisStore)
	store.On("GetStatus").Return(schema.AnalysisStatus{
		Backend:    "sqlite",
		Connected:  true,
		TotalRuns:  1,
		TableSizes: map[string]int64{networksTable: 1},
	}, nil)
	store.On("GetAllAnalysisRuns").Return([]schema.AnalysisRunRecord{{AnalysisID: 1, RunUUID: "u1", StartTime: time.Now(), TotalNetworks: 1}}, nil)
	store.On("GetAllNetworkRecords").Return([]schema.NetworkRecord{{AnalysisID: 1, SubjectID: "S1", AnalysisTime: time.Now(), EdgeCount: 1, DensestNode: &densest}}, nil)
	store.On("GetAllEdgeRecords").Return([]schema.EdgeRecord{{AnalysisID: 1, SubjectID: "S1", Source: "mood", Target: "sleep", Weight: 0.4}}, nil)

	prefix := filepath.Join(t.TempDir(), "export")
	var buf bytes.Buffer
	require.NoError(t, ExportAnalysis(&buf, store, prefix))

	for _, suffix := range []string{".analysis_runs.parquet", ".networks.parquet", ".edges.parquet"} {
		info, err := os.Stat(prefix + suffix)
		require.NoError(t, err, suffix)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Contains(t, buf.String(), "Exported 1 analysis runs")
	assert.Contains(t, buf.String(), "Exported 1 edge records")
	store.AssertExpectations(t)
}

func TestExportAnalysis_RetrievalError(t *testing.T) {
	store := new(MockAnalysisStore)
	store.On("GetStatus").Return(schema.AnalysisStatus{TotalRuns: 1}, nil)
	store.On("GetAllAnalysisRuns").Return(nil, nil)
	store.On("GetAllNetworkRecords").Return(nil, errors.New("db gone"))

	err := ExportAnalysis(&bytes.Buffer{}, store, filepath.Join(t.TempDir(), "out"))
	assert.ErrorContains(t, err, "failed to retrieve networks")
	store.AssertNotCalled(t, "GetAllEdgeRecords")
}
