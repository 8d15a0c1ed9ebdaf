package parquet

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/symnet/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"observation", new(Observation), []string{"subject_id", "timestamp", "symptom", "value"}},
		{"node", new(Node), []string{"subject", "name", "x", "y", "in_degree", "out_degree", "in_strength", "out_strength", "betweenness", "label"}},
		{"edge", new(Edge), []string{"subject", "source", "target", "weight"}},
		{"coefficient", new(Coefficient), []string{"subject", "outcome", "predictor", "value"}},
		{"analysis run", new(AnalysisRun), []string{"analysis_id", "run_uuid", "start_time", "end_time", "run_duration_ms", "total_networks", "config_params"}},
		{"network summary", new(NetworkSummary), []string{"analysis_id", "subject_id", "analysis_time", "threshold", "observations", "lagged_rows", "estimated_outcomes", "failed_outcomes", "edge_count", "densest_node"}},
		{"analysis edge", new(AnalysisEdge), []string{"analysis_id", "subject_id", "source", "target", "weight"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, colName := range tt.columns {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestObservationsRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "ema.parquet")
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	data := []Observation{
		{SubjectID: "S1", Timestamp: base, Symptom: "mood", Value: ptr(3.5)},
		{SubjectID: "S1", Timestamp: base, Symptom: "sleep", Value: nil},
		{SubjectID: "S2", Timestamp: base.Add(time.Hour), Symptom: "mood", Value: ptr(-1.0)},
	}

	require.NoError(t, WriteObservationsParquet(data, outputPath))

	readData, err := ReadObservationsParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, readData, len(data))
	for i := range data {
		assert.Equal(t, data[i].SubjectID, readData[i].SubjectID)
		assert.Equal(t, data[i].Symptom, readData[i].Symptom)
		assert.True(t, data[i].Timestamp.Equal(readData[i].Timestamp), "Timestamp should match")
		if data[i].Value == nil {
			assert.Nil(t, readData[i].Value)
		} else {
			require.NotNil(t, readData[i].Value)
			assert.InDelta(t, *data[i].Value, *readData[i].Value, 1e-12)
		}
	}
}

func TestReadObservationsParquetMissingFile(t *testing.T) {
	_, err := ReadObservationsParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}

func TestWriteAnalysisRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "analysis_runs.parquet")

	now := time.Now()
	endTime := now.Add(time.Minute)
	durationMs := int32(60000)
	config := `{"threshold":0.3}`
	data := []AnalysisRun{
		{AnalysisID: 1, RunUUID: "a", StartTime: now, EndTime: &endTime, RunDurationMs: &durationMs, TotalNetworks: 3, ConfigParams: &config},
		{AnalysisID: 2, RunUUID: "b", StartTime: now},
	}
	require.NoError(t, WriteAnalysisRunsParquet(data, outputPath))

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	reader := parquet.NewGenericReader[AnalysisRun](file)
	defer reader.Close()

	readData := make([]AnalysisRun, reader.NumRows())
	n, err := reader.Read(readData)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, len(data), n)

	assert.Equal(t, "a", readData[0].RunUUID)
	assert.Equal(t, int32(3), readData[0].TotalNetworks)
	require.NotNil(t, readData[0].EndTime)
	assert.WithinDuration(t, endTime, *readData[0].EndTime, time.Microsecond)
	require.NotNil(t, readData[0].ConfigParams)
	assert.Equal(t, config, *readData[0].ConfigParams)

	assert.Nil(t, readData[1].EndTime)
	assert.Nil(t, readData[1].RunDurationMs)
	assert.Nil(t, readData[1].ConfigParams)
}

func TestWriteEmptyData(t *testing.T) {
	tmpDir := t.TempDir()

	runs := filepath.Join(tmpDir, "runs.parquet")
	require.NoError(t, WriteAnalysisRunsParquet([]AnalysisRun{}, runs))
	info, err := os.Stat(runs)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Output file should contain schema even if empty")

	networks := filepath.Join(tmpDir, "networks.parquet")
	require.NoError(t, WriteNetworkSummariesParquet(nil, networks))
	_, err = os.Stat(networks)
	require.NoError(t, err)
}

func TestWriteInvalidPath(t *testing.T) {
	err := WriteAnalysisEdgesParquet([]AnalysisEdge{{AnalysisID: 1}}, "/nonexistent/directory/output.parquet")
	require.Error(t, err)
}

func TestWriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	rows := []Edge{{Subject: "S1", Source: "mood", Target: "sleep", Weight: 0.4}}
	require.NoError(t, Write(&buf, rows))

	reader := parquet.NewGenericReader[Edge](bytes.NewReader(buf.Bytes()))
	defer reader.Close()
	assert.Equal(t, int64(1), reader.NumRows())
}

func TestConvertNetwork(t *testing.T) {
	result := schema.NetworkResult{
		Subject: "S1",
		Nodes: []schema.NodeLayout{
			{Name: "mood", InDegree: 1, OutDegree: 1, Degree: 2},
			{Name: "sleep", InDegree: 1, Degree: 1},
		},
		Edges: []schema.Edge{
			{Source: "mood", Target: "sleep", Weight: 0.5},
		},
		Matrix: schema.CoefficientTable{
			Symptoms: []string{"mood", "sleep"},
			Rows: []schema.CoefficientRow{
				{Outcome: "mood", Estimated: true, Values: []*float64{ptr(0.9), ptr(0.1)}},
				{Outcome: "sleep", Estimated: false, Values: []*float64{nil, nil}},
			},
		},
	}

	nodes, edges, coefficients := ConvertNetwork(result, func(n schema.NodeLayout) string { return n.Name + "!" })

	require.Len(t, nodes, 2)
	assert.Equal(t, "S1", nodes[0].Subject)
	assert.Equal(t, "mood!", nodes[0].Label)
	assert.Equal(t, int32(1), nodes[0].OutDegree)

	require.Len(t, edges, 1)
	assert.Equal(t, Edge{Subject: "S1", Source: "mood", Target: "sleep", Weight: 0.5}, edges[0])

	require.Len(t, coefficients, 4)
	assert.Equal(t, "mood", coefficients[1].Outcome)
	assert.Equal(t, "sleep", coefficients[1].Predictor)
	assert.InDelta(t, 0.1, *coefficients[1].Value, 1e-12)
	assert.Nil(t, coefficients[3].Value)
}

func TestConvertRecords(t *testing.T) {
	densest := "mood"
	networks := ConvertNetworkRecords([]schema.NetworkRecord{{AnalysisID: 4, SubjectID: "S1", EdgeCount: 2, DensestNode: &densest}})
	require.Len(t, networks, 1)
	assert.Equal(t, int64(4), networks[0].AnalysisID)
	assert.Equal(t, int32(2), networks[0].EdgeCount)
	assert.Equal(t, &densest, networks[0].DensestNode)

	edges := ConvertEdgeRecords([]schema.EdgeRecord{{AnalysisID: 4, SubjectID: "S1", Source: "a", Target: "b", Weight: -0.3}})
	assert.Equal(t, []AnalysisEdge{{AnalysisID: 4, SubjectID: "S1", Source: "a", Target: "b", Weight: -0.3}}, edges)

	runs := ConvertAnalysisRunRecords([]schema.AnalysisRunRecord{{AnalysisID: 4, RunUUID: "u", TotalNetworks: 1}})
	assert.Equal(t, "u", runs[0].RunUUID)
	assert.Equal(t, int32(1), runs[0].TotalNetworks)
}
