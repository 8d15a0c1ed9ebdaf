// Package parquet provides data structures and functions for exporting symnet
// networks and analysis data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/symnet/schema"
	"github.com/parquet-go/parquet-go"
)

// Observation is one long-format EMA value: a subject, a moment, a symptom and its value.
// Wide tables are produced by pivoting these records on Symptom.
type Observation struct {
	// SubjectID identifies the person who reported
	SubjectID string `parquet:"subject_id,snappy"`

	// Timestamp is when the report was collected
	Timestamp time.Time `parquet:"timestamp,snappy"`

	// Symptom is the name of the measured symptom
	Symptom string `parquet:"symptom,snappy"`

	// Value is the reported intensity (nullable for missing reports)
	Value *float64 `parquet:"value,optional,snappy"`
}

// Node is one symptom node of a rendered network.
type Node struct {
	Subject     string  `parquet:"subject,snappy"`
	Name        string  `parquet:"name,snappy"`
	X           float64 `parquet:"x,snappy"`
	Y           float64 `parquet:"y,snappy"`
	InDegree    int32   `parquet:"in_degree,snappy"`
	OutDegree   int32   `parquet:"out_degree,snappy"`
	InStrength  float64 `parquet:"in_strength,snappy"`
	OutStrength float64 `parquet:"out_strength,snappy"`
	Betweenness float64 `parquet:"betweenness,snappy"`
	Label       string  `parquet:"label,snappy"`
}

// Edge is one directed lag-1 association of a rendered network.
type Edge struct {
	Subject string  `parquet:"subject,snappy"`
	Source  string  `parquet:"source,snappy"`
	Target  string  `parquet:"target,snappy"`
	Weight  float64 `parquet:"weight,snappy"`
}

// Coefficient is one cell of the outcome by predictor coefficient matrix.
type Coefficient struct {
	Subject   string `parquet:"subject,snappy"`
	Outcome   string `parquet:"outcome,snappy"`
	Predictor string `parquet:"predictor,snappy"`

	// Value is nil when the cell is absent
	Value *float64 `parquet:"value,optional,snappy"`
}

// AnalysisRun represents a single symnet analysis run with metadata.
// This struct maps to the symnet_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the externally visible identifier of the run
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable, stored as TIMESTAMP with nanosecond precision)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalNetworks is the number of subject networks built in this run
	TotalNetworks int32 `parquet:"total_networks,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// NetworkSummary represents the summary of one subject network in an analysis.
// This struct maps to the symnet_networks database table.
type NetworkSummary struct {
	AnalysisID        int64     `parquet:"analysis_id,snappy"`
	SubjectID         string    `parquet:"subject_id,snappy"`
	AnalysisTime      time.Time `parquet:"analysis_time,snappy"`
	Threshold         float64   `parquet:"threshold,snappy"`
	Observations      int32     `parquet:"observations,snappy"`
	LaggedRows        int32     `parquet:"lagged_rows,snappy"`
	EstimatedOutcomes int32     `parquet:"estimated_outcomes,snappy"`
	FailedOutcomes    int32     `parquet:"failed_outcomes,snappy"`
	EdgeCount         int32     `parquet:"edge_count,snappy"`

	// DensestNode is the symptom with the most edges (nullable for empty networks)
	DensestNode *string `parquet:"densest_node,optional,snappy"`
}

// AnalysisEdge represents one stored edge of an analysis.
// This struct maps to the symnet_edges database table.
type AnalysisEdge struct {
	AnalysisID int64   `parquet:"analysis_id,snappy"`
	SubjectID  string  `parquet:"subject_id,snappy"`
	Source     string  `parquet:"source,snappy"`
	Target     string  `parquet:"target,snappy"`
	Weight     float64 `parquet:"weight,snappy"`
}

// writeFile writes rows to a new Parquet file at outputPath.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Write(file, data)
}

// Write encodes rows to w using the schema derived from the struct tags of T.
func Write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteObservationsParquet writes long-format observations to a Parquet file.
func WriteObservationsParquet(data []Observation, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteNetworkSummariesParquet writes a slice of NetworkSummary structs to a Parquet file.
func WriteNetworkSummariesParquet(data []NetworkSummary, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteAnalysisEdgesParquet writes a slice of AnalysisEdge structs to a Parquet file.
func WriteAnalysisEdgesParquet(data []AnalysisEdge, outputPath string) error {
	return writeFile(data, outputPath)
}

// ReadObservationsParquet reads every long-format observation from a Parquet file.
func ReadObservationsParquet(inputPath string) ([]Observation, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[Observation](file)
	defer func() { _ = reader.Close() }()

	rows := make([]Observation, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet file %q: %w", inputPath, err)
	}
	return rows[:n], nil
}

// ConvertNetwork flattens a network into node, edge and coefficient rows.
// The label function assigns a connectivity label to each node.
func ConvertNetwork(result schema.NetworkResult, label func(schema.NodeLayout) string) ([]Node, []Edge, []Coefficient) {
	nodes := make([]Node, len(result.Nodes))
	for i, n := range result.Nodes {
		nodes[i] = Node{
			Subject:     result.Subject,
			Name:        n.Name,
			X:           n.X,
			Y:           n.Y,
			InDegree:    int32(n.InDegree),
			OutDegree:   int32(n.OutDegree),
			InStrength:  n.InStrength,
			OutStrength: n.OutStrength,
			Betweenness: n.Betweenness,
			Label:       label(n),
		}
	}

	edges := make([]Edge, len(result.Edges))
	for i, e := range result.Edges {
		edges[i] = Edge{Subject: result.Subject, Source: e.Source, Target: e.Target, Weight: e.Weight}
	}

	coefficients := make([]Coefficient, 0, len(result.Matrix.Rows)*len(result.Matrix.Symptoms))
	for _, row := range result.Matrix.Rows {
		for j, predictor := range result.Matrix.Symptoms {
			var v *float64
			if j < len(row.Values) {
				v = row.Values[j]
			}
			coefficients = append(coefficients, Coefficient{
				Subject:   result.Subject,
				Outcome:   row.Outcome,
				Predictor: predictor,
				Value:     v,
			})
		}
	}
	return nodes, edges, coefficients
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:    record.AnalysisID,
			RunUUID:       record.RunUUID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalNetworks: record.TotalNetworks,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertNetworkRecords converts schema.NetworkRecord to NetworkSummary for Parquet export.
func ConvertNetworkRecords(records []schema.NetworkRecord) []NetworkSummary {
	result := make([]NetworkSummary, len(records))
	for i, record := range records {
		result[i] = NetworkSummary{
			AnalysisID:        record.AnalysisID,
			SubjectID:         record.SubjectID,
			AnalysisTime:      record.AnalysisTime,
			Threshold:         record.Threshold,
			Observations:      record.Observations,
			LaggedRows:        record.LaggedRows,
			EstimatedOutcomes: record.EstimatedOutcomes,
			FailedOutcomes:    record.FailedOutcomes,
			EdgeCount:         record.EdgeCount,
			DensestNode:       record.DensestNode,
		}
	}
	return result
}

// ConvertEdgeRecords converts schema.EdgeRecord to AnalysisEdge for Parquet export.
func ConvertEdgeRecords(records []schema.EdgeRecord) []AnalysisEdge {
	result := make([]AnalysisEdge, len(records))
	for i, record := range records {
		result[i] = AnalysisEdge(record)
	}
	return result
}
