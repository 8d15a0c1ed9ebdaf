package schema

import "time"

// AnalysisRunRecord represents a row from the symnet_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID    int64
	RunUUID       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalNetworks int32
	ConfigParams  *string
}

// NetworkRecord represents a row from the symnet_networks table.
type NetworkRecord struct {
	AnalysisID        int64
	SubjectID         string
	AnalysisTime      time.Time
	Threshold         float64
	Observations      int32
	LaggedRows        int32
	EstimatedOutcomes int32
	FailedOutcomes    int32
	EdgeCount         int32
	DensestNode       *string
}

// EdgeRecord represents a row from the symnet_edges table.
type EdgeRecord struct {
	AnalysisID int64
	SubjectID  string
	Source     string
	Target     string
	Weight     float64
}
