package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func sampleTable() *Table {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return &Table{
		Symptoms: []string{"mood", "sleep"},
		Observations: []Observation{
			{SubjectID: "B", Timestamp: base.Add(2 * time.Hour), Values: []float64{1, 2}},
			{SubjectID: "A", Timestamp: base, Values: []float64{3, Absent()}},
			{SubjectID: "B", Timestamp: base, Values: []float64{4, 5}},
			{SubjectID: "B", Timestamp: base.Add(5 * time.Hour), Values: []float64{6, 7}},
		},
	}
}

func TestTableSubjects(t *testing.T) {
	assert.Equal(t, []string{"B", "A"}, sampleTable().Subjects())
	assert.Nil(t, (&Table{}).Subjects())
}

func TestSymptomIndex(t *testing.T) {
	table := sampleTable()
	assert.Equal(t, 1, table.SymptomIndex("sleep"))
	assert.Equal(t, -1, table.SymptomIndex("stress"))
}

func TestAbsent(t *testing.T) {
	assert.True(t, IsAbsent(Absent()))
	assert.False(t, IsAbsent(0))
	assert.True(t, IsAbsent(sampleTable().Observations[1].Values[1]))
}

func TestDescribeSubjects(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	infos := sampleTable().DescribeSubjects(2)
	require.Len(t, infos, 2)

	assert.Equal(t, "B", infos[0].SubjectID)
	assert.Equal(t, 3, infos[0].Observations)
	assert.Equal(t, base, infos[0].First, "first is the earliest time, not the first row")
	assert.Equal(t, base.Add(5*time.Hour), infos[0].Last)
	assert.False(t, infos[0].Sparse)

	assert.Equal(t, "A", infos[1].SubjectID)
	assert.Equal(t, 1, infos[1].Observations)
	assert.True(t, infos[1].Sparse)
}

func TestFailedOutcomes(t *testing.T) {
	table := CoefficientTable{
		Symptoms: []string{"mood", "sleep", "stress"},
		Rows: []CoefficientRow{
			{Outcome: "mood", Estimated: true},
			{Outcome: "sleep", Estimated: false, Reason: "insufficient data"},
			{Outcome: "stress", Estimated: false, Reason: "singular design"},
		},
	}
	assert.Equal(t, []string{"sleep", "stress"}, table.FailedOutcomes())
	assert.Nil(t, CoefficientTable{}.FailedOutcomes())
}

func TestSummarize(t *testing.T) {
	result := NetworkResult{
		Subject:      "S1",
		Observations: 40,
		LaggedRows:   38,
		Nodes: []NodeLayout{
			{Name: "mood", Degree: 1},
			{Name: "sleep", Degree: 3},
			{Name: "stress", Degree: 3},
		},
		Edges: []Edge{{Source: "sleep", Target: "mood", Weight: 0.4}, {Source: "stress", Target: "sleep", Weight: -0.5}},
		Matrix: CoefficientTable{
			Symptoms: []string{"mood", "sleep", "stress"},
			Rows: []CoefficientRow{
				{Outcome: "mood", Estimated: true, Values: []*float64{ptr(0.1), ptr(0.4), nil}},
				{Outcome: "sleep", Estimated: true},
				{Outcome: "stress", Estimated: false},
			},
		},
	}

	s := result.Summarize()
	assert.Equal(t, SubjectSummary{
		Subject:           "S1",
		Observations:      40,
		LaggedRows:        38,
		EstimatedOutcomes: 2,
		FailedOutcomes:    1,
		Edges:             2,
		DensestNode:       "sleep",
	}, s)

	empty := NetworkResult{Subject: "S2", Nodes: []NodeLayout{{Name: "mood"}}}.Summarize()
	assert.Empty(t, empty.DensestNode)
}

func TestValidSets(t *testing.T) {
	assert.Len(t, ValidOutputModes, 4)
	assert.Len(t, ValidDatabaseBackends, 4)
	assert.Contains(t, ValidDedupPolicies, DedupLast)
	assert.NotContains(t, ValidLogFormats, LogFormat("xml"))
}
