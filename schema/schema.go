// Package schema has configs, models and shared types for all parts of symnet.
package schema

import (
	"math"
	"slices"
	"time"
)

// Observation is one self-report row: a subject, a moment and one value per symptom.
// Values is aligned with the Symptoms slice of the owning Table.
type Observation struct {
	SubjectID string    // Identifier of the person who reported
	Timestamp time.Time // Moment the report was collected
	Values    []float64 // Symptom intensities; NaN marks a missing value
}

// Table is the full dataset across subjects, in original row order.
type Table struct {
	Symptoms     []string      // Numeric columns, in source order
	Observations []Observation // Rows, in source order
}

// Absent returns the marker used for a missing value.
func Absent() float64 { return math.NaN() }

// IsAbsent reports whether v is the missing-value marker.
func IsAbsent(v float64) bool { return math.IsNaN(v) }

// SymptomIndex returns the column position of a symptom, or -1.
func (t *Table) SymptomIndex(name string) int {
	return slices.Index(t.Symptoms, name)
}

// Subjects returns the distinct subject identifiers in order of first appearance.
func (t *Table) Subjects() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range t.Observations {
		if _, ok := seen[o.SubjectID]; ok {
			continue
		}
		seen[o.SubjectID] = struct{}{}
		out = append(out, o.SubjectID)
	}
	return out
}

// SubjectInfo summarizes how much data one subject contributed.
type SubjectInfo struct {
	SubjectID    string    `json:"subject_id"`
	Observations int       `json:"observations"`
	First        time.Time `json:"first"`
	Last         time.Time `json:"last"`
	Sparse       bool      `json:"sparse"`
}

// DescribeSubjects returns one SubjectInfo per subject, in order of first appearance.
// A subject with fewer than minObservations rows is flagged as sparse.
func (t *Table) DescribeSubjects(minObservations int) []SubjectInfo {
	index := make(map[string]int)
	var out []SubjectInfo
	for _, o := range t.Observations {
		i, ok := index[o.SubjectID]
		if !ok {
			i = len(out)
			index[o.SubjectID] = i
			out = append(out, SubjectInfo{SubjectID: o.SubjectID, First: o.Timestamp, Last: o.Timestamp})
		}
		info := &out[i]
		info.Observations++
		if o.Timestamp.Before(info.First) {
			info.First = o.Timestamp
		}
		if o.Timestamp.After(info.Last) {
			info.Last = o.Timestamp
		}
	}
	for i := range out {
		out[i].Sparse = out[i].Observations < minObservations
	}
	return out
}
