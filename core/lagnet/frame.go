package lagnet

import (
	"slices"
	"time"

	"github.com/huangsam/symnet/schema"
)

// LagSuffix is appended to a symptom name to form its lagged column.
const LagSuffix = "-lag"

// Metadata columns carried by every LaggedFrame.
const (
	SubjectColumn   = "subject"
	TimestampColumn = "timestamp"
)

// Series is the chronologically ordered observations of one subject,
// restricted to the tracked symptoms. It is immutable once built.
type Series struct {
	subject    string
	symptoms   []string
	timestamps []time.Time
	values     [][]float64 // [row][symptom]
}

// Subject returns the subject identifier.
func (s *Series) Subject() string { return s.subject }

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.timestamps)
}

// Symptoms returns the tracked symptoms in order.
func (s *Series) Symptoms() []string { return slices.Clone(s.symptoms) }

// Timestamp returns the timestamp of row i.
func (s *Series) Timestamp(i int) time.Time { return s.timestamps[i] }

// Value returns the value of symptom j at row i.
func (s *Series) Value(i, j int) float64 { return s.values[i][j] }

// LaggedFrame pairs every observation at t with the observation at t-1.
// Row r holds the current values of series row r+1 and the lagged values of series row r.
type LaggedFrame struct {
	subject    string
	symptoms   []string
	index      map[string]int
	timestamps []time.Time
	current    [][]float64
	lagged     [][]float64
}

func newLaggedFrame(subject string, symptoms []string, rows int) *LaggedFrame {
	f := &LaggedFrame{
		subject:    subject,
		symptoms:   slices.Clone(symptoms),
		index:      make(map[string]int, len(symptoms)),
		timestamps: make([]time.Time, 0, rows),
		current:    make([][]float64, 0, rows),
		lagged:     make([][]float64, 0, rows),
	}
	for i, s := range symptoms {
		f.index[s] = i
	}
	return f
}

// lagSeries builds the frame from a series. When maxGap is positive, a row whose
// predecessor lies further back than maxGap gets absent lag values.
func lagSeries(s *Series, maxGap time.Duration) *LaggedFrame {
	n := s.Len()
	f := newLaggedFrame(s.subject, s.symptoms, max(n-1, 0))
	for i := 1; i < n; i++ {
		lag := slices.Clone(s.values[i-1])
		if maxGap > 0 && s.timestamps[i].Sub(s.timestamps[i-1]) > maxGap {
			for j := range lag {
				lag[j] = schema.Absent()
			}
		}
		f.timestamps = append(f.timestamps, s.timestamps[i])
		f.current = append(f.current, slices.Clone(s.values[i]))
		f.lagged = append(f.lagged, lag)
	}
	return f
}

// Subject returns the subject identifier.
func (f *LaggedFrame) Subject() string { return f.subject }

// Rows returns the number of lagged rows.
func (f *LaggedFrame) Rows() int {
	if f == nil {
		return 0
	}
	return len(f.timestamps)
}

// Symptoms returns the tracked symptoms in order.
func (f *LaggedFrame) Symptoms() []string { return slices.Clone(f.symptoms) }

// Has reports whether the symptom is tracked by the frame.
func (f *LaggedFrame) Has(symptom string) bool {
	_, ok := f.index[symptom]
	return ok
}

// Columns returns the column names: subject, timestamp, the symptoms and their lags.
func (f *LaggedFrame) Columns() []string {
	cols := make([]string, 0, 2*len(f.symptoms)+2)
	cols = append(cols, SubjectColumn, TimestampColumn)
	cols = append(cols, f.symptoms...)
	for _, s := range f.symptoms {
		cols = append(cols, s+LagSuffix)
	}
	return cols
}

// Timestamp returns the timestamp of the current observation at row r.
func (f *LaggedFrame) Timestamp(r int) time.Time { return f.timestamps[r] }

// Value returns the current value of a symptom at row r.
func (f *LaggedFrame) Value(r int, symptom string) float64 {
	return f.current[r][f.index[symptom]]
}

// LagValue returns the previous-row value of a symptom at row r.
func (f *LaggedFrame) LagValue(r int, symptom string) float64 {
	return f.lagged[r][f.index[symptom]]
}

// CompleteRows returns the rows where the outcome and every predictor lag are present.
func (f *LaggedFrame) CompleteRows(outcome string, predictors []string) []int {
	oi, ok := f.index[outcome]
	if !ok {
		return nil
	}
	pis := make([]int, 0, len(predictors))
	for _, p := range predictors {
		pi, ok := f.index[p]
		if !ok {
			return nil
		}
		pis = append(pis, pi)
	}

	var rows []int
	for r := range f.current {
		if schema.IsAbsent(f.current[r][oi]) {
			continue
		}
		complete := true
		for _, pi := range pis {
			if schema.IsAbsent(f.lagged[r][pi]) {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, r)
		}
	}
	return rows
}
