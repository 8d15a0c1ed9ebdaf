package lagnet

import (
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/symnet/schema"
)

// DefaultMinObservations is the observation count below which a series is reported as sparse.
const DefaultMinObservations = 10

// PrepareOptions controls how a subject's rows become a lagged frame.
type PrepareOptions struct {
	Dedup           schema.DedupPolicy // How to collapse rows sharing a timestamp
	MaxGap          time.Duration      // Lag pairs further apart than this are dropped (0 = unlimited)
	MinObservations int                // Sparse-series warning floor (0 = DefaultMinObservations)
}

// Prepared is the output of Prepare.
type Prepared struct {
	Series       *Series
	Frame        *LaggedFrame
	Insufficient bool     // Fewer than two observations; every outcome will fail
	Warnings     []string // Non-fatal findings, in the order they were detected
}

// ResolveSymptoms filters the requested symptoms to those present in the table.
// It returns the kept names, their column positions and a warning per dropped name.
func ResolveSymptoms(table *schema.Table, symptoms []string) ([]string, []int, []string) {
	var (
		names    []string
		cols     []int
		warnings []string
	)
	for _, s := range symptoms {
		if slices.Contains(names, s) {
			warnings = append(warnings, fmt.Sprintf("symptom %q listed more than once; keeping the first", s))
			continue
		}
		col := table.SymptomIndex(s)
		if col < 0 {
			warnings = append(warnings, fmt.Sprintf("unknown symptom %q excluded", s))
			continue
		}
		names = append(names, s)
		cols = append(cols, col)
	}
	return names, cols, warnings
}

// Prepare filters the table to one subject, orders it by time and builds the lagged frame.
// The caller's table is never modified.
func Prepare(table *schema.Table, subject string, symptoms []string, opts PrepareOptions) (*Prepared, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: %q", ErrEmptySubject, subject)
	}
	names, cols, warnings := ResolveSymptoms(table, symptoms)
	if len(names) == 0 {
		return nil, ErrNoSymptoms
	}

	var rows []schema.Observation
	for _, o := range table.Observations {
		if o.SubjectID == subject {
			rows = append(rows, o)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptySubject, subject)
	}

	slices.SortStableFunc(rows, func(a, b schema.Observation) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	rows = dedupRows(rows, opts.Dedup)

	series := newSeries(subject, names, cols, rows)
	p := &Prepared{Series: series, Warnings: warnings}

	if series.Len() < 2 {
		p.Insufficient = true
		p.Frame = newLaggedFrame(subject, names, 0)
		p.Warnings = append(p.Warnings, fmt.Sprintf("insufficient data: subject %s has %d observation(s), at least 2 are needed to form a lag", subject, series.Len()))
		return p, nil
	}

	minObs := opts.MinObservations
	if minObs <= 0 {
		minObs = DefaultMinObservations
	}
	if series.Len() < minObs {
		p.Warnings = append(p.Warnings, fmt.Sprintf("sparse series: subject %s has %d observations (recommended at least %d)", subject, series.Len(), minObs))
	}

	p.Frame = lagSeries(series, opts.MaxGap)
	return p, nil
}

// newSeries copies the tracked columns out of the sorted rows.
func newSeries(subject string, names []string, cols []int, rows []schema.Observation) *Series {
	s := &Series{
		subject:    subject,
		symptoms:   slices.Clone(names),
		timestamps: make([]time.Time, len(rows)),
		values:     make([][]float64, len(rows)),
	}
	for i, o := range rows {
		s.timestamps[i] = o.Timestamp
		vals := make([]float64, len(cols))
		for j, c := range cols {
			if c < len(o.Values) {
				vals[j] = o.Values[c]
			} else {
				vals[j] = schema.Absent()
			}
		}
		s.values[i] = vals
	}
	return s
}

// dedupRows collapses runs of equal timestamps in sorted rows.
func dedupRows(rows []schema.Observation, policy schema.DedupPolicy) []schema.Observation {
	if policy != schema.DedupFirst && policy != schema.DedupLast {
		return rows
	}
	out := make([]schema.Observation, 0, len(rows))
	for _, o := range rows {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(o.Timestamp) {
			if policy == schema.DedupLast {
				out[n-1] = o
			}
			continue
		}
		out = append(out, o)
	}
	return out
}
