package source

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/parquet"
	"github.com/huangsam/symnet/schema"
)

// ParquetSource reads a long table of (subject_id, timestamp, symptom, value) records.
type ParquetSource struct {
	path string
	opts Options
}

var _ contract.ObservationSource = &ParquetSource{} // Compile-time check

// Load reads the records and pivots them into one row per subject and timestamp.
func (s *ParquetSource) Load(ctx context.Context) (*schema.Table, error) {
	records, err := parquet.ReadObservationsParquet(s.path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pivot(records)
}

// Fingerprint returns a digest of the file and parse options.
func (s *ParquetSource) Fingerprint() (string, error) {
	return fingerprintFile(s.path, s.opts)
}

// rowKey identifies one wide row.
type rowKey struct {
	subject string
	ts      time.Time
}

// pivot turns long records into a wide table. Symptoms and rows keep their
// order of first appearance; a repeated cell keeps the later reported value.
func pivot(records []parquet.Observation) (*schema.Table, error) {
	table := &schema.Table{}
	symptomIndex := make(map[string]int)
	for _, r := range records {
		if r.Symptom == "" {
			return nil, fmt.Errorf("record for subject %q has an empty symptom name", r.SubjectID)
		}
		if _, ok := symptomIndex[r.Symptom]; !ok {
			symptomIndex[r.Symptom] = len(table.Symptoms)
			table.Symptoms = append(table.Symptoms, r.Symptom)
		}
	}

	rowIndex := make(map[rowKey]int)
	for _, r := range records {
		if r.SubjectID == "" {
			return nil, fmt.Errorf("record for symptom %q has an empty subject_id", r.Symptom)
		}
		key := rowKey{subject: r.SubjectID, ts: r.Timestamp.UTC()}
		i, ok := rowIndex[key]
		if !ok {
			values := make([]float64, len(table.Symptoms))
			for k := range values {
				values[k] = schema.Absent()
			}
			i = len(table.Observations)
			rowIndex[key] = i
			table.Observations = append(table.Observations, schema.Observation{
				SubjectID: r.SubjectID,
				Timestamp: key.ts,
				Values:    values,
			})
		}
		if r.Value != nil {
			table.Observations[i].Values[symptomIndex[r.Symptom]] = *r.Value
		}
	}
	return table, nil
}
