package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// CSVSource reads a wide table: one row per observation, one column per symptom.
type CSVSource struct {
	path string
	opts Options
}

var _ contract.ObservationSource = &CSVSource{} // Compile-time check

// Load parses the CSV file. Every numeric column other than the subject and time
// columns is a symptom. Untracked text columns are skipped.
func (s *CSVSource) Load(ctx context.Context) (*schema.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file %q: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()
	return readCSV(ctx, f, s.opts)
}

// Fingerprint returns a digest of the file and parse options.
func (s *CSVSource) Fingerprint() (string, error) {
	return fingerprintFile(s.path, s.opts)
}

// readCSV decodes a wide CSV table from r.
func readCSV(ctx context.Context, r io.Reader, opts Options) (*schema.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("data file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	subjectCol := slices.Index(header, opts.SubjectColumn)
	if subjectCol < 0 {
		return nil, fmt.Errorf("subject column %q not found in header", opts.SubjectColumn)
	}
	timeCol := slices.Index(header, opts.TimeColumn)
	if timeCol < 0 {
		return nil, fmt.Errorf("time column %q not found in header", opts.TimeColumn)
	}

	table := &schema.Table{}
	var symptomCols []int
	for i, name := range header {
		if i == subjectCol || i == timeCol {
			continue
		}
		if slices.Contains(table.Symptoms, name) {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		table.Symptoms = append(table.Symptoms, name)
		symptomCols = append(symptomCols, i)
	}

	rejected := make([]error, len(symptomCols))
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		subject := strings.TrimSpace(record[subjectCol])
		if subject == "" {
			return nil, fmt.Errorf("line %d: empty %s", line, opts.SubjectColumn)
		}
		ts, err := parseTime(record[timeCol], opts.TimeFormat)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make([]float64, len(symptomCols))
		for k, col := range symptomCols {
			if rejected[k] != nil {
				continue
			}
			v, err := parseValue(record[col])
			if err != nil {
				err = fmt.Errorf("line %d column %q: %w", line, header[col], err)
				if slices.Contains(opts.Tracked, header[col]) {
					return nil, err
				}
				rejected[k] = err
				continue
			}
			values[k] = v
		}
		table.Observations = append(table.Observations, schema.Observation{
			SubjectID: subject,
			Timestamp: ts,
			Values:    values,
		})
	}

	dropTextColumns(ctx, table, rejected)
	return table, nil
}

// dropTextColumns removes the columns that held a non-numeric value.
func dropTextColumns(ctx context.Context, table *schema.Table, rejected []error) {
	keep := make([]int, 0, len(rejected))
	for k, err := range rejected {
		if err != nil {
			contract.LoggerFrom(ctx).Warn("skipping non-numeric column", "column", table.Symptoms[k], "error", err)
			continue
		}
		keep = append(keep, k)
	}
	if len(keep) == len(rejected) {
		return
	}

	symptoms := make([]string, len(keep))
	for i, k := range keep {
		symptoms[i] = table.Symptoms[k]
	}
	table.Symptoms = symptoms
	for o := range table.Observations {
		values := make([]float64, len(keep))
		for i, k := range keep {
			values[i] = table.Observations[o].Values[k]
		}
		table.Observations[o].Values = values
	}
}
