// Package source loads EMA observation tables from CSV and Parquet files.
package source

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// Options describe how raw columns map onto the observation table.
type Options struct {
	SubjectColumn string // Column holding the subject identifier
	TimeColumn    string // Column holding the observation time
	TimeFormat    string // Layout for parsing TimeColumn

	// Tracked symptoms must be numeric; other text columns are skipped
	Tracked []string
}

// withDefaults fills blank options from the contract defaults.
func (o Options) withDefaults() Options {
	o.SubjectColumn = cmp.Or(o.SubjectColumn, contract.DefaultSubjectColumn)
	o.TimeColumn = cmp.Or(o.TimeColumn, contract.DefaultTimeColumn)
	o.TimeFormat = cmp.Or(o.TimeFormat, contract.DefaultTimeFormat)
	return o
}

// fallbackTimeFormats are tried after the configured layout.
var fallbackTimeFormats = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

// missingTokens are cell values read as a missing report.
var missingTokens = map[string]struct{}{
	"": {}, "na": {}, "nan": {}, "null": {}, "none": {},
}

// New returns the source for path, chosen by file extension.
func New(path string, opts Options) (contract.ObservationSource, error) {
	opts = opts.withDefaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return &CSVSource{path: path, opts: opts}, nil
	case ".parquet":
		return &ParquetSource{path: path, opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported data file %q. Must end with .csv or .parquet", path)
	}
}

// NewFromConfig returns the source described by the validated config.
func NewFromConfig(cfg *contract.Config) (contract.ObservationSource, error) {
	return New(cfg.DataPath, Options{
		SubjectColumn: cfg.SubjectColumn,
		TimeColumn:    cfg.TimeColumn,
		TimeFormat:    cfg.TimeFormat,
		Tracked:       cfg.Symptoms,
	})
}

// parseTime parses a timestamp with the configured layout, then the fallbacks.
func parseTime(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(layout, s); err == nil {
		return t, nil
	}
	for _, f := range fallbackTimeFormats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q with layout %q", s, layout)
}

// parseValue parses one symptom cell. Missing tokens become the absent marker.
func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if _, ok := missingTokens[strings.ToLower(s)]; ok {
		return schema.Absent(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value %q", s)
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("infinite value %q", s)
	}
	return v, nil
}

// fingerprintFile digests the file contents together with the options that shape parsing.
func fingerprintFile(path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q for fingerprint: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %q for fingerprint: %w", path, err)
	}
	_, _ = fmt.Fprintf(h, "|%s|%s|%s", opts.SubjectColumn, opts.TimeColumn, opts.TimeFormat)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// TableSource serves an already loaded table.
type TableSource struct {
	table *schema.Table
}

var _ contract.ObservationSource = &TableSource{} // Compile-time check

// FromTable wraps an in-memory table as a source.
func FromTable(t *schema.Table) *TableSource {
	return &TableSource{table: t}
}

// Load returns the wrapped table.
func (s *TableSource) Load(ctx context.Context) (*schema.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.table == nil {
		return nil, fmt.Errorf("no table loaded")
	}
	return s.table, nil
}

// Fingerprint digests the table contents.
func (s *TableSource) Fingerprint() (string, error) {
	if s.table == nil {
		return "", fmt.Errorf("no table loaded")
	}
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%q\n", s.table.Symptoms)
	for _, o := range s.table.Observations {
		_, _ = fmt.Fprintf(h, "%q|%d|", o.SubjectID, o.Timestamp.UnixNano())
		for _, v := range o.Values {
			h.Write(strconv.AppendFloat(nil, v, 'g', -1, 64))
			h.Write([]byte{','})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
