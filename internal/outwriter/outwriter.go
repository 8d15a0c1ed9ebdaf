// Package outwriter has output and writer logic.
package outwriter

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
)

// errParquetFileRequired is returned when Parquet output would go to stdout.
var errParquetFileRequired = errors.New("--output-file is required for parquet output")

// PrintNetwork outputs one subject network, dispatching based on the output format configured.
func PrintNetwork(result schema.NetworkResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteNetworkJSON(w, result)
		}, "Wrote JSON network")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVNetwork(w, result, fmtFloat)
		}, "Wrote CSV network")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetFileRequired
		}
		return writeParquetNetworks(cfg.OutputFile, []schema.NetworkResult{result})
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeNetworkTable(w, result, cfg, fmtFloat, intFmt, duration)
		}, "Wrote network")
	}
}

// PrintMatrix outputs the full coefficient matrix of one subject.
func PrintMatrix(result schema.NetworkResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result.Matrix)
		}, "Wrote JSON matrix")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVMatrix(w, result.Matrix, fmtFloat)
		}, "Wrote CSV matrix")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetFileRequired
		}
		return writeParquetCoefficients(cfg.OutputFile, []schema.NetworkResult{result})
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMatrixTable(w, result, cfg, fmtFloat, intFmt, duration)
		}, "Wrote matrix")
	}
}

// PrintBatch outputs the per-subject summary of a batch run.
// Parquet output flattens every successful network into shared node, edge and coefficient files.
func PrintBatch(summary schema.BatchSummary, networks []schema.NetworkResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON batch summary")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVBatch(w, summary, intFmt)
		}, "Wrote CSV batch summary")
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return errParquetFileRequired
		}
		return writeParquetNetworks(cfg.OutputFile, networks)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBatchTable(w, summary, cfg, fmtFloat, intFmt, duration)
		}, "Wrote batch summary")
	}
}

// PrintSubjects outputs the subjects found in the data.
func PrintSubjects(subjects []schema.SubjectInfo, cfg *contract.Config, duration time.Duration) error {
	_, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, subjects)
		}, "Wrote JSON subjects")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSubjects(w, subjects, cfg, intFmt)
		}, "Wrote CSV subjects")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for the subjects listing")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSubjectsTable(w, subjects, cfg, intFmt, duration)
		}, "Wrote subjects")
	}
}

// LogNetworkHeader prints a concise 2-line header before a network is built.
func LogNetworkHeader(w io.Writer, cfg *contract.Config, subject string) {
	symptoms := "all columns"
	if len(cfg.Symptoms) > 0 {
		symptoms = fmt.Sprintf("%d symptoms", len(cfg.Symptoms))
	}
	if cfg.SymptomSet != "" {
		symptoms = fmt.Sprintf("%s (set: %s)", symptoms, cfg.SymptomSet)
	}
	_, _ = fmt.Fprintf(w, "🔎 Subject: %s (%s)\n", subject, symptoms)
	_, _ = fmt.Fprintf(w, "📈 Threshold: %.*f | Data: %s\n", cfg.Precision, cfg.Threshold, cfg.DataPath)
}
