package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/parquet"
)

// ExportAnalysis writes runs, networks and edges of the analysis store to three
// Parquet files sharing the outputFile prefix.
func ExportAnalysis(w io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not configured. Set --analysis-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total analysis runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total network records: %d\n", status.TableSizes[networksTable])

	runs, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	networks, err := store.GetAllNetworkRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve networks: %w", err)
	}
	edges, err := store.GetAllEdgeRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve edges: %w", err)
	}

	runsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(parquet.ConvertAnalysisRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d analysis runs to: %s\n", len(runs), runsFile)

	networksFile := outputFile + ".networks.parquet"
	if err := parquet.WriteNetworkSummariesParquet(parquet.ConvertNetworkRecords(networks), networksFile); err != nil {
		return fmt.Errorf("failed to write networks: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d network records to: %s\n", len(networks), networksFile)

	edgesFile := outputFile + ".edges.parquet"
	if err := parquet.WriteAnalysisEdgesParquet(parquet.ConvertEdgeRecords(edges), edgesFile); err != nil {
		return fmt.Errorf("failed to write edges: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d edge records to: %s\n", len(edges), edgesFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be used with:")
	_, _ = fmt.Fprintln(w, "  - Pandas (via pyarrow)")
	_, _ = fmt.Fprintln(w, "  - R (via arrow)")
	_, _ = fmt.Fprintln(w, "  - DuckDB")
	_, _ = fmt.Fprintln(w, "  - Any other Parquet-compatible tool")

	return nil
}
