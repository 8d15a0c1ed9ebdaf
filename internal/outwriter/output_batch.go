package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeBatchTable writes one summary row per subject.
func writeBatchTable(w io.Writer, summary schema.BatchSummary, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	nameWidth := GetMaxTableNameWidth(cfg, 6)

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Subject", "Obs", "Lagged", "Estimated", "Failed", "Edges", "Densest", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, s := range summary.Subjects {
		data = append(data, []string{
			contract.TruncateName(s.Subject, nameWidth),
			fmt.Sprintf(intFmt, s.Observations),
			fmt.Sprintf(intFmt, s.LaggedRows),
			fmt.Sprintf(intFmt, s.EstimatedOutcomes),
			fmt.Sprintf(intFmt, s.FailedOutcomes),
			fmt.Sprintf(intFmt, s.Edges),
			displayName(s.DensestNode, cfg, nameWidth),
			s.Error,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Built %d of %d networks at threshold %s in %v with %d workers. Cache backend: %s\n",
		summary.Succeeded, len(summary.Subjects), fmtFloat(summary.Threshold), duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// writeCSVBatch writes the batch summary in CSV format.
func writeCSVBatch(w io.Writer, summary schema.BatchSummary, intFmt string) error {
	header := []string{"subject", "observations", "lagged_rows", "estimated_outcomes", "failed_outcomes", "edges", "densest_node", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summary.Subjects {
			rec := []string{
				s.Subject,
				fmt.Sprintf(intFmt, s.Observations),
				fmt.Sprintf(intFmt, s.LaggedRows),
				fmt.Sprintf(intFmt, s.EstimatedOutcomes),
				fmt.Sprintf(intFmt, s.FailedOutcomes),
				fmt.Sprintf(intFmt, s.Edges),
				s.DensestNode,
				s.Error,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSubjectsTable writes one row per subject with its observation span.
func writeSubjectsTable(w io.Writer, subjects []schema.SubjectInfo, cfg *contract.Config, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Subject", "Observations", "First", "Last", "Sparse"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	sparse := 0
	for _, s := range subjects {
		flag := ""
		if s.Sparse {
			flag = "yes"
			sparse++
		}
		data = append(data, []string{
			s.SubjectID,
			fmt.Sprintf(intFmt, s.Observations),
			s.First.Format(cfg.TimeFormat),
			s.Last.Format(cfg.TimeFormat),
			flag,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Found %d subjects (%d below %d observations) in %v\n", len(subjects), sparse, cfg.MinObservations, duration)
	return err
}

// writeCSVSubjects writes the subjects listing in CSV format.
func writeCSVSubjects(w io.Writer, subjects []schema.SubjectInfo, cfg *contract.Config, intFmt string) error {
	header := []string{"subject", "observations", "first", "last", "sparse"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range subjects {
			rec := []string{
				s.SubjectID,
				fmt.Sprintf(intFmt, s.Observations),
				s.First.Format(cfg.TimeFormat),
				s.Last.Format(cfg.TimeFormat),
				strconv.FormatBool(s.Sparse),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
