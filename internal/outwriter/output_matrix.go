package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// absentCell is shown in tables for coefficients that were not estimated.
const absentCell = "n/a"

// writeMatrixTable writes the outcome by predictor table with per-outcome fit details.
func writeMatrixTable(w io.Writer, result schema.NetworkResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	m := result.Matrix
	if _, err := fmt.Fprintf(w, "Coefficient matrix: %s (rows: outcome at t, columns: predictor at t-1)\n", result.Subject); err != nil {
		return err
	}

	nameWidth := GetMaxTableNameWidth(cfg, len(m.Symptoms)+3)
	headers := []string{"Outcome"}
	for _, p := range m.Symptoms {
		headers = append(headers, displayName(p, cfg, nameWidth))
	}
	headers = append(headers, "Rows", "R²", "Status")

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range m.Rows {
		row := []string{displayName(r.Outcome, cfg, nameWidth)}
		for j := range m.Symptoms {
			var v *float64
			if j < len(r.Values) {
				v = r.Values[j]
			}
			row = append(row, formatCell(v, fmtFloat, absentCell))
		}
		status := "ok"
		rSquared := absentCell
		if r.Estimated {
			rSquared = fmtFloat(r.RSquared)
		} else {
			status = fmt.Sprintf("%s (%s)", unavailableLabel, r.Reason)
		}
		row = append(row, fmt.Sprintf(intFmt, r.Rows), rSquared, status)
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Estimated %d of %d outcomes in %v with %d workers. Cache backend: %s\n",
		len(m.Rows)-len(m.FailedOutcomes()), len(m.Rows), duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// writeCSVMatrix writes the coefficient matrix in CSV format. Absent cells are empty.
func writeCSVMatrix(w io.Writer, m schema.CoefficientTable, fmtFloat func(float64) string) error {
	header := append([]string{"outcome"}, m.Symptoms...)
	header = append(header, "intercept", "rows", "r_squared", "estimated", "reason")
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range m.Rows {
			rec := []string{r.Outcome}
			for j := range m.Symptoms {
				var v *float64
				if j < len(r.Values) {
					v = r.Values[j]
				}
				rec = append(rec, formatCell(v, fmtFloat, ""))
			}
			rec = append(rec,
				formatCell(r.Intercept, fmtFloat, ""),
				fmt.Sprintf("%d", r.Rows),
				fmtFloat(r.RSquared),
				fmt.Sprintf("%t", r.Estimated),
				r.Reason,
			)
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
