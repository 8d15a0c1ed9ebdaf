package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/parquet"
	"github.com/huangsam/symnet/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// unavailableLabel marks outcomes whose regression produced no estimates.
const unavailableLabel = "unavailable"

// maxDegree returns the largest total degree among the nodes.
func maxDegree(nodes []schema.NodeLayout) int {
	best := 0
	for _, n := range nodes {
		best = max(best, n.Degree)
	}
	return best
}

// nodeLabel returns the connectivity label of a node, colored when requested.
func nodeLabel(n schema.NodeLayout, maxDeg int, useColors bool) string {
	if useColors {
		return contract.GetColorLabel(n.Degree, maxDeg)
	}
	return contract.GetPlainLabel(n.Degree, maxDeg)
}

// failedReasons maps each failed outcome to the reason it has no estimates.
func failedReasons(m schema.CoefficientTable) map[string]string {
	out := make(map[string]string)
	for _, r := range m.Rows {
		if !r.Estimated {
			out[r.Outcome] = r.Reason
		}
	}
	return out
}

// writeNetworkTable writes the human-readable node and edge tables.
func writeNetworkTable(w io.Writer, result schema.NetworkResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "%s\n", result.Title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Threshold %s | %d observations | %d lagged rows\n",
		fmtFloat(result.Threshold), result.Observations, result.LaggedRows); err != nil {
		return err
	}

	// 1. Nodes
	nameWidth := GetMaxTableNameWidth(cfg, 7)
	failed := failedReasons(result.Matrix)
	maxDeg := maxDegree(result.Nodes)

	nodes := tablewriter.NewWriter(w)
	nodes.Header([]string{"Symptom", "In", "Out", "In Str", "Out Str", "Between", "X", "Y", "Label"})
	nodes.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var nodeData [][]string
	for _, n := range result.Nodes {
		label := nodeLabel(n, maxDeg, cfg.UseColors)
		if _, ok := failed[n.Name]; ok {
			label = fmt.Sprintf("%s (%s)", label, unavailableLabel)
		}
		nodeData = append(nodeData, []string{
			displayName(n.Name, cfg, nameWidth),
			fmt.Sprintf(intFmt, n.InDegree),
			fmt.Sprintf(intFmt, n.OutDegree),
			fmtFloat(n.InStrength),
			fmtFloat(n.OutStrength),
			fmtFloat(n.Betweenness),
			fmtFloat(n.X),
			fmtFloat(n.Y),
			label,
		})
	}
	if err := nodes.Bulk(nodeData); err != nil {
		return err
	}
	if err := nodes.Render(); err != nil {
		return err
	}

	// 2. Edges
	if len(result.Edges) == 0 {
		if _, err := fmt.Fprintf(w, "No edges at threshold %s\n", fmtFloat(result.Threshold)); err != nil {
			return err
		}
	} else {
		edges := tablewriter.NewWriter(w)
		edges.Header([]string{"Source", "Target", "Weight", "Sign"})
		edges.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		var edgeData [][]string
		for _, e := range result.Edges {
			edgeData = append(edgeData, []string{
				displayName(e.Source, cfg, nameWidth),
				displayName(e.Target, cfg, nameWidth),
				fmtFloat(e.Weight),
				contract.GetSignLabel(e.Weight, cfg.UseColors),
			})
		}
		if err := edges.Bulk(edgeData); err != nil {
			return err
		}
		if err := edges.Render(); err != nil {
			return err
		}
	}

	// 3. Failed outcomes and warnings
	for _, r := range result.Matrix.Rows {
		if r.Estimated {
			continue
		}
		if _, err := fmt.Fprintf(w, "Outcome %s %s: %s\n", r.Outcome, unavailableLabel, r.Reason); err != nil {
			return err
		}
	}
	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintf(w, "Warning: %s\n", warning); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Showing %d nodes and %d edges. Built in %v with %d workers. Cache backend: %s\n",
		len(result.Nodes), len(result.Edges), duration, cfg.Workers, cfg.CacheBackend)
	return err
}

// jsonNode adds the connectivity label to a node.
type jsonNode struct {
	schema.NodeLayout
	Label string `json:"label"`
}

// jsonNetwork is the JSON document for one network.
// Nodes shadows the embedded node list to carry labels.
type jsonNetwork struct {
	schema.NetworkResult
	Nodes          []jsonNode `json:"nodes"`
	FailedOutcomes []string   `json:"failed_outcomes"`
}

// newJSONNetwork prepares a network for JSON encoding.
func newJSONNetwork(result schema.NetworkResult) jsonNetwork {
	maxDeg := maxDegree(result.Nodes)
	nodes := make([]jsonNode, len(result.Nodes))
	for i, n := range result.Nodes {
		nodes[i] = jsonNode{NodeLayout: n, Label: contract.GetPlainLabel(n.Degree, maxDeg)}
	}
	failed := result.Matrix.FailedOutcomes()
	if failed == nil {
		failed = []string{}
	}
	if result.Edges == nil {
		result.Edges = []schema.Edge{}
	}
	return jsonNetwork{NetworkResult: result, Nodes: nodes, FailedOutcomes: failed}
}

// WriteNetworkJSON writes one network in the JSON format used by --output json.
func WriteNetworkJSON(w io.Writer, result schema.NetworkResult) error {
	return writeJSON(w, newJSONNetwork(result))
}

// writeCSVNetwork writes the edge list of one network in CSV format.
func writeCSVNetwork(w io.Writer, result schema.NetworkResult, fmtFloat func(float64) string) error {
	header := []string{"subject", "source", "target", "weight", "sign"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range result.Edges {
			rec := []string{
				result.Subject,
				e.Source,
				e.Target,
				fmtFloat(e.Weight),
				contract.GetSignLabel(e.Weight, false),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// parquetFiles returns the node, edge and coefficient file names for a prefix.
func parquetFiles(prefix string) (nodes, edges, coefficients string) {
	prefix = strings.TrimSuffix(prefix, ".parquet")
	return prefix + ".nodes.parquet", prefix + ".edges.parquet", prefix + ".coefficients.parquet"
}

// flattenNetworks converts networks into Parquet rows.
func flattenNetworks(networks []schema.NetworkResult) ([]parquet.Node, []parquet.Edge, []parquet.Coefficient) {
	var nodes []parquet.Node
	var edges []parquet.Edge
	var coefficients []parquet.Coefficient
	for _, result := range networks {
		maxDeg := maxDegree(result.Nodes)
		n, e, c := parquet.ConvertNetwork(result, func(n schema.NodeLayout) string {
			return contract.GetPlainLabel(n.Degree, maxDeg)
		})
		nodes = append(nodes, n...)
		edges = append(edges, e...)
		coefficients = append(coefficients, c...)
	}
	return nodes, edges, coefficients
}

// writeParquetNetworks writes nodes, edges and coefficients of the networks to three Parquet files.
func writeParquetNetworks(prefix string, networks []schema.NetworkResult) error {
	nodes, edges, coefficients := flattenNetworks(networks)
	nodesFile, edgesFile, coefficientsFile := parquetFiles(prefix)

	if err := writeParquetFile(nodesFile, nodes); err != nil {
		return err
	}
	if err := writeParquetFile(edgesFile, edges); err != nil {
		return err
	}
	return writeParquetFile(coefficientsFile, coefficients)
}

// writeParquetCoefficients writes only the coefficient cells of the networks.
func writeParquetCoefficients(outputFile string, networks []schema.NetworkResult) error {
	_, _, coefficients := flattenNetworks(networks)
	return writeParquetFile(outputFile, coefficients)
}

// writeParquetFile writes rows to a Parquet file and reports where they went.
func writeParquetFile[T any](outputFile string, rows []T) error {
	return writeWithFile(outputFile, func(w io.Writer) error {
		return parquet.Write(w, rows)
	}, fmt.Sprintf("Wrote %d Parquet rows", len(rows)))
}
