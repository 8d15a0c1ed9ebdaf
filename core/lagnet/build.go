package lagnet

import (
	"fmt"
	"math"
	"slices"

	"github.com/huangsam/symnet/schema"
)

// Network is a thresholded temporal symptom network.
type Network struct {
	Nodes     []string      // Every tracked symptom, in order
	Edges     []schema.Edge // Predictor to outcome, ordered by predictor then outcome
	Threshold float64
}

// ValidateThreshold rejects NaN, infinite and negative thresholds.
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, threshold)
	}
	return nil
}

// Build keeps every present cell whose magnitude reaches the threshold as an edge.
// Nodes are never dropped, even when isolated.
func Build(m *CoefficientMatrix, threshold float64) (*Network, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	n := &Network{Nodes: slices.Clone(m.symptoms), Threshold: threshold}
	k := m.Size()
	for j := range k {
		for i := range k {
			v := m.At(i, j)
			if schema.IsAbsent(v) || math.Abs(v) < threshold {
				continue
			}
			n.Edges = append(n.Edges, schema.Edge{Source: m.symptoms[j], Target: m.symptoms[i], Weight: v})
		}
	}
	return n, nil
}

// HasEdge reports whether the network contains source -> target.
func (n *Network) HasEdge(source, target string) bool {
	return slices.ContainsFunc(n.Edges, func(e schema.Edge) bool {
		return e.Source == source && e.Target == target
	})
}
