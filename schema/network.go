package schema

// Edge is a directed lag-1 association from Source at t-1 to Target at t.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// NodeLayout holds the position and connectivity of one symptom node.
type NodeLayout struct {
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
	Degree      int     `json:"degree"`
	InStrength  float64 `json:"in_strength"`
	OutStrength float64 `json:"out_strength"`
	Betweenness float64 `json:"betweenness"`
}

// CoefficientRow is one outcome row of the coefficient table.
// Values is aligned with CoefficientTable.Symptoms; nil marks an absent cell.
type CoefficientRow struct {
	Outcome   string     `json:"outcome"`
	Estimated bool       `json:"estimated"`
	Reason    string     `json:"reason,omitempty"`
	Rows      int        `json:"rows"`
	RSquared  float64    `json:"r_squared"`
	Intercept *float64   `json:"intercept"`
	Values    []*float64 `json:"values"`
}

// CoefficientTable is the outcome by predictor coefficient matrix in serializable form.
type CoefficientTable struct {
	Symptoms []string         `json:"symptoms"`
	Rows     []CoefficientRow `json:"rows"`
}

// FailedOutcomes returns the outcomes whose regression did not produce estimates.
func (c CoefficientTable) FailedOutcomes() []string {
	var out []string
	for _, r := range c.Rows {
		if !r.Estimated {
			out = append(out, r.Outcome)
		}
	}
	return out
}

// NetworkResult is the renderable temporal symptom network for one subject.
type NetworkResult struct {
	Subject      string           `json:"subject"`
	Title        string           `json:"title"`
	Threshold    float64          `json:"threshold"`
	Observations int              `json:"observations"`
	LaggedRows   int              `json:"lagged_rows"`
	Nodes        []NodeLayout     `json:"nodes"`
	Edges        []Edge           `json:"edges"`
	Matrix       CoefficientTable `json:"matrix"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// SubjectSummary is one row of a batch run.
type SubjectSummary struct {
	Subject           string `json:"subject"`
	Observations      int    `json:"observations"`
	LaggedRows        int    `json:"lagged_rows"`
	EstimatedOutcomes int    `json:"estimated_outcomes"`
	FailedOutcomes    int    `json:"failed_outcomes"`
	Edges             int    `json:"edges"`
	DensestNode       string `json:"densest_node,omitempty"`
	Error             string `json:"error,omitempty"`
}

// BatchSummary aggregates networks built for several subjects.
type BatchSummary struct {
	Threshold float64          `json:"threshold"`
	Subjects  []SubjectSummary `json:"subjects"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// Summarize reduces a NetworkResult to a batch row.
func (n NetworkResult) Summarize() SubjectSummary {
	failed := len(n.Matrix.FailedOutcomes())
	s := SubjectSummary{
		Subject:           n.Subject,
		Observations:      n.Observations,
		LaggedRows:        n.LaggedRows,
		EstimatedOutcomes: len(n.Matrix.Rows) - failed,
		FailedOutcomes:    failed,
		Edges:             len(n.Edges),
	}
	best := 0
	for _, node := range n.Nodes {
		if node.Degree > best {
			best = node.Degree
			s.DensestNode = node.Name
		}
	}
	return s
}
