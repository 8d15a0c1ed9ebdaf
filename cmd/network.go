package cmd

import (
	"github.com/huangsam/symnet/core"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/spf13/cobra"
)

// networkCmd builds the temporal symptom network of one subject.
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Build the temporal symptom network of one subject",
	Long: `Fit a lag-1 regression for every symptom of one subject and keep the
coefficients whose magnitude reaches --threshold as directed edges.

Each edge source -> target means that the source symptom at one report predicts
the target symptom at the next report. Nodes carry a force-directed layout and
degree, strength and betweenness centrality.

Examples:
  # Network for subject S1 using every catalog symptom
  symnet network --data ema.csv --subject S1

  # Core symptoms only, stricter threshold, JSON output
  symnet network --data ema.csv --subject S1 --symptom-set core --threshold 0.4 --output json

  # Ignore autoregressive edges and drop pairs more than a day apart
  symnet network --data ema.csv --subject S1 --exclude-self --max-gap 24h`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteNetwork(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Failed to build network", err)
		}
	},
}

// matrixCmd prints the full coefficient matrix of one subject.
var matrixCmd = &cobra.Command{
	Use:   "matrix",
	Short: "Print the outcome by predictor coefficient matrix of one subject",
	Long: `Print every lag-1 coefficient of one subject before thresholding.

Rows are outcomes (the symptom at time t) and columns are predictors (the
symptom at time t-1). Cells that could not be estimated print as n/a, and each
row reports its lagged row count, R² and status.

Examples:
  symnet matrix --data ema.csv --subject S1
  symnet matrix --data ema.csv --subject S1 --output csv --output-file s1_matrix.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMatrix(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Failed to build coefficient matrix", err)
		}
	},
}
