package cmd

import (
	"github.com/huangsam/symnet/core"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/spf13/cobra"
)

// batchCmd builds a network for many subjects at once.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Build networks for every subject and summarize them",
	Long: `Build one network per subject, up to --workers subjects at a time.

A subject that fails is reported in its summary row and does not stop the batch.
With --output-dir each network is also written as <subject>_symptom_network.json.

Examples:
  # Every subject in the data
  symnet batch --data ema.csv

  # Selected subjects with per-subject JSON files
  symnet batch --data ema.csv --subjects S1,S2,S7 --output-dir networks/`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteBatch(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Failed to run batch", err)
		}
	},
}

// subjectsCmd lists the subjects found in the data.
var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List subjects with observation counts and time spans",
	Long: `List every subject in the data with its observation count and the first and
last report time. Subjects below --min-observations are flagged as sparse.

Examples:
  symnet subjects --data ema.csv
  symnet subjects --data ema.csv --min-observations 30 --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSubjects(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Failed to list subjects", err)
		}
	},
}
