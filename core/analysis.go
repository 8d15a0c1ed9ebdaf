package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/outwriter"
	"github.com/huangsam/symnet/schema"
	"golang.org/x/sync/errgroup"
)

// beginAnalysis opens an analysis run when tracking is configured.
// The returned context carries the run ID and the cache manager for worker goroutines.
func beginAnalysis(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, subjects []string) context.Context {
	if mgr == nil {
		return ctx
	}
	ctx = contextWithCacheManager(ctx, mgr)

	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return ctx
	}

	configParams := map[string]any{
		"data_path":        cfg.DataPath,
		"subjects":         subjects,
		"symptoms":         cfg.Symptoms,
		"symptom_set":      cfg.SymptomSet,
		"threshold":        cfg.Threshold,
		"exclude_self":     cfg.ExcludeSelf,
		"dedup":            string(cfg.Dedup),
		"max_gap":          cfg.MaxGap.String(),
		"min_observations": cfg.MinObservations,
		"workers":          cfg.Workers,
	}
	analysisID, err := analysisStore.BeginAnalysis(uuid.NewString(), time.Now(), configParams)
	if err != nil {
		logTrackingError(ctx, "BeginAnalysis", "", err)
		return ctx
	}
	if analysisID > 0 {
		ctx = withAnalysisID(ctx, analysisID)
	}
	return ctx
}

// recordNetwork stores one subject network under the active analysis run.
func recordNetwork(ctx context.Context, result schema.NetworkResult) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || analysisID <= 0 {
		return
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	analysisStore := mgr.GetAnalysisStore()
	if analysisStore == nil {
		return
	}
	if err := analysisStore.RecordNetwork(analysisID, result, time.Now()); err != nil {
		logTrackingError(ctx, "RecordNetwork", result.Subject, err)
	}
}

// endAnalysis finalizes the active analysis run.
func endAnalysis(ctx context.Context, totalNetworks int) {
	analysisID, ok := getAnalysisID(ctx)
	if !ok || analysisID <= 0 {
		return
	}
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil || mgr.GetAnalysisStore() == nil {
		return
	}
	if err := mgr.GetAnalysisStore().EndAnalysis(analysisID, time.Now(), totalNetworks); err != nil {
		logTrackingError(ctx, "EndAnalysis", "", err)
	}
}

// logTrackingError logs database tracking errors without disrupting analysis.
func logTrackingError(ctx context.Context, operation, subject string, err error) {
	contract.LoggerFrom(ctx).Warn("analysis tracking failed", "operation", operation, "subject", subject, "error", err)
}

// runBatch builds the network of every subject on a bounded pool.
// A failing subject is reported in its summary row and does not stop the others.
func runBatch(ctx context.Context, cfg *contract.Config, ds *Dataset, subjects []string, mgr contract.CacheManager) (schema.BatchSummary, []schema.NetworkResult, error) {
	// Subjects run in parallel, so each pipeline fits its outcomes sequentially
	subjectCfg := cfg.Clone()
	subjectCfg.Workers = 1

	rows := make([]schema.SubjectSummary, len(subjects))
	results := make([]*schema.NetworkResult, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, subject := range subjects {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := GetNetworkResult(gctx, subjectCfg, ds, subject, mgr)
			if err != nil {
				contract.LoggerFrom(gctx).Warn("subject failed", "subject", subject, "error", err)
				rows[i] = schema.SubjectSummary{Subject: subject, Error: err.Error()}
				return nil
			}
			recordNetwork(gctx, *result)
			if cfg.OutputDir != "" {
				if err := writeSubjectNetwork(cfg.OutputDir, *result); err != nil {
					return err
				}
			}
			rows[i] = result.Summarize()
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return schema.BatchSummary{}, nil, err
	}

	summary := schema.BatchSummary{Threshold: cfg.Threshold, Subjects: rows}
	var networks []schema.NetworkResult
	for _, r := range results {
		if r == nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		networks = append(networks, *r)
	}
	return summary, networks, nil
}

// writeSubjectNetwork writes <subject>_symptom_network.json into dir.
func writeSubjectNetwork(dir string, result schema.NetworkResult) error {
	path := filepath.Join(dir, contract.SafeFileName(result.Subject)+"_symptom_network.json")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create network file: %w", err)
	}
	defer func() { _ = file.Close() }()
	if err := outwriter.WriteNetworkJSON(file, result); err != nil {
		return fmt.Errorf("failed to write network for subject %s: %w", result.Subject, err)
	}
	return nil
}
