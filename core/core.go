// Package core has core logic for building, caching and tracking symptom networks.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/internal/outwriter"
	"github.com/huangsam/symnet/internal/source"
	"github.com/huangsam/symnet/schema"
)

// ExecutorFunc defines the function signature for executing different analysis modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteNetwork builds the network of one subject and prints it.
// It serves as the main entry point for the 'network' command.
func ExecuteNetwork(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	logHeader(cfg)
	result, err := GetSubjectNetwork(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintNetwork(*result, cfg, time.Since(start))
}

// ExecuteMatrix builds the network of one subject and prints its coefficient matrix.
// It serves as the main entry point for the 'matrix' command.
func ExecuteMatrix(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	logHeader(cfg)
	result, err := GetSubjectNetwork(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintMatrix(*result, cfg, time.Since(start))
}

// ExecuteBatch builds a network for every requested subject and prints a summary.
// It serves as the main entry point for the 'batch' command.
func ExecuteBatch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return err
	}

	subjects := cfg.Subjects
	if len(subjects) == 0 {
		subjects = ds.Table.Subjects()
	}
	if len(subjects) == 0 {
		return errors.New("no subjects found in data")
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx = beginAnalysis(ctx, cfg, mgr, subjects)
	summary, networks, err := runBatch(ctx, cfg, ds, subjects, mgr)
	endAnalysis(ctx, summary.Succeeded)
	if err != nil {
		return err
	}
	return outwriter.PrintBatch(summary, networks, cfg, time.Since(start))
}

// ExecuteSubjects lists the subjects in the data with their observation spans.
// This does not estimate anything.
func ExecuteSubjects(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	subjects, err := GetSubjects(ctx, cfg)
	if err != nil {
		return err
	}
	return outwriter.PrintSubjects(subjects, cfg, time.Since(start))
}

// GetSubjects loads the data and describes every subject in it.
func GetSubjects(ctx context.Context, cfg *contract.Config) ([]schema.SubjectInfo, error) {
	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ds.Table.DescribeSubjects(cfg.MinObservations), nil
}

// GetSubjectNetwork loads the data and builds the network of cfg.Subject inside an analysis run.
// Nothing is printed, so the result can be served by other front ends.
func GetSubjectNetwork(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.NetworkResult, error) {
	if cfg.Subject == "" {
		return nil, errors.New("--subject is required")
	}

	ds, err := loadDataset(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctx = beginAnalysis(ctx, cfg, mgr, []string{cfg.Subject})
	result, err := GetNetworkResult(ctx, cfg, ds, cfg.Subject, mgr)
	if err != nil {
		endAnalysis(ctx, 0)
		return nil, err
	}
	recordNetwork(ctx, *result)
	endAnalysis(ctx, 1)
	return result, nil
}

// logHeader prints the run header for text output.
func logHeader(cfg *contract.Config) {
	if cfg.Output == schema.TextOut && cfg.Subject != "" {
		outwriter.LogNetworkHeader(os.Stderr, cfg, cfg.Subject)
	}
}

// loadDataset opens the configured data file and loads it.
func loadDataset(ctx context.Context, cfg *contract.Config) (*Dataset, error) {
	src, err := source.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	ds, err := LoadDataset(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.DataPath, err)
	}
	contract.LoggerFrom(ctx).Debug("data loaded",
		"path", cfg.DataPath, "rows", len(ds.Table.Observations), "symptoms", len(ds.Table.Symptoms))
	return ds, nil
}
