// Package main provides a performance benchmarking tool for the symnet CLI.
// It generates synthetic EMA datasets of increasing size, runs each command
// several times without a cache and with the SQLite cache, treating the first
// cached run as cold and averaging the rest as warm, and writes a CSV report.
//
// Prerequisites:
// - symnet binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where datasets and the isolated cache are created
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Dataset     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// Dataset describes one generated EMA file.
type Dataset struct {
	Name     string
	Subjects int
	Rows     int // reports per subject
	Symptoms int
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Datasets    []Dataset
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Datasets: []Dataset{
			{Name: "small", Subjects: 5, Rows: 60, Symptoms: 5},
			{Name: "medium", Subjects: 40, Rows: 200, Symptoms: 10},
			{Name: "large", Subjects: 200, Rows: 400, Symptoms: 18},
		},
	}

	if _, err := exec.LookPath("symnet"); err != nil {
		fmt.Printf("Prerequisites check failed: symnet binary not found in PATH\n")
		os.Exit(1)
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks generates every dataset and benchmarks the network and batch commands on it.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d datasets, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Datasets), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, ds := range config.Datasets {
		fmt.Printf("Generating %s (%d subjects x %d rows x %d symptoms)\n", ds.Name, ds.Subjects, ds.Rows, ds.Symptoms)
		dataPath, symptoms, err := generateDataset(config.WorkDir, ds)
		if err != nil {
			fmt.Printf("  failed: %v\n", err)
			continue
		}

		common := []string{"--data", dataPath, "--symptoms", symptoms, "--workers", strconv.Itoa(config.Workers), "--output", "csv"}
		results = append(results,
			runBenchmarkSuite(config, ds.Name, "network", append([]string{"network", "--subject", "P0000"}, common...)),
			runBenchmarkSuite(config, ds.Name, "batch", append([]string{"batch"}, common...)),
		)
	}

	return results
}

// generateDataset writes a wide EMA CSV where symptom j at one report drives symptom j+1 at the next.
func generateDataset(workDir string, ds Dataset) (string, string, error) {
	path := filepath.Join(workDir, fmt.Sprintf("ema_%s.csv", ds.Name))
	file, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = file.Close() }()

	names := make([]string, ds.Symptoms)
	for j := range names {
		names[j] = fmt.Sprintf("sym_%02d", j+1)
	}

	w := csv.NewWriter(file)
	if err := w.Write(append([]string{"PatientID", "Timestamp"}, names...)); err != nil {
		return "", "", err
	}

	rng := rand.New(rand.NewPCG(uint64(ds.Subjects), uint64(ds.Rows)))
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	for s := range ds.Subjects {
		subject := fmt.Sprintf("P%04d", s)
		prev := make([]float64, ds.Symptoms)
		for i := range ds.Rows {
			cur := make([]float64, ds.Symptoms)
			rec := []string{subject, base.Add(time.Duration(i) * 4 * time.Hour).Format("2006-01-02 15:04:05")}
			for j := range cur {
				cur[j] = rng.NormFloat64()
				if j > 0 {
					cur[j] += 0.5 * prev[j-1]
				}
				rec = append(rec, strconv.FormatFloat(cur[j], 'f', 4, 64))
			}
			if err := w.Write(rec); err != nil {
				return "", "", err
			}
			prev = cur
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", err
	}

	return path, strings.Join(names, ","), nil
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, dataset, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, dataset)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, args, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs start from an empty cache
	clearCache(config)
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Dataset:     dataset,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// symnetCommand runs symnet with HOME set to the work dir so the SQLite cache stays isolated.
func symnetCommand(config BenchmarkConfig, args ...string) *exec.Cmd {
	cmd := exec.Command("symnet", args...)
	cmd.Env = append(os.Environ(), "HOME="+config.WorkDir)
	return cmd
}

// clearCache empties the isolated SQLite cache.
func clearCache(config BenchmarkConfig) {
	if output, err := symnetCommand(config, "cache", "clear").CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
}

// runBenchmark executes a symnet command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, args []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = append(append([]string{}, args...), "--cache-backend", cacheBackend)

	var times []float64
	for range numRuns {
		start := time.Now()
		cmd := symnetCommand(config, args...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.Output()
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/symnet_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"dataset", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Dataset, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"network", "batch"} {
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Dataset, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
