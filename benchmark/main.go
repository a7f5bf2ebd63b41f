// Package main measures domainx ranking times with and without the ranking cache.
// Each bundle is imported into a scratch home directory, then every command runs
// several times: first with the cache disabled, then with a SQLite cache where the
// first run is cold and the rest are warm. Results are written as CSV.
//
// Prerequisites:
// - domainx binary installed and available in PATH
// - One or more domain bundles (YAML or JSON) in the bundle directory
//
// Usage: go run benchmark/main.go [bundle-dir]
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Bundle      string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	BundleDir   string
	Home        string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Bundles     []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [bundle-dir]\n", os.Args[0])
		os.Exit(1)
	}

	home, err := os.MkdirTemp("", "domainx-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create scratch home: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(home) }()

	config := BenchmarkConfig{
		BundleDir:   os.Args[1],
		Home:        home,
		Timeout:     2 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
	}

	if err := checkPrerequisites(&config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	domains, err := importBundles(config)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, domains)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the domainx binary and at least one bundle exist.
func checkPrerequisites(config *BenchmarkConfig) error {
	if _, err := exec.LookPath("domainx"); err != nil {
		return fmt.Errorf("domainx binary not found in PATH")
	}

	entries, err := os.ReadDir(config.BundleDir)
	if err != nil {
		return fmt.Errorf("bundle directory %s not readable: %w", config.BundleDir, err)
	}
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			config.Bundles = append(config.Bundles, e.Name())
		}
	}
	if len(config.Bundles) == 0 {
		return fmt.Errorf("no bundles found in %s", config.BundleDir)
	}
	return nil
}

// importBundles imports every bundle and maps bundle file names to domain IDs.
func importBundles(config BenchmarkConfig) (map[string]string, error) {
	domains := make(map[string]string, len(config.Bundles))
	for _, name := range config.Bundles {
		before, err := listDomainIDs(config)
		if err != nil {
			return nil, err
		}
		if output, err := domainx(config, "import", filepath.Join(config.BundleDir, name)).CombinedOutput(); err != nil {
			return nil, fmt.Errorf("import %s: %w\nOutput: %s", name, err, string(output))
		}
		after, err := listDomainIDs(config)
		if err != nil {
			return nil, err
		}
		for id := range after {
			if _, ok := before[id]; !ok {
				domains[name] = id
			}
		}
		fmt.Printf("Imported %s as %s\n", name, domains[name])
	}
	return domains, nil
}

func listDomainIDs(config BenchmarkConfig) (map[string]struct{}, error) {
	output, err := domainx(config, "domains", "--output", "json").Output()
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	var listing []struct {
		ID string `json:"domain_id"`
	}
	if err := json.Unmarshal(output, &listing); err != nil {
		return nil, fmt.Errorf("decode domains: %w", err)
	}
	ids := make(map[string]struct{}, len(listing))
	for _, d := range listing {
		ids[d.ID] = struct{}{}
	}
	return ids, nil
}

// runBenchmarks ranks each domain on its own and then all domains at once.
func runBenchmarks(config BenchmarkConfig, domains map[string]string) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d bundles, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.Bundles), config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Bundles {
		id, ok := domains[name]
		if !ok {
			continue
		}
		results = append(results, runBenchmarkSuite(config, name, "rank", []string{"rank", id, "--detail"}))
	}
	results = append(results, runBenchmarkSuite(config, "all", "rank-all", []string{"rank", "--all"}))

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command.
func runBenchmarkSuite(config BenchmarkConfig, bundle, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, bundle)

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

	// Phase 2: Cache runs, starting from an empty cache
	if output, err := domainx(config, "cache", "clear").CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Bundle:      bundle,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a domainx command several times and returns the cold time and the warm times.
func runBenchmark(config BenchmarkConfig, args []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args = append(append([]string{}, args...),
		"--cache-backend", cacheBackend,
		"--workers", fmt.Sprint(config.Workers),
		"--color", "no",
	)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()
		cmd := domainx(config, args...)

		done := make(chan bool, 1)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// domainx builds a command that keeps every SQLite database inside the scratch home.
func domainx(config BenchmarkConfig, args ...string) *exec.Cmd {
	cmd := exec.Command("domainx", args...)
	cmd.Env = append(os.Environ(), "HOME="+config.Home)
	return cmd
}

// isSuccess checks that the text output ends with the ranking summary line.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Ranked ") &&
		strings.Contains(outputStr, "domain(s) in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/domainx_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"bundle", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Bundle, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary.
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	printCommandSummary(results, "rank", "Single domain:")
	printCommandSummary(results, "rank-all", "All domains:")
}

func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-24s: No-cache: %s, Cold: %s, Warm: %s\n", result.Bundle, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
