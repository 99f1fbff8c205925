package api

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/rwKV/api/client"
	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/ValentinKolb/rwKV/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for rwKV servers",
		Long:    "Runs read benchmarks in one session and measures how fast new sessions can be created. The server should run with a high session rate limit (or none) for the sessions benchmark.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfNumThreads = 10
	perfSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. tags,sessions)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	config := util.GetClientConfig()

	fmt.Println("Performance testing tool for rwKV servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	// the read benchmarks run as a freshly registered user
	suffix := strconv.FormatInt(time.Now().UnixNano(), 36)
	if _, err := apiClient.Register(ctx, "perf-"+suffix, "perf-"+suffix+"@example.com", "perf-"+suffix); err != nil {
		return fmt.Errorf("failed to prepare session: %w", err)
	}

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)

	bench := func(name string, op func(ctx context.Context, i int64) error) {
		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(name) {
				return
			}
			var counter atomic.Int64

			b.SetParallelism(perfNumThreads)
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				for pb.Next() {
					if err := op(ctx, counter.Add(1)); err != nil {
						log.Printf("(%s) - error: %v\n", name, err)
					}
				}
			})
		})
		results[name] = result
		printResult(name, result)
	}

	bench("tags", func(ctx context.Context, _ int64) error {
		_, err := apiClient.Tags(ctx)
		return err
	})

	bench("articles", func(ctx context.Context, _ int64) error {
		_, err := apiClient.ListArticles(ctx, client.ArticleFilter{})
		return err
	})

	bench("user", func(ctx context.Context, _ int64) error {
		_, err := apiClient.CurrentUser(ctx)
		return err
	})

	// every iteration registers a user in a fresh session
	bench("sessions", func(ctx context.Context, i int64) error {
		sessionConfig := config
		sessionConfig.Session = ""
		sessionConfig.Token = ""
		c, err := client.NewClient(sessionConfig)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("perf-%s-%d", suffix, i)
		_, err = c.Register(ctx, name, name+"@example.com", name)
		return err
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoint", "TimeoutSec", "RetryCount", "Threads",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, test := range names {
		result := results[test]
		var (
			nsPerOp   float64
			opsPerSec float64
			skipped   = "true"
		)
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			config.Endpoint,
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(perfNumThreads),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
