// chessperf-metrics prints the train/test classification table for a
// predictions CSV written by chessperf-train.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hailam/chessperf/internal/config"
	"github.com/hailam/chessperf/internal/logging"
	"github.com/hailam/chessperf/internal/metrics"
	"github.com/hailam/chessperf/internal/storage"
)

var (
	configPath = flag.String("config", "", "configuration file (YAML)")
	actualThr  = flag.Float64("actual-threshold", -1, "positive class when actual >= value (default metrics.actual_threshold, 0 = train median)")
	predThr    = flag.Float64("predicted-threshold", -1, "predicted positive when prediction >= value (default metrics.predicted_threshold, 0 = train median)")
	yamlOut    = flag.String("yaml", "", "also write the table as YAML to this path")
	showRuns   = flag.String("model", "", "list recorded training runs of this registry model")
	trainSplit = flag.String("train-split", "train", "split name used as the train column")
	testSplit  = flag.String("test-split", "test", "split name used as the test column")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: chessperf-metrics [flags] predictions.csv\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}
	closer := logging.Setup(cfg.Logger)
	defer closer.Close()

	if err := run(cfg); err != nil {
		slog.Error("chessperf-metrics failed", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if *showRuns != "" {
		if err := printRuns(cfg, *showRuns); err != nil {
			return err
		}
		if flag.NArg() == 0 {
			return nil
		}
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return fmt.Errorf("expected one predictions file, got %d", flag.NArg())
	}

	aThr, pThr := cfg.Metrics.ActualThreshold, cfg.Metrics.PredictedThreshold
	if *actualThr >= 0 {
		aThr = *actualThr
	}
	if *predThr >= 0 {
		pThr = *predThr
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()
	splits, err := metrics.ReadPredictions(f)
	if err != nil {
		return fmt.Errorf("%s: %w", flag.Arg(0), err)
	}

	aThr, pThr = metrics.Thresholds(splits[*trainSplit], aThr, pThr)
	table, err := metrics.TableFrom(splits[*trainSplit], splits[*testSplit], aThr, pThr)
	if err != nil {
		return err
	}
	slog.Info("computed metrics", "actual_threshold", aThr, "predicted_threshold", pThr)
	if err := table.WriteText(os.Stdout); err != nil {
		return err
	}

	if *yamlOut == "" {
		return nil
	}
	b, err := table.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(*yamlOut, b, 0644)
}

func printRuns(cfg *config.Config, name string) error {
	var (
		reg *storage.Storage
		err error
	)
	if cfg.Storage.Dir != "" {
		reg, err = storage.Open(cfg.Storage.Dir)
	} else {
		reg, err = storage.NewStorage()
	}
	if err != nil {
		return err
	}
	defer reg.Close()

	runs, err := reg.Runs(name)
	if err != nil {
		return err
	}
	fmt.Printf("%-20s %8s %8s %10s %10s %8s\n", "started", "train", "test", "MAE", "RMSE", "R2")
	for _, r := range runs {
		fmt.Printf("%-20s %8d %8d %10.2f %10.2f %8.4f\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.TrainRows, r.TestRows, r.Test.MAE, r.Test.RMSE, r.Test.R2)
	}
	fmt.Println()
	return nil
}
