package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/hailam/chessperf/internal/config"
	"github.com/hailam/chessperf/internal/dataset"
	"github.com/hailam/chessperf/internal/forest"
	"github.com/hailam/chessperf/internal/logging"
	"github.com/hailam/chessperf/internal/metrics"
	"github.com/hailam/chessperf/internal/storage"
)

// previewRows is how many test predictions are printed after training.
const previewRows = 10

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	configPath  = flag.String("config", "", "configuration file (YAML)")
	dataPath    = flag.String("data", "", "match CSV (overrides dataset.path)")
	filterExpr  = flag.String("filter", "", "CEL row filter (overrides dataset.filter)")
	outputPath  = flag.String("output", "", "model artifact path (overrides model.output, default <data dir>/models/<name>.json)")
	modelName   = flag.String("name", "", "registry name (overrides model.name)")
	trees       = flag.Int("trees", 0, "number of trees (overrides model.forest.trees)")
	noRegistry  = flag.Bool("no-registry", false, "do not record the model in the registry")
	predictions = flag.String("predictions", "", "write split,actual,predicted rows to this CSV")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			slog.Error("could not create CPU profile", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			slog.Error("could not start CPU profile", "error", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "path", profilePath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Unable to load configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	closer := logging.Setup(cfg.Logger)
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := train(ctx, cfg); err != nil {
		slog.Error("training failed", "error", err)
		pprof.StopCPUProfile()
		closer.Close()
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config) {
	if *dataPath != "" {
		cfg.Dataset.Path = *dataPath
	}
	if *filterExpr != "" {
		cfg.Dataset.Filter = *filterExpr
	}
	if *outputPath != "" {
		cfg.Model.Output = *outputPath
	}
	if *modelName != "" {
		cfg.Model.Name = *modelName
	}
	if *trees > 0 {
		cfg.Model.Forest.Trees = *trees
	}
	if *noRegistry {
		cfg.Storage.Enabled = false
	}
}

func train(ctx context.Context, cfg *config.Config) error {
	started := time.Now()

	matches, st, err := dataset.LoadFile(cfg.Dataset.Path, cfg.Dataset.MaxRows)
	if err != nil {
		return err
	}
	slog.Info("loaded dataset", "path", cfg.Dataset.Path, "rows", st.Rows, "kept", st.Kept, "skipped", st.Skipped)

	if cfg.Dataset.Filter != "" {
		filter, err := dataset.NewFilter(cfg.Dataset.Filter)
		if err != nil {
			return err
		}
		if matches, err = filter.Apply(matches); err != nil {
			return fmt.Errorf("filter %q: %w", cfg.Dataset.Filter, err)
		}
		slog.Info("filtered dataset", "filter", filter.String(), "rows", len(matches))
	}

	trainIdx, testIdx := dataset.Split(len(matches), cfg.Dataset.TestFraction, cfg.Dataset.Seed)
	trainSet := dataset.Select(matches, trainIdx)
	testSet := dataset.Select(matches, testIdx)
	if len(trainSet) == 0 {
		return fmt.Errorf("train split: %w", dataset.ErrNoRows)
	}
	sum := dataset.Summarize(trainSet)
	slog.Info("split dataset",
		"train", len(trainSet),
		"test", len(testSet),
		"elo_mean", sum.Mean,
		"elo_std", sum.StdDev)

	enc := dataset.NewEncoder(cfg.Model.Performance)
	enc.Fit(trainSet)
	Xtr, ytr := enc.TransformAll(trainSet)
	Xte, yte := enc.TransformAll(testSet)

	model := forest.New(cfg.Model.Forest)
	fitStart := time.Now()
	if err := model.Fit(ctx, Xtr, ytr); err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	slog.Info("fitted forest", "trees", cfg.Model.Forest.Trees, "elapsed", time.Since(fitStart).Round(time.Millisecond))

	predTrain, err := model.PredictBatch(Xtr)
	if err != nil {
		return err
	}
	predTest, err := model.PredictBatch(Xte)
	if err != nil {
		return err
	}

	trainScore, err := metrics.Regress(ytr, predTrain)
	if err != nil {
		return err
	}
	testScore, err := metrics.Regress(yte, predTest)
	if err != nil {
		return err
	}

	printPreview(yte, predTest)
	fmt.Printf("\n%-6s %10s %10s %8s\n", "split", "MAE", "RMSE", "R2")
	fmt.Printf("%-6s %10.2f %10.2f %8.4f\n", "train", trainScore.MAE, trainScore.RMSE, trainScore.R2)
	fmt.Printf("%-6s %10.2f %10.2f %8.4f\n", "test", testScore.MAE, testScore.RMSE, testScore.R2)

	names := enc.FeatureNames()
	for i, imp := range model.Importances() {
		slog.Debug("feature importance", "feature", names[i], "importance", imp)
	}

	artifact, err := model.Artifact(names, enc)
	if err != nil {
		return err
	}
	output := cfg.Model.Output
	if output == "" {
		if output, err = storage.ModelPath(cfg.Model.Name); err != nil {
			return err
		}
	}
	if err := forest.SaveFile(output, artifact); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	slog.Info("saved model", "path", output)

	if *predictions != "" {
		if err := writePredictions(*predictions, ytr, predTrain, yte, predTest); err != nil {
			return fmt.Errorf("write predictions: %w", err)
		}
	}

	if !cfg.Storage.Enabled {
		return nil
	}
	return record(cfg, artifact, storage.TrainingRun{
		StartedAt: started,
		Duration:  time.Since(started),
		Dataset:   cfg.Dataset.Path,
		Filter:    cfg.Dataset.Filter,
		TrainRows: len(trainSet),
		TestRows:  len(testSet),
		Config:    cfg.Model.Forest,
		Train:     trainScore,
		Test:      testScore,
	})
}

func printPreview(actual, predicted []float64) {
	fmt.Printf("%10s %10s\n", "Predicted", "Actual")
	for i := 0; i < len(actual) && i < previewRows; i++ {
		fmt.Printf("%10.1f %10.0f\n", predicted[i], actual[i])
	}
}

func record(cfg *config.Config, a *forest.Artifact, run storage.TrainingRun) error {
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

	if err := reg.SaveModel(cfg.Model.Name, a, run); err != nil {
		return fmt.Errorf("record model: %w", err)
	}
	runs, err := reg.Runs(cfg.Model.Name)
	if err != nil {
		return err
	}
	slog.Info("recorded model", "name", cfg.Model.Name, "runs", len(runs))
	return nil
}

func writePredictions(path string, ytr, ptr, yte, pte []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	rows := [][]string{{"split", "actual", "predicted"}}
	add := func(split string, y, p []float64) {
		for i := range y {
			rows = append(rows, []string{
				split,
				strconv.FormatFloat(y[i], 'f', -1, 64),
				strconv.FormatFloat(p[i], 'f', -1, 64),
			})
		}
	}
	add("train", ytr, ptr)
	add("test", yte, pte)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
