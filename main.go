// chessperf evaluates the final position of chess games and prints each
// side's performance share.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/notnil/chess"

	"github.com/hailam/chessperf/internal/analysis"
	"github.com/hailam/chessperf/internal/config"
	"github.com/hailam/chessperf/internal/eval"
	"github.com/hailam/chessperf/internal/game"
	"github.com/hailam/chessperf/internal/logging"
	"github.com/hailam/chessperf/internal/rating"
	"github.com/hailam/chessperf/internal/render"
	"github.com/hailam/chessperf/internal/storage"
)

var (
	configPath = flag.String("config", "", "configuration file (YAML)")
	workers    = flag.Int("workers", 0, "parallel evaluations (0 = config or GOMAXPROCS)")
	jsonOut    = flag.Bool("json", false, "print one JSON object per game")
	svgDir     = flag.String("svg", "", "write an SVG diagram per game into this directory")
	pngDir     = flag.String("png", "", "write a PNG diagram per game into this directory")
	fen        = flag.String("fen", "", "evaluate a single FEN position")
	moves      = flag.String("moves", "", "evaluate a single game given as SAN movetext")
	modelRef   = flag.String("model", "", "predict WhiteElo with a trained model: artifact path, registry name or \"latest\"")
)

// report is one output line: the evaluation plus an optional rating estimate.
type report struct {
	analysis.Result
	PredictedElo *float64 `json:"predicted_white_elo,omitempty"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file.pgn ...]\n", filepath.Base(os.Args[0]))
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, flag.Args()); err != nil {
		slog.Error("chessperf failed", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, files []string) error {
	if *workers > 0 {
		cfg.Analysis.Workers = *workers
	}
	an, err := analysis.New(eval.New(), analysis.Options{
		Workers:   cfg.Analysis.Workers,
		CacheSize: cfg.Analysis.CacheSize,
		Openings:  cfg.Analysis.Openings,
	})
	if err != nil {
		return err
	}
	defer an.Close()

	games, err := collectGames(ctx, files)
	if err != nil {
		return err
	}
	results, err := an.Analyze(ctx, games)
	if err != nil {
		return err
	}

	var model *rating.Model
	if *modelRef != "" {
		if model, err = loadModel(cfg, *modelRef); err != nil {
			return err
		}
		slog.Info("loaded model", "model", model.Name, "features", len(model.Features))
	}

	for _, r := range results {
		rep := report{Result: r}
		if model != nil {
			opening := ""
			if r.Opening != nil {
				opening = r.Opening.Title
			}
			elo, err := model.PredictGame(games[r.Index], opening)
			if err != nil {
				return fmt.Errorf("game %d: %w", r.Index+1, err)
			}
			rep.PredictedElo = &elo
		}
		if err := printResult(os.Stdout, rep); err != nil {
			return err
		}
		if err := writeDiagrams(r); err != nil {
			return err
		}
	}

	st := an.Stats()
	slog.Info("evaluated games",
		"games", len(results),
		"cache_hits", st.Hits,
		"cache_hit_rate", fmt.Sprintf("%.1f%%", st.HitRate()))
	return nil
}

func collectGames(ctx context.Context, files []string) ([]*chess.Game, error) {
	switch {
	case *fen != "":
		g, err := game.FromFEN(*fen)
		if err != nil {
			return nil, err
		}
		return []*chess.Game{g}, nil
	case *moves != "":
		g, err := game.FromMovetext(*moves)
		if err != nil {
			return nil, err
		}
		return []*chess.Game{g}, nil
	case len(files) == 0:
		return game.ReadAll(ctx, os.Stdin)
	}

	var games []*chess.Game
	for _, path := range files {
		gs, err := readFile(ctx, path)
		if err != nil {
			return nil, err
		}
		slog.Debug("read pgn", "file", path, "games", len(gs))
		games = append(games, gs...)
	}
	return games, nil
}

func readFile(ctx context.Context, path string) ([]*chess.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gs, err := game.ReadAll(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gs, nil
}

// loadModel resolves ref against the registry when it is enabled.
func loadModel(cfg *config.Config, ref string) (*rating.Model, error) {
	if !cfg.Storage.Enabled {
		return rating.Resolve(ref, nil)
	}
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
		return nil, err
	}
	defer reg.Close()
	return rating.Resolve(ref, reg)
}

func printResult(w io.Writer, r report) error {
	if *jsonOut {
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	players := ""
	if r.White != "" || r.Black != "" {
		players = fmt.Sprintf(" %s vs %s", r.White, r.Black)
	}
	eco := ""
	if r.Opening != nil {
		eco = fmt.Sprintf(" [%s %s]", r.Opening.Code, r.Opening.Title)
	}
	elo := ""
	if r.PredictedElo != nil {
		elo = fmt.Sprintf(" white elo %.0f", *r.PredictedElo)
	}
	_, err := fmt.Fprintf(w, "#%d%s %s%s white %.2f%% black %.2f%%%s\n",
		r.Index+1, players, r.Outcome, eco, r.WhitePct, r.BlackPct, elo)
	return err
}

func writeDiagrams(r analysis.Result) error {
	d := render.Diagram{
		Board:     r.Board,
		Breakdown: r.Breakdown,
		Title:     fmt.Sprintf("Game %d", r.Index+1),
	}
	opts := render.DefaultOptions()
	if *svgDir != "" {
		if err := writeDiagram(*svgDir, r.Index, "svg", func(w io.Writer) error {
			return render.SVG(w, d, opts)
		}); err != nil {
			return err
		}
	}
	if *pngDir != "" {
		if err := writeDiagram(*pngDir, r.Index, "png", func(w io.Writer) error {
			return render.PNG(w, d, opts)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeDiagram(dir string, index int, ext string, draw func(io.Writer) error) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("game-%04d.%s", index+1, ext))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := draw(f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
