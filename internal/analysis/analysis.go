// Package analysis evaluates batches of finished games in parallel.
package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/notnil/chess"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessperf/internal/eval"
	"github.com/hailam/chessperf/internal/game"
	"github.com/hailam/chessperf/internal/opening"
)

// DefaultCacheSize is the number of final positions kept by default.
const DefaultCacheSize = 100000

// Options configures an Analyzer. Zero values pick defaults.
type Options struct {
	Workers   int
	CacheSize int64
	Openings  bool
	Logger    *slog.Logger
}

// Result is the evaluation of one game.
type Result struct {
	Index    int              `json:"index"`
	White    string           `json:"white,omitempty"`
	Black    string           `json:"black,omitempty"`
	Outcome  string           `json:"result"`
	Opening  *opening.Opening `json:"opening,omitempty"`
	Plies    int              `json:"plies"`
	FEN      string           `json:"fen"`
	WhitePct float64          `json:"white_pct"`
	BlackPct float64          `json:"black_pct"`

	Breakdown eval.Breakdown `json:"breakdown"`

	// Board is the final position.
	Board *chess.Board `json:"-"`
}

// Stats reports cache usage.
type Stats struct {
	Hits   uint64
	Misses uint64
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Analyzer evaluates games with a shared evaluator and a cache of final
// positions keyed by their FEN piece placement.
type Analyzer struct {
	eval     *eval.Evaluator
	openings *opening.Classifier
	cache    *ristretto.Cache[string, eval.Breakdown]
	workers  int
	log      *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates an analyzer. Close releases the cache.
func New(e *eval.Evaluator, opts Options) (*Analyzer, error) {
	if e == nil {
		e = eval.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, eval.Breakdown]{
		NumCounters: opts.CacheSize * 10,
		MaxCost:     opts.CacheSize,
		BufferItems: 64,

		// Every position costs 1, so MaxCost counts positions.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	a := &Analyzer{
		eval:    e,
		cache:   cache,
		workers: opts.Workers,
		log:     opts.Logger,
	}
	if opts.Openings {
		a.openings = opening.NewClassifier()
	}
	return a, nil
}

// Close releases the cache.
func (a *Analyzer) Close() {
	a.cache.Close()
}

// Stats returns the cache counters.
func (a *Analyzer) Stats() Stats {
	return Stats{Hits: a.hits.Load(), Misses: a.misses.Load()}
}

// Evaluate returns the breakdown for b, consulting the cache first.
func (a *Analyzer) Evaluate(b *chess.Board) eval.Breakdown {
	key := b.String()
	if bd, ok := a.cache.Get(key); ok {
		a.hits.Add(1)
		return bd
	}
	a.misses.Add(1)

	bd := a.eval.Evaluate(eval.FromChess(b))
	a.cache.Set(key, bd, 1)
	a.cache.Wait()
	return bd
}

// Analyze evaluates games concurrently. Results are in input order.
func (a *Analyzer) Analyze(ctx context.Context, games []*chess.Game) ([]Result, error) {
	results := make([]Result, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, gm := range games {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.analyzeGame(i, gm)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := a.Stats()
	a.log.Debug("analysis done",
		"games", len(games),
		"cache_hits", st.Hits,
		"cache_misses", st.Misses)
	return results, nil
}

// AnalyzePGN reads every game of a PGN stream and evaluates them.
func (a *Analyzer) AnalyzePGN(ctx context.Context, r io.Reader) ([]Result, error) {
	games, err := game.ReadAll(ctx, r)
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, games)
}

func (a *Analyzer) analyzeGame(i int, g *chess.Game) Result {
	b := g.Position().Board()
	bd := a.Evaluate(b)

	r := Result{
		Index:     i,
		White:     game.Tag(g, "White"),
		Black:     game.Tag(g, "Black"),
		Outcome:   string(g.Outcome()),
		Plies:     len(g.Moves()),
		FEN:       g.Position().String(),
		WhitePct:  bd.WhitePct,
		BlackPct:  bd.BlackPct,
		Breakdown: bd,
		Board:     b,
	}
	if r.Outcome == string(chess.NoOutcome) {
		if tag := game.Tag(g, "Result"); tag != "" {
			r.Outcome = tag
		}
	}
	if a.openings != nil {
		if o, ok := a.openings.Classify(g); ok {
			r.Opening = &o
		}
	}
	return r
}
