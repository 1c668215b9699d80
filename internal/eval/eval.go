// Package eval scores the final position of a chess game as a white/black
// performance split.
//
// Four heuristic terms are computed per side: material, piece activity,
// pawn structure and king safety. Their sum is normalized so the two
// percentages add up to 100.
package eval

import (
	"github.com/notnil/chess"
)

// ScorePair holds one score per side.
type ScorePair struct {
	White float64 `json:"white"`
	Black float64 `json:"black"`
}

// Add returns the side-wise sum of p and o.
func (p ScorePair) Add(o ScorePair) ScorePair {
	return ScorePair{White: p.White + o.White, Black: p.Black + o.Black}
}

// Total returns White + Black.
func (p ScorePair) Total() float64 {
	return p.White + p.Black
}

func (p *ScorePair) add(c chess.Color, v float64) {
	switch c {
	case chess.White:
		p.White += v
	case chess.Black:
		p.Black += v
	}
}

// Breakdown is the full evaluation of one position.
type Breakdown struct {
	Material      ScorePair `json:"material"`
	Activity      ScorePair `json:"activity"`
	PawnStructure ScorePair `json:"pawn_structure"`
	KingSafety    ScorePair `json:"king_safety"`

	// Score is material plus the three positional terms.
	Score ScorePair `json:"score"`

	WhitePct float64 `json:"white_pct"`
	BlackPct float64 `json:"black_pct"`
}

// Position returns activity + pawn structure + king safety.
func (b Breakdown) Position() ScorePair {
	return b.Activity.Add(b.PawnStructure).Add(b.KingSafety)
}

// Evaluator computes performance scores from a fixed set of tables.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	t Tables
}

// New returns an evaluator using DefaultTables.
func New() *Evaluator {
	return NewWithTables(DefaultTables)
}

// NewWithTables returns an evaluator using a copy of t.
func NewWithTables(t Tables) *Evaluator {
	return &Evaluator{t: t}
}

// Material sums piece values per color.
func (e *Evaluator) Material(b Board) ScorePair {
	var s ScorePair
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		s.add(p.Color(), e.t.Material[p.Type()])
	}
	return s
}

// Activity rewards pieces on the center squares and minor pieces on their
// developed squares. A square earns at most one of the two bonuses.
func (e *Evaluator) Activity(b Board) ScorePair {
	var s ScorePair
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		c := p.Color()
		switch {
		case e.t.Center.Has(sq):
			s.add(c, e.t.CenterBonus)
		case e.t.DevelopedPieces[p.Type()] && e.t.Developed[c].Has(sq):
			s.add(c, e.t.DevelopedBonus)
		}
	}
	return s
}

// PawnStructure scores each pawn by its absolute rank. Black pawns are not
// mirrored: a black pawn on rank 4 scores the same as a white one.
func (e *Evaluator) PawnStructure(b Board) ScorePair {
	var s ScorePair
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p.Type() != chess.Pawn {
			continue
		}
		s.add(p.Color(), e.t.PawnRank[sq.Rank()])
	}
	return s
}

// KingSafety awards the castled bonus to each side whose king stands on a
// castled square. A missing king scores 0.
func (e *Evaluator) KingSafety(b Board) ScorePair {
	var s ScorePair
	for _, c := range [2]chess.Color{chess.White, chess.Black} {
		sq, ok := b.KingSquare(c)
		if !ok {
			continue
		}
		if e.t.Castled[c].Has(sq) {
			s.add(c, e.t.CastledBonus)
		}
	}
	return s
}

// Position returns activity + pawn structure + king safety.
func (e *Evaluator) Position(b Board) ScorePair {
	return e.Activity(b).Add(e.PawnStructure(b)).Add(e.KingSafety(b))
}

// Evaluate returns the full breakdown for b.
func (e *Evaluator) Evaluate(b Board) Breakdown {
	bd := Breakdown{
		Material:      e.Material(b),
		Activity:      e.Activity(b),
		PawnStructure: e.PawnStructure(b),
		KingSafety:    e.KingSafety(b),
	}
	bd.Score = bd.Material.Add(bd.Position())
	bd.WhitePct, bd.BlackPct = Normalize(bd.Score)
	return bd
}

// Performance evaluates the final position of g.
func (e *Evaluator) Performance(g GameRecord) (whitePct, blackPct float64) {
	bd := e.Evaluate(g.FinalBoard())
	return bd.WhitePct, bd.BlackPct
}

// Normalize converts a score pair into percentages of the combined score.
// A zero total splits 50/50. Negative scores are not clamped. The black
// share is taken as the complement so the pair always adds up to 100.
func Normalize(s ScorePair) (whitePct, blackPct float64) {
	total := s.Total()
	if total == 0 {
		return 50, 50
	}
	whitePct = 100 * s.White / total
	return whitePct, 100 - whitePct
}

var defaultEvaluator = New()

// EvaluatePerformance evaluates g with DefaultTables.
func EvaluatePerformance(g GameRecord) (whitePct, blackPct float64) {
	return defaultEvaluator.Performance(g)
}
