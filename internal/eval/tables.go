package eval

import (
	"github.com/notnil/chess"
)

// SquareSet is a 64-bit set of squares, bit n standing for chess.Square(n).
type SquareSet uint64

// NewSquareSet returns the set holding the given squares.
func NewSquareSet(squares ...chess.Square) SquareSet {
	var s SquareSet
	for _, sq := range squares {
		if sq < chess.A1 || sq > chess.H8 {
			continue
		}
		s |= 1 << uint(sq)
	}
	return s
}

// Has reports whether sq is in the set.
func (s SquareSet) Has(sq chess.Square) bool {
	if sq < chess.A1 || sq > chess.H8 {
		return false
	}
	return s&(1<<uint(sq)) != 0
}

// Tables holds every constant the evaluator reads. Arrays are indexed by
// chess.PieceType and chess.Color, so a Tables value carries no shared state.
type Tables struct {
	// Material is the value of each piece type.
	Material [7]float64

	// PawnRank is the pawn bonus by absolute rank, index 0 being rank 1.
	// The same table is used for both colors.
	PawnRank [8]float64

	// Center squares earn CenterBonus for any piece of either color.
	Center      SquareSet
	CenterBonus float64

	// Developed squares earn DevelopedBonus for a DevelopedPieces piece of
	// the owning color. Never awarded on top of the center bonus.
	Developed       [3]SquareSet
	DevelopedPieces [7]bool
	DevelopedBonus  float64

	// Castled king squares earn CastledBonus.
	Castled      [3]SquareSet
	CastledBonus float64
}

// DefaultTables are the standard evaluation tables.
var DefaultTables = Tables{
	Material: [7]float64{
		chess.King:   0,
		chess.Queen:  9,
		chess.Rook:   5,
		chess.Bishop: 3,
		chess.Knight: 3,
		chess.Pawn:   1,
	},
	PawnRank: [8]float64{-0.5, 0, 0.5, 1, 1, 0.5, 0, -0.5},

	Center:      NewSquareSet(chess.D4, chess.E4, chess.D5, chess.E5),
	CenterBonus: 1,

	Developed: [3]SquareSet{
		chess.White: NewSquareSet(chess.C3, chess.F3, chess.C4, chess.F4),
		chess.Black: NewSquareSet(chess.C6, chess.F6, chess.C5, chess.F5),
	},
	DevelopedPieces: [7]bool{chess.Knight: true, chess.Bishop: true},
	DevelopedBonus:  0.5,

	Castled: [3]SquareSet{
		chess.White: NewSquareSet(chess.C1, chess.G1),
		chess.Black: NewSquareSet(chess.C8, chess.G8),
	},
	CastledBonus: 1,
}
