package eval

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardOf(pieces map[chess.Square]chess.Piece) Board {
	return FromChess(chess.NewBoard(pieces))
}

func startBoard() Board {
	return FromChess(chess.NewGame().Position().Board())
}

func TestStartPosition(t *testing.T) {
	e := New()
	b := startBoard()

	bd := e.Evaluate(b)
	assert.Equal(t, ScorePair{White: 39, Black: 39}, bd.Material)
	assert.Equal(t, ScorePair{}, bd.Activity)
	assert.Equal(t, ScorePair{}, bd.PawnStructure)
	assert.Equal(t, ScorePair{}, bd.KingSafety)
	assert.Equal(t, 50.0, bd.WhitePct)
	assert.Equal(t, 50.0, bd.BlackPct)
}

func TestLoneKings(t *testing.T) {
	t.Run("uncastled", func(t *testing.T) {
		b := boardOf(map[chess.Square]chess.Piece{
			chess.E1: chess.WhiteKing,
			chess.E8: chess.BlackKing,
		})
		w, bl := EvaluatePerformance(BoardRecord{Board: b})
		assert.Equal(t, 50.0, w)
		assert.Equal(t, 50.0, bl)
	})

	t.Run("white castled", func(t *testing.T) {
		b := boardOf(map[chess.Square]chess.Piece{
			chess.G1: chess.WhiteKing,
			chess.E8: chess.BlackKing,
		})
		w, bl := EvaluatePerformance(BoardRecord{Board: b})
		assert.Equal(t, 100.0, w)
		assert.Equal(t, 0.0, bl)
	})

	t.Run("both castled", func(t *testing.T) {
		b := boardOf(map[chess.Square]chess.Piece{
			chess.C1: chess.WhiteKing,
			chess.G8: chess.BlackKing,
		})
		assert.Equal(t, ScorePair{White: 1, Black: 1}, New().KingSafety(b))
	})

	t.Run("castled square of the other color", func(t *testing.T) {
		b := boardOf(map[chess.Square]chess.Piece{
			chess.G8: chess.WhiteKing,
			chess.G1: chess.BlackKing,
		})
		assert.Equal(t, ScorePair{}, New().KingSafety(b))
	})
}

func TestMissingKing(t *testing.T) {
	b := boardOf(map[chess.Square]chess.Piece{
		chess.A1: chess.WhiteQueen,
		chess.G8: chess.BlackKing,
	})
	_, ok := b.KingSquare(chess.White)
	assert.False(t, ok)
	_, ok = b.KingSquare(chess.NoColor)
	assert.False(t, ok)

	e := New()
	assert.Equal(t, ScorePair{White: 0, Black: 1}, e.KingSafety(b))
	assert.Equal(t, ScorePair{White: 9, Black: 0}, e.Material(b))
}

func TestPawnStructure(t *testing.T) {
	e := New()
	tests := []struct {
		name string
		sq   chess.Square
		want float64
	}{
		{"rank 1", chess.A1, -0.5},
		{"rank 2", chess.B2, 0},
		{"rank 3", chess.C3, 0.5},
		{"rank 4", chess.A4, 1},
		{"rank 5", chess.H5, 1},
		{"rank 6", chess.G6, 0.5},
		{"rank 7", chess.F7, 0},
		{"rank 8", chess.E8, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			white := boardOf(map[chess.Square]chess.Piece{tt.sq: chess.WhitePawn})
			black := boardOf(map[chess.Square]chess.Piece{tt.sq: chess.BlackPawn})
			assert.Equal(t, tt.want, e.PawnStructure(white).White)
			assert.Equal(t, tt.want, e.PawnStructure(black).Black)
		})
	}
}

func TestPawnRankNotMirrored(t *testing.T) {
	b := boardOf(map[chess.Square]chess.Piece{
		chess.E1: chess.WhiteKing,
		chess.E8: chess.BlackKing,
		chess.A4: chess.WhitePawn,
		chess.H4: chess.BlackPawn,
	})
	bd := New().Evaluate(b)
	assert.Equal(t, ScorePair{White: 1, Black: 1}, bd.PawnStructure)
	assert.Equal(t, ScorePair{White: 2, Black: 2}, bd.Score)
	assert.Equal(t, 50.0, bd.WhitePct)
}

func TestActivity(t *testing.T) {
	e := New()
	tests := []struct {
		name  string
		sq    chess.Square
		piece chess.Piece
		want  ScorePair
	}{
		{"knight on center", chess.D4, chess.WhiteKnight, ScorePair{White: 1}},
		{"rook on center", chess.E5, chess.BlackRook, ScorePair{Black: 1}},
		{"white knight developed", chess.C3, chess.WhiteKnight, ScorePair{White: 0.5}},
		{"white bishop developed", chess.F4, chess.WhiteBishop, ScorePair{White: 0.5}},
		{"black knight developed", chess.F6, chess.BlackKnight, ScorePair{Black: 0.5}},
		{"black knight on white square", chess.C3, chess.BlackKnight, ScorePair{}},
		{"rook on developed square", chess.C3, chess.WhiteRook, ScorePair{}},
		{"queen off center", chess.A8, chess.WhiteQueen, ScorePair{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := boardOf(map[chess.Square]chess.Piece{tt.sq: tt.piece})
			assert.Equal(t, tt.want, e.Activity(b))
		})
	}
}

func TestPerformanceFromGame(t *testing.T) {
	g := chess.NewGame()
	require.NoError(t, g.MoveStr("e4"))

	w, b := New().Performance(FromGame(g))
	// 39 material + 1 center + 1 pawn rank against 39.
	assert.InDelta(t, 100*41.0/80.0, w, 1e-9)
	assert.InDelta(t, 100*39.0/80.0, b, 1e-9)
}

func TestPerformanceIdempotent(t *testing.T) {
	g := chess.NewGame()
	for _, m := range []string{"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5", "O-O"} {
		require.NoError(t, g.MoveStr(m))
	}
	rec := FromGame(g)
	w1, b1 := EvaluatePerformance(rec)
	w2, b2 := EvaluatePerformance(rec)
	assert.Equal(t, w1, w2)
	assert.Equal(t, b1, b2)
	assert.Equal(t, 100.0, w1+b1)
	assert.Greater(t, w1, b1)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		in        ScorePair
		wantWhite float64
		wantBlack float64
	}{
		{"zero", ScorePair{}, 50, 50},
		{"even", ScorePair{White: 3, Black: 3}, 50, 50},
		{"white only", ScorePair{White: 2}, 100, 0},
		{"uneven", ScorePair{White: 1, Black: 3}, 25, 75},
		{"negative not clamped", ScorePair{White: -1, Black: 3}, -50, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, b := Normalize(tt.in)
			assert.InDelta(t, tt.wantWhite, w, 1e-9)
			assert.InDelta(t, tt.wantBlack, b, 1e-9)
		})
	}
}

func TestNormalizeSumsToHundred(t *testing.T) {
	for _, s := range []ScorePair{
		{White: 39, Black: 38.5},
		{White: 1.0 / 3, Black: 2.0 / 7},
		{White: 12.5, Black: 0.1},
	} {
		w, b := Normalize(s)
		assert.Equal(t, 100.0, w+b)
	}
}

func TestCustomTables(t *testing.T) {
	tables := DefaultTables
	tables.Material[chess.Pawn] = 2
	tables.CastledBonus = 0
	e := NewWithTables(tables)

	b := boardOf(map[chess.Square]chess.Piece{
		chess.G1: chess.WhiteKing,
		chess.E8: chess.BlackKing,
		chess.B7: chess.BlackPawn,
	})
	assert.Equal(t, ScorePair{Black: 2}, e.Material(b))
	assert.Equal(t, ScorePair{}, e.KingSafety(b))
	// DefaultTables is untouched.
	assert.Equal(t, 1.0, DefaultTables.Material[chess.Pawn])
}

func TestSquareSet(t *testing.T) {
	s := NewSquareSet(chess.A1, chess.H8, chess.NoSquare)
	assert.True(t, s.Has(chess.A1))
	assert.True(t, s.Has(chess.H8))
	assert.False(t, s.Has(chess.E4))
	assert.False(t, s.Has(chess.NoSquare))
}
