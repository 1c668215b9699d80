// Package render draws an evaluated final position as an SVG or PNG diagram:
// the board from white's side with a performance bar underneath.
package render

import (
	"fmt"
	"image/color"

	"github.com/notnil/chess"

	"github.com/hailam/chessperf/internal/eval"
)

// Options controls the diagram layout.
type Options struct {
	// SquareSize is the edge of one square in pixels.
	SquareSize int
	Light      color.RGBA
	Dark       color.RGBA
	// HideBar drops the performance bar below the board.
	HideBar bool
}

// DefaultOptions returns 48px squares in the usual brown palette.
func DefaultOptions() Options {
	return Options{
		SquareSize: 48,
		Light:      color.RGBA{0xf0, 0xd9, 0xb5, 0xff},
		Dark:       color.RGBA{0xb5, 0x88, 0x63, 0xff},
	}
}

var (
	whiteSide = color.RGBA{0xf5, 0xf5, 0xf5, 0xff}
	blackSide = color.RGBA{0x30, 0x30, 0x30, 0xff}
)

// Diagram is a position with its evaluation.
type Diagram struct {
	Board     *chess.Board
	Breakdown eval.Breakdown
	Title     string
}

type layout struct {
	sq      int
	boardPx int
	barH    int
	width   int
	height  int
}

func newLayout(opts Options) layout {
	sq := opts.SquareSize
	if sq <= 0 {
		sq = DefaultOptions().SquareSize
	}
	l := layout{sq: sq, boardPx: 8 * sq, width: 8 * sq}
	if !opts.HideBar {
		l.barH = sq / 2
	}
	l.height = l.boardPx + l.barH
	return l
}

// origin returns the top-left pixel of sq with rank 8 at the top.
func (l layout) origin(sq chess.Square) (x, y int) {
	return int(sq.File()) * l.sq, (7 - int(sq.Rank())) * l.sq
}

// whiteBarWidth is the white share of the bar, clamped to the bar.
func (l layout) whiteBarWidth(whitePct float64) int {
	pct := min(max(whitePct, 0), 100)
	return int(float64(l.width)*pct/100 + 0.5)
}

func isLight(sq chess.Square) bool {
	return (int(sq.File())+int(sq.Rank()))%2 == 1
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var glyphs = map[chess.Piece]string{
	chess.WhiteKing:   "♔",
	chess.WhiteQueen:  "♕",
	chess.WhiteRook:   "♖",
	chess.WhiteBishop: "♗",
	chess.WhiteKnight: "♘",
	chess.WhitePawn:   "♙",
	chess.BlackKing:   "♚",
	chess.BlackQueen:  "♛",
	chess.BlackRook:   "♜",
	chess.BlackBishop: "♝",
	chess.BlackKnight: "♞",
	chess.BlackPawn:   "♟",
}

func barLabel(bd eval.Breakdown) string {
	return fmt.Sprintf("%.1f%% / %.1f%%", bd.WhitePct, bd.BlackPct)
}
