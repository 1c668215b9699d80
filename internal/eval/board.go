package eval

import (
	"github.com/notnil/chess"
)

// Board is a read-only chess position snapshot.
type Board interface {
	// Piece returns the piece on sq, or chess.NoPiece if the square is empty.
	Piece(sq chess.Square) chess.Piece

	// KingSquare returns the square of the given color's king.
	// ok is false when that color has no king on the board.
	KingSquare(c chess.Color) (sq chess.Square, ok bool)
}

// GameRecord is a finished game that resolves to its final position.
type GameRecord interface {
	FinalBoard() Board
}

// snapshot adapts a *chess.Board to Board with the king squares cached.
type snapshot struct {
	board *chess.Board
	kings [3]chess.Square // indexed by chess.Color
}

// FromChess wraps a notnil/chess board. The wrapped board must not be mutated
// while the snapshot is in use.
func FromChess(b *chess.Board) Board {
	s := &snapshot{
		board: b,
		kings: [3]chess.Square{chess.NoSquare, chess.NoSquare, chess.NoSquare},
	}
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := b.Piece(sq)
		if p.Type() != chess.King {
			continue
		}
		// With two kings of one color the first one found wins.
		if s.kings[p.Color()] == chess.NoSquare {
			s.kings[p.Color()] = sq
		}
	}
	return s
}

func (s *snapshot) Piece(sq chess.Square) chess.Piece {
	return s.board.Piece(sq)
}

func (s *snapshot) KingSquare(c chess.Color) (chess.Square, bool) {
	if c != chess.White && c != chess.Black {
		return chess.NoSquare, false
	}
	sq := s.kings[c]
	return sq, sq != chess.NoSquare
}

// gameRecord adapts a *chess.Game. A game without moves resolves to its
// starting position.
type gameRecord struct {
	game *chess.Game
}

// FromGame wraps a notnil/chess game as a GameRecord.
func FromGame(g *chess.Game) GameRecord {
	return gameRecord{game: g}
}

func (g gameRecord) FinalBoard() Board {
	return FromChess(g.game.Position().Board())
}

// BoardRecord is a GameRecord whose final position is already known.
type BoardRecord struct {
	Board Board
}

// FinalBoard returns the stored board.
func (r BoardRecord) FinalBoard() Board {
	return r.Board
}
