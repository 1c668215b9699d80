// Package game turns PGN, SAN movetext and FEN input into notnil/chess games.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
)

// ErrEmptyGame is returned when the input holds no game at all.
var ErrEmptyGame = errors.New("game: no game in input")

// ParsePGN reads the first game of a PGN document.
func ParsePGN(r io.Reader) (*chess.Game, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pgn: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyGame
	}
	opt, err := chess.PGN(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pgn: %w", err)
	}
	return chess.NewGame(opt), nil
}

// FromFEN returns a game positioned at fen with no moves played.
func FromFEN(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return chess.NewGame(opt), nil
}

// FromMovetext replays bare SAN movetext from the starting position.
// Move numbers, results, comments, NAGs and annotation glyphs are skipped.
// Empty movetext yields a game with no moves.
func FromMovetext(movetext string) (*chess.Game, error) {
	g := chess.NewGame()
	for i, tok := range Tokens(movetext) {
		if err := applySAN(g, tok); err != nil {
			return nil, fmt.Errorf("ply %d %q: %w", i+1, tok, err)
		}
	}
	return g, nil
}

// Tokens splits movetext into its SAN moves.
func Tokens(movetext string) []string {
	var out []string
	depth := 0
	for _, f := range strings.Fields(stripComments(movetext)) {
		// Variations are skipped whole.
		if strings.HasPrefix(f, "(") {
			depth += strings.Count(f, "(")
		}
		if depth > 0 {
			depth -= strings.Count(f, ")")
			continue
		}
		if tok := cleanToken(f); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// PlyCount returns the number of SAN moves in movetext.
func PlyCount(movetext string) int {
	return len(Tokens(movetext))
}

func stripComments(s string) string {
	var b strings.Builder
	inBrace := false
	for _, r := range s {
		switch {
		case r == '{':
			inBrace = true
		case r == '}':
			inBrace = false
			b.WriteRune(' ')
		case !inBrace:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cleanToken(f string) string {
	switch f {
	case "1-0", "0-1", "1/2-1/2", "*":
		return ""
	}
	if strings.HasPrefix(f, "$") {
		return ""
	}
	// "12." "12..." or "12.e4"
	if i := strings.LastIndexByte(f, '.'); i >= 0 && isMoveNumber(f[:i+1]) {
		f = f[i+1:]
	}
	return strings.TrimRight(f, "!?")
}

func isMoveNumber(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
		default:
			return false
		}
	}
	return digits > 0
}

// applySAN plays tok, retrying with the check suffix toggled so both
// "Qh5" and "Qh5+" resolve regardless of how the source wrote it.
func applySAN(g *chess.Game, tok string) error {
	err := g.MoveStr(tok)
	if err == nil {
		return nil
	}
	bare := strings.TrimRight(tok, "+#")
	for _, alt := range []string{bare, bare + "+", bare + "#"} {
		if alt == tok {
			continue
		}
		if g.MoveStr(alt) == nil {
			return nil
		}
	}
	return err
}

// Tag returns the value of a PGN tag pair, or "" when absent.
func Tag(g *chess.Game, key string) string {
	tp := g.GetTagPair(key)
	if tp == nil {
		return ""
	}
	return tp.Value
}

// Scan calls fn for every game of a multi-game PGN stream in order.
// Scanning stops at the first error from the parser or fn, or when ctx is
// done.
func Scan(ctx context.Context, r io.Reader, fn func(i int, g *chess.Game) error) error {
	sc := chess.NewScanner(r)
	for i := 0; sc.Scan(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i, sc.Next()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("scan pgn: %w", err)
	}
	return nil
}

// ReadAll collects every game of a PGN stream.
func ReadAll(ctx context.Context, r io.Reader) ([]*chess.Game, error) {
	var games []*chess.Game
	err := Scan(ctx, r, func(_ int, g *chess.Game) error {
		games = append(games, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

// MoveStrings returns the game's moves in algebraic notation.
func MoveStrings(g *chess.Game) []string {
	moves := g.Moves()
	positions := g.Positions()
	out := make([]string, 0, len(moves))
	for i, m := range moves {
		out = append(out, chess.AlgebraicNotation{}.Encode(positions[i], m))
	}
	return out
}
