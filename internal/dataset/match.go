// Package dataset loads match records and turns them into model features.
package dataset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/chessperf/internal/game"
)

var (
	// ErrNoRows is returned when no usable row survives loading or filtering.
	ErrNoRows = errors.New("dataset: no rows")

	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("dataset: missing column")
)

// Match is one row of the match dataset.
type Match struct {
	WhiteElo        float64
	BlackElo        float64
	WhiteRatingDiff float64
	Opening         string
	ECO             string
	Event           string
	TimeControl     string
	Result          string

	// Moves is either SAN movetext or a plain move count.
	Moves string
}

// MoveCount returns the number of plies in the game. A numeric Moves cell
// is taken as the count itself.
func (m Match) MoveCount() int {
	s := strings.TrimSpace(m.Moves)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return game.PlyCount(s)
}

// HasMovetext reports whether Moves holds SAN moves rather than a count.
func (m Match) HasMovetext() bool {
	s := strings.TrimSpace(m.Moves)
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err != nil
}

// vars exposes the row to filter expressions.
func (m Match) vars() map[string]any {
	return map[string]any{
		"WhiteElo":        m.WhiteElo,
		"BlackElo":        m.BlackElo,
		"WhiteRatingDiff": m.WhiteRatingDiff,
		"Opening":         m.Opening,
		"ECO":             m.ECO,
		"Event":           m.Event,
		"TimeControl":     m.TimeControl,
		"Result":          m.Result,
		"MoveCount":       int64(m.MoveCount()),
	}
}

// ParseTimeControl splits "base+increment" into seconds. Correspondence
// games ("-") and empty cells yield (-1, -1).
func ParseTimeControl(s string) (base, increment float64, err error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return -1, -1, nil
	}
	b, inc, found := strings.Cut(s, "+")
	base, err = strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("time control %q: %w", s, err)
	}
	if !found {
		return base, 0, nil
	}
	increment, err = strconv.ParseFloat(inc, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("time control %q: %w", s, err)
	}
	return base, increment, nil
}

// ParseResult maps a PGN result to white's score; unknown results are -1.
func ParseResult(s string) float64 {
	switch strings.TrimSpace(s) {
	case "1-0":
		return 1
	case "0-1":
		return 0
	case "1/2-1/2", "1/2", "0.5":
		return 0.5
	}
	return -1
}
