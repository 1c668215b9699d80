package dataset

import (
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"github.com/hailam/chessperf/internal/game"
)

// MatchFromGame builds a dataset row from a PGN game's tag pairs and moves,
// so a trained model can score games that are not in a CSV. Missing or
// unparsable rating tags are 0.
func MatchFromGame(g *chess.Game) Match {
	m := Match{
		WhiteElo:        tagFloat(g, ColWhiteElo),
		BlackElo:        tagFloat(g, ColBlackElo),
		WhiteRatingDiff: tagFloat(g, ColWhiteRatingDiff),
		Opening:         game.Tag(g, ColOpening),
		ECO:             game.Tag(g, ColECO),
		Event:           game.Tag(g, ColEvent),
		TimeControl:     game.Tag(g, ColTimeControl),
		Result:          game.Tag(g, ColResult),
		Moves:           strings.Join(game.MoveStrings(g), " "),
	}
	if m.Result == "" && g.Outcome() != chess.NoOutcome {
		m.Result = string(g.Outcome())
	}
	return m
}

func tagFloat(g *chess.Game, key string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(game.Tag(g, key)), 64)
	if err != nil {
		return 0
	}
	return v
}
