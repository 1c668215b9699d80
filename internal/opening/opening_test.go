package opening

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func play(t *testing.T, moves ...string) *chess.Game {
	t.Helper()
	g := chess.NewGame()
	for _, m := range moves {
		require.NoError(t, g.MoveStr(m))
	}
	return g
}

func TestClassify(t *testing.T) {
	c := NewClassifier()

	o, ok := c.Classify(play(t, "e4", "d5"))
	require.True(t, ok)
	assert.Equal(t, "B01", o.Code)
	assert.Equal(t, "Scandinavian Defense", o.Title)

	_, ok = c.Classify(chess.NewGame())
	assert.False(t, ok)

	var nilClassifier *Classifier
	_, ok = nilClassifier.Classify(play(t, "e4"))
	assert.False(t, ok)
}

func TestCandidates(t *testing.T) {
	c := NewClassifier()
	cands := c.Candidates(play(t, "e4", "c5"))
	assert.NotEmpty(t, cands)
	for _, o := range cands {
		assert.Equal(t, "B", o.Code[:1])
	}
}
