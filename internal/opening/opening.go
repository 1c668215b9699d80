// Package opening names the ECO opening a game follows.
package opening

import (
	"sync"

	"github.com/notnil/chess"
	eco "github.com/notnil/chess/opening"
)

// Opening is an ECO classification.
type Opening struct {
	Code  string `json:"eco"`
	Title string `json:"title"`
}

// Classifier looks games up in the ECO book. The book is built on first use
// and shared by all callers.
type Classifier struct {
	once sync.Once
	book *eco.BookECO
}

// NewClassifier returns a classifier with a lazily built book.
func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) load() *eco.BookECO {
	c.once.Do(func() {
		c.book = eco.NewBookECO()
	})
	return c.book
}

// Classify returns the deepest book opening matching g's moves.
func (c *Classifier) Classify(g *chess.Game) (Opening, bool) {
	if c == nil || g == nil {
		return Opening{}, false
	}
	moves := g.Moves()
	if len(moves) == 0 {
		return Opening{}, false
	}
	o := c.load().Find(moves)
	if o == nil {
		return Opening{}, false
	}
	return Opening{Code: o.Code(), Title: o.Title()}, true
}

// Candidates lists every book opening still reachable from g's moves.
func (c *Classifier) Candidates(g *chess.Game) []Opening {
	if c == nil || g == nil {
		return nil
	}
	var out []Opening
	for _, o := range c.load().Possible(g.Moves()) {
		out = append(out, Opening{Code: o.Code(), Title: o.Title()})
	}
	return out
}
