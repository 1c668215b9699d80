package render

import (
	"bytes"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessperf/internal/eval"
)

func startDiagram() Diagram {
	b := chess.NewGame().Position().Board()
	return Diagram{
		Board:     b,
		Breakdown: eval.New().Evaluate(eval.FromChess(b)),
		Title:     "start <position>",
	}
}

func TestSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, startDiagram(), DefaultOptions()))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "♔")
	assert.Contains(t, out, "♟")
	assert.Contains(t, out, "50.0% / 50.0%")
	assert.Contains(t, out, "start &lt;position&gt;")
	// 64 squares + 2 bar rectangles
	assert.Equal(t, 66, strings.Count(out, "<rect"))
}

func TestSVGWithoutBar(t *testing.T) {
	opts := DefaultOptions()
	opts.HideBar = true
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, startDiagram(), opts))
	assert.Equal(t, 64, strings.Count(buf.String(), "<rect"))
	assert.NotContains(t, buf.String(), "%")
}

func TestLayout(t *testing.T) {
	l := newLayout(Options{SquareSize: 10})
	assert.Equal(t, 80, l.width)
	assert.Equal(t, 85, l.height)

	x, y := l.origin(chess.A1)
	assert.Equal(t, 0, x)
	assert.Equal(t, 70, y)
	x, y = l.origin(chess.H8)
	assert.Equal(t, 70, x)
	assert.Equal(t, 0, y)

	assert.Equal(t, 0, l.whiteBarWidth(-20))
	assert.Equal(t, 40, l.whiteBarWidth(50))
	assert.Equal(t, 80, l.whiteBarWidth(150))

	assert.False(t, isLight(chess.A1))
	assert.True(t, isLight(chess.H1))
}

func TestPNG(t *testing.T) {
	opts := DefaultOptions()
	opts.SquareSize = 20

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, startDiagram(), opts))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 170, img.Bounds().Dy())

	// Corner pixel of the empty square a3 is dark.
	r, g, b, _ := img.At(1, 5*20+1).RGBA()
	want := opts.Dark
	assert.Equal(t, color.RGBA{want.R, want.G, want.B, 0xff},
		color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff})
}
