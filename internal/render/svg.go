package render

import (
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/notnil/chess"
)

// SVG writes the diagram as an SVG document.
func SVG(w io.Writer, d Diagram, opts Options) error {
	return writeSVG(w, d, opts, true)
}

// writeSVG draws squares and the bar; glyphs and labels are optional since
// the rasterizer does not handle text.
func writeSVG(w io.Writer, d Diagram, opts Options, text bool) error {
	l := newLayout(opts)
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Startview(l.width, l.height, 0, 0, l.width, l.height)
	if text && d.Title != "" {
		canvas.Title(d.Title)
	}

	for sq := chess.A1; sq <= chess.H8; sq++ {
		x, y := l.origin(sq)
		fill := opts.Dark
		if isLight(sq) {
			fill = opts.Light
		}
		canvas.Rect(x, y, l.sq, l.sq, "fill:"+hex(fill))

		if !text || d.Board == nil {
			continue
		}
		if g, ok := glyphs[d.Board.Piece(sq)]; ok {
			canvas.Text(x+l.sq/2, y+l.sq*4/5, g,
				"text-anchor:middle;font-family:serif;font-size:"+strconv.Itoa(l.sq*4/5)+"px")
		}
	}

	if l.barH > 0 {
		wb := l.whiteBarWidth(d.Breakdown.WhitePct)
		canvas.Rect(0, l.boardPx, l.width, l.barH, "fill:"+hex(blackSide))
		if wb > 0 {
			canvas.Rect(0, l.boardPx, wb, l.barH, "fill:"+hex(whiteSide))
		}
		if text {
			canvas.Text(l.width/2, l.boardPx+l.barH*3/4, barLabel(d.Breakdown),
				"text-anchor:middle;font-family:sans-serif;fill:#808080;font-size:"+strconv.Itoa(l.barH*3/5)+"px")
		}
	}

	canvas.End()
	return ew.err
}

// errWriter keeps the first write error; svgo drops them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
