package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/notnil/chess"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Image rasterizes the diagram. Squares and the bar come from the SVG
// drawing; pieces are drawn as letters.
func Image(d Diagram, opts Options) (*image.RGBA, error) {
	l := newLayout(opts)

	var buf bytes.Buffer
	if err := writeSVG(&buf, d, opts, false); err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(&buf, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse diagram: %w", err)
	}
	icon.SetTarget(0, 0, float64(l.width), float64(l.height))

	rgba := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	scanner := rasterx.NewScannerGV(l.width, l.height, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(l.width, l.height, scanner)
	icon.Draw(raster, 1.0)

	pieceFace, labelFace, err := faces(float64(l.sq)*0.6, float64(max(l.barH, 8))*0.6)
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	defer pieceFace.Close()
	defer labelFace.Close()

	if d.Board != nil {
		for sq := chess.A1; sq <= chess.H8; sq++ {
			p := d.Board.Piece(sq)
			if p == chess.NoPiece {
				continue
			}
			x, y := l.origin(sq)
			drawPiece(rgba, pieceFace, p, x, y, l.sq)
		}
	}
	if l.barH > 0 {
		drawCentered(rgba, labelFace, barLabel(d.Breakdown), color.RGBA{0x80, 0x80, 0x80, 0xff},
			l.width/2, l.boardPx+l.barH/2)
	}
	return rgba, nil
}

// PNG writes the diagram as a PNG image.
func PNG(w io.Writer, d Diagram, opts Options) error {
	img, err := Image(d, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func drawPiece(dst *image.RGBA, face font.Face, p chess.Piece, x, y, size int) {
	letter := strings.ToUpper(p.Type().String())
	fg, shadow := whiteSide, blackSide
	if p.Color() == chess.Black {
		fg, shadow = blackSide, whiteSide
	}
	cx, cy := x+size/2, y+size/2
	drawCentered(dst, face, letter, shadow, cx+1, cy+1)
	drawCentered(dst, face, letter, fg, cx, cy)
}

// drawCentered draws s with its box centered on (cx, cy).
func drawCentered(dst *image.RGBA, face font.Face, s string, c color.Color, cx, cy int) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	m := face.Metrics()
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: fixed.I(cx) - width/2,
		Y: fixed.I(cy) + (m.Ascent-m.Descent)/2,
	}
	d.DrawString(s)
}
