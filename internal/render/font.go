package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontErr     error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		regularFont, fontErr = opentype.Parse(goregular.TTF)
		if fontErr != nil {
			return
		}
		boldFont, fontErr = opentype.Parse(gobold.TTF)
	})
	return fontErr
}

// faces returns a bold face for piece letters and a regular one for labels.
// Callers close both.
func faces(pieceSize, labelSize float64) (piece, label font.Face, err error) {
	if err := loadFonts(); err != nil {
		return nil, nil, err
	}
	piece, err = opentype.NewFace(boldFont, &opentype.FaceOptions{
		Size:    pieceSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, nil, err
	}
	label, err = opentype.NewFace(regularFont, &opentype.FaceOptions{
		Size:    labelSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		piece.Close()
		return nil, nil, err
	}
	return piece, label, nil
}
