package render

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// fitzDocument is the slice of the go-fitz API the renderer uses, kept as a
// seam so tests can substitute a fake document.
type fitzDocument interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (image.Image, error)
	Close() error
}

// fitzDoc adapts *fitz.Document, whose ImageDPI returns the concrete
// *image.RGBA, to the image.Image return the fitzDocument seam expects.
type fitzDoc struct {
	*fitz.Document
}

func (d fitzDoc) ImageDPI(pageNumber int, dpi float64) (image.Image, error) {
	return d.Document.ImageDPI(pageNumber, dpi)
}

// openFitz is swapped out in tests.
var openFitz = func(path string) (fitzDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return fitzDoc{doc}, nil
}
