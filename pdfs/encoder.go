// Package pdfs wraps a rasterized certificate into a single-page PDF document.
package pdfs

type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// OrientationFor - landscape iff the page is wider than it is tall
func OrientationFor(width, height float64) Orientation {
	if width > height {
		return Landscape
	}
	return Portrait
}

// Encoder turns one encoded raster image into a complete single-page PDF whose page has
// the given logical size in canvas pixels, with the image filling the page.
type Encoder interface {
	MakePage(image []byte, widthPx, heightPx float64, o Orientation) ([]byte, error)
}
