package pdfs

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
)

var ErrEmptyImage = errors.New("pdfs: empty page image")

// FPDF is the go-pdf/fpdf backed Encoder.
type FPDF struct {
	Creator     string
	Compression bool
	// CreatedAt pins the document creation date. Zero means the time of encoding.
	CreatedAt time.Time
}

// Ensure FPDF implements Encoder
var _ Encoder = (*FPDF)(nil)

func NewFPDF(creator string) *FPDF {
	return &FPDF{Creator: creator, Compression: true}
}

func (e *FPDF) MakePage(image []byte, widthPx, heightPx float64, o Orientation) ([]byte, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if widthPx <= 0 || heightPx <= 0 {
		return nil, fmt.Errorf("pdfs: invalid page size %gx%g", widthPx, heightPx)
	}
	w, h := PtFromPx(widthPx), PtFromPx(heightPx)

	// fpdf swaps the size for "L", so the size is always given portrait-wise
	orientation := "P"
	if o == Landscape {
		orientation = "L"
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: math.Min(w, h), Ht: math.Max(w, h)},
	})
	pdf.SetCompression(e.Compression)
	if e.Creator != "" {
		pdf.SetCreator(e.Creator, true)
	}
	if !e.CreatedAt.IsZero() {
		pdf.SetCreationDate(e.CreatedAt)
	}
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opt := fpdf.ImageOptions{ImageType: imageType(image)}
	pdf.RegisterImageOptionsReader("page", opt, bytes.NewReader(image))
	pageW, pageH := pdf.GetPageSize()
	pdf.ImageOptions("page", 0, 0, pageW, pageH, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdfs: %w", err)
	}
	return buf.Bytes(), nil
}

func imageType(data []byte) string {
	if bytes.HasPrefix(data, []byte("\x89PNG")) {
		return "PNG"
	}
	return "JPG"
}
