package pdfs

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/zeptools/certmerge/elements"
)

var mediaBox = regexp.MustCompile(`/MediaBox \[0 0 ([\d.]+) ([\d.]+)\]`)

func testImage(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pageSize(t *testing.T, doc []byte) (float64, float64) {
	t.Helper()
	m := mediaBox.FindSubmatch(doc)
	if m == nil {
		t.Fatal("no MediaBox in document")
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	return w, h
}

func TestOrientationFor(t *testing.T) {
	tests := []struct {
		w, h float64
		want Orientation
	}{
		{794, 1123, Portrait},
		{1123, 794, Landscape},
		{500, 500, Portrait},
		{1000, 600, Landscape},
	}
	for _, tt := range tests {
		if got := OrientationFor(tt.w, tt.h); got != tt.want {
			t.Errorf("OrientationFor(%g, %g) = %s, want %s", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestMakePageSizes(t *testing.T) {
	enc := NewFPDF("certmerge")
	enc.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		w, h  float64
		png   bool
		wantW float64
		wantH float64
	}{
		{"a4 portrait jpeg", 794, 1123, false, 595.5, 842.25},
		{"a4 landscape jpeg", 1123, 794, false, 842.25, 595.5},
		{"custom png", 1000, 600, true, 750, 450},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := enc.MakePage(testImage(t, 16, 12, tt.png), tt.w, tt.h, OrientationFor(tt.w, tt.h))
			if err != nil {
				t.Fatalf("MakePage: %v", err)
			}
			if !bytes.HasPrefix(doc, []byte("%PDF-")) {
				t.Fatalf("not a PDF: %q", doc[:8])
			}
			w, h := pageSize(t, doc)
			if math.Abs(w-tt.wantW) > 0.01 || math.Abs(h-tt.wantH) > 0.01 {
				t.Errorf("page = %gx%g pt, want %gx%g", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestMakePageRejectsBadInput(t *testing.T) {
	enc := NewFPDF("")
	if _, err := enc.MakePage(nil, 100, 100, Portrait); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("empty image: err = %v", err)
	}
	if _, err := enc.MakePage(testImage(t, 2, 2, false), 0, 100, Portrait); err == nil {
		t.Error("zero width: expected error")
	}
	if _, err := enc.MakePage([]byte("not an image"), 100, 100, Portrait); err == nil {
		t.Error("garbage image: expected error")
	}
}

func TestPresetsInPoints(t *testing.T) {
	tests := []struct {
		size   elements.Size
		wantPt [2]float64 // rounded
	}{
		{elements.SizeA4, [2]float64{596, 842}},     // 210mm x 297mm
		{elements.SizeLetter, [2]float64{612, 792}}, // 8.5" x 11"
	}
	for _, tt := range tests {
		w, h := math.Round(PtFromPx(tt.size.Width)), math.Round(PtFromPx(tt.size.Height))
		if w != tt.wantPt[0] || h != tt.wantPt[1] {
			t.Errorf("%s = %gx%g pt, want %gx%g", tt.size.Name, w, h, tt.wantPt[0], tt.wantPt[1])
		}
	}
}
