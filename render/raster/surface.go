// Package raster is the in-process rendering surface: it paints the scene for the row under
// the preview cursor with fogleman/gg and encodes snapshots with disintegration/imaging.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"math"
	"net/http"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/placeholders"
	"github.com/zeptools/certmerge/render"
)

// Scene is the read side of the scene store the surface paints from
type Scene interface {
	SortedElements() elements.List
	CanvasSize() elements.Size
	Background() elements.Background
}

// Data is the read side of the data binding store
type Data interface {
	placeholders.Source
	CurrentPreviewIndex() int
}

type Surface struct {
	scene  Scene
	data   Data
	fonts  *Fonts
	images *imageCache
	mu     sync.Mutex // one paint at a time: the scene and cursor are shared
}

// Ensure Surface implements render.Surface and render.Repainter
var (
	_ render.Surface   = (*Surface)(nil)
	_ render.Repainter = (*Surface)(nil)
)

type Option func(*Surface)

func WithFonts(f *Fonts) Option {
	return func(s *Surface) { s.fonts = f }
}

// WithHTTPClient sets the client used to fetch http(s) image sources
func WithHTTPClient(c *http.Client) Option {
	return func(s *Surface) { s.images = newImageCache(c) }
}

func New(scene Scene, data Data, opts ...Option) *Surface {
	s := &Surface{
		scene:  scene,
		data:   data,
		fonts:  NewFonts(nil),
		images: newImageCache(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// frame - the scene resolved against one row, ready to paint
type frame struct {
	size  elements.Size
	bg    elements.Background
	row   int
	items []item
}

type item struct {
	el   elements.Element
	text string
}

func (s *Surface) compose() frame {
	row := s.data.CurrentPreviewIndex()
	list := s.scene.SortedElements()
	f := frame{
		size:  s.scene.CanvasSize(),
		bg:    s.scene.Background(),
		row:   row,
		items: make([]item, len(list)),
	}
	for i, e := range list {
		f.items[i] = item{el: e, text: placeholders.Display(e, row, s.data)}
	}
	return f
}

// Repaint resolves the scene for the current row and loads every image it needs.
// When it returns, a Snapshot reflects the committed cursor without further waiting.
func (s *Surface) Repaint(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.compose()
	for _, it := range f.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if img, ok := it.el.(*elements.Image); ok {
			s.images.warm(ctx, img.Src)
		}
	}
	return nil
}

// Render paints the current scene at ratio times the logical canvas size.
func (s *Surface) Render(ctx context.Context, ratio float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rasterize(ctx, s.compose(), ratio)
}

func (s *Surface) Snapshot(ctx context.Context, opts render.SnapshotOptions) ([]byte, error) {
	opts = opts.Normalize()
	img, err := s.Render(ctx, opts.PixelRatio)
	if err != nil {
		return nil, err
	}
	return Encode(img, opts)
}

func (s *Surface) rasterize(ctx context.Context, f frame, ratio float64) (image.Image, error) {
	if ratio <= 0 {
		ratio = 1
	}
	w := int(math.Round(f.size.Width * ratio))
	h := int(math.Round(f.size.Height * ratio))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canvas size %gx%g is not renderable", f.size.Width, f.size.Height)
	}
	p := newPainter(ctx, w, h, ratio, s.fonts, s.images)
	p.background(f.size, f.bg)
	for _, it := range f.items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.element(it)
	}
	return p.dc.Image(), nil
}

// Encode writes img in the requested format. JPEG quality maps 0..1 onto 1..100.
func Encode(img image.Image, opts render.SnapshotOptions) ([]byte, error) {
	opts = opts.Normalize()
	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case render.PNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case render.JPEG:
		q := int(math.Round(opts.Quality * 100))
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(int(clamp(float64(q), 1, 100))))
	default:
		return nil, fmt.Errorf("unsupported snapshot format %q", opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", opts.Format, err)
	}
	return buf.Bytes(), nil
}

// Thumbnail renders the current scene scaled to maxWidth pixels wide, as a PNG data URL.
func Thumbnail(ctx context.Context, s *Surface, maxWidth int) (string, error) {
	img, err := s.Render(ctx, 1)
	if err != nil {
		return "", err
	}
	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Box)
	}
	data, err := Encode(img, render.SnapshotOptions{Format: render.PNG})
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}
