// Package render defines the boundary to the rendering surface: the thing that paints
// the scene for the row under the preview cursor and hands back a rasterized snapshot.
package render

import "context"

type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

type SnapshotOptions struct {
	PixelRatio float64 // oversampling factor over the logical canvas size
	Format     Format
	Quality    float64 // 0..1, lossy formats only
}

// Surface produces an encoded image of the scene as currently committed.
type Surface interface {
	Snapshot(ctx context.Context, opts SnapshotOptions) ([]byte, error)
}

// Repainter is implemented by surfaces that can signal when a repaint has completed.
// Repaint returns once the surface reflects the latest scene and cursor state.
// Callers fall back to a bounded settle delay for surfaces without it.
type Repainter interface {
	Repaint(ctx context.Context) error
}

// Normalize fills zero values with the defaults used for print output.
func (o SnapshotOptions) Normalize() SnapshotOptions {
	if o.PixelRatio <= 0 {
		o.PixelRatio = 1
	}
	if o.Format == "" {
		o.Format = JPEG
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = 1
	}
	return o
}
