package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register the WebP decoder for uploaded images
)

// maxImageBytes bounds a single fetched image source
const maxImageBytes = 32 << 20

// imageCache decodes image sources once per surface.
// Sources are data: URLs, http(s) URLs or local file paths.
// Failed sources are remembered too, so a broken image is reported once and then skipped,
// the way the editor simply leaves it blank.
type imageCache struct {
	client *http.Client
	mu     sync.Mutex
	byKey  map[string]cachedImage
}

type cachedImage struct {
	img image.Image
	err error
}

func newImageCache(client *http.Client) *imageCache {
	if client == nil {
		client = http.DefaultClient
	}
	return &imageCache{client: client, byKey: make(map[string]cachedImage)}
}

func (c *imageCache) get(ctx context.Context, src string) (image.Image, error) {
	c.mu.Lock()
	entry, ok := c.byKey[src]
	c.mu.Unlock()
	if ok {
		return entry.img, entry.err
	}
	img, err := c.load(ctx, src)
	if err != nil && ctx.Err() != nil {
		return nil, err // not cached: the source may be fine on the next attempt
	}
	if err != nil {
		log.Printf("[WARN][RENDER] image %s skipped: %v", abbreviate(src), err)
	}
	c.mu.Lock()
	c.byKey[src] = cachedImage{img: img, err: err}
	c.mu.Unlock()
	return img, err
}

// warm loads src into the cache, ignoring failures
func (c *imageCache) warm(ctx context.Context, src string) {
	_, _ = c.get(ctx, src)
}

func abbreviate(src string) string {
	if len(src) > 64 {
		return src[:61] + "..."
	}
	return src
}

func (c *imageCache) load(ctx context.Context, src string) (image.Image, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("empty image source")
	case strings.HasPrefix(src, "data:"):
		data, err := decodeDataURL(src)
		if err != nil {
			return nil, err
		}
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return c.fetch(ctx, src)
	}
	return imaging.Open(src, imaging.AutoOrientation(true))
}

func (c *imageCache) fetch(ctx context.Context, src string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image %s: status %d", src, res.StatusCode)
	}
	return imaging.Decode(io.LimitReader(res.Body, maxImageBytes), imaging.AutoOrientation(true))
}

// decodeDataURL accepts `data:[<mediatype>][;base64],<data>`
func decodeDataURL(src string) ([]byte, error) {
	comma := strings.IndexByte(src, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data URL")
	}
	meta, payload := src[len("data:"):comma], src[comma+1:]
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// fitImage stretches img to w x h pixels, the way the editor draws an image element,
// and applies the element opacity.
func fitImage(img image.Image, w, h int, opacity float64) image.Image {
	if w <= 0 || h <= 0 {
		return nil
	}
	out := imaging.Resize(img, w, h, imaging.Lanczos)
	if opacity >= 1 {
		return out
	}
	return imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
		return withOpacity(c, opacity)
	})
}
