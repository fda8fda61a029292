package raster

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// builtin faces, keyed by a "go:" pseudo path so they share the per-size cache
var builtinTTF = map[string][]byte{
	"go:regular":     goregular.TTF,
	"go:bold":        gobold.TTF,
	"go:italic":      goitalic.TTF,
	"go:bold-italic": gobolditalic.TTF,
}

func builtinPath(bold, italic bool) string {
	switch {
	case bold && italic:
		return "go:bold-italic"
	case bold:
		return "go:bold"
	case italic:
		return "go:italic"
	}
	return "go:regular"
}

// Fonts maps font families to TrueType files and caches loaded faces per size.
// Keys of the file map are the family name, optionally suffixed with " Bold", " Italic"
// or " Bold Italic". The key "default" catches unknown families.
// Without any usable file, text is set in the embedded Go fonts at the requested size;
// the fixed 7x13 bitmap face is the last resort.
type Fonts struct {
	files  map[string]string
	mu     sync.Mutex
	faces  map[faceKey]font.Face
	parsed map[string]*opentype.Font
	warned map[string]bool
}

type faceKey struct {
	path string
	size float64
}

func NewFonts(files map[string]string) *Fonts {
	normalized := make(map[string]string, len(files))
	for k, v := range files {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Fonts{
		files:  normalized,
		faces:  make(map[faceKey]font.Face),
		parsed: make(map[string]*opentype.Font),
		warned: make(map[string]bool),
	}
}

// Face returns a face for the family and style at size pixels.
func (f *Fonts) Face(family string, bold, italic bool, size float64) font.Face {
	if size <= 0 {
		size = 1
	}
	path := f.lookup(family, bold, italic)
	if f == nil {
		return basicfont.Face7x13
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if path != "" {
		key := faceKey{path: path, size: size}
		if face, ok := f.faces[key]; ok {
			return face
		}
		face, err := gg.LoadFontFace(path, size)
		if err == nil {
			f.faces[key] = face
			return face
		}
		if !f.warned[path] {
			log.Printf("[WARN][RENDER] font %q unusable, falling back to the built-in face: %v", path, err)
			f.warned[path] = true
		}
	}
	return f.builtin(builtinPath(bold, italic), size)
}

// builtin expects f.mu held
func (f *Fonts) builtin(name string, size float64) font.Face {
	key := faceKey{path: name, size: size}
	if face, ok := f.faces[key]; ok {
		return face
	}
	otf, ok := f.parsed[name]
	if !ok {
		var err error
		if otf, err = opentype.Parse(builtinTTF[name]); err != nil {
			log.Printf("[ERROR][RENDER] parsing built-in font %s: %v", name, err)
			return basicfont.Face7x13
		}
		f.parsed[name] = otf
	}
	// DPI 72 so that size is in pixels, like gg.LoadFontFace
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("[ERROR][RENDER] built-in font %s at %.1fpx: %v", name, size, err)
		return basicfont.Face7x13
	}
	f.faces[key] = face
	return face
}

func (f *Fonts) lookup(family string, bold, italic bool) string {
	if f == nil {
		return ""
	}
	family = strings.ToLower(strings.TrimSpace(family))
	candidates := make([]string, 0, 4)
	switch {
	case bold && italic:
		candidates = append(candidates, family+" bold italic", family+" italic bold")
	case bold:
		candidates = append(candidates, family+" bold")
	case italic:
		candidates = append(candidates, family+" italic")
	}
	candidates = append(candidates, family, "default")
	for _, c := range candidates {
		if p, ok := f.files[c]; ok && p != "" {
			return p
		}
	}
	return ""
}

func (f *Fonts) String() string {
	return fmt.Sprintf("Fonts(%d files)", len(f.files))
}
