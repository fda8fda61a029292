package archives

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/zeptools/certmerge/rw"
)

// ZIP is an in-memory zip archive. Entries keep insertion order; adding a file under a name
// already present replaces its content in place.
type ZIP struct {
	names    []string
	files    map[string][]byte
	folders  []string
	Modified time.Time // entry timestamps, zero means the time of Finalize
	MaxBytes int64     // bundle size cap, 0 = none
}

// Ensure ZIP implements Writer
var _ Writer = (*ZIP)(nil)

func NewZIP() Writer {
	return &ZIP{files: make(map[string][]byte)}
}

// NewZIPFactory makes writers whose Finalize fails once the bundle would pass maxBytes
func NewZIPFactory(maxBytes int64) Factory {
	return func() Writer {
		return &ZIP{files: make(map[string][]byte), MaxBytes: maxBytes}
	}
}

func (z *ZIP) AddFile(folder, name string, data []byte) error {
	name = sanitize(name)
	if name == "" {
		return ErrEmptyName
	}
	folder = strings.Trim(path.Clean("/"+strings.ReplaceAll(folder, "\\", "/")), "/")
	full := name
	if folder != "" {
		full = folder + "/" + name
		z.addFolder(folder)
	}
	if _, ok := z.files[full]; !ok {
		z.names = append(z.names, full)
	} else {
		log.Printf("[WARN][ARCHIVE] %s added twice, keeping the latest", full)
	}
	z.files[full] = data
	return nil
}

func (z *ZIP) addFolder(folder string) {
	for _, f := range z.folders {
		if f == folder {
			return
		}
	}
	z.folders = append(z.folders, folder)
}

func (z *ZIP) Len() int { return len(z.names) }

// Finalize writes the archive, DEFLATE-compressing every entry at level (0..9).
// Out-of-range levels use the default compression.
func (z *ZIP) Finalize(level int) ([]byte, error) {
	if level < flate.NoCompression || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	modified := z.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	var buf bytes.Buffer
	cw := rw.NewLimitWriter(&buf, z.MaxBytes)
	zw := zip.NewWriter(cw)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	for _, folder := range z.folders {
		hdr := &zip.FileHeader{Name: folder + "/", Method: zip.Store, Modified: modified}
		if _, err := zw.CreateHeader(hdr); err != nil {
			return nil, fmt.Errorf("archives: folder %s: %w", folder, err)
		}
	}
	for _, name := range z.names {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("archives: %s: %w", name, err)
		}
		if _, err = w.Write(z.files[name]); err != nil {
			return nil, fmt.Errorf("archives: %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archives: close: %w", err)
	}
	log.Printf("[INFO][ARCHIVE] %d files, %d bytes", len(z.names), cw.BytesWritten())
	return buf.Bytes(), nil
}

// sanitize keeps a file name inside its folder
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "_", "\\", "_").Replace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
