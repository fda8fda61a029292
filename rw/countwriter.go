// Package rw has small io.Writer helpers.
package rw

import (
	"errors"
	"fmt"
	"io"
)

var ErrLimitExceeded = errors.New("write limit exceeded")

// CountWriter counts the bytes passed through to w.
// With Max > 0, a write that would take the total past Max is refused whole.
type CountWriter struct {
	w   io.Writer
	n   int64
	Max int64
}

func NewCountWriter(w io.Writer) *CountWriter {
	return &CountWriter{w: w}
}

func NewLimitWriter(w io.Writer, max int64) *CountWriter {
	return &CountWriter{w: w, Max: max}
}

// Write implements io.Writer
func (cw *CountWriter) Write(p []byte) (int, error) {
	if cw.Max > 0 && cw.n+int64(len(p)) > cw.Max {
		return 0, fmt.Errorf("%w: %d bytes", ErrLimitExceeded, cw.Max)
	}
	n, err := cw.w.Write(p)
	cw.n += int64(n) // Write can be called many times per logical write
	return n, err
}

// BytesWritten returns the total number of bytes written
func (cw *CountWriter) BytesWritten() int64 {
	return cw.n
}
