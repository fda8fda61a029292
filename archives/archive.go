// Package archives collects generated documents into one downloadable bundle.
package archives

import "errors"

var ErrEmptyName = errors.New("archives: empty file name")

// Writer accumulates files in memory until Finalize produces the bundle.
type Writer interface {
	AddFile(folder, name string, data []byte) error
	Finalize(level int) ([]byte, error)
	Len() int
}

// Factory creates a fresh, empty Writer. One per batch run.
type Factory func() Writer
