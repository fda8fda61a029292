package batch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DirSaver writes bundles into Dir, replacing any file of the same name.
type DirSaver struct {
	Dir string
}

// Ensure DirSaver implements Saver
var _ Saver = DirSaver{}

func (s DirSaver) Save(ctx context.Context, name string, bundle []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".part"
	if err := os.WriteFile(tmp, bundle, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	log.Printf("[INFO][BATCH] saved %s (%d bytes)", path, len(bundle))
	return nil
}
