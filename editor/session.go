// Package editor wires the two editor stores to the components that need them.
// A Session is built once at startup and passed explicitly; nothing here is global.
package editor

import (
	"context"
	"log"
	"sync"

	"github.com/zeptools/certmerge/batch"
	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/placeholders"
	"github.com/zeptools/certmerge/render/raster"
	"github.com/zeptools/certmerge/scene"
	"github.com/zeptools/certmerge/sheets"
	"github.com/zeptools/certmerge/templates"
)

// ThumbnailWidth bounds saved template previews
const ThumbnailWidth = 200

type Session struct {
	Scene     *scene.Store
	Data      *binding.Store
	Templates *templates.Repository
	Surface   *raster.Surface

	// the stores are not safe for concurrent use: every entry point takes mu
	mu sync.Mutex

	upload struct {
		filename string
		data     []byte
	}
}

// NewSession builds the surface over the given stores. repo may be nil when templates are not persisted.
func NewSession(sc *scene.Store, data *binding.Store, repo *templates.Repository, opts ...raster.Option) *Session {
	return &Session{
		Scene:     sc,
		Data:      data,
		Templates: repo,
		Surface:   raster.New(sc, data, opts...),
	}
}

// Do runs f with exclusive access to the stores.
func (s *Session) Do(f func(sc *scene.Store, data *binding.Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.Scene, s.Data)
}

// ImportSpreadsheet parses an upload and, only if that succeeds, replaces the dataset,
// resets the preview to the first row and proposes default column mappings.
func (s *Session) ImportSpreadsheet(filename string, data []byte) (sheets.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.importLocked(filename, data, s.Data.HasHeaderRow())
}

func (s *Session) importLocked(filename string, data []byte, hasHeader bool) (sheets.Table, error) {
	tbl, err := sheets.Import(filename, data, hasHeader)
	if err != nil {
		log.Printf("[WARN][EDITOR] import %s: %v", filename, err)
		return sheets.Table{}, err
	}
	s.Data.SetHasHeaderRow(hasHeader)
	s.Data.SetExcelData(tbl.Rows)
	s.Data.SetColumnMappings(binding.DefaultMappings(tbl.Columns))
	s.Data.SetCurrentPreviewIndex(0)
	s.upload.filename, s.upload.data = filename, data
	log.Printf("[INFO][EDITOR] imported %s: %d rows, %d columns", filename, len(tbl.Rows), len(tbl.Columns))
	return tbl, nil
}

// ReimportWithHeaderRow flips header handling and re-parses the last upload, if any.
func (s *Session) ReimportWithHeaderRow(hasHeader bool) (sheets.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upload.data == nil {
		s.Data.SetHasHeaderRow(hasHeader)
		return sheets.Table{}, nil
	}
	return s.importLocked(s.upload.filename, s.upload.data, hasHeader)
}

// Display is what e shows for the row under the preview cursor.
func (s *Session) Display(e elements.Element) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return placeholders.Display(e, s.Data.CurrentPreviewIndex(), s.Data)
}

func (s *Session) DisplayAt(e elements.Element, row int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return placeholders.Display(e, row, s.Data)
}

// SaveTemplate stores the current scene under name, with a thumbnail of the current preview.
func (s *Session) SaveTemplate(ctx context.Context, name string) (elements.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Templates == nil {
		return elements.Template{}, templates.ErrNotFound
	}
	snap := s.Scene.Snapshot(name)
	thumb, err := raster.Thumbnail(ctx, s.Surface, ThumbnailWidth)
	if err != nil {
		log.Printf("[WARN][EDITOR] thumbnail for %q: %v", name, err)
	}
	snap.Thumbnail = thumb
	return s.Templates.Save(ctx, name, snap)
}

// LoadTemplate replaces the scene with a stored template, found by id or name.
func (s *Session) LoadTemplate(ctx context.Context, ref string) (elements.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Templates == nil {
		return elements.Template{}, templates.ErrNotFound
	}
	t, err := s.Templates.Resolve(ctx, ref)
	if err != nil {
		return elements.Template{}, err
	}
	s.Scene.LoadTemplate(t.Elements, t.CanvasSize, t.Background)
	log.Printf("[INFO][EDITOR] loaded template %q (%s)", t.Name, t.ID)
	return t, nil
}

// NewTemplate starts over with an empty canvas. Canvas size and background are kept.
func (s *Session) NewTemplate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Scene.ClearCanvas()
}

// Pipeline builds a batch pipeline over this session's stores and surface.
func (s *Session) Pipeline(deps batch.Deps, opts batch.Options) *batch.Pipeline {
	deps.Selection = s.Scene
	deps.Cursor = s.Data
	deps.Canvas = s.Scene
	if deps.Surface == nil {
		deps.Surface = s.Surface
	}
	return batch.New(deps, opts)
}

// RunBatch runs p while holding the stores, so nothing else moves the cursor mid-run.
func (s *Session) RunBatch(ctx context.Context, p *batch.Pipeline) (batch.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return p.Run(ctx)
}
