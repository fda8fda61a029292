// Package batch renders one document per data row and bundles them into a single archive.
// Rows are processed strictly one at a time: every row shares the one canvas and the one
// preview cursor.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeptools/certmerge/archives"
	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/jsontime"
	"github.com/zeptools/certmerge/pdfs"
	"github.com/zeptools/certmerge/placeholders"
	"github.com/zeptools/certmerge/render"
)

// Selection is cleared before rendering so no selection outline lands in the output.
type Selection interface {
	ClearSelection()
}

type Cursor interface {
	RowCount() int
	CurrentPreviewIndex() int
	SetCurrentPreviewIndex(i int)
	ReplacementValueAt(field string, row int) string
	UnboundFields(fields []string) []string
}

type Canvas interface {
	CanvasSize() elements.Size
}

// Scene is implemented by canvases that can list their elements.
// Run then reports every template field without a column mapping.
type Scene interface {
	SortedElements() elements.List
}

// Saver hands the finished bundle to wherever it should end up.
type Saver interface {
	Save(ctx context.Context, name string, bundle []byte) error
}

type Deps struct {
	Selection Selection
	Cursor    Cursor
	Canvas    Canvas
	Surface   render.Surface
	Encoder   pdfs.Encoder
	Archives  archives.Factory
	Saver     Saver
}

type Options struct {
	PixelRatio       float64       `json:"pixel_ratio"`
	Format           render.Format `json:"format"`
	Quality          float64       `json:"quality"`
	SettleDelay      time.Duration `json:"settle_delay"` // used only when the surface cannot signal a finished repaint. JSON: "100ms"
	Folder           string        `json:"folder"`
	BundleName       string        `json:"bundle_name"`
	CompressionLevel int           `json:"compression_level"`
	NameField        string        `json:"name_field"`
}

func (o Options) MarshalJSON() ([]byte, error) {
	type plain Options
	return json.Marshal(struct {
		plain
		SettleDelay jsontime.Duration `json:"settle_delay"`
	}{plain(o), jsontime.Duration(o.SettleDelay)})
}

// UnmarshalJSON overlays data on o: absent keys keep their current values
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	aux := struct {
		*plain
		SettleDelay jsontime.Duration `json:"settle_delay"`
	}{plain: (*plain)(o), SettleDelay: jsontime.Duration(o.SettleDelay)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.SettleDelay = time.Duration(aux.SettleDelay)
	return nil
}

func DefaultOptions() Options {
	return Options{
		PixelRatio:       3,
		Format:           render.JPEG,
		Quality:          1.0,
		SettleDelay:      100 * time.Millisecond,
		Folder:           "certificates",
		BundleName:       "certificates.zip",
		CompressionLevel: 6,
		NameField:        "name",
	}
}

// withDefaults fills zero fields. CompressionLevel 0 is a valid level and is kept.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PixelRatio <= 0 {
		o.PixelRatio = d.PixelRatio
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = d.Quality
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = d.SettleDelay
	}
	if o.Folder == "" {
		o.Folder = d.Folder
	}
	if o.BundleName == "" {
		o.BundleName = d.BundleName
	}
	if o.NameField == "" {
		o.NameField = d.NameField
	}
	return o
}

// Result of a run that got past its preconditions
type Result struct {
	State  State
	Files  []string // archive entry names, in row order
	Bundle int      // bundle size in bytes, Completed only
}

type Pipeline struct {
	deps Deps
	opts Options

	OnProgress    func(percent int, row int) // row is 1-based
	OnStateChange func(State)

	running   sync.Mutex // held for the whole run
	cancelReq atomic.Bool

	mu     sync.Mutex
	status Status
}

func New(deps Deps, opts Options) *Pipeline {
	return &Pipeline{
		deps:   deps,
		opts:   opts.withDefaults(),
		status: Status{State: Idle},
	}
}

func (p *Pipeline) Options() Options { return p.opts }

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Cancel asks a running batch to stop before its next row. It reports whether a run was active.
func (p *Pipeline) Cancel() bool {
	if p.Status().State != Running {
		return false
	}
	p.cancelReq.Store(true)
	log.Print("[INFO][BATCH] cancel requested")
	return true
}

// Reset returns a finished pipeline to Idle. Running pipelines are left alone.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	if p.status.State == Running || p.status.State == Idle {
		p.mu.Unlock()
		return
	}
	p.status = Status{State: Idle}
	p.mu.Unlock()
	p.notifyState(Idle)
}

func (p *Pipeline) setState(s State, mutate func(*Status)) {
	p.mu.Lock()
	p.status.State = s
	if mutate != nil {
		mutate(&p.status)
	}
	p.mu.Unlock()
	p.notifyState(s)
}

func (p *Pipeline) notifyState(s State) {
	if p.OnStateChange != nil {
		p.OnStateChange(s)
	}
}

func (p *Pipeline) unboundFields() []string {
	sc, ok := p.deps.Canvas.(Scene)
	if !ok {
		return nil
	}
	return p.deps.Cursor.UnboundFields(placeholders.TemplateFields(sc.SortedElements()))
}

func (p *Pipeline) checkPreconditions() error {
	d := p.deps
	if d.Cursor == nil || d.Cursor.RowCount() == 0 {
		return ErrNoRows
	}
	if d.Surface == nil || d.Canvas == nil || d.Encoder == nil || d.Archives == nil || d.Saver == nil {
		return ErrNoSurface
	}
	size := d.Canvas.CanvasSize()
	if size.Width <= 0 || size.Height <= 0 {
		return ErrNoSurface
	}
	return nil
}

// Run renders every row. Input errors return before any state changes.
// Cancellation is not an error: the Result carries the Cancelled state.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	if !p.running.TryLock() {
		return Result{}, ErrBusy
	}
	defer p.running.Unlock()

	if err := p.checkPreconditions(); err != nil {
		log.Printf("[WARN][BATCH] not started: %v", err)
		return Result{}, err
	}
	p.Reset()
	p.cancelReq.Store(false)

	cur := p.deps.Cursor
	total := cur.RowCount()
	origin := cur.CurrentPreviewIndex()
	defer p.restoreCursor(origin)

	if unbound := cur.UnboundFields([]string{p.opts.NameField}); len(unbound) > 0 {
		log.Printf("[WARN][BATCH] field %q is not mapped: every document will be named %s.pdf",
			p.opts.NameField, binding.Marker(p.opts.NameField))
	}

	unbound := p.unboundFields()
	if len(unbound) > 0 {
		log.Printf("[WARN][BATCH] template fields without a column: %s (their tokens stay as typed)",
			strings.Join(unbound, ", "))
	}

	p.setState(Running, func(s *Status) {
		*s = Status{State: Running, Total: total, StartedAt: time.Now(), Unbound: unbound}
	})
	log.Printf("[INFO][BATCH] started: %d rows", total)

	if p.deps.Selection != nil {
		p.deps.Selection.ClearSelection()
	}

	// in-flight rows are not interrupted: cancellation is observed between rows only
	work := context.WithoutCancel(ctx)
	archive := p.deps.Archives()
	size := p.deps.Canvas.CanvasSize()
	orientation := pdfs.OrientationFor(size.Width, size.Height)
	files := make([]string, 0, total)

	for i := 0; i < total; i++ {
		if p.cancelReq.Load() || ctx.Err() != nil {
			log.Printf("[INFO][BATCH] cancelled after %d of %d rows", i, total)
			p.finish(Cancelled, nil, "")
			return Result{State: Cancelled, Files: files}, nil
		}
		p.mu.Lock()
		p.status.Row = i + 1
		p.mu.Unlock()

		name, err := p.renderRow(work, i, size, orientation, archive)
		if err != nil {
			rowErr := &RowError{Row: i + 1, Err: err}
			log.Printf("[ERROR][BATCH] %v", rowErr)
			p.finish(Failed, rowErr, "")
			return Result{State: Failed, Files: files}, rowErr
		}
		files = append(files, name)

		percent := Progress(i+1, total)
		p.mu.Lock()
		p.status.Progress = percent
		p.status.Files = archive.Len()
		p.mu.Unlock()
		if p.OnProgress != nil {
			p.OnProgress(percent, i+1)
		}
	}

	bundle, err := archive.Finalize(p.opts.CompressionLevel)
	if err == nil {
		err = p.deps.Saver.Save(work, p.opts.BundleName, bundle)
	}
	if err != nil {
		err = fmt.Errorf("failed to save %s: %w", p.opts.BundleName, err)
		log.Printf("[ERROR][BATCH] %v", err)
		p.finish(Failed, err, "")
		return Result{State: Failed, Files: files}, err
	}
	log.Printf("[INFO][BATCH] completed: %d documents, %d bytes", len(files), len(bundle))
	p.finish(Completed, nil, p.opts.BundleName)
	return Result{State: Completed, Files: files, Bundle: len(bundle)}, nil
}

func (p *Pipeline) renderRow(ctx context.Context, i int, size elements.Size, o pdfs.Orientation, archive archives.Writer) (string, error) {
	cur := p.deps.Cursor
	cur.SetCurrentPreviewIndex(i)
	if err := p.settle(ctx); err != nil {
		return "", fmt.Errorf("repaint: %w", err)
	}
	img, err := p.deps.Surface.Snapshot(ctx, render.SnapshotOptions{
		PixelRatio: p.opts.PixelRatio,
		Format:     p.opts.Format,
		Quality:    p.opts.Quality,
	})
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	doc, err := p.deps.Encoder.MakePage(img, size.Width, size.Height, o)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	name := cur.ReplacementValueAt(p.opts.NameField, i) + ".pdf"
	if err = archive.AddFile(p.opts.Folder, name, doc); err != nil {
		return "", fmt.Errorf("archive %s: %w", name, err)
	}
	return name, nil
}

// settle waits until the surface shows the committed cursor
func (p *Pipeline) settle(ctx context.Context) error {
	if r, ok := p.deps.Surface.(render.Repainter); ok {
		return r.Repaint(ctx)
	}
	t := time.NewTimer(p.opts.SettleDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) finish(s State, err error, bundle string) {
	p.setState(s, func(st *Status) {
		st.FinishedAt = time.Now()
		st.Bundle = bundle
		if err != nil {
			st.Error = err.Error()
		}
	})
}

func (p *Pipeline) restoreCursor(origin int) {
	p.deps.Cursor.SetCurrentPreviewIndex(origin)
	if r, ok := p.deps.Surface.(render.Repainter); ok {
		if err := r.Repaint(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[WARN][BATCH] repaint after restoring the preview row: %v", err)
		}
	}
}
