package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeptools/certmerge/archives"
	"github.com/zeptools/certmerge/batch"
	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/conf"
	"github.com/zeptools/certmerge/editor"
	"github.com/zeptools/certmerge/elements"
	"github.com/zeptools/certmerge/pdfs"
	"github.com/zeptools/certmerge/render/raster"
	"github.com/zeptools/certmerge/scene"
	"github.com/zeptools/certmerge/templates"
	"github.com/zeptools/certmerge/uds"
)

var errCancelled = errors.New("batch cancelled")

type batchFlags struct {
	template string
	data     string
	maps     []string
	noHeader bool
	out      string
	control  string
	bundle   string
	quiet    bool
}

func newBatchCmd(app *App) *cobra.Command {
	f := &batchFlags{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Render one PDF per data row and bundle them into a ZIP",
		Example: strings.TrimSpace(`
  certmerge batch --template "Course Completion" --data people.xlsx --map name="Full Name" --out out
  certmerge batch --template exported.json --data people.csv --control /tmp/certmerge.sock
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, app, f)
		},
	}
	cmd.Flags().StringVar(&f.template, "template", "", "Template id, name, or exported .json file")
	cmd.Flags().StringVar(&f.data, "data", "", "Spreadsheet (.xlsx or .csv)")
	cmd.Flags().StringArrayVar(&f.maps, "map", nil, "Bind a placeholder field to a column: field=Column (repeatable)")
	cmd.Flags().BoolVar(&f.noHeader, "no-header", false, "First row is data; columns are named A, B, C...")
	cmd.Flags().StringVar(&f.out, "out", ".", "Directory for the bundle")
	cmd.Flags().StringVar(&f.control, "control", "", "Unix socket accepting status/cancel while the batch runs")
	cmd.Flags().StringVar(&f.bundle, "bundle", "", "Bundle file name (default from config)")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "No progress output")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

func runBatch(cmd *cobra.Command, app *App, f *batchFlags) error {
	core, err := app.openCore(cmd)
	if err != nil {
		return err
	}
	defer core.RootCancel()
	defer core.ResourceCleanUp()

	sess, err := prepareSession(core.RootCtx, core, f)
	if err != nil {
		return err
	}

	opts := core.Batch
	if f.bundle != "" {
		opts.BundleName = f.bundle
	}
	p := sess.Pipeline(batch.Deps{
		Encoder:  pdfs.NewFPDF(core.AppName),
		Archives: archives.NewZIPFactory(core.MaxBundleMB << 20),
		Saver:    batch.DirSaver{Dir: f.out},
	}, opts)

	if !f.quiet {
		rep := newReporter(cmd.ErrOrStderr(), sess.Data.RowCount())
		p.OnProgress = rep.Progress
		p.OnStateChange = rep.State
	}

	if f.control != "" {
		core.PrepareUDSService(f.control, uds.BatchCommands(p))
		if err = core.StartServices(); err != nil {
			return fmt.Errorf("control socket: %w", err)
		}
		defer core.StopServices()
	}

	res, err := sess.RunBatch(core.RootCtx, p)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch res.State {
	case batch.Cancelled:
		fmt.Fprintf(out, "cancelled after %d of %d documents. nothing was saved\n", len(res.Files), sess.Data.RowCount())
		return errCancelled
	case batch.Completed:
		fmt.Fprintf(out, "%d documents -> %s (%d bytes)\n", len(res.Files), filepath.Join(f.out, p.Options().BundleName), res.Bundle)
	}
	return nil
}

// prepareSession loads the template and the data into fresh stores
func prepareSession(ctx context.Context, core *conf.Core, f *batchFlags) (*editor.Session, error) {
	tpl, err := loadTemplate(ctx, core.Templates, f.template)
	if err != nil {
		return nil, err
	}
	sess := editor.NewSession(scene.NewStore(), binding.NewStore(), core.Templates,
		raster.WithFonts(raster.NewFonts(core.FontFiles())),
		raster.WithHTTPClient(core.BackendHttpClient),
	)
	sess.Do(func(sc *scene.Store, data *binding.Store) {
		sc.LoadTemplate(tpl.Elements, tpl.CanvasSize, tpl.Background)
		data.SetHasHeaderRow(!f.noHeader)
	})

	raw, err := os.ReadFile(f.data)
	if err != nil {
		return nil, err
	}
	if _, err = sess.ImportSpreadsheet(filepath.Base(f.data), raw); err != nil {
		return nil, fmt.Errorf("import %s: %w", f.data, err)
	}

	var mapErr error
	sess.Do(func(sc *scene.Store, data *binding.Store) {
		mappings, err := applyMaps(data.Mappings(), f.maps)
		if err != nil {
			mapErr = err
			return
		}
		data.SetColumnMappings(mappings)
	})
	return sess, mapErr
}

// loadTemplate resolves ref as an exported .json file, else a stored id or name
func loadTemplate(ctx context.Context, repo *templates.Repository, ref string) (elements.Template, error) {
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		if raw, err := os.ReadFile(ref); err == nil {
			var t elements.Template
			if err = json.Unmarshal(raw, &t); err != nil {
				return elements.Template{}, fmt.Errorf("%w: %v", templates.ErrInvalid, err)
			}
			if t.CanvasSize.Width <= 0 || t.CanvasSize.Height <= 0 {
				t.CanvasSize = elements.SizeA4
			}
			return t, nil
		}
	}
	return repo.Resolve(ctx, ref)
}

// applyMaps applies field=Column overrides on top of the default mappings.
// A field is bound to one column at most.
func applyMaps(mappings []binding.Mapping, specs []string) ([]binding.Mapping, error) {
	for _, spec := range specs {
		field, column, ok := strings.Cut(spec, "=")
		field, column = strings.TrimSpace(field), strings.TrimSpace(column)
		if !ok || field == "" || column == "" {
			return nil, fmt.Errorf("bad --map %q: want field=Column", spec)
		}
		found := false
		for i := range mappings {
			switch {
			case mappings[i].ExcelColumn == column:
				mappings[i].PlaceholderField = field
				found = true
			case mappings[i].PlaceholderField == field:
				mappings[i].PlaceholderField = ""
			}
		}
		if !found {
			return nil, fmt.Errorf("bad --map %q: no column %q", spec, column)
		}
	}
	return mappings, nil
}
