// Package cli is the certmerge command line: batch runs, template management and the editor API.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zeptools/certmerge/conf"
	"github.com/zeptools/certmerge/db/kvdb"
)

type App struct {
	Root   string
	KV     string
	KVPath string
	Pretty bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "certmerge",
		Short:        "Certificate templates merged with spreadsheet rows into PDF bundles",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Render one PDF per row into ./out/certificates.zip
  certmerge batch --template "Course Completion" --data people.xlsx --out out

  # Check what an import will bind before running
  certmerge inspect --data people.xlsx

  # Serve the editor API on the configured listen address
  certmerge serve
`),
	}

	cmd.PersistentFlags().StringVar(&app.Root, "root", envOr("CERTMERGE_ROOT", "."), "App root holding config/ and data/")
	cmd.PersistentFlags().StringVar(&app.KV, "kv", envOr("CERTMERGE_KV", ""), "Template store backend (memory|sqlite|redis). Overrides config/.kv-databases.json")
	cmd.PersistentFlags().StringVar(&app.KVPath, "kv-path", "", "sqlite database file")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newBatchCmd(app))
	cmd.AddCommand(newInspectCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTokenCmd(app))

	return cmd
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// openCore loads config and opens the template store.
// The returned core's RootCtx is cancelled on SIGINT/SIGTERM. Callers must ResourceCleanUp.
func (app *App) openCore(cmd *cobra.Command) (*conf.Core, error) {
	ctx, cancel := context.WithCancel(cmd.Context())
	core := &conf.Core{}
	if err := core.BaseInit(app.Root, ctx, cancel); err != nil {
		cancel()
		return nil, fmt.Errorf("load config: %w", err)
	}
	var override *kvdb.Conf
	switch {
	case app.KV != "":
		override = &kvdb.Conf{Type: app.KV, Path: app.KVPath}
	case app.KVPath != "":
		override = &kvdb.Conf{Type: "sqlite", Path: app.KVPath}
	}
	if err := core.PrepareKVDatabase(override); err != nil {
		cancel()
		return nil, fmt.Errorf("open template store: %w", err)
	}
	if err := core.PrepareTemplates(); err != nil {
		core.ResourceCleanUp()
		cancel()
		return nil, err
	}
	return core, nil
}

func (app *App) writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if app.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
