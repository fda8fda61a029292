package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTemplatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Manage saved certificate templates",
	}
	cmd.AddCommand(newTemplatesListCmd(app))
	cmd.AddCommand(newTemplatesShowCmd(app))
	cmd.AddCommand(newTemplatesDeleteCmd(app))
	cmd.AddCommand(newTemplatesImportCmd(app))
	return cmd
}

func newTemplatesListCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			list, err := core.Templates.List(core.RootCtx)
			if err != nil {
				return err
			}
			if asJSON {
				for i := range list {
					list[i].Thumbnail = ""
				}
				return app.writeJSON(cmd.OutOrStdout(), list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCANVAS\tELEMENTS")
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s %gx%g\t%d\n", t.ID, t.Name, t.CanvasSize.Name, t.CanvasSize.Width, t.CanvasSize.Height, len(t.Elements))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output (thumbnails omitted)")
	return cmd
}

func newTemplatesShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Print a template as the editor exports it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			t, err := core.Templates.Resolve(core.RootCtx, args[0])
			if err != nil {
				return err
			}
			return app.writeJSON(cmd.OutOrStdout(), t)
		},
	}
}

func newTemplatesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			if err = core.Templates.Delete(core.RootCtx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newTemplatesImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Store a template file exported from the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			core, err := app.openCore(cmd)
			if err != nil {
				return err
			}
			defer core.RootCancel()
			defer core.ResourceCleanUp()

			t, err := core.Templates.Import(core.RootCtx, raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.ID, t.Name)
			return nil
		},
	}
}
