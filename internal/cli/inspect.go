package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zeptools/certmerge/binding"
	"github.com/zeptools/certmerge/placeholders"
	"github.com/zeptools/certmerge/sheets"
)

func newInspectCmd(app *App) *cobra.Command {
	var (
		data     string
		noHeader bool
		limit    int
		asJSON   bool
		tplRef   string
		maps     []string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the columns, default mappings and first rows of a spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(data)
			if err != nil {
				return err
			}
			tbl, err := sheets.Import(filepath.Base(data), raw, !noHeader)
			if err != nil {
				return err
			}
			mappings, err := applyMaps(binding.DefaultMappings(tbl.Columns), maps)
			if err != nil {
				return err
			}
			var fields, unbound []string
			if tplRef != "" {
				if fields, unbound, err = app.templateBinding(cmd, tplRef, mappings); err != nil {
					return err
				}
			}
			rows := tbl.Rows
			if limit >= 0 && len(rows) > limit {
				rows = rows[:limit]
			}
			if asJSON {
				return app.writeJSON(cmd.OutOrStdout(), map[string]any{
					"columns":  tbl.Columns,
					"mappings": mappings,
					"rows":     rows,
					"total":    len(tbl.Rows),
					"fields":   fields,
					"unbound":  unbound,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rows, %d columns\n\n", len(tbl.Rows), len(tbl.Columns))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COLUMN\tFIELD")
			for _, m := range mappings {
				field := m.PlaceholderField
				if field == "" {
					field = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\n", m.ExcelColumn, field)
			}
			tw.Flush()

			if tplRef != "" {
				switch {
				case len(fields) == 0:
					fmt.Fprintln(out, "\ntemplate binds no fields")
				case len(unbound) == 0:
					fmt.Fprintf(out, "\nall %d template fields are mapped\n", len(fields))
				default:
					fmt.Fprintf(out, "\nunmapped template fields: %s\n", strings.Join(unbound, ", "))
				}
			}

			fmt.Fprintln(out)
			tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(tbl.Columns, "\t"))
			for _, row := range rows {
				cells := make([]string, len(tbl.Columns))
				for i, col := range tbl.Columns {
					cells[i] = binding.Stringify(row[col])
				}
				fmt.Fprintln(tw, strings.Join(cells, "\t"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&data, "data", "", "Spreadsheet (.xlsx or .csv)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "First row is data")
	cmd.Flags().IntVar(&limit, "rows", 5, "Rows to show (-1 = all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "JSON output")
	cmd.Flags().StringVar(&tplRef, "template", "", "Template id, name or .json file to check the mappings against")
	cmd.Flags().StringArrayVar(&maps, "map", nil, "Mapping override field=Column (repeatable)")
	_ = cmd.MarkFlagRequired("data")
	return cmd
}

// templateBinding lists the fields the template binds and those the mappings leave open.
func (app *App) templateBinding(cmd *cobra.Command, ref string, mappings []binding.Mapping) ([]string, []string, error) {
	core, err := app.openCore(cmd)
	if err != nil {
		return nil, nil, err
	}
	defer core.RootCancel()
	defer core.ResourceCleanUp()

	t, err := loadTemplate(core.RootCtx, core.Templates, ref)
	if err != nil {
		return nil, nil, err
	}
	data := binding.NewStore()
	data.SetColumnMappings(mappings)
	fields := placeholders.TemplateFields(t.Elements)
	return fields, data.UnboundFields(fields), nil
}
