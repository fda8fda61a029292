package uds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zeptools/certmerge/batch"
)

// BatchController is the part of a batch pipeline the control socket drives
type BatchController interface {
	Status() batch.Status
	Cancel() bool
}

// BatchCommands builds the control socket commands for a running batch.
func BatchCommands(p BatchController) map[string]CmdHnd {
	return map[string]CmdHnd{
		"status": {
			Desc:  "show batch state and progress",
			Usage: "[--json]",
			Fn: func(_ context.Context, args []string, w io.Writer) error {
				st := p.Status()
				if len(args) > 0 && args[0] == "--json" {
					return json.NewEncoder(w).Encode(st)
				}
				_, err := fmt.Fprintln(w, st.String())
				return err
			},
		},
		"cancel": {
			Desc: "stop the batch before its next row",
			Fn: func(_ context.Context, args []string, w io.Writer) error {
				if !p.Cancel() {
					_, err := fmt.Fprintf(w, "nothing to cancel: %s\n", p.Status().State)
					return err
				}
				_, err := fmt.Fprintln(w, "cancel requested")
				return err
			},
		},
	}
}
