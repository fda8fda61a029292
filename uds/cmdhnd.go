package uds

import (
	"context"
	"io"
)

// CmdHnd is one control socket command. Fn writes its reply to w.
// ctx is cancelled when the service stops.
type CmdHnd struct {
	Desc  string
	Usage string
	Fn    func(ctx context.Context, args []string, w io.Writer) error
}

// builtins answered by the service itself
var builtins = map[string]string{
	"help": "list commands",
	"quit": "close the connection",
}
