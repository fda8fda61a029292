package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type State string

const (
	Idle      State = "idle"
	Running   State = "running"
	Completed State = "completed"
	Cancelled State = "cancelled"
	Failed    State = "failed"
)

// Terminal reports whether s ends a run
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

var (
	ErrNoRows    = errors.New("no data rows to render: import a spreadsheet first")
	ErrNoSurface = errors.New("no renderable canvas available")
	ErrBusy      = errors.New("a batch run is already in progress")
)

// RowError - a per-row render failure. Row is 1-based.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("failed to generate certificate for row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Status is a point-in-time view of the pipeline
type Status struct {
	State      State     `json:"state"`
	Progress   int       `json:"progress"` // percent
	Row        int       `json:"row"`      // 1-based row being rendered, 0 when idle
	Total      int       `json:"total"`
	Files      int       `json:"files"`
	Error      string    `json:"error,omitempty"`
	Bundle     string    `json:"bundle,omitempty"`
	Unbound    []string  `json:"unbound,omitempty"` // template fields with no column mapping
	StartedAt  time.Time `json:"startedAt,omitzero"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

func (s Status) String() string {
	out := fmt.Sprintf("state=%s progress=%d%% row=%d/%d files=%d", s.State, s.Progress, s.Row, s.Total, s.Files)
	if s.Error != "" {
		out += " error=" + s.Error
	}
	if s.Bundle != "" {
		out += " bundle=" + s.Bundle
	}
	if len(s.Unbound) > 0 {
		out += " unbound=" + strings.Join(s.Unbound, ",")
	}
	return out
}

// Progress - percentage after done of total rows, rounded half up
func Progress(done, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*done + total) / (2 * total)
}
