package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/zeptools/certmerge/batch"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f9fb0")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2e9e5b")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#d16d7a")).Bold(true)
)

// reporter draws a progress bar on a terminal and falls back to log lines elsewhere
type reporter struct {
	w     io.Writer
	total int
	tty   bool
	bar   progress.Model
}

func newReporter(w io.Writer, total int) *reporter {
	r := &reporter{w: w, total: total}
	if f, ok := w.(*os.File); ok {
		r.tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	if r.tty {
		r.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	}
	return r
}

func (r *reporter) Progress(percent int, row int) {
	if !r.tty {
		log.Printf("[INFO][BATCH] %d/%d rows (%d%%)", row, r.total, percent)
		return
	}
	fmt.Fprintf(r.w, "\r%s %s %d/%d", labelStyle.Render("rendering"), r.bar.ViewAs(float64(percent)/100), row, r.total)
}

func (r *reporter) State(s batch.State) {
	if !r.tty || !s.Terminal() {
		return
	}
	style := doneStyle
	if s != batch.Completed {
		style = failStyle
	}
	fmt.Fprintf(r.w, "\n%s\n", style.Render(string(s)))
}
