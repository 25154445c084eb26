// Package ui renders analysis results and status messages on stderr, keeping
// stdout clean for JSON output.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/triagekit/triage/internal/ansi"
	"github.com/triagekit/triage/internal/scoring"
)

// Printer writes formatted output to stderr.
type Printer struct{}

// New returns a stderr Printer.
func New() *Printer {
	return &Printer{}
}

// Info prints a plain status line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// Warn prints a highlighted warning line.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Yellow+ansi.Bold+"warning: "+ansi.Reset+"%s\n", msg)
}

// Error prints a highlighted error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, ansi.Red+ansi.Bold+"error: "+ansi.Reset+"%s\n", msg)
}

// Ranked prints scored tasks in rank order, one block per task.
func (p *Printer) Ranked(strategy string, scored []scoring.Scored) {
	fmt.Fprintf(os.Stderr, ansi.Bold+ansi.Cyan+"── %s ──"+ansi.Reset+"\n", strategy)
	if len(scored) == 0 {
		fmt.Fprintln(os.Stderr, ansi.Dim+"no tasks"+ansi.Reset)
		return
	}

	for i, s := range scored {
		title := s.Task.TitleOr(ansi.Dim + "(untitled)" + ansi.Reset)
		fmt.Fprintf(os.Stderr, "%s%2d.%s %s%7.2f%s  %s\n",
			ansi.Bold, i+1, ansi.Reset,
			scoreColor(s.PriorityScore), s.PriorityScore, ansi.Reset,
			title)
		if s.Explanation != "" {
			fmt.Fprintf(os.Stderr, "    %s%s%s\n", ansi.Dim, s.Explanation, ansi.Reset)
		}
	}
}

// CycleWarning flags circular dependencies below the ranking.
func (p *Printer) CycleWarning(cycle []string) {
	fmt.Fprintf(os.Stderr, ansi.Yellow+ansi.Bold+"⚠ circular dependency:"+ansi.Reset+" %s\n",
		strings.Join(cycle, " -> "))
}

func scoreColor(score float64) string {
	switch {
	case score >= 100:
		return ansi.Red
	case score >= 60:
		return ansi.Yellow
	default:
		return ansi.Green
	}
}
