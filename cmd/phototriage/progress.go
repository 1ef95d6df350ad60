package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// progressPrinter draws an in-place counter on stderr. On non-terminal
// stderr (pipes, CI) it stays silent; structured logs carry the totals.
type progressPrinter struct {
	label  string
	active bool
	drawn  bool
}

func newProgressPrinter(label string) *progressPrinter {
	return &progressPrinter{
		label:  label,
		active: isatty.IsTerminal(os.Stderr.Fd()),
	}
}

func (p *progressPrinter) update(done, total int) {
	if !p.active {
		return
	}
	fmt.Fprintf(os.Stderr, "\r%s %d/%d", p.label, done, total)
	p.drawn = true
}

func (p *progressPrinter) finish() {
	if p.active && p.drawn {
		fmt.Fprintln(os.Stderr)
	}
}
