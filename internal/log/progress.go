// Package log carries logging helpers shared by the CLI commands.
package log

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

// Progress reports on a long-running polled operation. When writing to a
// terminal it renders an in-place spinner line; otherwise each update is
// emitted as a structured log event so non-interactive runs stay greppable.
type Progress struct {
	mu       sync.Mutex
	out      io.Writer
	name     string
	terminal bool
	start    time.Time
	frame    int
	updates  int
}

func NewProgress(out io.Writer, name string, terminal bool) *Progress {
	return &Progress{
		out:      out,
		name:     name,
		terminal: terminal,
		start:    time.Now(),
	}
}

// Update records one poll result. status is the remote state as reported
// by the server, e.g. "executing".
func (p *Progress) Update(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.updates++
	elapsed := time.Since(p.start).Round(time.Second)

	if !p.terminal {
		log.Info().
			Str("operation", p.name).
			Str("status", status).
			Int("polls", p.updates).
			Dur("elapsed", elapsed).
			Msg("waiting")
		return
	}

	frame := spinnerFrames[p.frame%len(spinnerFrames)]
	p.frame++
	fmt.Fprintf(p.out, "\r%s %s: %s (%s)   ", frame, p.name, status, elapsed)
}

// Done finishes the indicator, clearing the spinner line on terminals.
func (p *Progress) Done(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.start).Round(time.Second)
	if p.terminal {
		fmt.Fprintf(p.out, "\r%s: %s (%s)          \n", p.name, status, elapsed)
		return
	}
	log.Info().
		Str("operation", p.name).
		Str("status", status).
		Dur("elapsed", elapsed).
		Msg("finished")
}
