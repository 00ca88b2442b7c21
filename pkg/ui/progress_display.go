package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay renders a single-line download progress for one board.
// On a non-terminal writer it prints one line per failure and a final summary only.
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	live       bool
	board      string
	total      int
	downloaded int
	skipped    int
	failed     int
	bytes      int64
	startTime  time.Time
}

// NewProgressDisplay creates a display for total pins of board
func NewProgressDisplay(out io.Writer, board string, total int) *ProgressDisplay {
	return &ProgressDisplay{
		out:       out,
		live:      IsTerminal(out),
		board:     board,
		total:     total,
		startTime: time.Now(),
	}
}

// Downloaded records a stored resource of size bytes
func (p *ProgressDisplay) Downloaded(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.downloaded++
	p.bytes += int64(size)
	p.printProgress()
}

// Skipped records a pin whose resource was already on disk
func (p *ProgressDisplay) Skipped() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.skipped++
	p.printProgress()
}

// Failed records a failed pin
func (p *ProgressDisplay) Failed(pinID int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.failed++
	if p.live {
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 100))
	}
	fmt.Fprintf(p.out, "%s pin %d: %v\n", Red("✗"), pinID, err)
	p.printProgress()
}

func (p *ProgressDisplay) done() int {
	return p.downloaded + p.skipped + p.failed
}

// printProgress redraws the progress line; it is a no-op off a terminal
func (p *ProgressDisplay) printProgress() {
	if !p.live {
		return
	}

	line := fmt.Sprintf("%s [%s] %d/%d • %s",
		Cyan(p.board),
		RenderBar(p.done(), p.total),
		p.done(),
		p.total,
		FormatBytes(p.bytes),
	)
	if p.failed > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", p.failed))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

// Complete prints the summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live {
		fmt.Fprintln(p.out)
	}

	elapsed := time.Since(p.startTime)
	fmt.Fprintf(p.out, "%s Downloaded %d pins from %s\n", Green("✓"), p.downloaded, p.board)
	fmt.Fprintf(p.out, "  %s %s in %s\n", Dim("•"), FormatBytes(p.bytes), FormatDuration(elapsed))
	if p.skipped > 0 {
		fmt.Fprintf(p.out, "  %s %d already on disk\n", Dim("•"), p.skipped)
	}
	if p.failed > 0 {
		fmt.Fprintf(p.out, "  %s %d downloads failed\n", Dim("•"), p.failed)
	}
}
