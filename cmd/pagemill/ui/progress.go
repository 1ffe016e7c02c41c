// Package ui renders conversion progress on a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/pagemill/pagemill/internal/domain"
)

// TerminalSink renders progress events with a page-render bar, a
// per-batch spinner showing the live tail of the stream, and colored
// status lines. Safe for concurrent use; the transcription and image
// calls report from separate goroutines.
type TerminalSink struct {
	out io.Writer

	mu       sync.Mutex
	bar      *progressbar.ProgressBar
	barCount int
	spin     *spinner.Spinner
}

// NewTerminalSink creates a sink writing to out.
func NewTerminalSink(out io.Writer) *TerminalSink {
	return &TerminalSink{out: out}
}

func (t *TerminalSink) BatchStarted(batchNum, totalBatches, inputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	color.New(color.FgCyan, color.Bold).Fprintf(t.out, "\nBatch %d/%d\n", batchNum+1, totalBatches)

	t.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(t.out))
	t.spin.Suffix = " transcribing..."
	t.spin.Start()
}

func (t *TerminalSink) Progress(lines []string, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.spin == nil {
		return
	}
	tail := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			tail = s
			break
		}
	}
	if len(tail) > 60 {
		tail = tail[:60] + "..."
	}
	t.spin.Suffix = fmt.Sprintf(" %d tokens | %s", outputTokens, tail)
}

func (t *TerminalSink) ImageExtracted(figureID string, pageNum int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	color.New(color.FgMagenta).Fprintf(t.out, "  saved %s.png (page %d)\n", figureID, pageNum)
}

func (t *TerminalSink) PageConverted(pageNum, totalPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar == nil {
		t.barCount = 0
		t.bar = progressbar.NewOptions(totalPages,
			progressbar.OptionSetWriter(t.out),
			progressbar.OptionSetDescription("rendering pages"),
			progressbar.OptionClearOnFinish(),
		)
	}
	t.barCount++
	_ = t.bar.Add(1)
	if t.barCount >= totalPages {
		t.bar = nil
	}
}

func (t *TerminalSink) PageTokens(inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	fmt.Fprintf(t.out, "  batch done: %d in / %d out tokens\n", inputTokens, outputTokens)
}

func (t *TerminalSink) Error(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	color.New(color.FgRed).Fprintf(t.out, "  %s\n", msg)
}

func (t *TerminalSink) Completed(outputPath string, totals domain.RunTotals) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	color.New(color.FgGreen).Fprintf(t.out, "\nwrote %s\n", outputPath)
}

// Close stops any active spinner or bar.
func (t *TerminalSink) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *TerminalSink) stopLocked() {
	if t.spin != nil {
		t.spin.Stop()
		t.spin = nil
	}
	if t.bar != nil {
		_ = t.bar.Clear()
		t.bar = nil
	}
}

var _ domain.ProgressSink = (*TerminalSink)(nil)
