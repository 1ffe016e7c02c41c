package domain

// ProgressSink receives progress events from a document run. The core
// never renders output itself; UI collaborators implement this.
//
// Events arrive from the goroutines of a single batch; implementations
// that touch shared state must be safe for concurrent use.
type ProgressSink interface {
	// BatchStarted fires when a batch's model calls are about to launch.
	BatchStarted(batchNum, totalBatches, inputTokens int)
	// Progress carries the most recent output lines and the live
	// output-token estimate. Pushed at a bounded rate while streaming.
	Progress(lines []string, outputTokens int)
	// ImageExtracted fires once per persisted visual element.
	ImageExtracted(figureID string, pageNum int)
	// PageConverted fires as each page is rasterized.
	PageConverted(pageNum, totalPages int)
	// PageTokens reports token counts accumulated by a resolved batch.
	PageTokens(inputTokens, outputTokens int)
	// Error reports a recoverable or fatal problem in human-readable form.
	Error(msg string)
	// Completed fires once when the whole document resolved successfully.
	Completed(outputPath string, totals RunTotals)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) BatchStarted(int, int, int)  {}
func (NopSink) Progress([]string, int)      {}
func (NopSink) ImageExtracted(string, int)  {}
func (NopSink) PageConverted(int, int)      {}
func (NopSink) PageTokens(int, int)         {}
func (NopSink) Error(string)                {}
func (NopSink) Completed(string, RunTotals) {}

var _ ProgressSink = NopSink{}
