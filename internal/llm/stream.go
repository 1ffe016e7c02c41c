package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// EventKind tags a decoded stream event.
type EventKind int

const (
	// TextDelta carries an incremental text fragment.
	TextDelta EventKind = iota
	// UsageSummary carries the final token counts.
	UsageSummary
	// StreamEnd marks the end of the stream.
	StreamEnd
)

// StreamEvent is one decoded event from the response stream. Decoding
// happens at the network boundary so nothing downstream touches the raw
// SSE wire format.
type StreamEvent struct {
	Kind             EventKind
	Delta            string
	PromptTokens     int
	CompletionTokens int
}

// StreamDecoder parses a Server-Sent Events response body into tagged
// StreamEvents.
type StreamDecoder struct {
	scanner *bufio.Scanner
}

// NewStreamDecoder wraps a response body.
func NewStreamDecoder(r io.Reader) *StreamDecoder {
	sc := bufio.NewScanner(r)
	// Data lines can carry large deltas; raise the 64K default.
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &StreamDecoder{scanner: sc}
}

// Next returns the next event. Invalid JSON data lines are skipped. A
// [DONE] marker or end of input yields StreamEnd.
func (d *StreamDecoder) Next() (StreamEvent, error) {
	for d.scanner.Scan() {
		line := d.scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return StreamEvent{Kind: StreamEnd}, nil
		}

		var chunk Response
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Usage != nil && chunk.Usage.TotalTokens > 0 {
			return StreamEvent{
				Kind:             UsageSummary,
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
			}, nil
		}
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				return StreamEvent{Kind: TextDelta, Delta: delta}, nil
			}
		}
	}

	if err := d.scanner.Err(); err != nil {
		return StreamEvent{}, err
	}
	return StreamEvent{Kind: StreamEnd}, nil
}
