package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/domain"
)

type stubEncoder struct{}

func (stubEncoder) Count(s string) (int, error) { return len(s) / 4, nil }

type progressRecorder struct {
	domain.NopSink

	mu    sync.Mutex
	calls int
	last  int
}

func (p *progressRecorder) Progress(lines []string, outputTokens int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = outputTokens
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(Options{
		BaseURL:     serverURL,
		APIKey:      "test-key",
		Model:       "test-model",
		MaxTokens:   1000,
		Temperature: 0.1,
		MaxAttempts: 3,
		BackoffBase: 2,
	}, zerolog.Nop())
	c.retry.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func testPages() []domain.PageImage {
	return []domain.PageImage{
		{PageNum: 1, Data: []byte("fake-png-1"), Width: 280, Height: 280},
		{PageNum: 2, Data: []byte("fake-png-2"), Width: 280, Height: 280},
	}
}

func sseBody(deltas []string, promptTokens, completionTokens int) string {
	var b bytes.Buffer
	for _, d := range deltas {
		chunk, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]any{"content": d}}},
		})
		b.WriteString("data: ")
		b.Write(chunk)
		b.WriteString("\n\n")
	}
	usage, _ := json.Marshal(map[string]any{
		"choices": []any{},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
	b.WriteString("data: ")
	b.Write(usage)
	b.WriteString("\n\ndata: [DONE]\n\n")
	return b.String()
}

func TestCallTextStreamsToWriter(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, sseBody([]string{"# Title\n", "\nbody ", "text\n## Section\n"}, 800, 42))
	}))
	defer srv.Close()

	var out bytes.Buffer
	sink := &progressRecorder{}
	c := testClient(t, srv.URL)

	result, err := c.CallText(context.Background(), 0, testPages(), "", &out, sink, stubEncoder{})
	require.NoError(t, err)

	assert.Equal(t, "# Title\n\nbody text\n## Section\n", out.String())
	assert.Equal(t, 42, result.OutputTokens)
	assert.Positive(t, result.InputTokens)
	require.Len(t, result.Headers, 2)
	assert.Equal(t, 1, result.Headers[0].Level)
	assert.Equal(t, 2, result.Headers[1].Level)
	assert.Positive(t, sink.calls)

	assert.True(t, gotReq.Stream)
	require.NotNil(t, gotReq.StreamOptions)
	assert.True(t, gotReq.StreamOptions.IncludeUsage)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestCallTextKeepsFencedOutputVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sseBody([]string{"```markdown\n", "# Inside\n", "```"}, 10, 5))
	}))
	defer srv.Close()

	var out bytes.Buffer
	c := testClient(t, srv.URL)
	result, err := c.CallText(context.Background(), 0, testPages(), "", &out, domain.NopSink{}, stubEncoder{})
	require.NoError(t, err)

	// Raw deltas reach the file untouched; fences are only stripped for
	// heading extraction.
	assert.Equal(t, "```markdown\n# Inside\n```", out.String())
	require.Len(t, result.Headers, 1)
	assert.Equal(t, "# Inside", result.Headers[0].Line)
}

func TestCallTextRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, sseBody([]string{"ok"}, 10, 1))
	}))
	defer srv.Close()

	var out bytes.Buffer
	c := testClient(t, srv.URL)
	result, err := c.CallText(context.Background(), 2, testPages(), "", &out, domain.NopSink{}, stubEncoder{})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "ok", out.String())
	assert.Equal(t, 1, result.OutputTokens)
}

func TestCallTextExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var out bytes.Buffer
	c := testClient(t, srv.URL)
	_, err := c.CallText(context.Background(), 5, testPages(), "", &out, domain.NopSink{}, stubEncoder{})

	require.Error(t, err)
	assert.True(t, domain.IsExhausted(err))
	assert.Contains(t, err.Error(), "batch 6")
	assert.Empty(t, out.String())
}

func TestCallImagesDecodesStructuredResponse(t *testing.T) {
	var gotReq Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))

		content := `{"images":[{"page_number":2,"fig_number":1,"bbox":[100,100,600,600],"caption":"Flow","element_type":"diagram"}]}`
		resp, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": content}}},
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(resp)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	elements, err := c.CallImages(context.Background(), 0, testPages(), "### DOCUMENT LOCATION BREADCRUMB\n# Doc")
	require.NoError(t, err)

	require.Len(t, elements, 1)
	assert.Equal(t, 2, elements[0].PageNumber)
	assert.Equal(t, "diagram", elements[0].ElementType)

	assert.False(t, gotReq.Stream)
	require.NotNil(t, gotReq.ResponseFormat)
	assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
	assert.Equal(t, "image_extraction", gotReq.ResponseFormat.JSONSchema.Name)
}

func TestCallImagesSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, _ := json.Marshal(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "bad schema"},
		})
		w.Write(resp)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.CallImages(context.Background(), 0, testPages(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad schema")
}
