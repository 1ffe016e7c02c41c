// Package llm wraps the vision model endpoint: request building, SSE
// stream decoding, retry/backoff, and the two per-batch calls.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pagemill/pagemill/internal/domain"
	"github.com/pagemill/pagemill/internal/markdown"
	"github.com/pagemill/pagemill/internal/token"
)

// progressInterval bounds how often streaming progress reaches the sink.
const progressInterval = 50 * time.Millisecond

// Options configures the model client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxAttempts int
	BackoffBase int
}

// Client talks to a chat-completions endpoint. Both calls share one
// retry/backoff policy.
type Client struct {
	opts       Options
	httpClient *http.Client
	retry      retryPolicy
	log        zerolog.Logger
}

// NewClient creates a model client.
func NewClient(opts Options, log zerolog.Logger) *Client {
	return &Client{
		opts:       opts,
		httpClient: &http.Client{},
		retry: retryPolicy{
			maxAttempts: opts.MaxAttempts,
			backoffBase: opts.BackoffBase,
			sleep:       sleepContext,
		},
		log: log,
	}
}

// TextResult is the outcome of a streaming transcription call.
type TextResult struct {
	InputTokens  int
	OutputTokens int
	Headers      []markdown.Header
}

type syncer interface {
	Sync() error
}

// CallText issues the streaming transcription call for one batch. Every
// delta is appended to out and flushed immediately, accumulated for a
// live token estimate via enc, and surfaced through sink.Progress at a
// bounded rate. After the stream completes, code fences are stripped
// from the accumulated text and headings are extracted from the cleaned
// text.
func (c *Client) CallText(
	ctx context.Context,
	batchNum int,
	pages []domain.PageImage,
	contextText string,
	out io.Writer,
	sink domain.ProgressSink,
	enc token.TextEncoder,
) (*TextResult, error) {
	userContent, inputTokens := buildUserContent(contextText, pages)
	body, err := json.Marshal(&Request{
		Model:         c.opts.Model,
		Messages:      buildMessages(systemPromptText, userContent),
		MaxTokens:     c.opts.MaxTokens,
		Temperature:   c.opts.Temperature,
		Stream:        true,
		StreamOptions: &StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var result *TextResult
	err = c.retry.do(ctx, batchNum, func() error {
		resp, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			return &domain.StatusError{Code: resp.StatusCode, Body: string(b)}
		}

		text, usage, err := c.consumeStream(resp.Body, out, sink, enc)
		if err != nil {
			return err
		}

		cleaned := markdown.CleanOutput(text)
		outputTokens := usage
		if outputTokens == 0 {
			outputTokens, _ = enc.Count(text)
		}
		result = &TextResult{
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			Headers:      markdown.ExtractHeaders(cleaned),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// consumeStream drains the SSE body, writing and flushing each delta to
// out as it arrives. Returns the accumulated text and the endpoint's
// completion-token count when it reported one.
func (c *Client) consumeStream(body io.Reader, out io.Writer, sink domain.ProgressSink, enc token.TextEncoder) (string, int, error) {
	decoder := NewStreamDecoder(body)
	var acc strings.Builder
	completionTokens := 0
	liveTokens := 0
	lastPush := time.Time{}

	for {
		event, err := decoder.Next()
		if err != nil {
			return "", 0, fmt.Errorf("read stream: %w", err)
		}
		switch event.Kind {
		case TextDelta:
			acc.WriteString(event.Delta)
			if _, err := io.WriteString(out, event.Delta); err != nil {
				return "", 0, fmt.Errorf("write output: %w", err)
			}
			if s, ok := out.(syncer); ok {
				_ = s.Sync()
			}
			liveTokens, _ = enc.Count(acc.String())
			if time.Since(lastPush) >= progressInterval {
				lastPush = time.Now()
				sink.Progress(strings.Split(acc.String(), "\n"), liveTokens)
			}
		case UsageSummary:
			completionTokens = event.CompletionTokens
		case StreamEnd:
			sink.Progress(nil, max(liveTokens, completionTokens))
			return acc.String(), completionTokens, nil
		}
	}
}

// CallImages issues the structured visual-element extraction call for
// one batch and returns the model-proposed element list.
func (c *Client) CallImages(
	ctx context.Context,
	batchNum int,
	pages []domain.PageImage,
	contextText string,
) ([]domain.ImageMetadata, error) {
	userContent, _ := buildUserContent(contextText, pages)
	body, err := json.Marshal(&Request{
		Model:          c.opts.Model,
		Messages:       buildMessages(systemPromptImages, userContent),
		Temperature:    c.opts.Temperature,
		ResponseFormat: imageExtractionFormat(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var elements []domain.ImageMetadata
	err = c.retry.do(ctx, batchNum, func() error {
		resp, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<24))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return &domain.StatusError{Code: resp.StatusCode, Body: string(respBody)}
		}

		var apiResp Response
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		if apiResp.Error != nil {
			return fmt.Errorf("api error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
		}
		if len(apiResp.Choices) == 0 {
			return fmt.Errorf("empty response from model")
		}

		elements, err = decodeImageMetadata(apiResp.Choices[0].Message.Content)
		return err
	})
	if err != nil {
		return nil, err
	}
	return elements, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	url := strings.TrimSuffix(c.opts.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	return c.httpClient.Do(req)
}
