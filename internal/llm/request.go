package llm

import (
	"encoding/base64"
	"fmt"

	"github.com/pagemill/pagemill/internal/domain"
	"github.com/pagemill/pagemill/internal/token"
)

// Message is a chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one part of a message: text or an inline image.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image as a base64 data URL.
type ImageURL struct {
	URL string `json:"url"`
}

// Request is the chat-completions request body.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream,omitempty"`
	StreamOptions  *StreamOptions  `json:"stream_options,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// StreamOptions requests the usage summary on the final stream chunk.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ResponseFormat constrains the response to a JSON schema.
type ResponseFormat struct {
	Type       string     `json:"type"`
	JSONSchema JSONSchema `json:"json_schema"`
}

// JSONSchema names and carries the schema definition.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Usage reports token consumption for a completed call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the non-streaming chat-completions response body.
type Response struct {
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Choice is one completion choice.
type Choice struct {
	Delta        Delta  `json:"delta"`
	Message      Delta  `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// Delta is an incremental or final message payload.
type Delta struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildUserContent interleaves the context block, the batch header, and
// one "Page N:" label plus inline PNG per page. Returns the parts and
// the local input-token estimate for the images.
func buildUserContent(contextText string, pages []domain.PageImage) ([]ContentPart, int) {
	parts := []ContentPart{
		{Type: "text", Text: contextBlock(contextText)},
		{Type: "text", Text: fmt.Sprintf("%s%d pages):", newImagesHeaderPrefix, len(pages))},
	}

	totalTokens := 0
	for _, page := range pages {
		totalTokens += token.ImageTokens(page.Width, page.Height)
		encoded := base64.StdEncoding.EncodeToString(page.Data)
		parts = append(parts,
			ContentPart{
				Type: "text",
				Text: fmt.Sprintf("%s%d%s", pageLabelPrefix, page.PageNum, pageLabelSuffix),
			},
			ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: "data:image/png;base64," + encoded},
			},
		)
	}
	return parts, totalTokens
}

// buildMessages wraps a system prompt and user content parts.
func buildMessages(systemPrompt string, userContent []ContentPart) []Message {
	return []Message{
		{Role: "system", Content: []ContentPart{{Type: "text", Text: systemPrompt}}},
		{Role: "user", Content: userContent},
	}
}
