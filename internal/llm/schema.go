package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pagemill/pagemill/internal/domain"
)

// imageExtractionResponse is the decode target for the structured call.
type imageExtractionResponse struct {
	Images []domain.ImageMetadata `json:"images"`
}

// imageExtractionFormat constrains the structured call's response. The
// schema mirrors domain.ImageMetadata.
func imageExtractionFormat() *ResponseFormat {
	return &ResponseFormat{
		Type: "json_schema",
		JSONSchema: JSONSchema{
			Name:   "image_extraction",
			Strict: true,
			Schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"images"},
				"properties": map[string]any{
					"images": map[string]any{
						"type":        "array",
						"description": "One entry per important visual element identified on the pages.",
						"items": map[string]any{
							"type":                 "object",
							"additionalProperties": false,
							"required":             []string{"page_number", "fig_number", "bbox", "element_type"},
							"properties": map[string]any{
								"page_number": map[string]any{
									"type":        "integer",
									"description": "Absolute PDF page number as shown in the page label, not the position within the batch.",
								},
								"fig_number": map[string]any{
									"type":        "integer",
									"description": "Sequential figure number on this page, starting at 1.",
								},
								"bbox": map[string]any{
									"type":        "array",
									"items":       map[string]any{"type": "integer"},
									"minItems":    4,
									"maxItems":    4,
									"description": "Bounding box [x1, y1, x2, y2] in a normalized 0-1000 coordinate space, (0,0) at the top-left.",
								},
								"caption": map[string]any{
									"type":        "string",
									"description": "Caption text found near the element, if any.",
								},
								"element_type": map[string]any{
									"type": "string",
									"enum": []string{"chart", "graph", "diagram", "algorithm", "table", "screenshot", "other"},
								},
							},
						},
					},
				},
			},
		},
	}
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock removes a fenced wrapper some models add around JSON.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// decodeImageMetadata parses the structured call's message content.
func decodeImageMetadata(content string) ([]domain.ImageMetadata, error) {
	cleaned := stripCodeBlock(content)
	var parsed imageExtractionResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("parse element list: %w", err)
	}
	return parsed.Images, nil
}
