// Package analysis extracts design elements from a screenshot: an LLM pass
// that maps every visible element to coordinates and properties, and a
// Gemini pass that cuts the non-text elements out of the original image as
// reusable assets.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/upstream"
)

const elementExtractionPrompt = `
You are an expert at analyzing web design screenshots and identifying all design elements.

Analyze the provided screenshot and create a JSON structure listing all design elements with their:
- Element type (background, text, image, button, menu, header, footer, card, icon, etc.)
- Exact coordinates (x, y, width, height) in pixels
- Visual properties (colors, fonts, sizes)
- Text content (if applicable)
- Layer/position information

Return ONLY valid JSON in this format:
{
  "image_dimensions": {"width": number, "height": number},
  "elements": [
    {
      "id": "unique_id",
      "type": "element_type",
      "coordinates": {"x": number, "y": number, "width": number, "height": number},
      "properties": {
        "background_color": "hex_color",
        "text_color": "hex_color",
        "font_size": number,
        "font_family": "font_name",
        "border_radius": number,
        "opacity": number
      },
      "text_content": "text if applicable",
      "z_index": number
    }
  ]
}

Be extremely precise with coordinates. Every visible element should be included.
`

const elementExtractionUserPrompt = "Analyze this screenshot and extract all design elements with their exact coordinates."

// Coordinates is one element's bounding box in screenshot pixels.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Element is one extracted design element. Properties is kept raw because
// the model reports a different shape per element type.
type Element struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Coordinates Coordinates     `json:"coordinates"`
	Properties  json.RawMessage `json:"properties,omitempty"`
	TextContent string          `json:"text_content,omitempty"`
	ZIndex      int             `json:"z_index,omitempty"`
}

// Dimensions is the screenshot size as reported by the model.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Elements is the full extraction result for one screenshot.
type Elements struct {
	ImageDimensions Dimensions `json:"image_dimensions"`
	Elements        []Element  `json:"elements"`
}

// ExtractElements asks the analysis model to map every visible element to
// coordinates and properties. The completion must be a JSON document,
// optionally wrapped in a markdown fence.
func ExtractElements(
	ctx context.Context,
	imageDataURL string,
	entry registry.Entry,
	keys upstream.Keys,
	streamFn upstream.StreamFunc,
) (Elements, error) {
	msgs := []upstream.Message{
		{Role: upstream.RoleSystem, Text: elementExtractionPrompt},
		{Role: upstream.RoleUser, Text: elementExtractionUserPrompt, Images: []string{imageDataURL}},
	}

	completion, err := streamFn(ctx, entry, msgs, keys, func(string) {})
	if err != nil {
		return Elements{}, fmt.Errorf("element extraction: %w", err)
	}

	var els Elements
	if err := json.Unmarshal([]byte(unwrapFence(completion.Code)), &els); err != nil {
		return Elements{}, fmt.Errorf("invalid element extraction response: %w", err)
	}
	return els, nil
}

// unwrapFence strips a surrounding markdown code fence, with or without a
// json language tag.
func unwrapFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
