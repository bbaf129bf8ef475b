package analysis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const assetModelID = "gemini-3-pro-nano-preview"

// AssetFunc cuts the extracted elements out of the original screenshot and
// returns them as data URLs keyed by element id. ExtractAssets is the
// production implementation; tests substitute their own.
type AssetFunc func(ctx context.Context, imageDataURL string, els Elements, geminiKey string) (map[string]string, error)

// assetBox is one element's crop request in the batch prompt.
type assetBox struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Type   string  `json:"type"`
}

const assetPromptTemplate = `
Extract all design elements from this image and convert each to SVG format.

Elements to extract:
%s

For each element:
1. Extract the exact visual content from the specified coordinates
2. Convert to SVG format preserving all visual properties (colors, gradients, shadows, etc.)
3. Return as a JSON object mapping element_id to SVG data URL

Return format:
{
  "element_id_1": "data:image/svg+xml;base64,<base64_svg_data>",
  "element_id_2": "data:image/svg+xml;base64,<base64_svg_data>",
  ...
}
`

// ExtractAssets extracts every element as an asset in one Gemini request.
// Provider failures degrade to an empty map so generation falls back to
// placeholder images instead of failing the session; a malformed input image
// is a real error.
func ExtractAssets(ctx context.Context, imageDataURL string, els Elements, geminiKey string) (map[string]string, error) {
	mediaType, data, err := decodeDataURL(imageDataURL)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: geminiKey})
	if err != nil {
		log.WithError(err).Debug("asset extraction client init failed, skipping assets")
		return map[string]string{}, nil
	}

	boxes := make([]assetBox, 0, len(els.Elements))
	for _, e := range els.Elements {
		boxes = append(boxes, assetBox{
			ID:     e.ID,
			X:      e.Coordinates.X,
			Y:      e.Coordinates.Y,
			Width:  e.Coordinates.Width,
			Height: e.Coordinates.Height,
			Type:   e.Type,
		})
	}
	req, err := json.MarshalIndent(boxes, "", "  ")
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{{Parts: []*genai.Part{
		genai.NewPartFromBytes(data, mediaType),
		genai.NewPartFromText(fmt.Sprintf(assetPromptTemplate, req)),
	}}}
	resp, err := client.Models.GenerateContent(ctx, assetModelID, contents, nil)
	if err != nil {
		log.WithError(err).Debug("asset extraction failed, skipping assets")
		return map[string]string{}, nil
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				return parseAssetMap(part.Text), nil
			}
		}
	}
	return map[string]string{}, nil
}

// parseAssetMap decodes the model's element_id to data URL mapping. A
// response that is not the requested JSON yields no assets rather than an
// error.
func parseAssetMap(text string) map[string]string {
	assets := map[string]string{}
	if err := json.Unmarshal([]byte(unwrapFence(text)), &assets); err != nil {
		log.WithError(err).Debug("unparseable asset extraction response")
		return map[string]string{}
	}
	return assets
}

func decodeDataURL(u string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL: %.32s", u)
	}
	mediaType, b64, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded: %.32s", u)
	}
	data, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mediaType, data, nil
}
