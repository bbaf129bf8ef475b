package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"google.golang.org/genai"
)

// replicateBaseURL is a var so tests can point at a local server.
var replicateBaseURL = "https://api.replicate.com"

var replicateHTTPClient = &http.Client{Timeout: 2 * time.Minute}

// PickGenerator selects the image generation backend by key availability:
// Gemini first, then Replicate Flux, then DALL-E 3. ok is false when no key
// is available and generation should be skipped.
func PickGenerator(geminiKey, replicateKey, openaiKey, openaiBaseURL string) (gen Generator, model string, ok bool) {
	switch {
	case geminiKey != "":
		return GeminiGenerator(geminiKey), "gemini-3-pro-nano", true
	case replicateKey != "":
		return ReplicateGenerator(replicateKey), "flux", true
	case openaiKey != "":
		return DalleGenerator(openaiKey, openaiBaseURL), "dalle3", true
	default:
		return nil, "", false
	}
}

// DalleGenerator generates 1024x1024 images with DALL-E 3.
func DalleGenerator(apiKey, baseURL string) Generator {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return func(ctx context.Context, prompt string) (string, error) {
		res, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
			Model:   openai.ImageModelDallE3,
			Prompt:  prompt,
			N:       openai.Int(1),
			Size:    openai.ImageGenerateParamsSize1024x1024,
			Quality: openai.ImageGenerateParamsQualityStandard,
			Style:   openai.ImageGenerateParamsStyleNatural,
		})
		if err != nil {
			return "", err
		}
		if len(res.Data) == 0 || res.Data[0].URL == "" {
			return "", errors.New("dalle3 returned no image")
		}
		return res.Data[0].URL, nil
	}
}

// ReplicateGenerator generates images with Flux Schnell via Replicate's
// synchronous prediction API.
func ReplicateGenerator(apiKey string) Generator {
	return func(ctx context.Context, prompt string) (string, error) {
		body := []byte(`{}`)
		body, _ = sjson.SetBytes(body, "input.prompt", prompt)
		body, _ = sjson.SetBytes(body, "input.num_outputs", 1)
		body, _ = sjson.SetBytes(body, "input.aspect_ratio", "1:1")
		body, _ = sjson.SetBytes(body, "input.output_format", "png")
		body, _ = sjson.SetBytes(body, "input.output_quality", 100)

		url := replicateBaseURL + "/v1/models/black-forest-labs/flux-schnell/predictions"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "wait")

		resp, err := replicateHTTPClient.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", err
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return "", fmt.Errorf("replicate status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "detail").String())
		}

		output := gjson.GetBytes(raw, "output")
		if output.IsArray() {
			arr := output.Array()
			if len(arr) > 0 {
				return arr[0].String(), nil
			}
			return "", errors.New("replicate returned no output")
		}
		if s := output.String(); s != "" {
			return s, nil
		}
		return "", errors.New("replicate returned no output")
	}
}

// GeminiGenerator asks Gemini for an inline image and returns it as a data
// URL. When the model returns no image it falls back to a captioned
// placeholder instead of failing the variant.
func GeminiGenerator(apiKey string) Generator {
	return func(ctx context.Context, prompt string) (string, error) {
		fallback := placeholderFor(prompt)

		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return fallback, nil
		}
		resp, err := client.Models.GenerateContent(ctx, "gemini-3-pro-nano-preview",
			genai.Text("Generate an image: "+prompt), nil)
		if err != nil {
			log.WithError(err).Debug("gemini image generation failed, using placeholder")
			return fallback, nil
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part.InlineData != nil && len(part.InlineData.Data) > 0 {
					return "data:image/png;base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
				}
			}
		}
		return fallback, nil
	}
}

// placeholderFor builds a captioned placeholder URL from a prompt. The
// caption is query-escaped and cut on rune boundaries.
func placeholderFor(prompt string) string {
	return placeholderPrefix + "/1024x1024?text=" + url.QueryEscape(truncate(prompt, 20))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
