package upstream

import (
	"context"
	"encoding/base64"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"

	"screenshot2code-go/internal/registry"
)

func streamGemini(ctx context.Context, entry registry.Entry, msgs []Message, apiKey string, onChunk ChunkFunc) (string, error) {
	p, ok := entry.Gemini()
	if !ok {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "missing gemini params for " + entry.ID}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return "", Classify(entry.Provider, err)
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: p.MaxOutputTokens,
		Temperature:     genai.Ptr(p.Temperature),
	}
	if p.ThinkingBudget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget:  p.ThinkingBudget,
			IncludeThoughts: p.IncludeThoughts,
		}
	}

	contents, err := geminiConvMessages(cfg, msgs)
	if err != nil {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "build request", Err: err}
	}

	var buf strings.Builder
	for chunk, err := range client.Models.GenerateContentStream(ctx, entry.ID, contents, cfg) {
		if err != nil {
			return "", Classify(entry.Provider, err)
		}
		if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
			continue
		}
		for _, part := range chunk.Candidates[0].Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			buf.WriteString(part.Text)
			onChunk(part.Text)
		}
	}
	log.WithField("model", entry.ID).Debugf("gemini stream finished, %d bytes", buf.Len())
	return buf.String(), nil
}

func geminiConvMessages(cfg *genai.GenerateContentConfig, msgs []Message) ([]*genai.Content, error) {
	var contents []*genai.Content
	for _, m := range msgs {
		if m.Role == RoleSystem {
			cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(m.Text)}}
			continue
		}
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		var parts []*genai.Part
		for _, img := range m.Images {
			mediaType, data, err := splitDataURL(img)
			if err != nil {
				return nil, err
			}
			raw, err := base64.StdEncoding.DecodeString(data)
			if err != nil {
				return nil, err
			}
			parts = append(parts, genai.NewPartFromBytes(raw, mediaType))
		}
		parts = append(parts, genai.NewPartFromText(m.Text))
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}
