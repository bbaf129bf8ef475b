package upstream

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	log "github.com/sirupsen/logrus"

	"screenshot2code-go/internal/registry"
)

func streamOpenAI(ctx context.Context, entry registry.Entry, msgs []Message, apiKey, baseURL string, onChunk ChunkFunc) (string, error) {
	p, ok := entry.OpenAI()
	if !ok {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "missing openai params for " + entry.ID}
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(entry.ID),
		Messages: oaiConvMessages(msgs),
	}
	if p.Temperature != nil {
		params.Temperature = param.NewOpt(*p.Temperature)
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(p.MaxTokens))
	}
	if p.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(p.MaxCompletionTokens))
	}
	if p.ReasoningEffort != "" {
		params.ReasoningEffort = openai.ReasoningEffort(p.ReasoningEffort)
	}

	if !p.SupportsStreaming {
		resp, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", Classify(entry.Provider, err)
		}
		if len(resp.Choices) == 0 {
			return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "no choices in response"}
		}
		full := resp.Choices[0].Message.Content
		// Reasoning models cannot stream, so the client gets the whole
		// completion as a single chunk.
		onChunk(full)
		return full, nil
	}

	var buf strings.Builder
	stream := client.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if s := chunk.Choices[0].Delta.Content; s != "" {
			buf.WriteString(s)
			onChunk(s)
		}
	}
	if err := stream.Err(); err != nil {
		return "", Classify(entry.Provider, err)
	}
	log.WithField("model", entry.ID).Debugf("openai stream finished, %d bytes", buf.Len())
	return buf.String(), nil
}

func oaiConvMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Text))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Text))
		default:
			if len(m.Images) == 0 {
				out = append(out, openai.UserMessage(m.Text))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Images)+1)
			for _, img := range m.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL:    img,
					Detail: "high",
				}))
			}
			parts = append(parts, openai.TextContentPart(m.Text))
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
