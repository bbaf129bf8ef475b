package upstream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"screenshot2code-go/internal/registry"
)

const (
	anthropicVersion = "2023-06-01"

	// SSE data lines can carry large base64 blobs.
	anthropicScanBuf = 1 << 20
)

// anthropicBaseURL is a var so tests can point the client at a local server.
var anthropicBaseURL = "https://api.anthropic.com"

var anthropicHTTPClient = &http.Client{Timeout: 10 * time.Minute}

func streamAnthropic(ctx context.Context, entry registry.Entry, msgs []Message, apiKey string, onChunk ChunkFunc) (string, error) {
	p, ok := entry.Anthropic()
	if !ok {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "missing anthropic params for " + entry.ID}
	}

	body, err := anthropicBody(entry.ID, p, msgs)
	if err != nil {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicBaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	if len(p.Betas) > 0 {
		req.Header.Set("anthropic-beta", strings.Join(p.Betas, ","))
	}

	resp, err := anthropicHTTPClient.Do(req)
	if err != nil {
		return "", Classify(entry.Provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := gjson.GetBytes(raw, "error.message").String()
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		e := statusError(entry.Provider, resp.StatusCode, fmt.Errorf("%s", msg))
		return "", e
	}

	var buf strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64<<10), anthropicScanBuf)
	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		data := line[len("data: "):]
		switch gjson.GetBytes(data, "type").String() {
		case "content_block_delta":
			delta := gjson.GetBytes(data, "delta")
			// Thinking deltas are model-internal and never reach the client.
			if delta.Get("type").String() != "text_delta" {
				continue
			}
			if s := delta.Get("text").String(); s != "" {
				buf.WriteString(s)
				onChunk(s)
			}
		case "error":
			msg := gjson.GetBytes(data, "error.message").String()
			return "", &Error{Kind: KindOther, Provider: entry.Provider, Message: "stream error: " + msg}
		case "message_stop":
			log.WithField("model", entry.ID).Debugf("anthropic stream finished, %d bytes", buf.Len())
			return buf.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", Classify(entry.Provider, err)
	}
	return buf.String(), nil
}

// anthropicBody assembles the messages request. System prompts go in the
// top-level system field; data-URL images become base64 source blocks.
func anthropicBody(model string, p registry.AnthropicParams, msgs []Message) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	set := func(path string, value any) {
		if err != nil {
			return
		}
		body, err = sjson.SetBytes(body, path, value)
	}

	set("model", model)
	set("max_tokens", p.MaxTokens)
	set("stream", true)
	if p.UseThinking {
		set("thinking.type", "enabled")
		set("thinking.budget_tokens", p.ThinkingBudgetTokens)
	} else {
		set("temperature", p.Temperature)
	}

	idx := 0
	for _, m := range msgs {
		if m.Role == RoleSystem {
			set("system", m.Text)
			continue
		}
		prefix := fmt.Sprintf("messages.%d", idx)
		set(prefix+".role", string(m.Role))
		block := 0
		for _, img := range m.Images {
			mediaType, data, derr := splitDataURL(img)
			if derr != nil {
				return nil, derr
			}
			bp := fmt.Sprintf("%s.content.%d", prefix, block)
			set(bp+".type", "image")
			set(bp+".source.type", "base64")
			set(bp+".source.media_type", mediaType)
			set(bp+".source.data", data)
			block++
		}
		tp := fmt.Sprintf("%s.content.%d", prefix, block)
		set(tp+".type", "text")
		set(tp+".text", m.Text)
		idx++
	}
	return body, err
}

func splitDataURL(u string) (mediaType, data string, err error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", "", fmt.Errorf("not a data URL: %.32s", u)
	}
	mediaType, data, ok = strings.Cut(rest, ";base64,")
	if !ok {
		return "", "", fmt.Errorf("data URL is not base64 encoded: %.32s", u)
	}
	return mediaType, data, nil
}
