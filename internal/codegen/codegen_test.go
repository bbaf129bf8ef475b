package codegen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"screenshot2code-go/internal/analysis"
	"screenshot2code-go/internal/config"
	"screenshot2code-go/internal/registry"
	"screenshot2code-go/internal/storage"
	"screenshot2code-go/internal/upstream"
	"screenshot2code-go/internal/ws"
)

const testImage = "data:image/png;base64,aGk="

// runSession executes one full pipeline session against a live WebSocket
// and returns every message the client received plus the close code.
func runSession(t *testing.T, cfg config.Config, store storage.Backend, streamFn upstream.StreamFunc, payload map[string]any) (msgs []ws.Message, closeCode int) {
	t.Helper()
	return runSessionContext(t, Context{Cfg: cfg, Store: store, StreamFn: streamFn}, payload)
}

// runSessionContext is runSession with a caller-built session context, for
// tests that substitute more than the stream function.
func runSessionContext(t *testing.T, base Context, payload map[string]any) (msgs []ws.Message, closeCode int) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := base
		c.W, c.R = w, r
		_ = NewPipeline().Execute(r.Context(), &c)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	require.NoError(t, conn.WriteJSON(payload))

	closeCode = -1
	for {
		var m ws.Message
		if err := conn.ReadJSON(&m); err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				closeCode = ce.Code
			}
			return msgs, closeCode
		}
		msgs = append(msgs, m)
	}
}

func byType(msgs []ws.Message, t ws.MessageType) []ws.Message {
	var out []ws.Message
	for _, m := range msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

func createPayload() map[string]any {
	return map[string]any{
		"generationType":      "create",
		"inputMode":           "image",
		"generatedCodeConfig": "html_tailwind",
		"prompt":              map[string]any{"text": "", "images": []string{testImage}},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.StorageBackend = "none"
	return cfg
}

func okStream(code string) upstream.StreamFunc {
	return func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		onChunk(code[:len(code)/2])
		onChunk(code[len(code)/2:])
		return upstream.Completion{Code: code, Duration: time.Millisecond}, nil
	}
}

func TestMockModeStreamsOneVariant(t *testing.T) {
	cfg := testConfig()
	cfg.MockResponses = true
	cfg.MockChunkDelayMs = 0

	msgs, closeCode := runSession(t, cfg, nil, nil, createPayload())

	counts := byType(msgs, ws.MessageVariantCount)
	require.Len(t, counts, 1)
	require.Equal(t, "1", counts[0].Value)

	var b strings.Builder
	for _, m := range byType(msgs, ws.MessageChunk) {
		require.Equal(t, 0, m.VariantIndex)
		b.WriteString(m.Value)
	}
	setCodes := byType(msgs, ws.MessageSetCode)
	require.Len(t, setCodes, 1)
	require.Equal(t, setCodes[0].Value, b.String())

	require.Len(t, byType(msgs, ws.MessageVariantComplete), 1)
	require.Empty(t, byType(msgs, ws.MessageError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestParallelVariantsAllSucceed(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 2
	code := "<html><body>variant</body></html>"

	msgs, closeCode := runSession(t, cfg, nil, okStream(code), createPayload())

	require.Equal(t, "2", byType(msgs, ws.MessageVariantCount)[0].Value)
	require.Len(t, byType(msgs, ws.MessageStatus), 2)

	setCodes := byType(msgs, ws.MessageSetCode)
	require.Len(t, setCodes, 2)
	seen := map[int]bool{}
	for _, m := range setCodes {
		require.Equal(t, code, m.Value)
		seen[m.VariantIndex] = true
	}
	require.Equal(t, map[int]bool{0: true, 1: true}, seen)

	require.Len(t, byType(msgs, ws.MessageVariantComplete), 2)
	require.Empty(t, byType(msgs, ws.MessageVariantError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestPerVariantChunkOrdering(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 2

	msgs, _ := runSession(t, cfg, nil, okStream("<html>abcdef</html>"), createPayload())

	perIndex := map[int][]string{}
	for _, m := range byType(msgs, ws.MessageChunk) {
		perIndex[m.VariantIndex] = append(perIndex[m.VariantIndex], m.Value)
	}
	for idx, chunks := range perIndex {
		require.Equal(t, "<html>abcdef</html>", strings.Join(chunks, ""), "variant %d", idx)
	}
}

const extractedElementsCompletion = "```json\n" + `{
  "image_dimensions": {"width": 1280, "height": 720},
  "elements": [
    {"id": "hero_logo", "type": "image", "coordinates": {"x": 24, "y": 16, "width": 120, "height": 40}}
  ]
}` + "\n```"

// elementStream answers the analysis call with extracted elements and every
// later call with generated code.
func elementStream(code string) upstream.StreamFunc {
	var calls int32
	return func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return upstream.Completion{Code: extractedElementsCompletion, Duration: time.Millisecond}, nil
		}
		return upstream.Completion{Code: code, Duration: time.Millisecond}, nil
	}
}

func elementPayload() map[string]any {
	payload := createPayload()
	payload["analysisModel"] = registry.LatestForProvider(registry.ProviderOpenAI)
	payload["isImageGenerationEnabled"] = false
	return payload
}

func TestElementExtractionInjectsAssets(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 1

	code := `<html><body><img src="https://placehold.co/120x40" alt="hero_logo"></body></html>`
	assetFn := func(ctx context.Context, imageDataURL string, els analysis.Elements, geminiKey string) (map[string]string, error) {
		require.Equal(t, testImage, imageDataURL)
		require.Len(t, els.Elements, 1)
		return map[string]string{"hero_logo": "data:image/svg+xml;base64,c3Zn"}, nil
	}

	msgs, closeCode := runSessionContext(t,
		Context{Cfg: cfg, StreamFn: elementStream(code), AssetFn: assetFn}, elementPayload())

	var statuses []string
	for _, m := range byType(msgs, ws.MessageStatus) {
		statuses = append(statuses, m.Value)
	}
	require.Contains(t, statuses, "Analyzing image and extracting elements...")
	require.Contains(t, statuses, "Extracted 1 assets")

	setCodes := byType(msgs, ws.MessageSetCode)
	require.Len(t, setCodes, 1)
	require.Contains(t, setCodes[0].Value, `src="data:image/svg+xml;base64,c3Zn"`)
	require.Contains(t, setCodes[0].Value, `alt="hero_logo"`)
	require.Empty(t, byType(msgs, ws.MessageError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestElementExtractionNoAssetsFallsBack(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 1

	code := "<html><body>plain</body></html>"
	assetFn := func(ctx context.Context, imageDataURL string, els analysis.Elements, geminiKey string) (map[string]string, error) {
		return map[string]string{}, nil
	}

	msgs, closeCode := runSessionContext(t,
		Context{Cfg: cfg, StreamFn: elementStream(code), AssetFn: assetFn}, elementPayload())

	setCodes := byType(msgs, ws.MessageSetCode)
	require.Len(t, setCodes, 1)
	require.Equal(t, code, setCodes[0].Value)
	require.Empty(t, byType(msgs, ws.MessageError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestElementExtractionFailureFailsSession(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 1

	streamFn := func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		return upstream.Completion{Code: "I cannot analyze this image."}, nil
	}

	msgs, closeCode := runSessionContext(t,
		Context{Cfg: cfg, StreamFn: streamFn}, elementPayload())

	errsMsgs := byType(msgs, ws.MessageError)
	require.Len(t, errsMsgs, 1)
	require.Contains(t, errsMsgs[0].Value, "Error during image analysis")
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestAuthErrorVariantIsolated(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 2

	var calls int32
	streamFn := func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return upstream.Completion{}, &upstream.Error{Kind: upstream.KindAuth, Provider: registry.ProviderOpenAI, Message: "invalid API key"}
		}
		return upstream.Completion{Code: "<html>ok</html>", Duration: time.Millisecond}, nil
	}

	msgs, closeCode := runSession(t, cfg, nil, streamFn, createPayload())

	variantErrors := byType(msgs, ws.MessageVariantError)
	require.Len(t, variantErrors, 1)
	require.Contains(t, variantErrors[0].Value, "Incorrect OpenAI key")

	require.Len(t, byType(msgs, ws.MessageVariantComplete), 1)
	require.Len(t, byType(msgs, ws.MessageSetCode), 1)

	// One terminal message per variant, session still healthy.
	require.Empty(t, byType(msgs, ws.MessageError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestPanickingVariantIsolated(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 2

	var calls int32
	streamFn := func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("nil model entry")
		}
		return upstream.Completion{Code: "<html>ok</html>", Duration: time.Millisecond}, nil
	}

	msgs, closeCode := runSession(t, cfg, nil, streamFn, createPayload())

	variantErrors := byType(msgs, ws.MessageVariantError)
	require.Len(t, variantErrors, 1)
	require.Contains(t, variantErrors[0].Value, "An unexpected error occurred")

	require.Len(t, byType(msgs, ws.MessageVariantComplete), 1)
	require.Len(t, byType(msgs, ws.MessageSetCode), 1)
	require.Empty(t, byType(msgs, ws.MessageError))
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestAllVariantsFailFailsSession(t *testing.T) {
	cfg := testConfig()
	cfg.NumVariants = 2

	streamFn := func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		return upstream.Completion{}, &upstream.Error{Kind: upstream.KindOther, Provider: entry.Provider, Message: "connection reset"}
	}

	msgs, closeCode := runSession(t, cfg, nil, streamFn, createPayload())

	require.Len(t, byType(msgs, ws.MessageVariantError), 2)
	errsMsgs := byType(msgs, ws.MessageError)
	require.Len(t, errsMsgs, 1)
	require.Contains(t, errsMsgs[0].Value, "Error generating code")
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestNoUsableBackendFailsSession(t *testing.T) {
	cfg := config.Default()
	cfg.StorageBackend = "none" // no provider keys at all

	msgs, closeCode := runSession(t, cfg, nil, okStream("<html></html>"), createPayload())

	errsMsgs := byType(msgs, ws.MessageError)
	require.Len(t, errsMsgs, 1)
	require.Contains(t, errsMsgs[0].Value, "No OpenAI or Anthropic API key found")
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestVideoModeRequiresAnthropicKey(t *testing.T) {
	cfg := testConfig() // openai key only
	payload := createPayload()
	payload["inputMode"] = "video"
	payload["prompt"] = map[string]any{"images": []string{"data:video/mp4;base64,aGk="}}

	msgs, closeCode := runSession(t, cfg, nil, okStream("<html></html>"), payload)

	errsMsgs := byType(msgs, ws.MessageError)
	require.Len(t, errsMsgs, 1)
	require.Contains(t, errsMsgs[0].Value, "Video only works with Anthropic models")
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestVideoModeStripsThinking(t *testing.T) {
	cfg := config.Default()
	cfg.StorageBackend = "none"
	cfg.AnthropicAPIKey = "sk-ant"
	payload := createPayload()
	payload["inputMode"] = "video"
	payload["prompt"] = map[string]any{"images": []string{"data:video/mp4;base64,aGk="}}

	completion := "<thinking>a counter app</thinking><html><body>video</body></html>"
	var gotModel string
	streamFn := func(ctx context.Context, entry registry.Entry, msgs []upstream.Message, keys upstream.Keys, onChunk upstream.ChunkFunc) (upstream.Completion, error) {
		gotModel = entry.ID
		return upstream.Completion{Code: completion, Duration: time.Millisecond}, nil
	}

	msgs, closeCode := runSession(t, cfg, nil, streamFn, payload)

	require.Equal(t, registry.VideoModelID, gotModel)
	setCodes := byType(msgs, ws.MessageSetCode)
	require.Len(t, setCodes, 1)
	require.Equal(t, "<html><body>video</body></html>", setCodes[0].Value)
	require.Equal(t, websocket.CloseNormalClosure, closeCode)
}

func TestOversizedRequestFailsBeforeVariantCount(t *testing.T) {
	cfg := testConfig()
	cfg.WSMaxPayloadBytes = 256

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := &Context{W: w, R: r, Cfg: cfg, StreamFn: okStream("<html></html>")}
		_ = NewPipeline().Execute(r.Context(), c)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 257))))

	var msgs []ws.Message
	closeCode := -1
	for {
		var m ws.Message
		if err := conn.ReadJSON(&m); err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				closeCode = ce.Code
			}
			break
		}
		msgs = append(msgs, m)
	}

	require.Len(t, msgs, 1)
	require.Equal(t, ws.MessageError, msgs[0].Type)
	require.Contains(t, msgs[0].Value, "too large")
	require.Empty(t, byType(msgs, ws.MessageVariantCount))
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestInvalidPayloadFailsSession(t *testing.T) {
	cfg := testConfig()
	payload := createPayload()
	payload["generationType"] = "remix"

	msgs, closeCode := runSession(t, cfg, nil, okStream("<html></html>"), payload)

	require.NotEmpty(t, byType(msgs, ws.MessageError))
	require.Equal(t, ws.AppErrorCloseCode, closeCode)
}

func TestUnknownStackFailsSession(t *testing.T) {
	cfg := testConfig()
	payload := createPayload()
	payload["generatedCodeConfig"] = "flutter"

	msgs, _ := runSession(t, cfg, nil, okStream("<html></html>"), payload)
	require.NotEmpty(t, byType(msgs, ws.MessageError))
}

func TestArtifactPersisted(t *testing.T) {
	dir := t.TempDir()
	store := storage.NewFileBackend(dir)
	require.NoError(t, store.Initialize(context.Background()))

	cfg := testConfig()
	msgs, _ := runSession(t, cfg, store, okStream("<html><body>persist me</body></html>"), createPayload())
	require.Len(t, byType(msgs, ws.MessageVariantComplete), 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
