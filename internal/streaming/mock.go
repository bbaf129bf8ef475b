// Package streaming provides a fake generation stream for development and
// tests, so the frontend can be exercised without burning provider tokens.
package streaming

import (
	"context"
	"time"
)

// MockConfig holds configuration for the fake stream.
type MockConfig struct {
	ChunkSize  int           // characters per chunk
	ChunkDelay time.Duration // delay between chunks
}

// DefaultMockConfig returns the default fake stream pacing.
func DefaultMockConfig() MockConfig {
	return MockConfig{
		ChunkSize:  20,
		ChunkDelay: 50 * time.Millisecond,
	}
}

const mockAppCompletion = `<html>
<head>
  <title>Mock Generation</title>
  <script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-100">
  <div class="max-w-2xl mx-auto p-8">
    <h1 class="text-3xl font-bold text-gray-900">Streaming works</h1>
    <p class="mt-4 text-gray-600">This completion was produced by the mock stream.</p>
    <img src="https://placehold.co/600x400" alt="a scenic mountain landscape at sunrise">
    <button class="mt-6 px-4 py-2 bg-blue-600 text-white rounded">Get started</button>
  </div>
</body>
</html>`

const mockVideoCompletion = `<thinking>
The recording shows a counter app with an increment button.
</thinking>
<html>
<head>
  <script src="https://cdn.tailwindcss.com"></script>
  <script src="https://code.jquery.com/jquery-3.7.1.min.js"></script>
</head>
<body class="bg-white">
  <div class="p-8 text-center">
    <span id="count" class="text-5xl font-bold">0</span>
    <button id="inc" class="block mx-auto mt-4 px-4 py-2 bg-green-600 text-white rounded">+1</button>
  </div>
  <script>$("#inc").on("click", function () { $("#count").text(+$("#count").text() + 1); });</script>
</body>
</html>`

// Mock streams a canned completion in fixed-size chunks with a small delay
// between them, invoking onChunk per chunk, and returns the full completion.
// Context cancellation stops the stream early and returns ctx.Err().
func Mock(ctx context.Context, video bool, cfg MockConfig, onChunk func(text string)) (string, error) {
	completion := mockAppCompletion
	if video {
		completion = mockVideoCompletion
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultMockConfig().ChunkSize
	}

	for i := 0; i < len(completion); i += cfg.ChunkSize {
		end := i + cfg.ChunkSize
		if end > len(completion) {
			end = len(completion)
		}
		onChunk(completion[i:end])

		if cfg.ChunkDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(cfg.ChunkDelay):
		}
	}
	return completion, nil
}
