package imagegen

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Generator produces one image URL (or data URL) from a prompt.
type Generator func(ctx context.Context, prompt string) (string, error)

// GenerateImages finds placeholder imgs in code, generates an image for each
// distinct alt text not already in cache, and substitutes the results.
// Failed generations leave their placeholders untouched.
func GenerateImages(ctx context.Context, code string, cache map[string]string, gen Generator) string {
	doc, err := html.Parse(strings.NewReader(code))
	if err != nil {
		return code
	}

	seen := map[string]bool{}
	var prompts []string
	walkImages(doc, func(n *html.Node) {
		if !strings.HasPrefix(attr(n, "src"), placeholderPrefix) {
			return
		}
		alt := attr(n, "alt")
		if alt == "" || cache[alt] != "" || seen[alt] {
			return
		}
		seen[alt] = true
		prompts = append(prompts, alt)
	})
	if len(prompts) == 0 {
		return code
	}

	start := time.Now()
	generated := generateAll(ctx, prompts, gen)
	log.Debugf("generated %d images in %s", len(generated), time.Since(start).Round(time.Millisecond))

	// Cached URLs win over fresh generations.
	for alt, url := range cache {
		generated[alt] = url
	}

	walkImages(doc, func(n *html.Node) {
		src := attr(n, "src")
		if !strings.HasPrefix(src, placeholderPrefix) {
			return
		}
		alt := attr(n, "alt")
		url := generated[alt]
		if url == "" {
			log.Warnf("image generation failed for alt text: %s", alt)
			return
		}
		w, h := ExtractDimensions(src)
		setAttr(n, "width", strconv.Itoa(w))
		setAttr(n, "height", strconv.Itoa(h))
		setAttr(n, "src", url)
	})
	return render(doc, code)
}

// generateAll runs one generation per prompt concurrently. Failures are
// logged and omitted from the result.
func generateAll(ctx context.Context, prompts []string, gen Generator) map[string]string {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string]string, len(prompts))
	)
	for _, prompt := range prompts {
		wg.Add(1)
		go func(prompt string) {
			defer wg.Done()
			url, err := gen(ctx, prompt)
			if err != nil {
				log.WithError(err).Warnf("image generation failed for %q", prompt)
				return
			}
			mu.Lock()
			out[prompt] = url
			mu.Unlock()
		}(prompt)
	}
	wg.Wait()
	return out
}
