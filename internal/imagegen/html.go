// Package imagegen replaces placeholder images in generated code with real
// generated images.
package imagegen

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const placeholderPrefix = "https://placehold.co"

var dimensionsRe = regexp.MustCompile(`(\d+)x(\d+)`)

// ExtractDimensions pulls WxH out of a placeholder URL, defaulting to
// 100x100 when the URL carries no dimensions.
func ExtractDimensions(url string) (width, height int) {
	m := dimensionsRe.FindStringSubmatch(url)
	if m == nil {
		return 100, 100
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	return width, height
}

// CreateAltURLMapping maps alt text to src for every img in code that is no
// longer a placeholder, so later turns can reuse already-generated images.
func CreateAltURLMapping(code string) map[string]string {
	mapping := map[string]string{}
	doc, err := html.Parse(strings.NewReader(code))
	if err != nil {
		return mapping
	}
	walkImages(doc, func(n *html.Node) {
		src := attr(n, "src")
		if src == "" || strings.HasPrefix(src, placeholderPrefix) {
			return
		}
		if alt := attr(n, "alt"); alt != "" {
			mapping[alt] = src
		}
	})
	return mapping
}

// ApplyImageCache swaps placeholder imgs whose alt text is already cached
// for the cached URL, carrying over dimensions from the placeholder.
func ApplyImageCache(code string, cache map[string]string) string {
	if len(cache) == 0 {
		return code
	}
	doc, err := html.Parse(strings.NewReader(code))
	if err != nil {
		return code
	}
	changed := false
	walkImages(doc, func(n *html.Node) {
		src := attr(n, "src")
		if !strings.HasPrefix(src, placeholderPrefix) {
			return
		}
		url, ok := cache[attr(n, "alt")]
		if !ok || url == "" {
			return
		}
		w, h := ExtractDimensions(src)
		setAttr(n, "width", strconv.Itoa(w))
		setAttr(n, "height", strconv.Itoa(h))
		setAttr(n, "src", url)
		changed = true
	})
	if !changed {
		return code
	}
	return render(doc, code)
}

func walkImages(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.Data == "img" {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkImages(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func render(doc *html.Node, fallback string) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return fallback
	}
	return buf.String()
}
