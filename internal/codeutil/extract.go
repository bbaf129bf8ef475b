// Package codeutil post-processes model completions into embeddable code.
package codeutil

import (
	"regexp"
	"strings"
)

var (
	fenceRe    = regexp.MustCompile("(?s)```(?:html|svg)?\\s*(.*?)```")
	htmlRe     = regexp.MustCompile(`(?s)<html.*?>.*?</html>`)
	svgRe      = regexp.MustCompile(`(?s)<svg.*?>.*?</svg>`)
	thinkingRe = regexp.MustCompile(`(?s)<thinking>.*?</thinking>`)
)

// ExtractHTML collapses a completion to the embeddable document: markdown
// fences and surrounding prose are dropped, keeping the <html> (or <svg>)
// element. Completions with no recognizable document pass through unchanged.
func ExtractHTML(completion string) string {
	text := completion
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if m := htmlRe.FindString(text); m != "" {
		return m
	}
	if m := svgRe.FindString(text); m != "" {
		return m
	}
	if text != completion {
		return strings.TrimSpace(text)
	}
	return completion
}

// StripThinking removes <thinking> blocks that some prompts ask the model to
// emit before the code.
func StripThinking(completion string) string {
	return strings.TrimSpace(thinkingRe.ReplaceAllString(completion, ""))
}
