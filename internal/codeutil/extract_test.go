package codeutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractHTMLFromProse(t *testing.T) {
	in := "Sure! Here is your page:\n<html lang=\"en\"><body>hi</body></html>\nLet me know if you need changes."
	require.Equal(t, `<html lang="en"><body>hi</body></html>`, ExtractHTML(in))
}

func TestExtractHTMLFromFence(t *testing.T) {
	in := "```html\n<html><body>fenced</body></html>\n```"
	require.Equal(t, "<html><body>fenced</body></html>", ExtractHTML(in))
}

func TestExtractHTMLFenceWithoutDocument(t *testing.T) {
	in := "```html\n<div>just a fragment</div>\n```"
	require.Equal(t, "<div>just a fragment</div>", ExtractHTML(in))
}

func TestExtractHTMLSVG(t *testing.T) {
	in := "Here you go: <svg viewBox=\"0 0 10 10\"><rect/></svg> enjoy"
	require.Equal(t, `<svg viewBox="0 0 10 10"><rect/></svg>`, ExtractHTML(in))
}

func TestExtractHTMLPassthrough(t *testing.T) {
	in := "no document here at all"
	require.Equal(t, in, ExtractHTML(in))
}

func TestStripThinking(t *testing.T) {
	in := "<thinking>\nthe page has a nav bar\n</thinking>\n<html><body>done</body></html>"
	require.Equal(t, "<html><body>done</body></html>", StripThinking(in))

	require.Equal(t, "plain", StripThinking("plain"))
}
