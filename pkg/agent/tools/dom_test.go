package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseHTML(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestExtractVisibleText(t *testing.T) {
	doc := parseHTML(t, `<html><head><title>ignored</title>
		<script>var hidden = true;</script>
		<style>.x { color: red }</style></head>
		<body>
		<h1>Flight search</h1>
		<p>From <b>Helsinki</b> to Oslo</p>
		<div hidden>secret</div>
		</body></html>`)

	text := extractVisibleText(doc)
	assert.Contains(t, text, "Flight search")
	assert.Contains(t, text, "From Helsinki to Oslo")
	assert.NotContains(t, text, "var hidden")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "secret")

	// Block elements keep their line structure.
	lines := strings.Split(text, "\n")
	assert.Equal(t, "Flight search", lines[0])
}

func TestCollectFields_InputsOnly(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<input mmid="1" type="text" name="origin" placeholder="From">
		<select mmid="2" name="cabin"></select>
		<a mmid="3" href="/help">Help</a>
		<button mmid="4">Search</button>
		<input type="text" name="untagged">
		</body></html>`)

	fields := collectFields(doc, true)
	require.Len(t, fields, 3)

	byMMID := map[string]domField{}
	for _, f := range fields {
		byMMID[f.MMID] = f
	}

	origin := byMMID["1"]
	assert.Equal(t, "input", origin.Tag)
	assert.Equal(t, "text", origin.Type)
	assert.Equal(t, "origin", origin.Name)
	assert.Equal(t, "From", origin.Placeholder)

	assert.Equal(t, "select", byMMID["2"].Tag)
	assert.Equal(t, "Search", byMMID["4"].Text)

	// Links are not form inputs; untagged elements are invisible.
	assert.NotContains(t, byMMID, "3")
}

func TestCollectFields_AllFields(t *testing.T) {
	doc := parseHTML(t, `<html><body>
		<a mmid="1" href="/book">Book now</a>
		<div mmid="2" role="button" aria-label="Close dialog">X</div>
		<div mmid="3">plain container</div>
		</body></html>`)

	fields := collectFields(doc, false)
	require.Len(t, fields, 2)

	assert.Equal(t, "a", fields[0].Tag)
	assert.Equal(t, "Book now", fields[0].Text)

	// Role makes a non-interactive tag addressable.
	assert.Equal(t, "button", fields[1].Role)
	assert.Equal(t, "Close dialog", fields[1].AriaLabel)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde...", truncate("abcdefgh", 5))
}
