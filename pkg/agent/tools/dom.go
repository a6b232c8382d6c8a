package tools

import (
	"strings"

	"golang.org/x/net/html"
)

// annotateScript stamps every interactive element with a stable mmid
// attribute so the model can address elements without brittle CSS paths.
// Existing mmids are preserved across calls; only untagged elements get
// new ids.
const annotateScript = `() => {
	let next = 1;
	document.querySelectorAll('[mmid]').forEach(el => {
		const v = parseInt(el.getAttribute('mmid'), 10);
		if (!isNaN(v) && v >= next) { next = v + 1; }
	});
	const selector = 'a, button, input, select, textarea, [role="button"], [role="link"], [role="checkbox"], [role="combobox"], [role="tab"], [role="menuitem"], [contenteditable="true"], [onclick]';
	document.querySelectorAll(selector).forEach(el => {
		if (!el.hasAttribute('mmid')) { el.setAttribute('mmid', String(next++)); }
	});
	return next - 1;
}`

// skippedElements never contribute to extracted text or fields.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"iframe":   true,
	"svg":      true,
}

// inputTags are the form elements reported for the input_fields view.
var inputTags = map[string]bool{
	"input":    true,
	"textarea": true,
	"select":   true,
	"button":   true,
}

// interactiveTags are the elements reported for the all_fields view.
var interactiveTags = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"select":   true,
	"textarea": true,
	"option":   true,
	"label":    true,
}

// domField is one interactive element as presented to the model.
type domField struct {
	Tag         string `json:"tag"`
	MMID        string `json:"mmid"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Value       string `json:"value,omitempty"`
	Role        string `json:"role,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Text        string `json:"text,omitempty"`
}

// extractVisibleText walks the parsed document and returns its readable
// text with whitespace collapsed.
func extractVisibleText(doc *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if skippedElements[strings.ToLower(n.Data)] || hasAttr(n, "hidden") {
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString(" ")
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(strings.ToLower(n.Data)) {
			b.WriteString("\n")
		}
	}
	walk(doc)
	return collapseBlankLines(b.String())
}

// collectFields gathers interactive elements carrying an mmid. The
// inputsOnly flag narrows the set to form elements.
func collectFields(doc *html.Node, inputsOnly bool) []domField {
	tags := interactiveTags
	if inputsOnly {
		tags = inputTags
	}

	var fields []domField
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skippedElements[tag] {
				return
			}
			mmid := attrValue(n, "mmid")
			role := attrValue(n, "role")
			if mmid != "" && (tags[tag] || (!inputsOnly && role != "")) {
				fields = append(fields, domField{
					Tag:         tag,
					MMID:        mmid,
					Type:        attrValue(n, "type"),
					Name:        attrValue(n, "name"),
					Placeholder: attrValue(n, "placeholder"),
					Value:       attrValue(n, "value"),
					Role:        role,
					AriaLabel:   attrValue(n, "aria-label"),
					Text:        truncate(innerText(n), 200),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return fields
}

func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.TrimSpace(n.Data))
			b.WriteString(" ")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "section", "article", "header", "footer", "main",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table",
		"tr", "br", "form", "nav":
		return true
	}
	return false
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
