package view

import (
	"bytes"
	"html"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
	"github.com/storefront/internal/prismic"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps(), goldmarkhtml.WithXHTML()),
	)
	sanitizer = newSanitizer()
)

func newSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).OnElements("span", "p", "div")
	policy.AllowAttrs("data-oembed").OnElements("div")
	policy.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	return policy
}

var blockTags = map[string]string{
	"heading1":     "h1",
	"heading2":     "h2",
	"heading3":     "h3",
	"heading4":     "h4",
	"heading5":     "h5",
	"heading6":     "h6",
	"paragraph":    "p",
	"preformatted": "pre",
	"list-item":    "li",
	"o-list-item":  "li",
}

// AsText flattens a rich text field to plain text. Key text strings pass
// through unchanged.
func AsText(field any) string {
	switch value := field.(type) {
	case nil:
		return ""
	case string:
		return value
	case []any:
		parts := make([]string, 0, len(value))
		for _, raw := range value {
			block, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := block["text"].(string); ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// AsHTML serializes a rich text field to sanitized HTML.
func AsHTML(field any) template.HTML {
	switch value := field.(type) {
	case nil:
		return ""
	case string:
		return template.HTML(html.EscapeString(value))
	case []any:
		return template.HTML(sanitizer.Sanitize(serializeRichText(value)))
	default:
		return ""
	}
}

// AsMarkdown renders a markdown key text field.
func AsMarkdown(field any) template.HTML {
	content, ok := field.(string)
	if !ok || strings.TrimSpace(content) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return template.HTML(html.EscapeString(content))
	}
	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

// AsImageSrc returns the url of an image field, or "".
func AsImageSrc(field any) string {
	image, ok := field.(map[string]any)
	if !ok {
		return ""
	}
	return stringField(image, "url")
}

// AsDate formats a date field or publication time for display.
func AsDate(field any) string {
	var t time.Time
	switch value := field.(type) {
	case *prismic.Time:
		if value == nil {
			return ""
		}
		t = value.Time
	case prismic.Time:
		t = value.Time
	case time.Time:
		t = value
	case string:
		parsed, err := prismic.ParseTime(value)
		if err != nil {
			return ""
		}
		t = parsed
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func serializeRichText(blocks []any) string {
	var b strings.Builder
	openList := ""
	closeList := func() {
		if openList != "" {
			b.WriteString("</" + openList + ">")
			openList = ""
		}
	}

	for _, raw := range blocks {
		block, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		blockType := stringField(block, "type")

		listTag := ""
		switch blockType {
		case "list-item":
			listTag = "ul"
		case "o-list-item":
			listTag = "ol"
		}
		if listTag != openList {
			closeList()
			if listTag != "" {
				b.WriteString("<" + listTag + ">")
				openList = listTag
			}
		}

		switch blockType {
		case "image":
			b.WriteString(`<p class="block-img"><img src="`)
			b.WriteString(html.EscapeString(stringField(block, "url")))
			b.WriteString(`" alt="`)
			b.WriteString(html.EscapeString(stringField(block, "alt")))
			b.WriteString(`" /></p>`)
		case "embed":
			oembed, _ := block["oembed"].(map[string]any)
			b.WriteString(`<div data-oembed="`)
			b.WriteString(html.EscapeString(stringField(oembed, "embed_url")))
			b.WriteString(`">`)
			if markup, ok := oembed["html"].(string); ok {
				b.WriteString(markup)
			}
			b.WriteString("</div>")
		default:
			tag, ok := blockTags[blockType]
			if !ok {
				continue
			}
			text, _ := block["text"].(string)
			b.WriteString("<" + tag + ">")
			b.WriteString(serializeSpans(text, parseSpans(block["spans"])))
			b.WriteString("</" + tag + ">")
		}
	}
	closeList()
	return b.String()
}

type span struct {
	Start int
	End   int
	Type  string
	Data  map[string]any
}

func parseSpans(raw any) []span {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	spans := make([]span, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		start, okStart := m["start"].(float64)
		end, okEnd := m["end"].(float64)
		if !okStart || !okEnd || end <= start {
			continue
		}
		data, _ := m["data"].(map[string]any)
		spans = append(spans, span{Start: int(start), End: int(end), Type: stringField(m, "type"), Data: data})
	}
	// Outer spans first so they are opened before the spans they contain.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
	return spans
}

// serializeSpans applies spans to text. Offsets are UTF-16 code units.
func serializeSpans(text string, spans []span) string {
	units := utf16.Encode([]rune(text))
	length := len(units)

	boundaries := map[int]struct{}{0: {}, length: {}}
	for i := range spans {
		spans[i].Start = clamp(spans[i].Start, 0, length)
		spans[i].End = clamp(spans[i].End, 0, length)
		boundaries[spans[i].Start] = struct{}{}
		boundaries[spans[i].End] = struct{}{}
	}
	points := make([]int, 0, len(boundaries))
	for p := range boundaries {
		points = append(points, p)
	}
	sort.Ints(points)

	var b strings.Builder
	var stack []span
	next := 0

	for idx, pos := range points {
		// Close everything ending here, reopening spans that were popped
		// only to keep the markup well nested.
		var reopen []span
		for hasEndingAt(stack, pos) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			b.WriteString(closeTag(top))
			if top.End != pos {
				reopen = append(reopen, top)
			}
		}
		for i := len(reopen) - 1; i >= 0; i-- {
			b.WriteString(openTag(reopen[i]))
			stack = append(stack, reopen[i])
		}

		for next < len(spans) && spans[next].Start == pos {
			if spans[next].End > pos {
				b.WriteString(openTag(spans[next]))
				stack = append(stack, spans[next])
			}
			next++
		}

		if idx+1 < len(points) {
			segment := string(utf16.Decode(units[pos:points[idx+1]]))
			escaped := html.EscapeString(segment)
			b.WriteString(strings.ReplaceAll(escaped, "\n", "<br />"))
		}
	}
	return b.String()
}

func hasEndingAt(stack []span, pos int) bool {
	for _, s := range stack {
		if s.End == pos {
			return true
		}
	}
	return false
}

func openTag(s span) string {
	switch s.Type {
	case "strong":
		return "<strong>"
	case "em":
		return "<em>"
	case "hyperlink":
		href := hyperlinkHref(s.Data)
		target := ""
		if stringField(s.Data, "target") == "_blank" {
			target = ` target="_blank" rel="noopener"`
		}
		return `<a href="` + html.EscapeString(href) + `"` + target + `>`
	default:
		label := stringField(s.Data, "label")
		if label == "" {
			label = s.Type
		}
		return `<span class="` + html.EscapeString(label) + `">`
	}
}

func closeTag(s span) string {
	switch s.Type {
	case "strong":
		return "</strong>"
	case "em":
		return "</em>"
	case "hyperlink":
		return "</a>"
	default:
		return "</span>"
	}
}

func hyperlinkHref(data map[string]any) string {
	if stringField(data, "link_type") == "Document" {
		return Link(data)
	}
	if url := stringField(data, "url"); url != "" {
		return url
	}
	return "#"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
