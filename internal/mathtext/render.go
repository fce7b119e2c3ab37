package mathtext

import (
	"html"
	"strings"
)

// RenderHTML escapes plain text and wraps math in spans carrying the LaTeX source in
// data-math. The page typesets those spans with KaTeX and leaves the source visible
// when typesetting fails.
func RenderHTML(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case Plain:
			b.WriteString(strings.ReplaceAll(html.EscapeString(seg.Text), "\n", "<br>\n"))
		case Inline:
			writeMathSpan(&b, "math math-inline", "$"+seg.Text+"$", seg.Text)
		case Block:
			writeMathSpan(&b, "math math-block", "$$"+seg.Text+"$$", seg.Text)
		}
	}
	return b.String()
}

func writeMathSpan(b *strings.Builder, class, fallback, source string) {
	b.WriteString(`<span class="`)
	b.WriteString(class)
	b.WriteString(`" data-math="`)
	b.WriteString(html.EscapeString(source))
	b.WriteString(`">`)
	b.WriteString(html.EscapeString(fallback))
	b.WriteString(`</span>`)
}

// RenderText formats segments for a terminal. Inline math keeps its delimiters and block
// math is placed on its own indented line.
func RenderText(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case Plain:
			b.WriteString(seg.Text)
		case Inline:
			b.WriteString("$" + seg.Text + "$")
		case Block:
			out := strings.TrimRight(b.String(), " \t")
			b.Reset()
			b.WriteString(out)
			if out != "" && !strings.HasSuffix(out, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("    ")
			b.WriteString(strings.ReplaceAll(strings.TrimSpace(seg.Text), "\n", "\n    "))
			b.WriteString("\n")
		}
	}
	return b.String()
}
