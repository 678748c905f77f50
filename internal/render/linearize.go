package render

import (
	"strings"

	"github.com/Harsidak/papermd/internal/layout"
)

const displayMathPrefix = "$$"

// Linearize walks lines in reading order and returns their text, with equations
// wrapped in LaTeX delimiters and lines joined into flowing paragraphs.
//
// Lines that render to nothing after trimming are dropped. A line ending in a
// hyphen is glued to the next one without a space. This is purely textual: a
// compound like "well-" / "known" loses its hyphen too.
func Linearize(lines []layout.Line) string {
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		if t := linearizeLine(line); t != "" {
			texts = append(texts, t)
		}
	}
	return joinLines(texts)
}

func linearizeLine(line layout.Line) string {
	var b strings.Builder
	for _, span := range line.Spans {
		b.WriteString(renderSpan(span))
	}
	return strings.TrimSpace(b.String())
}

func renderSpan(span layout.Span) string {
	switch span.Kind {
	case layout.SpanText:
		return span.Content
	case layout.SpanInlineEquation:
		if latex := strings.TrimSpace(span.Content); latex != "" {
			return " $" + latex + "$ "
		}
		return ""
	case layout.SpanInterlineEquation:
		if latex := strings.TrimSpace(span.Content); latex != "" {
			return "\n\n" + displayMathPrefix + latex + displayMathPrefix + "\n\n"
		}
		return ""
	case layout.SpanImage:
		return mediaLink(defaultFigureAlt, span.ImagePath)
	case layout.SpanTable:
		return mediaLink(defaultTableAlt, span.ImagePath)
	default:
		return span.Content
	}
}

func mediaLink(alt, path string) string {
	if path == "" {
		return ""
	}
	return "![" + alt + "](" + path + ")"
}

type entry struct {
	text    string
	display bool
}

// joinLines merges per-line strings into paragraph entries. A line starting
// with $$ always opens its own entry; any entry ending in a hyphen, display
// entries included, absorbs the next plain line. Display entries are set off
// from their neighbours by a blank line, other entries by a single space.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	entries := make([]entry, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), displayMathPrefix) {
			entries = append(entries, entry{text: line, display: true})
			continue
		}
		if n := len(entries); n > 0 && strings.HasSuffix(entries[n-1].text, "-") {
			prev := entries[n-1].text
			entries[n-1].text = prev[:len(prev)-1] + line
			continue
		}
		entries = append(entries, entry{text: line})
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			if e.display || entries[i-1].display {
				b.WriteString("\n\n")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(e.text)
	}
	return b.String()
}
