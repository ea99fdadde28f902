// Package render is the boundary to the templating collaborator: it
// escapes free-form text for the target document format, executes the
// generator template against the flat context map, and invokes the
// external build command.
package render

import (
	"strings"

	"github.com/xolan/clinvoice/internal/invoice"
)

// EscapeLaTeX escapes LaTeX special characters in free-form text.
func EscapeLaTeX(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '&':
			b.WriteString(`\&`)
		case '%':
			b.WriteString(`\%`)
		case '$':
			b.WriteString(`\$`)
		case '#':
			b.WriteString(`\#`)
		case '_':
			b.WriteString(`\_`)
		case '{':
			b.WriteString(`\{`)
		case '}':
			b.WriteString(`\}`)
		case '~':
			b.WriteString(`\textasciitilde{}`)
		case '^':
			b.WriteString(`\textasciicircum{}`)
		case '\\':
			b.WriteString(`\textbackslash{}`)
		case '<':
			b.WriteString(`\textless{}`)
		case '>':
			b.WriteString(`\textgreater{}`)
		case '|':
			b.WriteString(`\textbar{}`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// EscapeMarkdown backslash-escapes Markdown control characters.
func EscapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '\\', '`', '*', '_', '{', '}', '[', ']', '(', ')', '#', '+', '-', '!':
			b.WriteByte('\\')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// EscapeFor returns the escape function for a generator escape mode.
// Unknown or empty modes pass text through unchanged.
func EscapeFor(mode string) invoice.EscapeFunc {
	switch mode {
	case "latex":
		return EscapeLaTeX
	case "markdown":
		return EscapeMarkdown
	default:
		return nil
	}
}
