package resolve

import (
	"html"
	"strings"
)

// Kind identifies how a segment is rendered.
type Kind int

const (
	// KindPlain is escaped text.
	KindPlain Kind = iota
	// KindLink is a hyperlink to an external database.
	KindLink
	// KindAnnotated is text carrying a descriptive tooltip.
	KindAnnotated
)

func (k Kind) String() string {
	switch k {
	case KindLink:
		return "link"
	case KindAnnotated:
		return "annotated"
	default:
		return "plain"
	}
}

// Segment is one rendered piece of a cell.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Text    string `json:"text"`
	URL     string `json:"url,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Cell is a rendered cell value: one or more segments joined by ", ".
type Cell []Segment

// Plain returns a single plain-text cell.
func Plain(text string) Cell {
	return Cell{{Kind: KindPlain, Text: text}}
}

// Link returns a single hyperlink cell.
func Link(text, url string) Cell {
	return Cell{{Kind: KindLink, Text: text, URL: url}}
}

// Annotated returns a single text-with-tooltip cell.
func Annotated(text, tooltip string) Cell {
	return Cell{{Kind: KindAnnotated, Text: text, Tooltip: tooltip}}
}

// Text returns the display text without markup.
func (c Cell) Text() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.Text
	}
	return strings.Join(parts, ", ")
}

// HTML renders the cell as an HTML fragment with all text and attributes escaped.
func (c Cell) HTML() string {
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.HTML()
	}
	return strings.Join(parts, ", ")
}

// HTML renders one segment.
func (s Segment) HTML() string {
	switch s.Kind {
	case KindLink:
		return `<a href="` + html.EscapeString(s.URL) + `" target="_blank">` + html.EscapeString(s.Text) + `</a>`
	case KindAnnotated:
		return `<span title="` + html.EscapeString(s.Tooltip) + `">` + html.EscapeString(s.Text) + `</span>`
	default:
		return html.EscapeString(s.Text)
	}
}
