package resolve

import (
	"bufio"
	"html"
	"io"

	"github.com/amrverse/amrrulebrowser/internal/rules"
)

// TableOptions controls header decoration when rendering a table.
type TableOptions struct {
	SortColumn string
	Descending bool
}

// RenderTable writes headers and rows as an HTML table, resolving every cell.
// Header cells carry their column description as a title and a specification
// link when one exists; the sorted column gets an arrow.
func (r *Resolver) RenderTable(w io.Writer, headers []string, rows []rules.Row, opts TableOptions) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("<table>\n<thead>\n<tr>")
	for _, h := range headers {
		bw.WriteString("<th")
		if tip, ok := HeaderTooltip(h); ok {
			bw.WriteString(` title="` + html.EscapeString(tip) + `"`)
		}
		bw.WriteString(">" + html.EscapeString(h))
		if h == opts.SortColumn && h != "" {
			if opts.Descending {
				bw.WriteString(" ↓")
			} else {
				bw.WriteString(" ↑")
			}
		}
		if u, ok := InfoLink(h); ok {
			bw.WriteString(` <a class="info-icon" href="` + html.EscapeString(u) + `" target="_blank" rel="noopener noreferrer">i</a>`)
		}
		bw.WriteString("</th>")
	}
	bw.WriteString("</tr>\n</thead>\n<tbody>\n")

	for _, row := range rows {
		bw.WriteString("<tr>")
		for _, h := range headers {
			bw.WriteString("<td>" + r.Resolve(h, row.Value(h), row).HTML() + "</td>")
		}
		bw.WriteString("</tr>\n")
	}
	bw.WriteString("</tbody>\n</table>\n")

	return bw.Flush()
}
