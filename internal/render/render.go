// Package render turns a projected table into console text or a styled HTML
// document. It classifies already-projected cell values into presentation
// classes; it never invents data.
package render

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"shiftreport/internal/domain"
)

// Presentation classes resolved by the cell and row rules.
const (
	ClassAlertRed    = "alert-red"
	ClassAlertYellow = "alert-yellow"
	ClassOdd         = "odd"
	ClassEven        = "even"
)

// Console formats the table for fixed-width text display, no styling.
func Console(t domain.Table) string {
	if t.Empty() {
		return t.Message
	}
	tw := table.NewWriter()
	hdr := make(table.Row, 0, len(t.Headers))
	for _, h := range t.Headers {
		hdr = append(hdr, h)
	}
	tw.AppendHeader(hdr)
	for _, r := range t.Rows {
		row := make(table.Row, 0, len(r))
		for _, c := range r {
			row = append(row, c)
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// CellClass resolves the styling class for one cell. Only Priority cells
// carry alert classes; any unrecognized value gets none.
func CellClass(header, value string) string {
	if header != "Priority" {
		return ""
	}
	switch value {
	case "P0 - Emergency":
		return ClassAlertRed
	case "P1 - Warning":
		return ClassAlertYellow
	}
	return ""
}

// RowClass alternates strictly by zero-based position: index 0 is odd,
// index 1 is even, regardless of content.
func RowClass(index int) string {
	if index%2 == 0 {
		return ClassOdd
	}
	return ClassEven
}

// Options carries the caller-supplied wrapping content for the HTML document.
// Greeting and Closing are trusted HTML fragments from config, not user data.
type Options struct {
	Greeting   string
	Closing    string
	StyleSheet string
}

// Document renders the table as a complete HTML document wrapped with the
// caller-supplied greeting and closing content.
func Document(t domain.Table, opts Options) (string, error) {
	css := opts.StyleSheet
	if css == "" {
		css = DefaultStyleSheet
	}
	content := make([]Node, 0, 3)
	if opts.Greeting != "" {
		content = append(content, P(Class("greeting"), Raw(opts.Greeting)))
	}
	if t.Empty() {
		content = append(content, P(Class("empty"), Text(t.Message)))
	} else {
		content = append(content, tableNode(t))
	}
	if opts.Closing != "" {
		content = append(content, P(Class("closing"), Raw(opts.Closing)))
	}
	page := Doctype(
		HTML(Lang("en"),
			Head(TitleEl(Text(t.Title)), StyleEl(Raw(css))),
			Body(Group(content)),
		),
	)
	var sb strings.Builder
	if err := page.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func tableNode(t domain.Table) Node {
	head := make([]Node, 0, len(t.Headers))
	for _, h := range t.Headers {
		head = append(head, Th(Text(h)))
	}
	rows := make([]Node, 0, len(t.Rows))
	for i, r := range t.Rows {
		cells := make([]Node, 0, len(r))
		for j, c := range r {
			var content Node = Text(c)
			if t.RawColumn(j) {
				content = Raw(c)
			}
			if cls := CellClass(t.Headers[j], c); cls != "" {
				cells = append(cells, Td(Class(cls), content))
			} else {
				cells = append(cells, Td(content))
			}
		}
		rows = append(rows, Tr(Class(RowClass(i)), Group(cells)))
	}
	return Table(
		Caption(Text(t.Title)),
		THead(Tr(Group(head))),
		TBody(Group(rows)),
	)
}

// DefaultStyleSheet is used when the caller supplies no style sheet.
const DefaultStyleSheet = `body { font-family: Segoe UI, Arial, sans-serif; font-size: 14px; color: #222; }
table { border-collapse: collapse; }
caption { text-align: left; font-weight: bold; padding: 4px 0; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #2b579a; color: #fff; }
tr.odd { background: #f4f6fa; }
tr.even { background: #ffffff; }
td.alert-red { background: #c62828; color: #fff; font-weight: bold; }
td.alert-yellow { background: #f9a825; }
p.empty { font-style: italic; }
p.closing { color: #777; font-size: 12px; }`
