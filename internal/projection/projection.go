// Package projection maps raw heterogeneous work-item records into a flat,
// display-ready table under a declarative column specification.
package projection

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"shiftreport/internal/config"
	"shiftreport/internal/domain"
)

// Kind tags how a column's cells are rendered. Decided once when the spec is
// compiled, never re-derived per cell.
type Kind int

const (
	KindPlain Kind = iota
	KindIdentifier
	KindDate
	KindLinkedTitle
)

// Column is one compiled output column.
type Column struct {
	Display string
	Field   string
	Kind    Kind
}

// Spec is a compiled, validated column specification.
type Spec struct {
	Columns      []Column
	LinkTemplate string
}

const (
	dateLayout = "01/02/2006 15:04"

	// Rendered in place of a missing or unparseable timestamp so one bad
	// cell cannot abort the whole run.
	datePlaceholder = "??/??/???? --:--"

	// NoResults is the sentinel message substituted for a zero-row table.
	NoResults = "No work items found."
)

// Compile validates the column pairs and tags each column:
// index 0 is the identifier column and must read the top-level id; a display
// name ending in "Date" is a date column; the column named exactly "Title"
// becomes a linked title when titleAsLink is set; everything else is plain.
func Compile(cols []config.Column, titleAsLink bool, linkTemplate string) (Spec, error) {
	if len(cols) == 0 {
		return Spec{}, fmt.Errorf("projection: empty column spec")
	}
	if cols[0].Field != config.IdentifierField {
		return Spec{}, fmt.Errorf("projection: first column must read %s, got %s", config.IdentifierField, cols[0].Field)
	}
	if titleAsLink && !strings.Contains(linkTemplate, config.LinkPlaceholder) {
		return Spec{}, fmt.Errorf("projection: link template %q missing %s", linkTemplate, config.LinkPlaceholder)
	}
	compiled := make([]Column, 0, len(cols))
	for i, c := range cols {
		if c.Display == "" || c.Field == "" {
			return Spec{}, fmt.Errorf("projection: column %d has empty name", i)
		}
		col := Column{Display: c.Display, Field: c.Field, Kind: KindPlain}
		switch {
		case i == 0:
			col.Kind = KindIdentifier
		case strings.HasSuffix(c.Display, "Date"):
			col.Kind = KindDate
		case c.Display == "Title" && titleAsLink:
			col.Kind = KindLinkedTitle
		}
		compiled = append(compiled, col)
	}
	return Spec{Columns: compiled, LinkTemplate: linkTemplate}, nil
}

// Project maps the records into a table: one row per record, one cell per
// column, in column order. No filtering, sorting, or aggregation. Zero
// records yield the no-results sentinel instead of a zero-row table.
func (s Spec) Project(items []domain.WorkItem, title string) domain.Table {
	t := domain.Table{Title: title, Headers: s.headers()}
	for i, col := range s.Columns {
		if col.Kind == KindLinkedTitle {
			t.RawColumns = append(t.RawColumns, i)
		}
	}
	if len(items) == 0 {
		t.Message = NoResults
		return t
	}
	for _, item := range items {
		row := make([]string, 0, len(s.Columns))
		for _, col := range s.Columns {
			row = append(row, s.cell(item, col))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func (s Spec) cell(item domain.WorkItem, col Column) string {
	switch col.Kind {
	case KindIdentifier:
		return strconv.Itoa(item.ID)
	case KindDate:
		return renderDate(item.Fields[col.Field])
	case KindLinkedTitle:
		target := strings.ReplaceAll(s.LinkTemplate, config.LinkPlaceholder, strconv.Itoa(item.ID))
		text := naturalString(item.Fields[col.Field])
		return fmt.Sprintf("<a href=%q>%s</a>", target, html.EscapeString(text))
	default:
		return naturalString(item.Fields[col.Field])
	}
}

// renderDate interprets the nested value as a UTC timestamp and formats it
// as MM/dd/yyyy HH:mm without converting to local time. Missing or malformed
// values degrade to a visible placeholder for that cell only.
func renderDate(v any) string {
	raw, ok := v.(string)
	if !ok || raw == "" {
		return datePlaceholder
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return datePlaceholder
	}
	return ts.UTC().Format(dateLayout)
}

func naturalString(v any) string {
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		// JSON numbers decode to float64; integral values print without
		// a fraction.
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any:
		// Identity fields nest a displayName; fall back to the raw map.
		if name, ok := x["displayName"].(string); ok {
			return name
		}
		return fmt.Sprint(x)
	default:
		return fmt.Sprint(x)
	}
}

func (s Spec) headers() []string {
	h := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		h = append(h, c.Display)
	}
	return h
}
