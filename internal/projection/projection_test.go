package projection_test

import (
	"strings"
	"testing"

	"shiftreport/internal/config"
	"shiftreport/internal/domain"
	"shiftreport/internal/projection"
)

func testColumns() []config.Column {
	return []config.Column{
		{Display: "ID", Field: "System.Id"},
		{Display: "Title", Field: "System.Title"},
		{Display: "Priority", Field: "Microsoft.VSTS.Common.Severity"},
		{Display: "Pickup Date", Field: "System.CreatedDate"},
	}
}

func mustCompile(t *testing.T, titleAsLink bool) projection.Spec {
	t.Helper()
	spec, err := projection.Compile(testColumns(), titleAsLink, "https://tfs.example.com/Ops/_workitems/edit/{id}")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return spec
}

func item(id int, fields map[string]any) domain.WorkItem {
	return domain.WorkItem{ID: id, Fields: fields}
}

func TestProjectShape(t *testing.T) {
	spec := mustCompile(t, false)
	items := []domain.WorkItem{
		item(1, map[string]any{"System.Title": "a", "System.CreatedDate": "2023-06-01T16:00:00Z"}),
		item(2, map[string]any{"System.Title": "b", "System.CreatedDate": "2023-06-01T17:00:00Z"}),
		item(3, map[string]any{"System.Title": "c", "System.CreatedDate": "2023-06-01T18:00:00Z"}),
	}
	tbl := spec.Project(items, "report")
	if tbl.Empty() {
		t.Fatalf("expected rows")
	}
	if len(tbl.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(tbl.Rows))
	}
	want := []string{"ID", "Title", "Priority", "Pickup Date"}
	if len(tbl.Headers) != len(want) {
		t.Fatalf("expected %d headers, got %d", len(want), len(tbl.Headers))
	}
	for i, h := range want {
		if tbl.Headers[i] != h {
			t.Fatalf("header %d: want %q got %q", i, h, tbl.Headers[i])
		}
	}
	for _, row := range tbl.Rows {
		if len(row) != len(want) {
			t.Fatalf("row has %d cells, want %d", len(row), len(want))
		}
	}
}

func TestIdentifierColumnReadsTopLevelID(t *testing.T) {
	spec := mustCompile(t, false)
	// the nested mapping carries a conflicting value under the same name
	items := []domain.WorkItem{item(42, map[string]any{"System.Id": "999", "System.Title": "x"})}
	tbl := spec.Project(items, "report")
	if tbl.Rows[0][0] != "42" {
		t.Fatalf("identifier cell: want 42, got %q", tbl.Rows[0][0])
	}
}

func TestDateRenderedUTC(t *testing.T) {
	spec := mustCompile(t, false)
	items := []domain.WorkItem{item(1, map[string]any{"System.CreatedDate": "2023-06-01T16:00:00Z"})}
	tbl := spec.Project(items, "report")
	if got := tbl.Rows[0][3]; got != "06/01/2023 16:00" {
		t.Fatalf("date cell: want 06/01/2023 16:00, got %q", got)
	}
	// offset timestamps normalize to UTC, never local time
	items = []domain.WorkItem{item(1, map[string]any{"System.CreatedDate": "2023-06-01T18:00:00+02:00"})}
	tbl = spec.Project(items, "report")
	if got := tbl.Rows[0][3]; got != "06/01/2023 16:00" {
		t.Fatalf("offset date cell: want 06/01/2023 16:00, got %q", got)
	}
}

func TestMalformedDateDegradesToPlaceholder(t *testing.T) {
	spec := mustCompile(t, false)
	items := []domain.WorkItem{
		item(1, map[string]any{"System.CreatedDate": "last tuesday"}),
		item(2, map[string]any{}),
	}
	tbl := spec.Project(items, "report")
	for i, row := range tbl.Rows {
		if !strings.Contains(row[3], "??") {
			t.Fatalf("row %d: expected placeholder, got %q", i, row[3])
		}
	}
}

func TestTitleAsLink(t *testing.T) {
	items := []domain.WorkItem{item(42, map[string]any{"System.Title": "Fix leak"})}

	linked := mustCompile(t, true).Project(items, "report")
	cell := linked.Rows[0][1]
	if !strings.HasPrefix(cell, "<a href=") || !strings.Contains(cell, "/42") || !strings.Contains(cell, ">Fix leak</a>") {
		t.Fatalf("linked title cell: %q", cell)
	}
	if !linked.RawColumn(1) {
		t.Fatalf("expected title column marked raw")
	}

	plain := mustCompile(t, false).Project(items, "report")
	if plain.Rows[0][1] != "Fix leak" {
		t.Fatalf("plain title cell: %q", plain.Rows[0][1])
	}
	if plain.RawColumn(1) {
		t.Fatalf("plain title column must not be raw")
	}
}

func TestLinkedTitleEscapesText(t *testing.T) {
	spec := mustCompile(t, true)
	items := []domain.WorkItem{item(7, map[string]any{"System.Title": "a <b> & c"})}
	tbl := spec.Project(items, "report")
	if strings.Contains(tbl.Rows[0][1], "<b>") {
		t.Fatalf("title text not escaped: %q", tbl.Rows[0][1])
	}
}

func TestEmptyInputYieldsSentinel(t *testing.T) {
	spec := mustCompile(t, true)
	tbl := spec.Project(nil, "report")
	if !tbl.Empty() {
		t.Fatalf("expected sentinel")
	}
	if tbl.Message != projection.NoResults {
		t.Fatalf("sentinel message: %q", tbl.Message)
	}
	if len(tbl.Rows) != 0 {
		t.Fatalf("sentinel must carry no rows")
	}
}

func TestNestedIdentityFieldUsesDisplayName(t *testing.T) {
	spec := mustCompile(t, false)
	items := []domain.WorkItem{item(1, map[string]any{
		"Microsoft.VSTS.Common.Severity": map[string]any{"displayName": "P0 - Emergency"},
	})}
	tbl := spec.Project(items, "report")
	if tbl.Rows[0][2] != "P0 - Emergency" {
		t.Fatalf("identity cell: %q", tbl.Rows[0][2])
	}
}

func TestCompileRejectsBadSpecs(t *testing.T) {
	if _, err := projection.Compile(nil, false, ""); err == nil {
		t.Fatalf("expected error for empty spec")
	}
	cols := []config.Column{{Display: "Title", Field: "System.Title"}}
	if _, err := projection.Compile(cols, false, ""); err == nil {
		t.Fatalf("expected error when first column is not the identifier")
	}
	cols = testColumns()
	if _, err := projection.Compile(cols, true, "/no-placeholder"); err == nil {
		t.Fatalf("expected error for link template without id placeholder")
	}
}
