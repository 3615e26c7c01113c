package domain

// WiqlRequest is the structured query payload submitted to the WIQL endpoint.
type WiqlRequest struct {
	Query string `json:"query"`
}

// WorkItemRef is the lightweight reference the WIQL endpoint returns per hit.
type WorkItemRef struct {
	ID  int    `json:"id"`
	URL string `json:"url,omitempty"`
}

type WiqlResponse struct {
	QueryType       string        `json:"queryType,omitempty"`
	QueryResultType string        `json:"queryResultType,omitempty"`
	WorkItems       []WorkItemRef `json:"workItems"`
}

// WorkItem is one full record from the batch detail endpoint. ID is the only
// field guaranteed to exist outside the nested Fields mapping.
type WorkItem struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
	URL    string         `json:"url,omitempty"`
}

type WorkItemsResponse struct {
	Count int        `json:"count"`
	Value []WorkItem `json:"value"`
}

// Table is a projected, display-ready report table. Every row has the same
// column count and order as Headers. A projection over zero records yields
// the no-results sentinel: no rows and a non-empty Message.
type Table struct {
	Title   string     `json:"title"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
	Message string     `json:"message,omitempty"`

	// RawColumns lists column indexes whose cells are pre-rendered HTML
	// fragments (the linked-title column). Renderers must not escape them.
	RawColumns []int `json:"-"`
}

// Empty reports whether the table is the no-results sentinel.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// RawColumn reports whether the column at idx holds pre-rendered HTML.
func (t Table) RawColumn(idx int) bool {
	for _, c := range t.RawColumns {
		if c == idx {
			return true
		}
	}
	return false
}
