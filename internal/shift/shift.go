// Package shift maps the three fixed shift selectors to UTC time windows and
// builds the WIQL query text for a window.
package shift

import (
	"fmt"
	"strings"
	"time"

	"shiftreport/internal/config"
)

const wiqlTime = "2006-01-02T15:04:05Z"

// Window returns the most recent occurrence of the shift's UTC hour range
// that started at or before now. A shift whose end hour is at or before its
// start hour wraps past midnight.
func Window(s config.Shift, now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), s.Start, 0, 0, 0, time.UTC)
	span := s.End - s.Start
	if span <= 0 {
		span += 24
	}
	end := start.Add(time.Duration(span) * time.Hour)
	if start.After(now) {
		start = start.AddDate(0, 0, -1)
		end = end.AddDate(0, 0, -1)
	}
	return start, end
}

// Current returns the name of the configured shift whose window contains now.
func Current(shifts map[string]config.Shift, now time.Time) (string, bool) {
	for _, name := range config.RequiredShifts {
		s, ok := shifts[name]
		if !ok {
			continue
		}
		from, to := Window(s, now)
		if !now.Before(from) && now.Before(to) {
			return name, true
		}
	}
	return "", false
}

// BuildQuery renders the WIQL text selecting the given source fields for
// items created within [from, to) in the project. Plain string construction;
// the query endpoint does the parsing.
func BuildQuery(project string, fields []string, from, to time.Time) string {
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, "["+f+"]")
	}
	return fmt.Sprintf(
		"SELECT %s FROM WorkItems WHERE [System.TeamProject] = '%s' AND [System.CreatedDate] >= '%s' AND [System.CreatedDate] < '%s' ORDER BY [System.Id]",
		strings.Join(cols, ", "),
		strings.ReplaceAll(project, "'", "''"),
		from.UTC().Format(wiqlTime),
		to.UTC().Format(wiqlTime),
	)
}
