// Package export serialises dashboard records to CSV, XLSX and a printable
// HTML document. Every format is built from the same Table so the columns
// always match.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Column is one exported field of T.
type Column[T any] struct {
	Header string
	Value  func(T) string
	// Status marks the column rendered as a coloured badge in print output.
	Status bool
}

// Table is the string form of an export.
type Table struct {
	Headers []string
	Rows    [][]string
	// StatusCol is the index of the status column, or -1.
	StatusCol int
}

func NewTable[T any](columns []Column[T], items []T) Table {
	t := Table{
		Headers:   make([]string, len(columns)),
		Rows:      make([][]string, 0, len(items)),
		StatusCol: -1,
	}
	for i, c := range columns {
		t.Headers[i] = c.Header
		if c.Status && t.StatusCol == -1 {
			t.StatusCol = i
		}
	}
	for _, item := range items {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.Value(item)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Filename builds entity_<filter>_<YYYY-MM-DD>.<ext>. An empty filter is "all".
func Filename(entity, filter string, now time.Time, ext string) string {
	filter = sanitizeFilenamePart(filter)
	if filter == "" {
		filter = "all"
	}
	entity = sanitizeFilenamePart(entity)
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s_%s.%s", entity, filter, now.Format("2006-01-02"), ext)
}

func sanitizeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}
