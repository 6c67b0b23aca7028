// Package projection derives the displayed subset and ordering of a
// dashboard collection. Nothing here mutates its input.
package projection

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/codr1/yogadesk/internal/models"
)

// FilterAll is the sentinel that disables the exact-match filter.
const FilterAll = "all"

// Kind selects the comparison used when sorting by a field.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindNumber
	KindBool
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Window restricts records to a range relative to today.
type Window string

const (
	WindowAny      Window = ""
	WindowToday    Window = "today"
	WindowPast     Window = "past"
	WindowUpcoming Window = "upcoming"
)

func ParseWindow(raw string) Window {
	switch w := Window(strings.ToLower(strings.TrimSpace(raw))); w {
	case WindowToday, WindowPast, WindowUpcoming:
		return w
	}
	return WindowAny
}

// Field exposes one column of T to search, filter and sort.
type Field[T any] struct {
	Name  string
	Label string
	Kind  Kind
	Get   func(T) string
}

// Schema describes how a dashboard projects its records.
type Schema[T any] struct {
	Fields []Field[T]
	// Search names the fields matched by the search term.
	Search []string
	// Filter names the field compared against Options.Filter.
	Filter string
	// FilterMatch overrides the equality check, e.g. for flag sets.
	FilterMatch func(item T, value string) bool
	// DateField names the field Options.Window applies to.
	DateField   string
	DefaultSort string
	DefaultDir  Direction
	Language    language.Tag
}

func (s Schema[T]) field(name string) (Field[T], bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Sortable lists the field names accepted as sort keys.
func (s Schema[T]) Sortable() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

type Options struct {
	Search string
	Filter string
	Window Window
	Sort   string
	Dir    Direction
	// Now anchors Window; zero means time.Now().
	Now time.Time
}

// ParseOptions reads q, filter (or status), window, sort and dir from the
// query. Unknown sort columns fall back to the schema default.
func ParseOptions[T any](q url.Values, schema Schema[T]) Options {
	opts := Options{
		Search: strings.TrimSpace(q.Get("q")),
		Filter: strings.TrimSpace(q.Get("filter")),
		Window: ParseWindow(q.Get("window")),
		Sort:   q.Get("sort"),
		Dir:    Direction(strings.ToLower(q.Get("dir"))),
	}
	if opts.Filter == "" {
		opts.Filter = strings.TrimSpace(q.Get("status"))
	}
	if _, ok := schema.field(opts.Sort); !ok {
		opts.Sort = schema.DefaultSort
		if opts.Dir != Asc && opts.Dir != Desc {
			opts.Dir = schema.DefaultDir
		}
	}
	if opts.Dir != Asc && opts.Dir != Desc {
		opts.Dir = Asc
	}
	return opts
}

// Query encodes opts back into URL parameters for links and exports.
func (o Options) Query() url.Values {
	q := url.Values{}
	if o.Search != "" {
		q.Set("q", o.Search)
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.Window != WindowAny {
		q.Set("window", string(o.Window))
	}
	if o.Sort != "" {
		q.Set("sort", o.Sort)
		q.Set("dir", string(o.Dir))
	}
	return q
}

// FilterLabel is the filter value used in export filenames.
func (o Options) FilterLabel() string {
	if isAll(o.Filter) {
		if o.Window != WindowAny {
			return string(o.Window)
		}
		return FilterAll
	}
	return o.Filter
}

// Toggle returns the direction a column header link should request.
func (o Options) Toggle(field string) Direction {
	if o.Sort == field && o.Dir == Asc {
		return Desc
	}
	return Asc
}

func isAll(filter string) bool {
	return filter == "" || strings.EqualFold(filter, FilterAll)
}

// Apply returns a new slice holding the records of items that pass the
// search, filter and window, ordered by opts. The sort is stable.
func Apply[T any](items []T, opts Options, schema Schema[T]) []T {
	out := make([]T, 0, len(items))

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	searchFields := make([]Field[T], 0, len(schema.Search))
	for _, name := range schema.Search {
		if f, ok := schema.field(name); ok {
			searchFields = append(searchFields, f)
		}
	}
	filterField, hasFilter := schema.field(schema.Filter)
	dateField, hasDate := schema.field(schema.DateField)

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := startOfDay(now)

	for _, item := range items {
		if search != "" && !matchesSearch(item, search, searchFields) {
			continue
		}
		if !isAll(opts.Filter) {
			switch {
			case schema.FilterMatch != nil:
				if !schema.FilterMatch(item, opts.Filter) {
					continue
				}
			case hasFilter:
				if filterField.Get(item) != opts.Filter {
					continue
				}
			}
		}
		if opts.Window != WindowAny && hasDate && !inWindow(dateField.Get(item), opts.Window, today) {
			continue
		}
		out = append(out, item)
	}

	sortField, ok := schema.field(opts.Sort)
	if !ok {
		return out
	}
	tag := schema.Language
	if tag == language.Und {
		tag = language.English
	}
	// Collators keep internal buffers; one per call keeps Apply safe for concurrent use.
	col := collate.New(tag, collate.IgnoreCase)
	desc := opts.Dir == Desc
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(col, sortField.Kind, sortField.Get(out[i]), sortField.Get(out[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func matchesSearch[T any](item T, search string, fields []Field[T]) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Get(item)), search) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func inWindow(raw string, window Window, today time.Time) bool {
	parsed, ok := models.ParseDate(raw)
	if !ok {
		return false
	}
	// Stored dates are calendar dates; compare them in today's location.
	y, m, d := parsed.UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	switch window {
	case WindowToday:
		return day.Equal(today)
	case WindowPast:
		return day.Before(today)
	case WindowUpcoming:
		return day.After(today)
	}
	return true
}

// compare orders a and b. Values that fail to parse for the field's kind
// sort after those that do, and fall back to text order among themselves.
func compare(col *collate.Collator, kind Kind, a, b string) int {
	switch kind {
	case KindDate:
		ta, okA := models.ParseDate(a)
		tb, okB := models.ParseDate(b)
		if okA && okB {
			return ta.Compare(tb)
		}
		if okA != okB {
			if okA {
				return -1
			}
			return 1
		}
	case KindNumber:
		na, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		nb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA == nil && errB == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
		if (errA == nil) != (errB == nil) {
			if errA == nil {
				return -1
			}
			return 1
		}
	case KindBool:
		ba, _ := strconv.ParseBool(a)
		bb, _ := strconv.ParseBool(b)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		}
		return 1
	}
	return col.CompareString(a, b)
}
