// Package resource serves the generic admin dashboard for one backend
// collection: list page, projection partials, create/edit modals, status
// changes, confirmed deletes and exports.
package resource

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/codr1/yogadesk/internal/api/apiutil"
	"github.com/codr1/yogadesk/internal/dashboard"
	"github.com/codr1/yogadesk/internal/export"
	"github.com/codr1/yogadesk/internal/projection"
	"github.com/codr1/yogadesk/internal/studioapi"
	resourcetempl "github.com/codr1/yogadesk/internal/templates/components/resource"
)

// AllValue is the backend filter value meaning "do not send this parameter".
const AllValue = "ALL"

// Shell wraps a page body in the console layout.
type Shell func(r *http.Request, key, title string, content templ.Component) templ.Component

// Column is one table and export column.
type Column[T any] struct {
	Header string
	// Field is the projection field sorted by the header link.
	Field  string
	Value  func(T) string
	Status bool
	// Image renders the value as a thumbnail in the table.
	Image bool
	// TableOnly columns are left out of exports.
	TableOnly bool
}

// BackendParam is a query parameter forwarded to the backend list call.
type BackendParam struct {
	Name    string
	Label   string
	Type    string
	Default func() string
	Options []resourcetempl.Option
}

// Input is a submitted create or edit form.
type Input struct {
	Form  *apiutil.FormReader
	Files map[string]studioapi.File
}

// File returns the uploaded file for field, if one was sent.
func (in Input) File(field string) (studioapi.File, bool) {
	f, ok := in.Files[field]
	return f, ok
}

// Toggle is a one-click partial update offered on every row.
type Toggle[T any] struct {
	Label  func(T) string
	Fields func(T) map[string]any
}

// Definition configures the dashboard of one entity.
type Definition[T dashboard.Record] struct {
	// Key is the menu key selecting this dashboard.
	Key      string
	Slug     string
	Title    string
	Singular string
	// Entity prefixes export filenames.
	Entity  string
	Schema  projection.Schema[T]
	Columns []Column[T]

	FilterLabel string
	Filters     []resourcetempl.Option
	Windows     bool
	SearchLabel string
	Backend     []BackendParam
	// RemoteSearch sends the search box to the backend search route as Name.
	RemoteSearch     bool
	RemoteSearchName string

	CanCreate bool
	CanEdit   bool
	// ReadOnly dashboards only list and export; rows carry no actions.
	ReadOnly bool
	// FileFields are the multipart file inputs read from the form.
	FileFields []string
	Fields     func(ctx context.Context, item T, errs apiutil.FieldErrors) []resourcetempl.FormField
	// Parse builds the record from a submitted form. On validation failure
	// it still returns the submitted values so the form can be redisplayed.
	Parse    func(ctx context.Context, in Input, existing T) (T, []studioapi.File, error)
	Toggle   *Toggle[T]
	Describe func(T) string
}

// BasePath is the URL prefix of the dashboard.
func (d Definition[T]) BasePath() string {
	return "/admin/" + d.Slug
}

func (d Definition[T]) exportColumns() []export.Column[T] {
	out := make([]export.Column[T], 0, len(d.Columns))
	for _, c := range d.Columns {
		if c.TableOnly {
			continue
		}
		out = append(out, export.Column[T]{Header: c.Header, Value: c.Value, Status: c.Status})
	}
	return out
}

// backendQuery picks the forwarded parameters out of q, applying defaults.
// The ALL sentinel and empty values are dropped.
func (d Definition[T]) backendQuery(q url.Values) url.Values {
	out := url.Values{}
	for _, p := range d.Backend {
		value, present := strings.TrimSpace(q.Get(p.Name)), q.Has(p.Name)
		if !present && p.Default != nil {
			value = p.Default()
		}
		if value == "" || strings.EqualFold(value, AllValue) {
			continue
		}
		out.Set(p.Name, value)
	}
	return out
}

// backendValue is the value shown in the filter bar for p.
func (d Definition[T]) backendValue(q url.Values, p BackendParam) string {
	if q.Has(p.Name) {
		return strings.TrimSpace(q.Get(p.Name))
	}
	if p.Default != nil {
		return p.Default()
	}
	return ""
}

func (d Definition[T]) describe(item T) string {
	if d.Describe != nil {
		if s := d.Describe(item); s != "" {
			return s
		}
	}
	return "this " + strings.ToLower(d.Singular)
}
