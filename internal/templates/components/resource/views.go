// Package resource renders the generic dashboard: filter bar, record table,
// create/edit modal and delete confirmation.
package resource

import (
	"embed"
	"html/template"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"query": url.QueryEscape,
	"join": func(base, query string) string {
		if query == "" {
			return base
		}
		return base + "?" + query
	},
}

var tmpl = template.Must(template.New("resource").Funcs(funcs).ParseFS(files, "html/*.gohtml"))

func Page(data PageData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("page"), data)
}

// Table is the HTMX swap target for every list-changing action.
func Table(data TableData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("table"), data)
}

func Form(data FormData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("form"), data)
}

func ConfirmDelete(data ConfirmData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("confirm"), data)
}
