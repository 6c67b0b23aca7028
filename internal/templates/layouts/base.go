// internal/templates/layouts/base.go
package layouts

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "html/*.gohtml"))

// MenuItem is one entry of the side menu.
type MenuItem struct {
	Key    string
	Label  string
	Path   string
	Active bool
}

// Page carries the shell around every dashboard.
type Page struct {
	AppName  string
	Title    string
	Operator string
	Menu     []MenuItem
}

type baseData struct {
	Page
	Body template.HTML
}

// Base wraps content in the console shell: side menu, header and scripts.
func Base(page Page, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body, err := templ.ToGoHTML(ctx, content)
		if err != nil {
			return err
		}
		if page.AppName == "" {
			page.AppName = "Studio Admin"
		}
		return tmpl.ExecuteTemplate(w, "base", baseData{Page: page, Body: body})
	})
}

// WithActive marks the item with key as selected.
func WithActive(items []MenuItem, key string) []MenuItem {
	out := make([]MenuItem, len(items))
	for i, item := range items {
		item.Active = item.Key == key
		out[i] = item
	}
	return out
}
