package settings

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "html/*.gohtml"))

func Page(data PageData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("settings"), data)
}

// Audit is the journal table, swapped when the entity filter changes.
func Audit(data PageData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("settings-audit"), data)
}
