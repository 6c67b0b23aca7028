// Package dashboard renders the booking overview: status counts, every
// booking with approve and decline actions, and a short recent activity list.
package dashboard

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "html/*.gohtml"))

func Overview(data PageData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("overview"), data)
}

// OverviewBody is the partial pushed over the stream and returned by status actions.
func OverviewBody(data OverviewData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("overview-body"), data)
}
