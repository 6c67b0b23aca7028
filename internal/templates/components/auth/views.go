package auth

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "html/*.gohtml"))

// LoginPage is the standalone sign-in page.
func LoginPage(data LoginData) templ.Component {
	if data.AppName == "" {
		data.AppName = "Studio Admin"
	}
	return templ.FromGoHTML(tmpl.Lookup("login"), data)
}

// LoginForm is the form alone, swapped in after a failed HTMX submit.
func LoginForm(data LoginData) templ.Component {
	return templ.FromGoHTML(tmpl.Lookup("login-form"), data)
}
