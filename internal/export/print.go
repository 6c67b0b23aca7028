// internal/export/print.go
package export

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/a-h/templ"
)

//go:embed html/*.gohtml
var files embed.FS

var tmpl = template.Must(template.ParseFS(files, "html/*.gohtml"))

type printCell struct {
	Text string
	// Status is the badge class suffix; empty for plain cells.
	Status string
}

type printData struct {
	Title     string
	Generated string
	Count     int
	Headers   []string
	Rows      [][]printCell
}

// PrintDocument renders t as a standalone HTML page that prints itself once
// loaded. A browser that blocks printing still shows the page.
func PrintDocument(title string, generatedAt time.Time, t Table) templ.Component {
	data := printData{
		Title:     title,
		Generated: generatedAt.Format("January 2, 2006 3:04 PM"),
		Count:     len(t.Rows),
		Headers:   t.Headers,
	}
	for _, row := range t.Rows {
		cells := make([]printCell, len(row))
		for i, v := range row {
			cells[i] = printCell{Text: v}
			if i == t.StatusCol && v != "" {
				cells[i].Status = strings.ToLower(v)
			}
		}
		data.Rows = append(data.Rows, cells)
	}
	return templ.FromGoHTML(tmpl.Lookup("print"), data)
}
