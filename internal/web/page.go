package web

import (
	"embed"
	"html/template"
	"io"

	"github.com/Happy-Ferret/ruby2js/internal/render"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// pageData is everything the page template shows for one request.
type pageData struct {
	Ruby       string
	ShowAST    bool
	ES2017     bool
	Submitted  bool
	Error      string
	JavaScript string
	Sections   []render.Section
}

func writePage(w io.Writer, p *pageData) error {
	return templates.ExecuteTemplate(w, "page", p)
}
