package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/storefront/internal/view"
)

//go:embed templates static
var FS embed.FS

// Templates parses every page and partial with the view helpers installed.
// Each file defines its templates by name, e.g. "pages/home".
func Templates() (*template.Template, error) {
	return template.New("storefront").Funcs(view.FuncMap()).ParseFS(FS, "templates/*/*.html")
}

// Static returns the public asset tree served under /static.
func Static() (fs.FS, error) {
	return fs.Sub(FS, "static")
}
