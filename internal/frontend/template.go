package frontend

import (
	"embed"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"
)

const viewsPattern = "views/*.html"

//go:embed views/*.html
var templateFS embed.FS

//go:embed views/icon.svg
var assetsFS embed.FS

// Template implements echo.Renderer over the embedded views
type Template struct {
	templates *template.Template
}

func newTemplate() *Template {
	return &Template{templates: template.Must(template.New("").ParseFS(templateFS, viewsPattern))}
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}
