package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templatesEmbed embed.FS

//go:embed static
var staticEmbed embed.FS

// mustParseTemplates loads the embedded HTML views for the gin renderer.
func mustParseTemplates() *template.Template {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	return template.Must(template.New("views").Funcs(funcs).ParseFS(templatesEmbed, "templates/*.html"))
}

// staticFS exposes the embedded assets rooted at /static.
func staticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
