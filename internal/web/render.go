package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
)

//go:embed templates
var templatesFS embed.FS

var tmpl = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// PageData is the data passed to every page template.
type PageData struct {
	Flashes   []session.Flash
	Username  string
	FirstName string
}

// Render writes a page template with status 200.
func Render(w http.ResponseWriter, name string, data PageData) {
	RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus writes a page template with the given status code.
func RenderStatus(w http.ResponseWriter, status int, name string, data PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render template", "template", name, "error", err)
	}
}

// NotFound renders the 404 page.
func NotFound(w http.ResponseWriter, r *http.Request) {
	RenderStatus(w, http.StatusNotFound, "404.html", PageData{})
}

// InternalError renders the 500 page.
func InternalError(w http.ResponseWriter, r *http.Request) {
	RenderStatus(w, http.StatusInternalServerError, "500.html", PageData{})
}
