// Package views renders the server side HTML pages
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/healthtracker/backend/internal/models"
)

//go:embed templates
var files embed.FS

// Page is the data every page template receives
type Page struct {
	Title  string
	User   *models.UserSnapshot
	Flash  *models.Flash
	Errors models.ValidationErrors
	Data   any
}

// Renderer holds one parsed template set per page
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		return t.Format(models.DateLayout)
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"optdatetime": func(t *time.Time) string {
		if t == nil {
			return "never"
		}
		return t.Format("2006-01-02 15:04")
	},
	"optint": func(v *int) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprint(*v)
	},
	"optfloat": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf("%.1f", *v)
	},
	"round1": func(v float64) string {
		return fmt.Sprintf("%.1f", v)
	},
}

// New parses the layout and the shared partials together with every page template
func New() (*Renderer, error) {
	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list page templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/partials/*.html", file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// Render executes a page into a buffer first, so a template failure never
// produces a half written response
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
