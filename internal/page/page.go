package page

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/index.html
var templateFS embed.FS

// View is the data the index template is rendered with.
type View struct {
	Title       string
	DataPath    string
	MessagePath string
	HealthPath  string
}

type Page struct {
	logger *slog.Logger
	tmpl   *template.Template
	view   View
}

// New parses the embedded index template once.
func New(logger *slog.Logger, view View) (*Page, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &Page{logger: logger, tmpl: tmpl, view: view}, nil
}

// ServeHTTP renders the page. Rendering goes to a buffer first so a template
// error still produces a clean 500.
func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, p.view); err != nil {
		p.logger.Error("Failed to render page", slog.Any("err", err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
