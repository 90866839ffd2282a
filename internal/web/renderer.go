package web

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
	"unicode/utf8"

	"github.com/gorilla/csrf"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/wodlog/internal/auth"
	"github.com/2beens/wodlog/pkg"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

// View is what every page template is executed with.
type View struct {
	Session   *auth.Session
	CSRFToken string
	Data      any
}

func (v View) LoggedIn() bool {
	return v.Session != nil
}

func (v View) IsCoach() bool {
	return v.Session != nil && v.Session.IsCoach
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	pageFiles, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, pageFile := range pageFiles {
		if pageFile == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(pageFile), ".html")
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, layoutFile, pageFile)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes the named page within the layout, with the request session attached.
func (rr *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	tmpl, ok := rr.pages[page]
	if !ok {
		log.Errorf("render: unknown page template [%s]", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	view := View{Data: data}
	if session, ok := auth.SessionFromContext(r.Context()); ok {
		view.Session = session
		view.CSRFToken = session.CSRFToken
	} else {
		// login and register forms, set by middleware.PreSessionCSRF
		view.CSRFToken = csrf.Token(r)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Errorf("render page [%s]: %s", page, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.HTML, buf.Bytes(), status)
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.DateOnly)
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"truncate": func(s string, n int) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "…"
	},
}
