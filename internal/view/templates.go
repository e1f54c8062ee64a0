package view

import (
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	assetURL  string
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Principal   *identity.Principal
	Access      rbac.Resolution
	AssetURL    string
	Data        any
}

// Page fills the request scoped fields of TemplateData.
func Page(r *http.Request, title string, data any) TemplateData {
	td := TemplateData{Title: title, CurrentPath: r.URL.Path, Data: data}
	if p, ok := identity.PrincipalFromContext(r.Context()); ok {
		td.Principal = &p
	}
	td.Access = rbac.ResolutionFromContext(r.Context())
	return td
}

var moneyPrinter = message.NewPrinter(language.English)

// NewEngine parses templates at build-time. assetURL prefixes stored file
// paths for previews and downloads.
func NewEngine(assetURL string) (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
		"formatDay": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"money": func(v any) string {
			return moneyPrinter.Sprintf("%.2f", toFloat(v))
		},
		"can": func(access rbac.Resolution, module, action string) bool {
			return access.Allowed(rbac.Module(module), rbac.Action(action))
		},
		"canStrict": func(access rbac.Resolution, module, action string) bool {
			return rbac.CanPerform(access.Matrix, rbac.Module(module), rbac.Action(action))
		},
		"asset": func(path string) string {
			if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
				return path
			}
			return strings.TrimRight(assetURL, "/") + "/" + strings.TrimLeft(path, "/")
		},
		"isPDF": func(path string) bool {
			return strings.HasSuffix(strings.ToLower(path), ".pdf")
		},
		"baseName": func(path string) string {
			if i := strings.LastIndex(path, "/"); i >= 0 {
				return path[i+1:]
			}
			return path
		},
		"active": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return strings.HasPrefix(current, prefix)
		},
		"modules": func() []rbac.Module { return rbac.AllModules },
		"actions": func() []rbac.Action { return rbac.AllActions },
		"cell": func(m rbac.Matrix, module rbac.Module, action rbac.Action) bool {
			return rbac.CanPerform(m, module, action)
		},
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(time.DateOnly)
		},
		"add": func(a, b int) int { return a + b },
		"hasID": func(ids []int64, id int64) bool {
			return slices.Contains(ids, id)
		},
		"statusClass": func(status string) string {
			return strings.ToLower(strings.ReplaceAll(status, " ", "-"))
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, assetURL: assetURL}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	data.AssetURL = e.assetURL
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case backend.Number:
		return t.Float()
	default:
		return 0
	}
}
