package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/comptoir/backoffice/internal/shared"
	"github.com/comptoir/backoffice/web"
)

// Formatter renders display values for templates.
type Formatter interface {
	Money(amount decimal.Decimal) string
	Rate(rate decimal.Decimal) string
	DateTime(t time.Time) string
}

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Data        any
}

// NewEngine parses the embedded templates with the given formatter.
func NewEngine(format Formatter) (*Engine, error) {
	if format == nil {
		return nil, fmt.Errorf("view: formatter required")
	}
	funcMap := template.FuncMap{
		"formatMoney": format.Money,
		"formatRate":  format.Rate,
		"formatDate":  format.DateTime,
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"pageRange":   pageRange,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}

// RenderString executes a named template into a string.
func (e *Engine) RenderString(name string, data TemplateData) (string, error) {
	if e == nil {
		return "", fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// pageRange lists the page numbers shown around current, at most width of them.
func pageRange(current, pages, width int) []int {
	if pages <= 0 || width <= 0 {
		return nil
	}
	start := current - width/2
	if start < 1 {
		start = 1
	}
	end := start + width - 1
	if end > pages {
		end = pages
		start = end - width + 1
		if start < 1 {
			start = 1
		}
	}
	out := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	return out
}
