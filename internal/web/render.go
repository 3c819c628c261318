package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/ops"
	"github.com/hpungsan/deck/internal/rewrite"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Nav     string // active nav item: "cards", "new"
}

// ListPageData is the template data for the card list and search page.
type ListPageData struct {
	PageData
	Query      string
	Items      []card.Summary
	Snippets   map[string]template.HTML // search snippets by card ID
	Pagination ops.Pagination
	Deleted    bool
}

// DetailPageData is the template data for the card detail page.
type DetailPageData struct {
	PageData
	Card         *ops.FetchOutput
	RenderedHTML template.HTML
	CanRewrite   bool
}

// EditPageData is the template data for the create/edit form.
type EditPageData struct {
	PageData
	ID        string // empty for a new card
	CardTitle string
	Text      string
	Error     string
}

// RewritePageData is the template data for a rewrite suggestion.
type RewritePageData struct {
	PageData
	ID          string
	Prompt      string
	Suggestion  rewrite.Suggestion
	PreviewHTML template.HTML
	Diff        string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
	log       *logger.Logger
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string, log *logger.Logger) (*Renderer, error) {
	funcMap := template.FuncMap{
		"add":         func(a, b int) int { return a + b },
		"sub":         func(a, b int) int { return a - b },
		"formatTime":  formatTime,
		"formatChars": formatChars,
		"diffClass":   diffClass,
		"lines":       func(s string) []string { return strings.Split(strings.TrimRight(s, "\n"), "\n") },
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := map[string]string{
		"list":    "list.html",
		"detail":  "detail.html",
		"edit":    "edit.html",
		"rewrite": "rewrite.html",
		"error":   "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}

	return &Renderer{templates: templates, version: version, log: log}, nil
}

func (r *Renderer) page(title, nav string) PageData {
	return PageData{Title: title, Version: r.version, Nav: nav}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, name string, data any) {
	r.renderPageStatus(w, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given status.
// Output is buffered so a template failure never sends a partial page.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, status int, name string, data any) {
	t, ok := r.templates[name]
	if !ok {
		r.log.Error("template not found", "name", name)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.log.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	dErr := errors.As(err)
	if dErr.Code == errors.ErrInternal {
		r.log.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	}

	if wantsJSON(req) {
		errorObj := map[string]any{
			"code":    string(dErr.Code),
			"message": dErr.Message,
			"status":  dErr.Status,
		}
		if dErr.Retryable() {
			errorObj["retryable"] = true
		}
		renderJSON(w, dErr.Status, map[string]any{"error": errorObj})
		return
	}

	r.renderPageStatus(w, dErr.Status, "error", ErrorPageData{
		PageData:   r.page(fmt.Sprintf("Error %d", dErr.Status), ""),
		StatusCode: dErr.Status,
		Message:    dErr.Message,
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// formatTime formats a Unix timestamp as "2006-01-02 15:04" UTC.
func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04")
}

// formatChars formats an integer with comma thousands separators.
func formatChars(n int) string {
	if n < 0 {
		return "-" + formatChars(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// diffClass picks the CSS class for one unified diff line.
func diffClass(line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return "diff-file"
	case strings.HasPrefix(line, "@@"):
		return "diff-hunk"
	case strings.HasPrefix(line, "+"):
		return "diff-add"
	case strings.HasPrefix(line, "-"):
		return "diff-del"
	}
	return "diff-ctx"
}
