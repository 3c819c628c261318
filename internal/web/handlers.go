package web

import (
	"database/sql"
	"html/template"
	"net/http"
	"strconv"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/ops"
	"github.com/hpungsan/deck/internal/rewrite"
)

// maxFormBytes bounds a posted form.
const maxFormBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	rewrite  *rewrite.Service
	log      *logger.Logger
	renderer *Renderer
}

// HandleList handles GET /cards: the card list, or search results when q is set.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	data := ListPageData{
		PageData: h.renderer.page("Cards", "cards"),
		Query:    query,
		Deleted:  parseBoolParam(r, "include_deleted"),
	}
	limit := parseIntParam(r, "limit", ops.DefaultListLimit)
	offset := parseIntParam(r, "offset", 0)

	if query == "" {
		result, err := ops.List(r.Context(), h.db, ops.ListInput{
			Limit:          limit,
			Offset:         offset,
			IncludeDeleted: data.Deleted,
		})
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Items = result.Items
		data.Pagination = result.Pagination
		h.renderer.renderPage(w, "list", data)
		return
	}

	result, err := ops.Search(r.Context(), h.db, ops.SearchInput{
		Query:  query,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	data.PageData.Title = "Search"
	data.Items = make([]card.Summary, len(result.Items))
	data.Snippets = make(map[string]template.HTML, len(result.Items))
	for i, item := range result.Items {
		data.Items[i] = item.Summary
		// Snippets are escaped card text with <b> highlights only.
		data.Snippets[item.ID] = template.HTML(item.Snippet)
	}
	data.Pagination = result.Pagination
	h.renderer.renderPage(w, "list", data)
}

// HandleDetail handles GET /cards/{id}: the rendered card.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	c, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{
		ID:             r.PathValue("id"),
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
		Format:         ops.FormatHTML,
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, c)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: h.renderer.page(displayTitle(c.Title), "cards"),
		Card:     c,
		// Fetch sanitizes HTML output.
		RenderedHTML: template.HTML(c.HTML),
		CanRewrite:   h.rewrite != nil && c.DeletedAt == nil,
	})
}

// HandleNew handles GET /cards/new: an empty editor.
func (h *Handlers) HandleNew(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, "edit", EditPageData{
		PageData: h.renderer.page("New card", "new"),
	})
}

// HandleEdit handles GET /cards/{id}/edit: the editor filled with the card's
// plain-text form.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	c, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "edit", EditPageData{
		PageData:  h.renderer.page("Edit "+displayTitle(c.Title), "cards"),
		ID:        c.ID,
		CardTitle: c.Title,
		Text:      c.Text,
	})
}

// HandleCreate handles POST /cards.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	title, text := r.FormValue("title"), r.FormValue("text")

	result, err := ops.Create(r.Context(), h.db, h.cfg, ops.CreateInput{Title: title, Text: text})
	if err != nil {
		h.renderFormError(w, r, "", title, text, err)
		return
	}
	h.log.CardSaved(result.ID, result.Chars)

	if wantsJSON(r) {
		renderJSON(w, http.StatusCreated, result)
		return
	}
	http.Redirect(w, r, "/cards/"+result.ID, http.StatusSeeOther)
}

// HandleUpdate handles POST /cards/{id}: saves the editor form.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := r.PathValue("id")
	title, text := r.FormValue("title"), r.FormValue("text")

	result, err := ops.Update(r.Context(), h.db, h.cfg, ops.UpdateInput{
		ID:    id,
		Title: &title,
		Text:  &text,
	})
	if err != nil {
		h.renderFormError(w, r, id, title, text, err)
		return
	}
	h.log.CardSaved(result.ID, result.Chars)

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/cards/"+result.ID, http.StatusSeeOther)
}

// HandleRewrite handles POST /cards/{id}/rewrite. Without apply=true the
// suggestion is shown with its diff; saving it goes through the editor form.
func (h *Handlers) HandleRewrite(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	id := r.PathValue("id")
	prompt := r.FormValue("prompt")

	result, err := ops.Rewrite(r.Context(), h.db, h.cfg, h.rewrite, h.log, ops.RewriteInput{
		ID:     id,
		Prompt: prompt,
		Apply:  r.FormValue("apply") == "true",
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	if result.Applied {
		http.Redirect(w, r, "/cards/"+result.ID, http.StatusSeeOther)
		return
	}

	h.renderer.renderPage(w, "rewrite", RewritePageData{
		PageData:    h.renderer.page("Suggestion", "cards"),
		ID:          result.ID,
		Prompt:      prompt,
		Suggestion:  result.Suggestion,
		PreviewHTML: template.HTML(ops.Sanitize(content.RenderHTML(result.Suggestion.Body))),
		Diff:        result.Diff,
	})
}

// HandleDelete handles DELETE /cards/{id}: soft-delete a card.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/cards", http.StatusSeeOther)
}

// HandlePurge handles POST /cards/purge: permanently delete soft-deleted cards.
func (h *Handlers) HandlePurge(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	if r.FormValue("confirm") != "true" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("confirm parameter must be \"true\""))
		return
	}

	var input ops.PurgeInput
	if days := r.FormValue("older_than_days"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			h.renderer.renderError(w, r, errors.NewInvalidRequest("older_than_days must be an integer"))
			return
		}
		input.OlderThanDays = &d
	}

	result, err := ops.Purge(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/cards?include_deleted=true", http.StatusSeeOther)
}

func (h *Handlers) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return false
	}
	return true
}

// renderFormError shows the editor again with the rejected input so nothing
// typed is lost. Non-validation failures use the normal error page.
func (h *Handlers) renderFormError(w http.ResponseWriter, r *http.Request, id, title, text string, err error) {
	dErr := errors.As(err)
	if wantsJSON(r) || (dErr.Code != errors.ErrInvalidRequest && dErr.Code != errors.ErrCardTooLarge) {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPageStatus(w, dErr.Status, "edit", EditPageData{
		PageData:  h.renderer.page("Edit card", "cards"),
		ID:        id,
		CardTitle: title,
		Text:      text,
		Error:     dErr.Message,
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(r *http.Request, name string) bool {
	s := r.URL.Query().Get(name)
	return s == "true" || s == "1"
}

func displayTitle(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
