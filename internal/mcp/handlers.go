package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/ops"
	"github.com/hpungsan/deck/internal/rewrite"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db      *sql.DB
	cfg     *config.Config
	rewrite *rewrite.Service
	log     *logger.Logger
}

// NewHandlers creates a new Handlers instance. svc may be nil when no
// rewrite backend is configured.
func NewHandlers(db *sql.DB, cfg *config.Config, svc *rewrite.Service, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Discard()
	}
	return &Handlers{db: db, cfg: cfg, rewrite: svc, log: log}
}

// Request types for each tool

// CreateRequest represents the arguments for card_create.
type CreateRequest struct {
	Title  string `json:"title,omitempty"`
	Text   string `json:"text,omitempty"`
	Markup string `json:"markup,omitempty"`
}

// FetchRequest represents the arguments for card_fetch.
type FetchRequest struct {
	ID             string `json:"id"`
	Format         string `json:"format,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// UpdateRequest represents the arguments for card_update.
type UpdateRequest struct {
	ID    string  `json:"id"`
	Title *string `json:"title,omitempty"`
	Text  *string `json:"text,omitempty"`
}

// IDRequest carries a single card ID.
type IDRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for card_list.
type ListRequest struct {
	Limit          int  `json:"limit,omitempty"`
	Offset         int  `json:"offset,omitempty"`
	IncludeDeleted bool `json:"include_deleted,omitempty"`
}

// SearchRequest represents the arguments for card_search.
type SearchRequest struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for card_export.
type ExportRequest struct {
	Path           string `json:"path,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
}

// ImportRequest represents the arguments for card_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// ImportMarkdownRequest represents the arguments for card_import_markdown.
type ImportMarkdownRequest struct {
	Path   string `json:"path,omitempty"`
	Source string `json:"source,omitempty"`
	Title  string `json:"title,omitempty"`
}

// ExportMarkdownRequest represents the arguments for card_export_markdown.
type ExportMarkdownRequest struct {
	ID   string `json:"id"`
	Path string `json:"path,omitempty"`
}

// PurgeRequest represents the arguments for card_purge.
type PurgeRequest struct {
	OlderThanDays *int `json:"older_than_days,omitempty"`
}

// RewriteRequest represents the arguments for card_rewrite.
type RewriteRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Apply  bool   `json:"apply,omitempty"`
}

// Handler implementations

// HandleCreate handles the card_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(ctx, h.db, h.cfg, ops.CreateInput{
		Title:  input.Title,
		Text:   input.Text,
		Markup: input.Markup,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.log.CardSaved(result.ID, result.Chars)

	return successResult(result)
}

// HandleFetch handles the card_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.db, ops.FetchInput{
		ID:             input.ID,
		IncludeDeleted: input.IncludeDeleted,
		Format:         ops.Format(input.Format),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleUpdate handles the card_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(ctx, h.db, h.cfg, ops.UpdateInput{
		ID:    input.ID,
		Title: input.Title,
		Text:  input.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.log.CardSaved(result.ID, result.Chars)

	return successResult(result)
}

// HandleDelete handles the card_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the card_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.db, ops.ListInput{
		Limit:          input.Limit,
		Offset:         input.Offset,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSearch handles the card_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(ctx, h.db, ops.SearchInput{
		Query:  input.Query,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRender handles the card_render tool call.
func (h *Handlers) HandleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Render(ctx, h.db, ops.RenderInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the card_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{
		Path:           input.Path,
		IncludeDeleted: input.IncludeDeleted,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the card_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImportMarkdown handles the card_import_markdown tool call.
func (h *Handlers) HandleImportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportMarkdownRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ImportMarkdown(ctx, h.db, h.cfg, ops.ImportMarkdownInput{
		Path:   input.Path,
		Source: input.Source,
		Title:  input.Title,
	})
	if err != nil {
		return errorResult(err), nil
	}
	h.log.CardSaved(result.ID, result.Chars)

	return successResult(result)
}

// HandleExportMarkdown handles the card_export_markdown tool call.
func (h *Handlers) HandleExportMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportMarkdownRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ExportMarkdown(ctx, h.db, h.cfg, ops.ExportMarkdownInput{
		ID:   input.ID,
		Path: input.Path,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePurge handles the card_purge tool call.
func (h *Handlers) HandlePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Purge(ctx, h.db, ops.PurgeInput{OlderThanDays: input.OlderThanDays})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRewrite handles the card_rewrite tool call.
func (h *Handlers) HandleRewrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RewriteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Rewrite(ctx, h.db, h.cfg, h.rewrite, h.log, ops.RewriteInput{
		ID:     input.ID,
		Prompt: input.Prompt,
		Apply:  input.Apply,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	dErr := errors.As(err)

	message := dErr.Message
	if dErr.Code != errors.ErrInternal && error(dErr) != err {
		// Keep wrapper context such as "line 3: ..."
		message = err.Error()
	}

	errorObj := map[string]any{
		"code":    dErr.Code,
		"message": message,
		"status":  dErr.Status,
	}
	if dErr.Code != errors.ErrInternal && dErr.Details != nil {
		errorObj["details"] = dErr.Details
	}
	if dErr.Retryable() {
		errorObj["retryable"] = true
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
