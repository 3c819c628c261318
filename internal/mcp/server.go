package mcp

import (
	"database/sql"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/rewrite"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"card_create": {
		def:     createToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCreate },
	},
	"card_fetch": {
		def:     fetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch },
	},
	"card_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"card_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"card_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"card_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"card_render": {
		def:     renderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRender },
	},
	"card_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"card_import": {
		def:     importToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport },
	},
	"card_import_markdown": {
		def:     importMarkdownToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleImportMarkdown },
	},
	"card_export_markdown": {
		def:     exportMarkdownToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExportMarkdown },
	},
	"card_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"card_rewrite": {
		def:     rewriteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRewrite },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the card tools registered.
// Tools listed in cfg.DisabledTools are excluded. card_rewrite is also left
// out when svc is nil.
func NewServer(db *sql.DB, cfg *config.Config, svc *rewrite.Service, log *logger.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"deck",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(db, cfg, svc, log)

	disabled := make(map[string]bool, len(cfg.DisabledTools))
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}
	if svc == nil {
		disabled["card_rewrite"] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(db *sql.DB, cfg *config.Config, svc *rewrite.Service, log *logger.Logger, version string) error {
	s := NewServer(db, cfg, svc, log, version)
	log.ServerStarted("mcp", "stdio")
	return server.ServeStdio(s)
}
