package mcp

import "github.com/mark3labs/mcp-go/mcp"

const textConvention = "Body text uses one block per line: '# ' to '###### ' for headings, " +
	"'• ' for bullets, '1. ' for numbered items, **double asterisks** for bold."

var createToolDef = mcp.NewTool("card_create",
	mcp.WithDescription("Create a card from a title and a body. "+textConvention),
	mcp.WithString("title", mcp.Description("Card title (single line; may be empty)")),
	mcp.WithString("text", mcp.Description("Body in the plain-text convention")),
	mcp.WithString("markup", mcp.Description("Stored-document markup (<header>title</header> then body HTML); exclusive with text")),
)

var fetchToolDef = mcp.NewTool("card_fetch",
	mcp.WithDescription("Fetch one card by ID."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithString("format", mcp.Enum("text", "html", "fragment"), mcp.Description("Body format (default: text)")),
	mcp.WithBoolean("include_deleted", mcp.Description("Also return soft-deleted cards")),
)

var updateToolDef = mcp.NewTool("card_update",
	mcp.WithDescription("Update a card's title and/or body. Omitted fields are left unchanged. "+textConvention),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("text", mcp.Description("New body in the plain-text convention")),
)

var deleteToolDef = mcp.NewTool("card_delete",
	mcp.WithDescription("Soft-delete a card. It stays recoverable until purged."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
)

var listToolDef = mcp.NewTool("card_list",
	mcp.WithDescription("List card summaries, most recently updated first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Min(1), mcp.Max(100), mcp.Description("Page size (default 20)")),
	mcp.WithNumber("offset", mcp.Min(0), mcp.Description("Items to skip")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted cards")),
)

var searchToolDef = mcp.NewTool("card_search",
	mcp.WithDescription("Search active cards by title and body text. Returns snippets with <b> highlights."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("query", mcp.Required(), mcp.Description("Text to find (case-insensitive)")),
	mcp.WithNumber("limit", mcp.Min(1), mcp.Max(100), mcp.Description("Page size (default 20)")),
	mcp.WithNumber("offset", mcp.Min(0), mcp.Description("Items to skip")),
)

var renderToolDef = mcp.NewTool("card_render",
	mcp.WithDescription("Return the sanitized stored markup of a card."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
)

var exportToolDef = mcp.NewTool("card_export",
	mcp.WithDescription("Export cards to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output path (default: ~/.deck/exports/cards-<timestamp>.jsonl)")),
	mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted cards")),
)

var importToolDef = mcp.NewTool("card_import",
	mcp.WithDescription("Import cards from a JSONL export."),
	mcp.WithString("path", mcp.Required(), mcp.Description("JSONL file to read")),
	mcp.WithString("mode", mcp.Enum("error", "replace", "skip"), mcp.Description("ID collision handling (default: error, atomic)")),
)

var importMarkdownToolDef = mcp.NewTool("card_import_markdown",
	mcp.WithDescription("Create a card from a Markdown file or string."),
	mcp.WithString("path", mcp.Description("Markdown file (.md or .markdown)")),
	mcp.WithString("source", mcp.Description("Markdown text; exclusive with path")),
	mcp.WithString("title", mcp.Description("Title override")),
)

var exportMarkdownToolDef = mcp.NewTool("card_export_markdown",
	mcp.WithDescription("Write a card as a Markdown file."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithString("path", mcp.Description("Output path (default: ~/.deck/exports/<title>.md)")),
)

var purgeToolDef = mcp.NewTool("card_purge",
	mcp.WithDescription("Permanently remove soft-deleted cards."),
	mcp.WithDestructiveHintAnnotation(true),
	mcp.WithNumber("older_than_days", mcp.Min(0), mcp.Description("Only purge cards deleted more than this many days ago")),
)

var rewriteToolDef = mcp.NewTool("card_rewrite",
	mcp.WithDescription("Ask the language model to rewrite a card following an instruction. "+
		"Returns the suggestion and a unified diff; set apply to save it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Card ID")),
	mcp.WithString("prompt", mcp.Required(), mcp.Description("Rewrite instruction")),
	mcp.WithBoolean("apply", mcp.Description("Save the suggestion to the card")),
)
