package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/ops"
	"github.com/hpungsan/deck/internal/rewrite"
)

// setupTestEnv creates a temporary database and config for testing.
func setupTestEnv(t *testing.T) *env {
	t.Helper()
	baseDir := t.TempDir()
	database, err := db.Init(baseDir)
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true
	cfg.Rewrite.RequestsPerMinute = 0

	return &env{db: database, cfg: cfg, log: logger.Discard(), baseDir: baseDir}
}

// run executes one CLI invocation with stdin and returns what it printed.
func run(t *testing.T, e *env, stdin string, args ...string) (string, error) {
	t.Helper()
	app := newCLIApp(e)
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"deck"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, e *env, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, e, stdin, args...)
	if err != nil {
		t.Fatalf("deck %s failed: %v\nOutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

func decodeJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, s)
	}
	return v
}

func seed(t *testing.T, e *env, title, text string) string {
	t.Helper()
	out, err := ops.Create(context.Background(), e.db, e.cfg, ops.CreateInput{Title: title, Text: text})
	if err != nil {
		t.Fatalf("seed %q: %v", title, err)
	}
	return out.ID
}

// TestParseDuration tests the parseDuration helper function.
func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    int
		expectError bool
	}{
		{name: "valid days", input: "7d", expected: 7},
		{name: "zero days", input: "0d", expected: 0},
		{name: "large number", input: "365d", expected: 365},
		{name: "missing suffix", input: "7", expectError: true},
		{name: "wrong suffix", input: "7h", expectError: true},
		{name: "not a number", input: "abcd", expectError: true},
		{name: "negative", input: "-1d", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseDuration(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestCLINew(t *testing.T) {
	e := setupTestEnv(t)

	out := mustRun(t, e, "# Goals\n\n• ship\n", "new", "--title", "Plan")
	created := decodeJSON[ops.CreateOutput](t, out)
	if created.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if created.Title != "Plan" {
		t.Errorf("title = %q, want Plan", created.Title)
	}

	fetched, err := ops.Fetch(context.Background(), e.db, ops.FetchInput{ID: created.ID})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.Text != "# Goals\n\n• ship" {
		t.Errorf("text = %q", fetched.Text)
	}
}

func TestCLINew_Markup(t *testing.T) {
	e := setupTestEnv(t)

	out := mustRun(t, e, "<header>From markup</header><ol><li>one</li></ol>", "new", "--markup")
	created := decodeJSON[ops.CreateOutput](t, out)
	if created.Title != "From markup" {
		t.Errorf("title = %q, want From markup", created.Title)
	}
}

func TestCLIShow(t *testing.T) {
	e := setupTestEnv(t)
	id := seed(t, e, "Shown", "• **bold** item")

	t.Run("json text", func(t *testing.T) {
		out := decodeJSON[ops.FetchOutput](t, mustRun(t, e, "", "show", id))
		if out.Text != "• **bold** item" {
			t.Errorf("text = %q", out.Text)
		}
	})

	t.Run("json html", func(t *testing.T) {
		out := decodeJSON[ops.FetchOutput](t, mustRun(t, e, "", "show", "--format", "html", id))
		if !strings.Contains(out.HTML, "<strong>bold</strong>") {
			t.Errorf("html = %q", out.HTML)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		out := mustRun(t, e, "", "show", "--pretty", id)
		if !strings.Contains(out, "Shown") {
			t.Errorf("pretty output missing title: %q", out)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := run(t, e, "", "show", "NOPE")
		if err == nil || !strings.Contains(err.Error(), "NOT_FOUND") {
			t.Errorf("err = %v, want NOT_FOUND", err)
		}
	})
}

func TestCLIUpdate(t *testing.T) {
	e := setupTestEnv(t)
	id := seed(t, e, "Old", "keep me")

	mustRun(t, e, "", "update", "--title", "New", id)

	fetched, err := ops.Fetch(context.Background(), e.db, ops.FetchInput{ID: id})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if fetched.Title != "New" || fetched.Text != "keep me" {
		t.Errorf("after title update: %q / %q", fetched.Title, fetched.Text)
	}

	mustRun(t, e, "1. one\n2. two\n", "update", id)
	fetched, _ = ops.Fetch(context.Background(), e.db, ops.FetchInput{ID: id})
	if fetched.Text != "1. one\n2. two" {
		t.Errorf("after body update: %q", fetched.Text)
	}

	if _, err := run(t, e, "", "update", id); err == nil {
		t.Error("expected error when nothing to update")
	}
}

func TestCLIEdit_FileBackend(t *testing.T) {
	e := setupTestEnv(t)
	e.cfg.StoreBackend = config.StoreFile

	out := decodeJSON[ops.EditOutput](t, mustRun(t, e, "• first", "edit", "--title", "Scratch", "notes"))
	if !out.Saved || out.Title != "Scratch" || out.Text != "• first" {
		t.Errorf("edit output = %+v", out)
	}

	if _, err := os.Stat(filepath.Join(e.baseDir, ops.StoreFileName)); err != nil {
		t.Fatalf("expected file store to be written: %v", err)
	}

	out = decodeJSON[ops.EditOutput](t, mustRun(t, e, "", "edit", "--title", "Renamed", "notes"))
	if out.Title != "Renamed" || out.Text != "• first" {
		t.Errorf("second edit = %+v", out)
	}
}

func TestCLIEdit_UnknownBackend(t *testing.T) {
	e := setupTestEnv(t)
	e.cfg.StoreBackend = "redis"

	_, err := run(t, e, "x", "edit", "k")
	if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}

func TestCLIListAndSearch(t *testing.T) {
	e := setupTestEnv(t)
	seed(t, e, "alpha", "apples")
	seed(t, e, "beta", "bananas")

	list := decodeJSON[ops.ListOutput](t, mustRun(t, e, "", "list", "--limit", "1"))
	if len(list.Items) != 1 || !list.Pagination.HasMore || list.Pagination.Total != 2 {
		t.Errorf("list = %+v", list)
	}

	pretty := mustRun(t, e, "", "list", "--pretty")
	if !strings.Contains(pretty, "alpha") || !strings.Contains(pretty, "beta") {
		t.Errorf("pretty list missing titles: %q", pretty)
	}

	search := decodeJSON[ops.SearchOutput](t, mustRun(t, e, "", "search", "bananas"))
	if len(search.Items) != 1 || search.Items[0].Title != "beta" {
		t.Errorf("search = %+v", search)
	}
}

func TestCLIRender(t *testing.T) {
	e := setupTestEnv(t)
	id := seed(t, e, "Rendered", "## Sub")

	out := mustRun(t, e, "", "render", id)
	if !strings.Contains(out, "<header>Rendered</header>") || !strings.Contains(out, "<h2>Sub</h2>") {
		t.Errorf("render = %q", out)
	}
}

func TestCLIExportImport(t *testing.T) {
	e := setupTestEnv(t)
	seed(t, e, "one", "1")
	seed(t, e, "two", "2")

	path := filepath.Join(t.TempDir(), "cards.jsonl")
	exported := decodeJSON[ops.ExportOutput](t, mustRun(t, e, "", "export", "--path", path))
	if exported.Count != 2 {
		t.Errorf("count = %d, want 2", exported.Count)
	}

	other := setupTestEnv(t)
	imported := decodeJSON[ops.ImportOutput](t, mustRun(t, other, "", "import", "--path", path))
	if imported.Imported != 2 {
		t.Errorf("imported = %d, want 2", imported.Imported)
	}

	collided := decodeJSON[ops.ImportOutput](t, mustRun(t, other, "", "import", "--path", path))
	if collided.Imported != 0 || len(collided.Errors) == 0 || collided.Errors[0].Code != "ID_COLLISION" {
		t.Errorf("error mode collision = %+v", collided)
	}

	skipped := decodeJSON[ops.ImportOutput](t, mustRun(t, other, "", "import", "--path", path, "--mode", "skip"))
	if skipped.Skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped.Skipped)
	}
}

func TestCLIMarkdown(t *testing.T) {
	e := setupTestEnv(t)

	created := decodeJSON[ops.CreateOutput](t, mustRun(t, e, "# Imported\n\n- a\n- b\n", "import-md"))
	if created.Title != "Imported" {
		t.Errorf("title = %q, want Imported", created.Title)
	}

	path := filepath.Join(t.TempDir(), "out.md")
	mustRun(t, e, "", "export-md", "--path", path, created.ID)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Imported\n") || !strings.Contains(string(data), "- a\n- b") {
		t.Errorf("markdown = %q", data)
	}

	fromFile := decodeJSON[ops.CreateOutput](t, mustRun(t, e, "", "import-md", "--title", "Again", path))
	if fromFile.Title != "Again" {
		t.Errorf("title = %q, want Again", fromFile.Title)
	}
}

func TestCLIRewrite(t *testing.T) {
	e := setupTestEnv(t)
	id := seed(t, e, "Draft", "wordy text")

	if _, err := run(t, e, "", "rewrite", "--prompt", "make it a list", id); err == nil || !strings.Contains(err.Error(), "REWRITE_UNAVAILABLE") {
		t.Errorf("err = %v, want REWRITE_UNAVAILABLE", err)
	}

	e.rewrite = rewrite.NewService(rewrite.GeneratorFunc(func(ctx context.Context, req rewrite.Request) (string, error) {
		return "TITLE: Better\nBODY:\n• crisp", nil
	}), e.cfg.Rewrite, nil)

	out := decodeJSON[ops.RewriteOutput](t, mustRun(t, e, "", "rewrite", "--prompt", "make it a list", id))
	if out.Applied || out.Suggestion.Title != "Better" {
		t.Errorf("rewrite = %+v", out)
	}

	pretty := mustRun(t, e, "", "rewrite", "--pretty", "--prompt", "make it a list", id)
	if !strings.Contains(pretty, "crisp") {
		t.Errorf("pretty diff missing suggestion: %q", pretty)
	}

	mustRun(t, e, "", "rewrite", "--apply", "--prompt", "make it a list", id)
	fetched, _ := ops.Fetch(context.Background(), e.db, ops.FetchInput{ID: id})
	if fetched.Title != "Better" || fetched.Text != "• crisp" {
		t.Errorf("after apply: %q / %q", fetched.Title, fetched.Text)
	}
}

func TestCLIDeleteAndPurge(t *testing.T) {
	e := setupTestEnv(t)
	id := seed(t, e, "gone", "x")

	mustRun(t, e, "", "delete", id)
	if _, err := run(t, e, "", "show", id); err == nil {
		t.Error("expected deleted card to be hidden")
	}

	kept := decodeJSON[ops.PurgeOutput](t, mustRun(t, e, "", "purge", "--older-than", "7d"))
	if kept.Purged != 0 {
		t.Errorf("purged = %d, want 0 for recent deletion", kept.Purged)
	}

	purged := decodeJSON[ops.PurgeOutput](t, mustRun(t, e, "", "purge"))
	if purged.Purged != 1 {
		t.Errorf("purged = %d, want 1", purged.Purged)
	}
}

// TestCLIErrorHandling tests error handling in CLI commands.
func TestCLIErrorHandling(t *testing.T) {
	e := setupTestEnv(t)

	t.Run("delete not found returns error", func(t *testing.T) {
		if _, err := run(t, e, "", "delete", "nonexistent"); err == nil {
			t.Error("expected error, got nil")
		}
	})

	t.Run("missing id returns invalid request", func(t *testing.T) {
		_, err := run(t, e, "", "show")
		if err == nil || !strings.Contains(err.Error(), "INVALID_REQUEST") {
			t.Errorf("err = %v, want INVALID_REQUEST", err)
		}
	})

	t.Run("invalid duration format returns error", func(t *testing.T) {
		if _, err := run(t, e, "", "purge", "--older-than=invalid"); err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestCLIHelpNeedsNoEnv(t *testing.T) {
	out, err := run(t, nil, "", "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, cmd := range []string{"new", "edit", "rewrite", "serve"} {
		if !strings.Contains(out, cmd) {
			t.Errorf("help output missing %q", cmd)
		}
	}
}

// TestIsCLIMode tests the isCLIMode function.
func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"deck"}, false},
		{"new command", []string{"deck", "new"}, true},
		{"serve command", []string{"deck", "serve"}, true},
		{"import-md command", []string{"deck", "import-md"}, true},
		{"help flag", []string{"deck", "--help"}, true},
		{"short version flag", []string{"deck", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"deck", "--unknown"}, false},
		{"old command name", []string{"deck", "store"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCLIMode(tt.args); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// TestIsHelpOrVersion tests the isHelpOrVersion function.
func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		args     []string
		expected bool
	}{
		{[]string{"deck"}, false},
		{[]string{"deck", "--help"}, true},
		{[]string{"deck", "help"}, true},
		{[]string{"deck", "--version"}, true},
		{[]string{"deck", "list"}, false},
	}

	for _, tt := range tests {
		if got := isHelpOrVersion(tt.args); got != tt.expected {
			t.Errorf("isHelpOrVersion(%v) = %v, want %v", tt.args, got, tt.expected)
		}
	}
}
