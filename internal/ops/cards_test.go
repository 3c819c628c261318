package ops

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
)

func TestCreate_FromText(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	out, err := Create(ctx, database, config.DefaultConfig(), CreateInput{
		Title: "  Launch   plan ",
		Text:  "## Goals\n• ship **v1**\n• test",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.Title != "Launch plan" {
		t.Errorf("Title = %q, want %q", out.Title, "Launch plan")
	}

	got, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := "## Goals\n\n• ship **v1**\n• test"
	if got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
	if got.Format != FormatText {
		t.Errorf("Format = %q, want text", got.Format)
	}
	if got.Chars != len([]rune(want)) {
		t.Errorf("Chars = %d, want %d", got.Chars, len([]rune(want)))
	}
}

func TestCreate_FromMarkup(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	out, err := Create(ctx, database, config.DefaultConfig(), CreateInput{
		Markup: "<header>From markup</header>\n<p>hello <b>there</b></p><script>x()</script>",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if out.Title != "From markup" {
		t.Errorf("Title = %q, want header title", out.Title)
	}

	got, err := Fetch(ctx, database, FetchInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.HasPrefix(got.Text, "hello **there**") {
		t.Errorf("Text = %q, want prefix %q", got.Text, "hello **there**")
	}
}

func TestCreate_Validation(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()
	cfg.CardMaxChars = 10
	cfg.TitleMaxChars = 5

	tests := []struct {
		name  string
		input CreateInput
		code  errors.ErrorCode
	}{
		{"missing title", CreateInput{Text: "body"}, errors.ErrInvalidRequest},
		{"text and markup", CreateInput{Title: "t", Text: "a", Markup: "<p>a</p>"}, errors.ErrInvalidRequest},
		{"title too long", CreateInput{Title: "abcdef", Text: "a"}, errors.ErrCardTooLarge},
		{"body too long", CreateInput{Title: "t", Text: strings.Repeat("x", 11)}, errors.ErrCardTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(ctx, database, cfg, tt.input)
			if !errors.Is(err, tt.code) {
				t.Errorf("Create error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestFetch_Formats(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, "Formats", "# Big\n1. one\n2. **two**")

	html, err := Fetch(ctx, database, FetchInput{ID: id, Format: FormatHTML})
	if err != nil {
		t.Fatalf("Fetch html failed: %v", err)
	}
	if html.Text != "" || html.Body != nil {
		t.Errorf("html fetch populated other fields: %+v", html)
	}
	for _, want := range []string{"<h1>Big</h1>", "<ol>", "<strong>two</strong>"} {
		if !strings.Contains(html.HTML, want) {
			t.Errorf("HTML = %q, missing %q", html.HTML, want)
		}
	}

	frag, err := Fetch(ctx, database, FetchInput{ID: id, Format: FormatFragment})
	if err != nil {
		t.Fatalf("Fetch fragment failed: %v", err)
	}
	want := content.Fragment{
		content.Heading(1, content.Plain("Big")),
		content.List(true, content.Plain("one"), content.Strong("two")),
	}
	if !content.Equal(frag.Body, want) {
		t.Errorf("Body = %+v, want %+v", frag.Body, want)
	}
}

func TestFetch_Errors(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	if _, err := Fetch(ctx, database, FetchInput{}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty id error = %v, want INVALID_REQUEST", err)
	}
	if _, err := Fetch(ctx, database, FetchInput{ID: "missing"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing id error = %v, want NOT_FOUND", err)
	}
	id := mustCreate(t, database, "t", "x")
	if _, err := Fetch(ctx, database, FetchInput{ID: id, Format: "pdf"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bad format error = %v, want INVALID_REQUEST", err)
	}
}

func TestUpdate(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()
	id := mustCreate(t, database, "Before", "old body")

	out, err := Update(ctx, database, cfg, UpdateInput{ID: id, Text: stringPtr("• new\n• items")})
	if err != nil {
		t.Fatalf("Update text failed: %v", err)
	}
	if out.Title != "Before" {
		t.Errorf("Title = %q, want unchanged", out.Title)
	}

	if _, err := Update(ctx, database, cfg, UpdateInput{ID: id, Title: stringPtr("After")}); err != nil {
		t.Fatalf("Update title failed: %v", err)
	}

	got, err := Fetch(ctx, database, FetchInput{ID: id})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if got.Title != "After" || got.Text != "• new\n• items" {
		t.Errorf("after update = %q / %q", got.Title, got.Text)
	}
}

func TestUpdate_Errors(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()
	id := mustCreate(t, database, "t", "x")

	if _, err := Update(ctx, database, cfg, UpdateInput{ID: id}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("no fields error = %v, want INVALID_REQUEST", err)
	}
	if _, err := Update(ctx, database, cfg, UpdateInput{ID: id, Title: stringPtr("   ")}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank title error = %v, want INVALID_REQUEST", err)
	}
	if _, err := Update(ctx, database, cfg, UpdateInput{ID: "nope", Title: stringPtr("x")}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing card error = %v, want NOT_FOUND", err)
	}
}

func TestDeleteAndPurge(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, "Doomed", "x")
	keep := mustCreate(t, database, "Kept", "y")

	out, err := Delete(ctx, database, DeleteInput{ID: id})
	if err != nil || !out.Deleted {
		t.Fatalf("Delete = %+v, %v", out, err)
	}
	if _, err := Delete(ctx, database, DeleteInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second Delete error = %v, want NOT_FOUND", err)
	}
	if _, err := Fetch(ctx, database, FetchInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch deleted error = %v, want NOT_FOUND", err)
	}
	if got, err := Fetch(ctx, database, FetchInput{ID: id, IncludeDeleted: true}); err != nil || got.DeletedAt == nil {
		t.Errorf("Fetch IncludeDeleted = %+v, %v", got, err)
	}

	purged, err := Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(1)})
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purged.Purged != 0 || purged.Message != "No deleted cards to purge" {
		t.Errorf("recent purge = %+v, want nothing purged", purged)
	}

	purged, err = Purge(ctx, database, PurgeInput{})
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if purged.Purged != 1 || purged.Message != "Permanently deleted 1 card" {
		t.Errorf("Purge = %+v", purged)
	}
	if _, err := Fetch(ctx, database, FetchInput{ID: id, IncludeDeleted: true}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Fetch purged error = %v, want NOT_FOUND", err)
	}
	if _, err := Fetch(ctx, database, FetchInput{ID: keep}); err != nil {
		t.Errorf("active card affected by purge: %v", err)
	}

	if _, err := Purge(ctx, database, PurgeInput{OlderThanDays: intPtr(-1)}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative days error = %v, want INVALID_REQUEST", err)
	}
}

func TestFormatPurgeMessage(t *testing.T) {
	tests := []struct {
		count int
		days  *int
		want  string
	}{
		{0, nil, "No deleted cards to purge"},
		{1, nil, "Permanently deleted 1 card"},
		{3, intPtr(7), "Permanently deleted 3 cards (deleted more than 7 days ago)"},
	}
	for _, tt := range tests {
		if got := formatPurgeMessage(tt.count, tt.days); got != tt.want {
			t.Errorf("formatPurgeMessage(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestList_Pagination(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	for _, title := range []string{"a", "b", "c"} {
		mustCreate(t, database, title, "body of "+title)
	}

	out, err := List(ctx, database, ListInput{Limit: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 || !out.Pagination.HasMore || out.Pagination.Total != 3 {
		t.Errorf("page 1 = %d items, %+v", len(out.Items), out.Pagination)
	}
	if out.Sort != "updated_at_desc" {
		t.Errorf("Sort = %q", out.Sort)
	}

	out, err = List(ctx, database, ListInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 || out.Pagination.HasMore {
		t.Errorf("page 2 = %d items, %+v", len(out.Items), out.Pagination)
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	out, err := List(context.Background(), setupDB(t), ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Items == nil {
		t.Error("Items = nil, want empty slice")
	}
}

func TestRender_Sanitizes(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, "<script>alert(1)</script>", "**bold** & <i>x</i>")

	out, err := Render(ctx, database, RenderInput{ID: id})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(out.HTML, "<script>") || strings.Contains(out.HTML, "<i>") {
		t.Errorf("HTML not sanitized: %q", out.HTML)
	}
	for _, want := range []string{"<header>", "<strong>bold</strong>", "&amp;"} {
		if !strings.Contains(out.HTML, want) {
			t.Errorf("HTML = %q, missing %q", out.HTML, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	in := `<h2 onclick="x()">T</h2><p>a <a href="javascript:x">b</a></p><iframe></iframe>`
	got := Sanitize(in)
	if got != "<h2>T</h2><p>a b</p>" {
		t.Errorf("Sanitize() = %q", got)
	}
}
