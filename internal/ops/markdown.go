package ops

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/hpungsan/deck/internal/card"
	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/errors"
)

// maxMarkdownBytes bounds a Markdown source file.
const maxMarkdownBytes = 1 << 20

// ImportMarkdownInput contains parameters for the ImportMarkdown operation.
// Exactly one of Path and Source is set.
type ImportMarkdownInput struct {
	Path   string
	Source string
	Title  string // overrides a leading level-1 heading
}

// ImportMarkdown creates a card from a Markdown document.
func ImportMarkdown(ctx context.Context, database *sql.DB, cfg *config.Config, input ImportMarkdownInput) (*CreateOutput, error) {
	if (input.Path == "") == (input.Source == "") {
		return nil, errors.NewInvalidRequest("provide exactly one of path or source")
	}

	src := []byte(input.Source)
	if input.Path != "" {
		if err := CheckPath(input.Path, AccessRead, MarkdownFile, cfg); err != nil {
			return nil, err
		}
		f, err := openFileNoFollowRead(input.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		src, err = io.ReadAll(io.LimitReader(f, maxMarkdownBytes+1))
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if len(src) > maxMarkdownBytes {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("markdown file exceeds %d bytes", maxMarkdownBytes))
		}
	}

	doc := content.FromMarkdown(src)
	if input.Title != "" {
		doc.Title = input.Title
	}
	if card.NormalizeTitle(doc.Title) == "" && input.Path != "" {
		doc.Title = strings.TrimSuffix(filepath.Base(input.Path), filepath.Ext(input.Path))
	}
	doc.Title = card.NormalizeTitle(doc.Title)

	if err := lintDocument(cfg, doc); err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	c := card.New(id, doc, time.Now().Unix())
	if err := db.Insert(ctx, database, c); err != nil {
		return nil, err
	}
	return &CreateOutput{ID: c.ID, Title: c.Title, Chars: c.Chars}, nil
}

// ExportMarkdownInput contains parameters for the ExportMarkdown operation.
type ExportMarkdownInput struct {
	ID   string
	Path string // optional, default: ~/.deck/exports/<title>.md
}

// ExportMarkdownOutput contains the result of the ExportMarkdown operation.
type ExportMarkdownOutput struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ExportMarkdown writes an active card as a Markdown file.
func ExportMarkdown(ctx context.Context, database *sql.DB, cfg *config.Config, input ExportMarkdownInput) (*ExportMarkdownOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	c, err := db.GetByID(ctx, database, id, false)
	if err != nil {
		return nil, err
	}

	path := input.Path
	if path == "" {
		dir, err := DefaultExportsDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, exportFileName(c.Title, ".md"))
	}
	if err := CheckPath(path, AccessWrite, MarkdownFile, cfg); err != nil {
		return nil, err
	}

	md := content.ToMarkdown(c.Document())
	err = writeFileAtomic(path, func(w io.Writer) error {
		if _, err := io.WriteString(w, md); err != nil {
			return errors.NewInternal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ExportMarkdownOutput{ID: c.ID, Path: path}, nil
}
