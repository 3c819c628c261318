package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/content"
	"github.com/hpungsan/deck/internal/errors"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/ops"
	"github.com/hpungsan/deck/internal/rewrite"
	"github.com/hpungsan/deck/internal/session"
	"github.com/hpungsan/deck/internal/termview"
	"github.com/hpungsan/deck/internal/web"
)

// env carries what commands need at run time. It is nil when only help or
// version output is requested.
type env struct {
	db      *sql.DB
	cfg     *config.Config
	log     *logger.Logger
	rewrite *rewrite.Service
	baseDir string
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "deck",
		Usage:   "Cards with headings, lists and bold text",
		Version: Version,
		Commands: []*cli.Command{
			newCmd(e),
			showCmd(e),
			updateCmd(e),
			editCmd(e),
			deleteCmd(e),
			listCmd(e),
			searchCmd(e),
			renderCmd(e),
			exportCmd(e),
			importCmd(e),
			importMarkdownCmd(e),
			exportMarkdownCmd(e),
			rewriteCmd(e),
			purgeCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func prettyFlag() cli.Flag {
	return &cli.BoolFlag{Name: "pretty", Usage: "Render for the terminal instead of JSON"}
}

// newCmd creates the new command.
func newCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a card (reads the body from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Card title"},
			&cli.BoolFlag{Name: "markup", Usage: "Stdin is stored-document markup instead of plain text"},
		},
		Action: func(c *cli.Context) error {
			body, _, err := readInput(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			input := ops.CreateInput{Title: c.String("title")}
			if c.Bool("markup") {
				input.Markup = body
			} else {
				input.Text = body
			}

			output, err := ops.Create(c.Context, e.db, e.cfg, input)
			if err != nil {
				return outputError(err)
			}
			e.log.CardSaved(output.ID, output.Chars)

			return outputJSON(c, output)
		},
	}
}

// showCmd creates the show command.
func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Body format: text|html|fragment"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted cards"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
				Format:         ops.Format(c.String("format")),
			}
			if c.Bool("pretty") {
				input.Format = ops.FormatFragment
			}

			output, err := ops.Fetch(c.Context, e.db, input)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				_, err := fmt.Fprint(c.App.Writer, termview.Card(content.Document{Title: output.Title, Body: output.Body}))
				return err
			}
			return outputJSON(c, output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a card (optionally reads a new body from stdin)",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
		},
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{ID: c.Args().First()}

			text, ok, err := readInput(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if ok && text != "" {
				input.Text = &text
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}

			output, err := ops.Update(c.Context, e.db, e.cfg, input)
			if err != nil {
				return outputError(err)
			}
			e.log.CardSaved(output.ID, output.Chars)

			return outputJSON(c, output)
		},
	}
}

// editCmd creates the edit command. It goes through an editor session on
// the configured store backend, so it also works with store_backend=file.
func editCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit a card through the configured store (reads a new body from stdin)",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
		},
		Action: func(c *cli.Context) error {
			st, err := ops.OpenStore(e.cfg, e.db, e.baseDir)
			if err != nil {
				return outputError(err)
			}

			input := ops.EditInput{Key: c.Args().First()}
			text, ok, err := readInput(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if ok && text != "" {
				input.Text = &text
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}

			output, err := ops.Edit(c.Context, session.NewEditor(st, e.log), e.cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a card",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, e.db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List cards, most recently updated first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted cards"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, e.db, ops.ListInput{
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				_, err := fmt.Fprint(c.App.Writer, termview.List(output.Items))
				return err
			}
			return outputJSON(c, output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search cards by title and body text",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Search(c.Context, e.db, ops.SearchInput{
				Query:  strings.Join(c.Args().Slice(), " "),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// renderCmd creates the render command.
func renderCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Print the sanitized stored markup of a card",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Render(c.Context, e.db, ops.RenderInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			_, err = fmt.Fprintln(c.App.Writer, output.HTML)
			return err
		},
	}
}

// exportCmd creates the export command.
func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export cards to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.deck/exports/cards-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted cards"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.db, e.cfg, ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import cards from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, e.db, e.cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// importMarkdownCmd creates the import-md command.
func importMarkdownCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "import-md",
		Usage:     "Create a card from a Markdown file, or from stdin when no path is given",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title override"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportMarkdownInput{
				Path:  c.Args().First(),
				Title: c.String("title"),
			}
			if input.Path == "" {
				src, _, err := readInput(c)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				input.Source = src
			}

			output, err := ops.ImportMarkdown(c.Context, e.db, e.cfg, input)
			if err != nil {
				return outputError(err)
			}
			e.log.CardSaved(output.ID, output.Chars)

			return outputJSON(c, output)
		},
	}
}

// exportMarkdownCmd creates the export-md command.
func exportMarkdownCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export-md",
		Usage:     "Write a card as a Markdown file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.deck/exports/<title>.md)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportMarkdown(c.Context, e.db, e.cfg, ops.ExportMarkdownInput{
				ID:   c.Args().First(),
				Path: c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// rewriteCmd creates the rewrite command.
func rewriteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Ask the language model to rewrite a card",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "prompt", Aliases: []string{"p"}, Required: true, Usage: "Rewrite instruction"},
			&cli.BoolFlag{Name: "apply", Usage: "Save the suggestion to the card"},
			prettyFlag(),
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Rewrite(c.Context, e.db, e.cfg, e.rewrite, e.log, ops.RewriteInput{
				ID:     c.Args().First(),
				Prompt: c.String("prompt"),
				Apply:  c.Bool("apply"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("pretty") {
				_, err := fmt.Fprint(c.App.Writer, termview.Diff(output.Diff))
				return err
			}
			return outputJSON(c, output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted cards",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 7d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}
			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, e.db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the card editor web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8418, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(e.db, e.cfg, e.rewrite, e.log, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, e.log)
		},
	}
}

// Helper functions

// outputJSON writes result to the app's writer as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI. The CLI runs locally, so the cause of
// an internal error is shown.
func outputError(err error) error {
	dErr := errors.As(err)
	msg := dErr.Message
	if cause, ok := dErr.Details["internal_error"].(string); ok {
		msg += ": " + cause
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, msg), 1)
}

// readInput reads the app's stdin when something is piped to it. ok is
// false when stdin is an interactive terminal.
func readInput(c *cli.Context) (text string, ok bool, err error) {
	r := c.App.Reader
	if f, isFile := r.(*os.File); isFile && !hasPipedData(f) {
		return "", false, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", false, err
	}
	return strings.TrimRight(string(data), "\r\n"), true, nil
}

// hasPipedData returns true if f is a pipe or file rather than a terminal.
func hasPipedData(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
