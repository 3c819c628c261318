package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/db"
	"github.com/hpungsan/deck/internal/logger"
	"github.com/hpungsan/deck/internal/mcp"
	"github.com/hpungsan/deck/internal/rewrite"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"new": true, "show": true, "update": true, "edit": true, "delete": true,
	"list": true, "search": true, "render": true,
	"export": true, "import": true, "import-md": true, "export-md": true,
	"rewrite": true, "purge": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	if cliCommands[arg] {
		return true
	}
	return isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	arg := args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _           _
    __| | ___  ___| | __
   / _' |/ _ \/ __| |/ /
  | (_| |  __/ (__|   <
   \__,_|\___|\___|_|\_\

  Cards with headings, lists and bold text

  Usage: deck <command> [options]
         deck --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Help and version need no database
	if isHelpOrVersion(os.Args) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".deck")

	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, err := config.LoadWithRepo(baseDir, wd)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	// Logs go to stderr; stdout carries JSON-RPC in MCP mode
	log := logger.NewFromConfig(os.Stderr, cfg.LogLevel)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		log.Warn("unknown tools in disabled_tools", "tools", unknown)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	var svc *rewrite.Service
	if cfg.Rewrite.APIKey() != "" {
		svc = rewrite.NewClaudeService(cfg.Rewrite, log)
	} else {
		log.Debug("rewrite disabled: API key not set", "env", cfg.Rewrite.APIKeyEnv)
	}

	if isCLIMode(os.Args) {
		app := newCLIApp(&env{db: database, cfg: cfg, log: log, rewrite: svc, baseDir: baseDir})
		if err := app.Run(os.Args); err != nil {
			database.Close()
			fail("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		database.Close()
		fail("unknown command %q\nRun 'deck --help' for usage.", os.Args[1])
	}

	if err := mcp.Run(database, cfg, svc, log, Version); err != nil {
		database.Close()
		fail("%v", err)
	}
}
