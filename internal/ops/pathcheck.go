package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/hpungsan/deck/internal/config"
	"github.com/hpungsan/deck/internal/errors"
)

// Access says whether a checked path will be read or written.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
)

// FileKind is a kind of file that card operations exchange with the disk.
type FileKind struct {
	Name string
	Exts []string // lower case, with the dot
}

var (
	JSONLFile    = FileKind{Name: "card export", Exts: []string{".jsonl"}}
	MarkdownFile = FileKind{Name: "markdown", Exts: []string{".md", ".markdown"}}
)

// CheckPath validates path before a file of kind is opened.
//
// The path may not contain ".." components and must carry one of the kind's
// extensions. Unless allow_unsafe_paths is set, the file must sit directly in
// ~/.deck/exports or an allowed_paths entry: nested directories are refused so
// no intermediate component can become a symlink between this check and the
// no-follow open. The file itself is never allowed to be a symlink. Reads
// require the file to exist.
func CheckPath(path string, access Access, kind FileKind, cfg *config.Config) error {
	abs, err := kind.resolve(path)
	if err != nil {
		return err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkExportDir(filepath.Dir(abs), cfg); err != nil {
			return err
		}
	}

	if access == AccessRead {
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

// resolve checks the shape of path and returns it absolute and cleaned.
func (k FileKind) resolve(path string) (string, error) {
	if path == "" {
		return "", errors.NewInvalidRequest("path is required")
	}
	if hasDotDot(path) {
		return "", errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}
	if !slices.Contains(k.Exts, strings.ToLower(filepath.Ext(path))) {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s path must end in one of: %s", k.Name, strings.Join(k.Exts, ", ")))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	return abs, nil
}

func checkExportDir(dir string, cfg *config.Config) error {
	allowed, err := exportDirs(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(allowed, dir) {
		return errors.NewInvalidRequest(fmt.Sprintf(
			"file must be directly in an allowed directory (no subdirectories); allowed: %v", allowed))
	}
	if isSymlink(dir) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// exportDirs lists ~/.deck/exports and the absolute allowed_paths entries.
// Entries that are symlinks are replaced by their targets.
func exportDirs(cfg *config.Config) ([]string, error) {
	def, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	candidates := []string{def}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				candidates = append(candidates, filepath.Clean(p))
			}
		}
	}

	dirs := make([]string, 0, len(candidates))
	for _, d := range candidates {
		if isSymlink(d) {
			target, err := filepath.EvalSymlinks(d)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			d = target
		}
		dirs = append(dirs, d)
	}
	return dirs, nil
}

// DefaultExportsDir returns the default exports directory (~/.deck/exports).
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, ".deck", "exports"), nil
}

// hasDotDot reports whether any component of path is "..". Forward slashes
// count as separators on every platform.
func hasDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

const maxFileNameRunes = 80

var dashRuns = regexp.MustCompile(`-{2,}`)

// exportFileName turns a card title into a file name with ext appended.
// Separators and ".." become dashes and control characters are dropped.
func exportFileName(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '-'
		case r < 32 || r == 127:
			return -1
		}
		return r
	}, title)
	name = strings.ReplaceAll(name, "..", "-")
	name = strings.Trim(dashRuns.ReplaceAllString(name, "-"), "-")

	if r := []rune(name); len(r) > maxFileNameRunes {
		name = strings.TrimRight(string(r[:maxFileNameRunes]), "- ")
	}
	if name == "" {
		name = "untitled"
	}
	return name + ext
}
