package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Config holds application configuration.
type Config struct {
	// CardMaxChars is the maximum character count of a card body in its
	// plain-text form.
	CardMaxChars int `json:"card_max_chars"`

	// TitleMaxChars is the maximum character count of a card title.
	TitleMaxChars int `json:"title_max_chars"`

	// StoreBackend selects where card markup lives: "sqlite" (default) or
	// "file" (a single JSON document under the base directory).
	StoreBackend string `json:"store_backend,omitempty"`

	// LogLevel is a charm/log level name. Logs always go to stderr.
	LogLevel string `json:"log_level,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.deck/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	Rewrite RewriteConfig `json:"rewrite"`
}

// RewriteConfig controls the language-model rewrite service.
type RewriteConfig struct {
	Model    string `json:"model,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	// The key itself is never read from config files.
	APIKeyEnv string `json:"api_key_env,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`

	MinPromptChars int      `json:"min_prompt_chars,omitempty"`
	MaxPromptChars int      `json:"max_prompt_chars,omitempty"`
	BlockedPhrases []string `json:"blocked_phrases,omitempty"`

	// RequestsPerMinute caps outgoing rewrite calls per process.
	RequestsPerMinute int `json:"requests_per_minute,omitempty"`

	// MaxRetries bounds retries on HTTP 429 from the upstream API.
	MaxRetries int `json:"max_retries,omitempty"`
}

// APIKey returns the key from the configured environment variable.
func (r RewriteConfig) APIKey() string {
	return os.Getenv(r.APIKeyEnv)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CardMaxChars:  20000,
		TitleMaxChars: 200,
		StoreBackend:  StoreSQLite,
		LogLevel:      "info",
		Rewrite: RewriteConfig{
			Model:             "claude-sonnet-4-5",
			Endpoint:          "https://api.anthropic.com/v1/messages",
			APIKeyEnv:         "ANTHROPIC_API_KEY",
			MaxTokens:         1024,
			MinPromptChars:    3,
			MaxPromptChars:    500,
			BlockedPhrases:    []string{"ignore previous instructions", "system prompt"},
			RequestsPerMinute: 6,
			MaxRetries:        3,
		},
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.deck) and repo (.deck) directories.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .deck/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".deck", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw returns a zero-valued config (not defaults) if the file doesn't exist.
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		CardMaxChars:     pickInt(overlay.CardMaxChars, base.CardMaxChars),
		TitleMaxChars:    pickInt(overlay.TitleMaxChars, base.TitleMaxChars),
		StoreBackend:     pickString(overlay.StoreBackend, base.StoreBackend),
		LogLevel:         pickString(overlay.LogLevel, base.LogLevel),
		DBMaxOpenConns:   pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:   pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		AllowUnsafePaths: base.AllowUnsafePaths || overlay.AllowUnsafePaths,
		AllowedPaths:     mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths),
		DisabledTools:    mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
	}

	b, o := base.Rewrite, overlay.Rewrite
	result.Rewrite = RewriteConfig{
		Model:             pickString(o.Model, b.Model),
		Endpoint:          pickString(o.Endpoint, b.Endpoint),
		APIKeyEnv:         pickString(o.APIKeyEnv, b.APIKeyEnv),
		MaxTokens:         pickInt(o.MaxTokens, b.MaxTokens),
		MinPromptChars:    pickInt(o.MinPromptChars, b.MinPromptChars),
		MaxPromptChars:    pickInt(o.MaxPromptChars, b.MaxPromptChars),
		BlockedPhrases:    mergeStringSlice(b.BlockedPhrases, o.BlockedPhrases),
		RequestsPerMinute: pickInt(o.RequestsPerMinute, b.RequestsPerMinute),
		MaxRetries:        pickInt(o.MaxRetries, b.MaxRetries),
	}

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
