package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"foldersort/internal/classify"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	APIBind  string `toml:"api_bind"`
}

// Sorting contains knobs for the build/execute run.
type Sorting struct {
	DefaultCategory     string `toml:"default_category"`
	UnclassifiedType    string `toml:"unclassified_type"`
	AlwaysCreateDefault bool   `toml:"always_create_default"`
	LockTimeoutSeconds  int    `toml:"lock_timeout_seconds"`
}

// CategoryRule maps a filename keyword to a category folder.
type CategoryRule struct {
	Keyword  string `toml:"keyword"`
	Category string `toml:"category"`
}

// Rules holds user-supplied classification tables. Either table left empty
// falls back to the built-in defaults independently.
type Rules struct {
	Categories []CategoryRule    `toml:"categories"`
	Extensions map[string]string `toml:"extensions"`
}

// Archive contains limits for uploaded and extracted archives.
type Archive struct {
	MaxUploadMiB       int `toml:"max_upload_mib"`
	MaxEntries         int `toml:"max_entries"`
	MaxUncompressedMiB int `toml:"max_uncompressed_mib"`
	StaleJobHours      int `toml:"stale_job_hours"`
}

// Publish contains S3-compatible object storage settings for sorted archives.
type Publish struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
	Prefix    string `toml:"prefix"`
}

// Notifications contains ntfy settings for run completion messages.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifyOnSuccess       bool   `toml:"notify_on_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for foldersort.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Sorting       Sorting       `toml:"sorting"`
	Rules         Rules         `toml:"rules"`
	Archive       Archive       `toml:"archive"`
	Publish       Publish       `toml:"publish"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/foldersort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("foldersort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the work, state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RuleSet builds the immutable classification rules described by the config.
func (c *Config) RuleSet() (*classify.RuleSet, error) {
	categories := classify.DefaultCategoryRules()
	if len(c.Rules.Categories) > 0 {
		categories = make([]classify.CategoryRule, 0, len(c.Rules.Categories))
		for _, rule := range c.Rules.Categories {
			categories = append(categories, classify.CategoryRule{Keyword: rule.Keyword, Category: rule.Category})
		}
	}
	extensions := classify.DefaultExtensionRules()
	if len(c.Rules.Extensions) > 0 {
		extensions = c.Rules.Extensions
	}
	return classify.NewRuleSet(categories, extensions,
		classify.WithDefaultCategory(c.Sorting.DefaultCategory),
		classify.WithUnclassifiedType(c.Sorting.UnclassifiedType),
	)
}

// LockTimeout returns how long a run waits for another run on the same root.
func (c *Config) LockTimeout() time.Duration {
	return time.Duration(c.Sorting.LockTimeoutSeconds) * time.Second
}

// NotifyTimeout returns the per-request ntfy timeout.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Archive.MaxUploadMiB) << 20
}

// MaxUncompressedBytes returns the extraction size limit in bytes.
func (c *Config) MaxUncompressedBytes() int64 {
	return int64(c.Archive.MaxUncompressedMiB) << 20
}

// StaleJobAge returns the age after which abandoned job directories are removed.
func (c *Config) StaleJobAge() time.Duration {
	return time.Duration(c.Archive.StaleJobHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
