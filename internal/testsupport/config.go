package testsupport

import (
	"path/filepath"
	"testing"

	"foldersort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Sorting.LockTimeoutSeconds = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return builder.cfg
}

// WithAlwaysCreateDefault pins the default category on the test config.
func WithAlwaysCreateDefault() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.AlwaysCreateDefault = true
	}
}

// WithArchiveLimits overrides the extraction limits on the test config.
func WithArchiveLimits(maxEntries, maxUncompressedMiB int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.MaxEntries = maxEntries
		b.cfg.Archive.MaxUncompressedMiB = maxUncompressedMiB
	}
}

// WithRules replaces the classification tables on the test config.
func WithRules(categories []config.CategoryRule, extensions map[string]string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Rules.Categories = categories
		b.cfg.Rules.Extensions = extensions
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
