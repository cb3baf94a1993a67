package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"filesort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The source directory exists; the destination does not, so organize passes
// exercise its creation. Captioning is disabled unless WithCaption is used.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "inbox")
	cfgVal.Paths.DestinationDir = filepath.Join(base, "organized")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Caption.Enabled = false
	cfgVal.Caption.APIKey = ""

	if err := os.MkdirAll(cfgVal.Paths.SourceDir, 0o755); err != nil {
		t.Fatalf("mkdir source dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithNoExtensionFolder sets the folder for files without an extension.
func WithNoExtensionFolder(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.NoExtensionFolder = name
	}
}

// WithCaption enables captioning against baseURL with the given key.
func WithCaption(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Caption.Enabled = true
		b.cfg.Caption.BaseURL = baseURL
		b.cfg.Caption.APIKey = apiKey
		b.cfg.Caption.RequestsPerMinute = 0
	}
}

// WithDryRun toggles dry-run organizing.
func WithDryRun() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.DryRun = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
