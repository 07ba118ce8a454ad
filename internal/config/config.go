package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when -c is not given.
const DefaultConfigFile = "assetpipe.yaml"

// Config represents the project configuration. Paths are relative to
// SourceRoot, which itself is relative to the directory of the config file.
type Config struct {
	SourceRoot string        `yaml:"source_root"`
	Entry      string        `yaml:"entry"`
	Template   string        `yaml:"template"`
	StylesDir  string        `yaml:"styles_dir,omitempty"`
	Chunk      string        `yaml:"chunk"`
	Output     OutputConfig  `yaml:"output"`
	HTML       HTMLConfig    `yaml:"html"`
	Resolve    ResolveConfig `yaml:"resolve"`
	Build      BuildConfig   `yaml:"build"`
	Elm        ElmConfig     `yaml:"elm"`
	PostCSS    CommandConfig `yaml:"postcss,omitempty"`
	History    HistoryConfig `yaml:"history,omitempty"`
	Rules      []Rule        `yaml:"rules"`

	// baseDir is the directory of the loaded config file (or the working
	// directory for in-memory configs).
	baseDir string `yaml:"-"`
}

// OutputConfig represents output layout configuration.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	PublicPath string `yaml:"public_path,omitempty"`
	JSDir      string `yaml:"js_dir"`
	CSSDir     string `yaml:"css_dir"`
	Manifest   string `yaml:"manifest"`
}

// HTMLConfig configures the generated HTML shell.
type HTMLConfig struct {
	Filename        string `yaml:"filename"`
	Inject          string `yaml:"inject"`           // head | body
	ScriptAttribute string `yaml:"script_attribute"` // defer | async | none
}

// ResolveConfig configures relative module resolution.
type ResolveConfig struct {
	Extensions []string `yaml:"extensions"`
}

// BuildConfig carries pipeline tuning knobs.
type BuildConfig struct {
	Concurrency       int           `yaml:"concurrency,omitempty"` // 0 => runtime.NumCPU()
	LoaderTimeout     time.Duration `yaml:"loader_timeout"`
	FingerprintLength int           `yaml:"fingerprint_length"`
	ExtractCSS        *bool         `yaml:"extract_css,omitempty"`

	// DefineNodeEnv exposes process.env.NODE_ENV ("development" or
	// "production") to bundled modules.
	DefineNodeEnv bool `yaml:"define_node_env,omitempty"`
}

// ElmConfig configures the external Elm compiler.
type ElmConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Dir     string   `yaml:"dir,omitempty"` // working directory holding elm.json, relative to source root
}

// CommandConfig describes an external text-to-text command (stdin -> stdout).
type CommandConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// HistoryConfig configures the build history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Load loads configuration from the specified file, applying defaults and validation.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext(errors.ContextPath, configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext(errors.ContextPath, configPath).
			WithContext(errors.ContextOp, "read").
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext(errors.ContextPath, configPath)
		}
		return nil, err
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.baseDir = filepath.Dir(absPath)
	slog.Debug("Loaded configuration", "path", absPath, "rules", len(cfg.Rules))
	return cfg, nil
}

// Parse decodes YAML bytes (after environment expansion), applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").Fatal().Build()
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	if wd, err := os.Getwd(); err == nil {
		cfg.baseDir = wd
	}
	return &cfg, nil
}

// Default returns the built-in configuration mirroring the conventional project layout.
func Default() *Config {
	cfg := &Config{}
	_ = applyDefaults(cfg)
	if wd, err := os.Getwd(); err == nil {
		cfg.baseDir = wd
	}
	return cfg
}

// LoadOrDefault loads configPath when it exists; when the default config file
// is absent the built-in defaults are used instead.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) && configPath == DefaultConfigFile {
		loadEnvFiles()
		slog.Info("No configuration file found, using defaults", "path", configPath)
		return Default(), nil
	}
	return Load(configPath)
}

// BaseDir returns the directory the configuration was loaded from.
func (c *Config) BaseDir() string { return c.baseDir }

// SetBaseDir overrides the directory relative paths are resolved against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

// SourceRootPath returns the absolute source root.
func (c *Config) SourceRootPath() string {
	return c.abs(c.baseDir, c.SourceRoot)
}

// EntryPath returns the absolute entry file path.
func (c *Config) EntryPath() string { return c.abs(c.SourceRootPath(), c.Entry) }

// TemplatePath returns the absolute HTML template path.
func (c *Config) TemplatePath() string { return c.abs(c.SourceRootPath(), c.Template) }

// StylesPath returns the absolute styles directory, or "" when unset.
func (c *Config) StylesPath() string {
	if c.StylesDir == "" {
		return ""
	}
	return c.abs(c.SourceRootPath(), c.StylesDir)
}

// OutputPath returns the absolute output directory.
func (c *Config) OutputPath() string { return c.abs(c.SourceRootPath(), c.Output.Directory) }

// ElmDir returns the working directory for the Elm compiler.
func (c *Config) ElmDir() string { return c.abs(c.SourceRootPath(), c.Elm.Dir) }

// ExtractCSSEnabled reports whether stylesheets are extracted into a separate artifact.
func (c *Config) ExtractCSSEnabled() bool {
	return c.Build.ExtractCSS == nil || *c.Build.ExtractCSS
}

func (c *Config) abs(base, p string) string {
	if p == "" {
		p = "."
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	return filepath.Join(base, p)
}

// Init writes a default configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# assetpipe configuration\n# Build mode is selected with --mode or ASSETPIPE_MODE (development|release).\n")
	if err := os.WriteFile(configPath, append(header, data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	slog.Info("Configuration file created", "path", configPath)
	return nil
}
