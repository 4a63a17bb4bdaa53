package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/autoswag/directive"
	"github.com/vitalvas/autoswag/openapi"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Paths lists the schema source directories. Empty entries default to a
// directory under the application path.
type Paths struct {
	Interfaces  string `yaml:"interfaces"`
	Models      string `yaml:"models"`
	Validators  string `yaml:"validators"`
	Enums       string `yaml:"enums"`
	Controllers string `yaml:"controllers"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File enables a rotated log file in addition to stderr.
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Config is the generator configuration.
type Config struct {
	Title       string `yaml:"title"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`

	AppPath string `yaml:"app_path"`
	Paths   Paths  `yaml:"paths"`

	// SnakeCase converts model field names to snake_case.
	SnakeCase bool `yaml:"snake_case"`

	// TagIndex selects the route path segment used as the operation tag.
	TagIndex int `yaml:"tag_index"`

	// Ignore lists route patterns left out of the document. A trailing "*"
	// matches any suffix.
	Ignore []string `yaml:"ignore"`

	// Common holds the shared parameter and header groups in OpenAPI form.
	Common map[string]any `yaml:"common"`

	SecuritySchemes       map[string]any `yaml:"security_schemes"`
	AuthMiddlewares       []string       `yaml:"auth_middlewares"`
	DefaultSecurityScheme string         `yaml:"default_security_scheme"`

	// Output is the directory receiving swagger.json and swagger.yml.
	Output string `yaml:"output"`

	Debug bool      `yaml:"debug"`
	Log   LogConfig `yaml:"log"`
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Title:    "AutoSwagger",
		Version:  "1.0.0",
		AppPath:  "app",
		TagIndex: 2,
		SecuritySchemes: map[string]any{
			"BearerAuth": map[string]any{"type": "http", "scheme": "bearer"},
		},
		AuthMiddlewares:       []string{"auth", "auth:api"},
		DefaultSecurityScheme: "BearerAuth",
		Output:                "docs",
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Load reads the configuration file at path over the defaults, fills the
// source directories and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a configuration document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyPaths() {
	defaults := []struct {
		dst *string
		dir string
	}{
		{&c.Paths.Interfaces, "interfaces"},
		{&c.Paths.Models, "models"},
		{&c.Paths.Validators, "validators"},
		{&c.Paths.Enums, "types"},
		{&c.Paths.Controllers, "controllers"},
	}

	for _, d := range defaults {
		if *d.dst == "" {
			*d.dst = filepath.Join(c.AppPath, d.dir)
		}
	}
}

// Validate checks the configuration for values the generator cannot use.
func (c *Config) Validate() error {
	if c.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidConfig)
	}
	if c.TagIndex < 0 {
		return fmt.Errorf("%w: tag_index must not be negative", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("%w: log level must be one of debug, info, warn or error", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"json", "console"}, c.Log.Format) {
		return fmt.Errorf("%w: log format must be json or console", ErrInvalidConfig)
	}
	if c.DefaultSecurityScheme != "" {
		if _, ok := c.SecuritySchemes[c.DefaultSecurityScheme]; !ok {
			return fmt.Errorf("%w: default security scheme %q is not defined", ErrInvalidConfig, c.DefaultSecurityScheme)
		}
	}
	return nil
}

// CommonDefinitions converts the common section into the shared parameter
// and header groups.
func (c *Config) CommonDefinitions() (*directive.CommonDefinitions, error) {
	defs := &directive.CommonDefinitions{}
	if err := convert(c.Common, defs); err != nil {
		return nil, fmt.Errorf("common definitions: %w", err)
	}
	return defs, nil
}

// Security converts the security_schemes section.
func (c *Config) Security() (map[string]*openapi.SecurityScheme, error) {
	schemes := make(map[string]*openapi.SecurityScheme, len(c.SecuritySchemes))
	if err := convert(c.SecuritySchemes, &schemes); err != nil {
		return nil, fmt.Errorf("security schemes: %w", err)
	}
	return schemes, nil
}

// Ignored reports whether a route pattern is excluded.
func (c *Config) Ignored(pattern string) bool {
	for _, ignore := range c.Ignore {
		if prefix, ok := strings.CutSuffix(ignore, "*"); ok {
			if strings.HasPrefix(pattern, prefix) {
				return true
			}
			continue
		}
		if pattern == ignore {
			return true
		}
	}
	return false
}

// convert moves a YAML-decoded section into OpenAPI types. The OpenAPI
// types carry JSON names (minLength, $ref), so the section is re-encoded as
// JSON first.
func convert(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
