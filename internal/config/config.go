// Package config loads compilation settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sladyn98/rspack/internal/engine"
	"github.com/sladyn98/rspack/internal/filename"
	"github.com/sladyn98/rspack/internal/format"
)

// Config holds the settings of one compilation.
type Config struct {
	Output Output `yaml:"output"`

	// ChunkFormat names the chunk-format plugin, e.g. "commonjs".
	ChunkFormat string `yaml:"chunk_format"`

	// ChunkLoading names the chunk-loading plugin, e.g. "module".
	// Empty disables chunk loading.
	ChunkLoading string `yaml:"chunk_loading"`

	// Library optionally names a startup plugin such as "commonjs-library".
	Library string `yaml:"library,omitempty"`

	// MaxIterations caps fixed-point passes per chunk.
	MaxIterations int `yaml:"max_iterations"`

	// Concurrency bounds how many chunks are processed at once.
	Concurrency int `yaml:"concurrency"`

	// Cache is the path of the artifact cache database. Empty disables it.
	Cache string `yaml:"cache,omitempty"`
}

// Output controls emitted files.
type Output struct {
	Path          string `yaml:"path"`
	ChunkFilename string `yaml:"chunk_filename"`

	// HashLength truncates content hashes recorded for chunks.
	HashLength int `yaml:"hash_length"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Output: Output{
			Path:          "dist",
			ChunkFilename: "[name].js",
			HashLength:    8,
		},
		ChunkFormat:   format.CommonJSName,
		ChunkLoading:  format.ModuleChunkLoadingName,
		MaxIterations: engine.DefaultMaxIterations,
		Concurrency:   engine.DefaultConcurrency,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges and the filename template.
func (c Config) Validate() error {
	var errs []error
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if _, err := filename.Parse(c.Output.ChunkFilename); err != nil {
		errs = append(errs, fmt.Errorf("output.chunk_filename: %w", err))
	}
	if c.Output.HashLength < 1 || c.Output.HashLength > 16 {
		errs = append(errs, fmt.Errorf("output.hash_length must be between 1 and 16, got %d", c.Output.HashLength))
	}
	if c.ChunkFormat == "" {
		errs = append(errs, errors.New("chunk_format is required"))
	}
	if c.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be positive, got %d", c.MaxIterations))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	return errors.Join(errs...)
}

// Template returns the parsed chunk filename template.
func (c Config) Template() (filename.Template, error) {
	return filename.Parse(c.Output.ChunkFilename)
}

// Plugins returns plugin names in invocation order: format, chunk loading,
// then library.
func (c Config) Plugins() []string {
	return []string{c.ChunkFormat, c.ChunkLoading, c.Library}
}
