// Package engine wires the path/alloc/platform/pmap/vmod/module/jobqueue
// packages into a single embeddable unit: Context owns the process-wide
// facilities (platform, config, tracing), Realm owns one goja.Runtime and
// its module caches.
package engine

import (
	"os"

	"github.com/mstoykov/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the engine-wide options an embedder can set via a YAML
// file, environment variables, or direct struct literal. An environment
// variable set to a non-empty value (for Color: to true) wins over the
// file, matching k6's own env-over-file config precedence; an empty or
// false environment value leaves the file's setting in place.
type Config struct {
	// PmapRoot is the directory a package map's relative "main"/specialized
	// paths are resolved against. Empty disables package-map resolution.
	PmapRoot string `yaml:"pmapRoot" envconfig:"JJS_PMAP_ROOT"`

	// DefaultCwd overrides platform.Default's notion of cwd for resolving
	// entrypoint specifiers; empty means "use the platform facade's Cwd()".
	DefaultCwd string `yaml:"defaultCwd" envconfig:"JJS_DEFAULT_CWD"`

	// LogLevel is parsed by logrus.ParseLevel; empty defaults to "info".
	LogLevel string `yaml:"logLevel" envconfig:"JJS_LOG_LEVEL"`

	// Color forces ANSI color in log/CLI output regardless of tty detection.
	Color bool `yaml:"color" envconfig:"JJS_COLOR"`
}

// DefaultConfig returns the zero-value config with LogLevel defaulted,
// matching what an embedder gets with no file and no environment set.
func DefaultConfig() Config {
	return Config{LogLevel: "info"}
}

// apply overlays non-zero fields of other onto c, used to layer
// env-over-file precedence.
func (c Config) apply(other Config) Config {
	result := c
	if other.PmapRoot != "" {
		result.PmapRoot = other.PmapRoot
	}
	if other.DefaultCwd != "" {
		result.DefaultCwd = other.DefaultCwd
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Color {
		result.Color = true
	}
	return result
}

// LoadConfig assembles a Config from, in increasing precedence: built-in
// defaults, an optional YAML file at yamlPath (skipped if yamlPath is
// empty or the file doesn't exist), and environment variables prefixed
// per the envconfig tags above.
func LoadConfig(yamlPath string) (Config, error) {
	result := DefaultConfig()

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			var fileConf Config
			if err := yaml.Unmarshal(data, &fileConf); err != nil {
				return Config{}, err
			}
			result = result.apply(fileConf)
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	var envConf Config
	if err := envconfig.Process("", &envConf); err != nil {
		return Config{}, err
	}
	result = result.apply(envConf)

	return result, nil
}
