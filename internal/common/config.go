package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents one compilation unit's configuration.
// Priority system: in-source @directives > CLI flags > environment variables > config file > defaults.
// A Config is built fresh per compilation unit and is read-only once the
// directive scanner has run (no re-entrant mutation through the pipeline).
type Config struct {
	Build     BuildConfig     `toml:"build"`
	Toolchain ToolchainConfig `toml:"toolchain"`
	Logging   LoggingConfig   `toml:"logging"`
}

// BuildConfig holds the knobs the lowering pipeline and PGO orchestrator read.
type BuildConfig struct {
	Hardline bool   `toml:"hardline"` // Emit runtime validity assertions into generated C
	Softline bool   `toml:"softline"` // Enable fn/let/var sugar lowering
	Opt      string `toml:"opt" validate:"oneof=O0 O1 O2 O3 size max"`
	LTO      bool   `toml:"lto"`     // Link-time optimization
	Profile  bool   `toml:"profile"` // PGO two-pass protocol
	Debug    bool   `toml:"debug"`   // Debug info in the emitted binary
	Out      string `toml:"out"`     // Output executable path ("" = derive from input name)
	ABI      string `toml:"abi"`
	Target   string `toml:"target"` // Target triple handed to the C compiler

	// CLI-only switches (no TOML keys; set by flag overrides)
	Strict      bool `toml:"-"`
	Relaxed     bool `toml:"-"`
	ShowC       bool `toml:"-"` // Preserve and print intermediate C instead of deleting it
	Verbose     bool `toml:"-"`
	WarnAsError bool `toml:"-"`
}

// ToolchainConfig is consumed only by the external toolchain driver; the
// lowering core treats it as opaque.
type ToolchainConfig struct {
	CC       string   `toml:"cc"` // Preferred C compiler ("" = probe clang then gcc)
	Defines  []string `toml:"defines"`
	Includes []string `toml:"includes"`
	LibPaths []string `toml:"libpaths"`
	Links    []string `toml:"links"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Defaults mirror the language reference: hardline and softline on, O2, LTO on.
func NewDefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Hardline: true,
			Softline: true,
			Opt:      "O2",
			LTO:      true,
			Profile:  false,
			Out:      "",
		},
		Toolchain: ToolchainConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFiles loads configuration from zero or more TOML files with
// priority: defaults -> file1 -> file2 -> ... -> env. Later files override
// earlier files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies CSCRIPT_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CSCRIPT_OPT"); v != "" {
		config.Build.Opt = v
	}
	if v := os.Getenv("CSCRIPT_HARDLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Build.Hardline = b
		}
	}
	if v := os.Getenv("CSCRIPT_SOFTLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Build.Softline = b
		}
	}
	if v := os.Getenv("CSCRIPT_LTO"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Build.LTO = b
		}
	}
	if v := os.Getenv("CSCRIPT_PROFILE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Build.Profile = b
		}
	}
	if v := os.Getenv("CSCRIPT_TARGET"); v != "" {
		config.Build.Target = v
	}
	if v := os.Getenv("CSCRIPT_CC"); v != "" {
		config.Toolchain.CC = v
	}
	if v := os.Getenv("CSCRIPT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CSCRIPT_LOG_OUTPUT"); v != "" {
		outputs := []string{}
		for _, o := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// FlagOverrides carries command-line values applied on top of file/env config.
type FlagOverrides struct {
	Out         string
	Opt         string
	NoLTO       bool
	Strict      bool
	Relaxed     bool
	ShowC       bool
	Verbose     bool
	Debug       bool
	Profile     bool
	CC          string
	Target      string
	WarnAsError bool
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags beat file and environment values; in-source directives
// are applied later by the directive scanner and beat everything.
func ApplyFlagOverrides(config *Config, f FlagOverrides) {
	if f.Out != "" {
		config.Build.Out = f.Out
	}
	if f.Opt != "" {
		config.Build.Opt = f.Opt
	}
	if f.NoLTO {
		config.Build.LTO = false
	}
	if f.Strict {
		config.Build.Strict = true
		config.Build.Hardline = true
	}
	if f.Relaxed {
		config.Build.Relaxed = true
	}
	if f.ShowC {
		config.Build.ShowC = true
	}
	if f.Verbose {
		config.Build.Verbose = true
	}
	if f.Debug {
		config.Build.Debug = true
	}
	if f.Profile {
		config.Build.Profile = true
	}
	if f.CC != "" {
		config.Toolchain.CC = f.CC
	}
	if f.Target != "" {
		config.Build.Target = f.Target
	}
	if f.WarnAsError {
		config.Build.WarnAsError = true
	}
}

// Validate checks the configuration for values the toolchain cannot honor.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("invalid configuration: %s %q fails %q", e.Namespace(), fmt.Sprintf("%v", e.Value()), e.Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// DeepCloneConfig creates a deep copy of the Config struct. Each compilation
// unit gets its own clone so pipelines never share mutable state.
func DeepCloneConfig(c *Config) *Config {
	if c == nil {
		return nil
	}

	clone := *c

	if len(c.Toolchain.Defines) > 0 {
		clone.Toolchain.Defines = append([]string(nil), c.Toolchain.Defines...)
	}
	if len(c.Toolchain.Includes) > 0 {
		clone.Toolchain.Includes = append([]string(nil), c.Toolchain.Includes...)
	}
	if len(c.Toolchain.LibPaths) > 0 {
		clone.Toolchain.LibPaths = append([]string(nil), c.Toolchain.LibPaths...)
	}
	if len(c.Toolchain.Links) > 0 {
		clone.Toolchain.Links = append([]string(nil), c.Toolchain.Links...)
	}
	if len(c.Logging.Output) > 0 {
		clone.Logging.Output = append([]string(nil), c.Logging.Output...)
	}

	return &clone
}
