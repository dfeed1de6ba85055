// # internal/config/config.go
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ScriptPaths     []string `toml:"script_paths"`
	OutDir          string   `toml:"out_dir"`
	Package         string   `toml:"package"`
	ProjectDir      string   `toml:"project_dir"`
	APIPath         string   `toml:"api_path"`
	AppendSuffix    bool     `toml:"append_suffix"`
	OnlyForDeclared bool     `toml:"only_for_declared"`
	MetricsAddr     string   `toml:"metrics_addr"`
	Exclude         Exclude  `toml:"exclude"`
	Watch           Watch    `toml:"watch"`
	Cache           Cache    `toml:"cache"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Cache struct {
	Path string `toml:"path"`
}

// Default is the configuration used when no file is present or the file
// cannot be read. Generation must always be able to run.
func Default() *Config {
	return &Config{
		ScriptPaths: []string{"."},
		OutDir:      "bindings",
		Package:     "bindings",
		Exclude: Exclude{
			Dirs: []string{".git", ".godot", "addons"},
		},
		Watch: Watch{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Load reads the TOML configuration at path. On any failure it returns the
// defaults together with the error, so callers can log the reason and still
// proceed with a usable configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return Default(), err
	}

	if len(cfg.ScriptPaths) == 0 {
		cfg.ScriptPaths = []string{"."}
	}
	if cfg.OutDir == "" {
		cfg.OutDir = "bindings"
	}
	if cfg.Package == "" {
		cfg.Package = "bindings"
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}

	return cfg, nil
}
