package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`

	// Engine invocation.
	EngineDir      string `json:"engine_dir" yaml:"engine_dir" toml:"engine_dir"`
	GenerateScript string `json:"generate_script" yaml:"generate_script" toml:"generate_script"`
	PythonBin      string `json:"python_bin" yaml:"python_bin" toml:"python_bin"`
	LaunchBin      string `json:"launch_bin" yaml:"launch_bin" toml:"launch_bin"`

	// Checkpoints maps a task kind to its checkpoint directory.
	Checkpoints map[string]string `json:"checkpoints" yaml:"checkpoints" toml:"checkpoints"`

	// OutputDir receives generated videos, one subdirectory per task.
	OutputDir string `json:"output_dir" yaml:"output_dir" toml:"output_dir"`

	// GPUCount overrides device detection; 0 means autodetect.
	GPUCount int `json:"gpu_count" yaml:"gpu_count" toml:"gpu_count"`

	// TimeoutSec bounds a single generation once GPUs are held.
	TimeoutSec int `json:"timeout_sec" yaml:"timeout_sec" toml:"timeout_sec"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
