package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/creastat/logmerge/core"
	"gopkg.in/yaml.v3"
)

// RunConfig is the merge configuration a YAML file may provide.
// Flags given on the command line override file values.
type RunConfig struct {
	Sources    int            `yaml:"sources"`
	Records    int            `yaml:"records"`
	Seed       uint64         `yaml:"seed"`
	Mode       core.MergeMode `yaml:"mode"`
	MaxDelay   time.Duration  `yaml:"maxDelay"`
	MaxStep    time.Duration  `yaml:"maxStep"`
	CheckOrder bool           `yaml:"checkOrder"`
	Database   string         `yaml:"database"`
	Forward    string         `yaml:"forward"`
}

// DefaultRunConfig returns the configuration used when neither file nor flags set a value
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Sources:  100,
		Records:  50,
		Seed:     1,
		Mode:     core.MergeModeBoth,
		MaxDelay: 8 * time.Millisecond,
		MaxStep:  time.Hour,
	}
}

// LoadRunConfig reads path over the defaults. An empty path returns the defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges
func (c RunConfig) Validate() error {
	switch c.Mode {
	case core.MergeModeSync, core.MergeModeAsync, core.MergeModeBoth:
	default:
		return fmt.Errorf("invalid mode %q: must be one of sync, async, both", c.Mode)
	}
	if c.Database == "" && c.Sources < 0 {
		return fmt.Errorf("sources must not be negative, got %d", c.Sources)
	}
	if c.Records < 0 {
		return fmt.Errorf("records must not be negative, got %d", c.Records)
	}
	if c.MaxDelay < 0 || c.MaxStep < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
