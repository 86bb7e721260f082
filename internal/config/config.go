package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VMConfig tunes the GC thresholds, stack/frame sizing, and debug flags a
// host program passes to vm.NewVMWithTuning. Every field is optional in the
// YAML file; omitted fields keep their default.
type VMConfig struct {
	GCGrowthFactor   float64 `yaml:"gc_growth_factor,omitempty"`
	InitialNextGC    int64   `yaml:"initial_next_gc,omitempty"`
	InitialStackSize int     `yaml:"initial_stack_size,omitempty"`
	MaxFrames        int     `yaml:"max_frames,omitempty"`

	PrintCode      bool `yaml:"print_code,omitempty"`
	TraceExecution bool `yaml:"trace_execution,omitempty"`
	StressGC       bool `yaml:"stress_gc,omitempty"`
	LogGC          bool `yaml:"log_gc,omitempty"`
}

// DefaultVMConfig returns the zero-tuning config: every knob at its
// package-default value, all debug flags off.
func DefaultVMConfig() *VMConfig {
	return &VMConfig{
		GCGrowthFactor:   2.0,
		InitialNextGC:    1024 * 1024,
		InitialStackSize: 256,
		MaxFrames:        64,
	}
}

// LoadVMConfig reads and parses an ember.yaml file. A missing file is not an
// error: it returns DefaultVMConfig() unchanged.
func LoadVMConfig(path string) (*VMConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultVMConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseVMConfig(data, path)
}

// ParseVMConfig parses ember.yaml content from bytes, layering it over the
// defaults so a partial file only overrides the fields it names.
func ParseVMConfig(data []byte, path string) (*VMConfig, error) {
	cfg := DefaultVMConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// FindVMConfig looks for ember.yaml inside scriptDir, returning "" with a
// nil error if none exists.
func FindVMConfig(scriptDir string) (string, error) {
	candidate := scriptDir + string(os.PathSeparator) + "ember.yaml"
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking %s: %w", candidate, err)
	}
	return "", nil
}
