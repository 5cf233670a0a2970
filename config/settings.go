package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExperimentSettings overrides the global settings for a single experiment.
// Unset fields fall back to their global counterparts.
type ExperimentSettings struct {
	Enabled        *bool             `mapstructure:"enabled" yaml:"enabled,omitempty"`                 // Kill switch for this experiment
	PercentEnabled *int              `mapstructure:"percent_enabled" yaml:"percent_enabled,omitempty"` // Rollout percentage (0-100) for this experiment
	Context        map[string]string `mapstructure:"context" yaml:"context,omitempty"`                 // Context published with this experiment's results
}

// Settings is the runtime configuration for experiment runs: a global kill
// switch and rollout percentage, a context map carried on every result, and
// per-experiment overrides keyed by experiment name.
//
// All fields are optional. An empty Settings resolves every experiment to
// enabled at full rollout with no context.
type Settings struct {
	Enabled        *bool                         `mapstructure:"enabled" yaml:"enabled,omitempty"`                 // Global kill switch. Experiments run when unset.
	PercentEnabled *int                          `mapstructure:"percent_enabled" yaml:"percent_enabled,omitempty"` // Global rollout percentage (0-100). Full rollout when unset.
	Context        map[string]string             `mapstructure:"context" yaml:"context,omitempty"`                 // Context published with every experiment's results
	Experiments    map[string]ExperimentSettings `mapstructure:"experiments" yaml:"experiments,omitempty"`         // Per-experiment overrides, keyed by experiment name
}

// EnabledFor resolves the kill switch for the named experiment. A
// per-experiment setting takes precedence over the global one; experiments
// are enabled when neither is set.
func (s *Settings) EnabledFor(name string) bool {
	if exp, ok := s.Experiments[name]; ok && exp.Enabled != nil {
		return *exp.Enabled
	}
	if s.Enabled != nil {
		return *s.Enabled
	}

	return true
}

// PercentFor resolves the rollout percentage for the named experiment,
// clamped to [0, 100]. A per-experiment setting takes precedence over the
// global one; the rollout is 100 when neither is set.
func (s *Settings) PercentFor(name string) int {
	pct := 100
	if s.PercentEnabled != nil {
		pct = *s.PercentEnabled
	}
	if exp, ok := s.Experiments[name]; ok && exp.PercentEnabled != nil {
		pct = *exp.PercentEnabled
	}

	return min(max(pct, 0), 100)
}

// ContextFor merges the global context with the named experiment's context.
// The experiment's entries win on key collisions. Returns nil when both are
// empty.
func (s *Settings) ContextFor(name string) map[string]any {
	exp := s.Experiments[name]
	if len(s.Context) == 0 && len(exp.Context) == 0 {
		return nil
	}

	merged := make(map[string]any, len(s.Context)+len(exp.Context))
	for k, v := range s.Context {
		merged[k] = v
	}
	for k, v := range exp.Context {
		merged[k] = v
	}

	return merged
}

// WriteFile writes the settings to the file path as YAML, in the format
// read back by Load and LoadFile.
func (s *Settings) WriteFile(filePath string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return os.WriteFile(filePath, b, 0600)
}
