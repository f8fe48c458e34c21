// Package config holds the serializable configuration for the loop and
// coordinator subsystems. LoopConfig has defaults and a Merge that layers
// non-zero overrides on top, so file, env, and flag sources compose;
// CoordinatorConfig has defaults only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/relay-loop/ralph/notify"
)

// LoopConfig holds every input to one orchestrator loop run.
type LoopConfig struct {
	PRDPath          string        `json:"prd_path" yaml:"prd_path"`
	Agent            string        `json:"agent" yaml:"agent"`
	Model            string        `json:"model,omitempty" yaml:"model,omitempty"`
	IterationCap     int           `json:"iteration_cap" yaml:"iteration_cap"`
	IterationTimeout time.Duration `json:"iteration_timeout" yaml:"iteration_timeout"`
	StallTimeout     time.Duration `json:"stall_timeout" yaml:"stall_timeout"`
	ParseTimeout     time.Duration `json:"parse_timeout" yaml:"parse_timeout"`
	MaxFailures      int           `json:"max_failures" yaml:"max_failures"`
	Workdir          string        `json:"workdir" yaml:"workdir"`
	VCS              *bool         `json:"vcs,omitempty" yaml:"vcs,omitempty"`
	Branch           string        `json:"branch,omitempty" yaml:"branch,omitempty"`
	Verbose          bool          `json:"verbose,omitempty" yaml:"verbose,omitempty"`
	StateName        string        `json:"state_name,omitempty" yaml:"state_name,omitempty"`
	Notify           notify.Config `json:"notify" yaml:"notify"`
}

// DefaultLoopConfig returns conservative defaults for a single-loop run.
func DefaultLoopConfig() LoopConfig {
	vcsOn := true
	return LoopConfig{
		Agent:            "claude",
		IterationCap:     50,
		IterationTimeout: 10 * time.Minute,
		StallTimeout:     2 * time.Minute,
		ParseTimeout:     2 * time.Minute,
		MaxFailures:      3,
		Workdir:          ".",
		VCS:              &vcsOn,
		Notify:           notify.DefaultConfig(),
	}
}

// VCSEnabled reports whether version-control integration is on, defaulting
// to true when unset.
func (c *LoopConfig) VCSEnabled() bool {
	return c.VCS == nil || *c.VCS
}

// Merge applies every non-zero field of source into c.
func (c *LoopConfig) Merge(source *LoopConfig) {
	if source.PRDPath != "" {
		c.PRDPath = source.PRDPath
	}
	if source.Agent != "" {
		c.Agent = source.Agent
	}
	if source.Model != "" {
		c.Model = source.Model
	}
	if source.IterationCap > 0 {
		c.IterationCap = source.IterationCap
	}
	if source.IterationTimeout > 0 {
		c.IterationTimeout = source.IterationTimeout
	}
	if source.StallTimeout > 0 {
		c.StallTimeout = source.StallTimeout
	}
	if source.ParseTimeout > 0 {
		c.ParseTimeout = source.ParseTimeout
	}
	if source.MaxFailures > 0 {
		c.MaxFailures = source.MaxFailures
	}
	if source.Workdir != "" {
		c.Workdir = source.Workdir
	}
	if source.Branch != "" {
		c.Branch = source.Branch
	}
	if source.StateName != "" {
		c.StateName = source.StateName
	}
	if source.VCS != nil {
		c.VCS = source.VCS
	}
	c.Verbose = c.Verbose || source.Verbose
	c.Notify.Merge(&source.Notify)
}

// CoordinatorConfig holds the inputs to a parallel coordinator run.
type CoordinatorConfig struct {
	Parallelism int `json:"parallelism"`
}

// DefaultCoordinatorConfig bounds parallel runs to min(host parallelism, 4).
func DefaultCoordinatorConfig() CoordinatorConfig {
	p := runtime.NumCPU()
	if p > 4 {
		p = 4
	}
	return CoordinatorConfig{Parallelism: p}
}

// LoadLoopConfig reads a JSON or YAML config file (by extension; .yaml and
// .yml select YAML), merges it over defaults, and returns the resulting
// LoopConfig.
func LoadLoopConfig(filename string) (*LoopConfig, error) {
	cfg := DefaultLoopConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var loaded LoopConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
