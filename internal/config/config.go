// Package config loads and validates Ralph's configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"

	"ralph/internal/model"
)

// DirName is the state directory created next to the project being driven.
const DirName = ".ralph"

const fileName = "ralph.yaml"

// Path returns the config file location inside a state directory.
func Path(ralphDir string) string {
	return filepath.Join(ralphDir, fileName)
}

// Load reads <ralphDir>/ralph.yaml, applies documented defaults and
// validates the rotation settings. A missing file is not an error: the
// defaults alone are a usable configuration.
func Load(ralphDir string) (model.Config, error) {
	var cfg model.Config

	data, err := os.ReadFile(Path(ralphDir))
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	} else if err := yamlv3.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the scheduler cannot act on. These halt
// the run; everything tunable merely falls back to defaults instead.
func Validate(cfg model.Config) error {
	if _, err := model.ParseStrategy(cfg.Rotation.Strategy); err != nil {
		return model.NewConfigError("rotation.strategy", "%v", err)
	}
	if err := validateAgentList("rotation.agents", cfg.Rotation.Agents); err != nil {
		return err
	}
	for command, list := range cfg.Rotation.CommandAgents {
		field := fmt.Sprintf("rotation.command_agents.%s", command)
		if err := validateAgentList(field, list); err != nil {
			return err
		}
	}
	switch cfg.Context.Mode {
	case "standard", "dynamic":
	default:
		return model.NewConfigError("context.mode", "unknown mode %q", cfg.Context.Mode)
	}
	switch cfg.Compaction.Mode {
	case "relevance", "line":
	default:
		return model.NewConfigError("compaction.mode", "unknown mode %q", cfg.Compaction.Mode)
	}
	return nil
}

func validateAgentList(field string, list []model.AgentEntry) error {
	seen := make(map[string]bool)
	for i, entry := range list {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return model.NewConfigError(field, "agent %d has an empty name", i)
		}
		if seen[name] {
			return model.NewConfigError(field, "agent %q listed twice", name)
		}
		seen[name] = true
		for j, m := range entry.Models {
			if strings.TrimSpace(m) == "" {
				return model.NewConfigError(field, "agent %q model %d is empty", name, j)
			}
		}
	}
	return nil
}
