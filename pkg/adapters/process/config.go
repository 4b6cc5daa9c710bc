package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcessConfig represents the configuration for an external tool execution.
// A tool is either a plain command or, when Jar is set, a jar run by the
// configured Java runtime.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Jar         string            `yaml:"jar" json:"jar"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of tools.yaml
type ConfigFile struct {
	Java     string          `yaml:"java" json:"java"`
	JavaOpts []string        `yaml:"java_opts" json:"java_opts"`
	Tools    []ProcessConfig `yaml:"tools" json:"tools"`
}

// LoadConfig reads a configuration file (YAML or JSON).
// A missing file is not an error: it means no tools are configured.
func LoadConfig(path string) (ConfigFile, error) {
	var cfg ConfigFile

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read tools config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	// Relative jars are relative to the config file.
	dir := filepath.Dir(path)
	for i, tool := range cfg.Tools {
		if tool.Jar != "" && !filepath.IsAbs(tool.Jar) {
			cfg.Tools[i].Jar = filepath.Join(dir, tool.Jar)
		}
	}
	return cfg, nil
}

// LoadTools reads a configuration file and returns a map of tool names to configs.
func LoadTools(path string) (map[string]ProcessConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg.ToolMap(), nil
}

// ToolMap indexes the tools by name. Unnamed entries are dropped.
func (c ConfigFile) ToolMap() map[string]ProcessConfig {
	toolMap := make(map[string]ProcessConfig)
	for _, tool := range c.Tools {
		if tool.Name == "" {
			continue
		}
		toolMap[tool.Name] = tool
	}
	return toolMap
}
