// Package iiif generates IIIF presentation manifests for the page scans of a
// corpus, driven by a YAML configuration of constants and templates.
package iiif

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest levels.
const (
	LevelFolder = "folder"
	LevelFile   = "file"
)

// Config is the content of an iiif.yaml file. Sections other than the ones
// with a fixed meaning are kept raw and assembled by Parse.
type Config struct {
	// Constants is a list of batches; values in a batch may reference the
	// constants of earlier batches as «name».
	Constants     []map[string]any `yaml:"constants"`
	ManifestLevel string           `yaml:"manifestLevel"`
	ZoneBased     bool             `yaml:"zoneBased"`

	sections map[string]any
}

// LoadConfig reads an iiif configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read iiif config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes an iiif configuration document.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse iiif config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg.sections); err != nil {
		return nil, fmt.Errorf("failed to parse iiif config: %w", err)
	}
	switch cfg.ManifestLevel {
	case "":
		cfg.ManifestLevel = LevelFolder
	case LevelFolder, LevelFile:
	default:
		return nil, fmt.Errorf("invalid manifestLevel %q: want %s or %s", cfg.ManifestLevel, LevelFolder, LevelFile)
	}
	return &cfg, nil
}

// Constant returns the raw value of a constant, searching later batches first.
func (c *Config) Constant(name string) (any, bool) {
	for i := len(c.Constants) - 1; i >= 0; i-- {
		if v, ok := c.Constants[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

var (
	constantRe = regexp.MustCompile(`«([^«»]+)»`)
	argRe      = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	varRe      = regexp.MustCompile(`\{([^{}]+)\}`)
)

// ResolveError lists every value that still contains a marker after substitution.
type ResolveError struct {
	Unresolved []string
}

func (e *ResolveError) Error() string {
	return "unresolved iiif config values:\n  " + strings.Join(e.Unresolved, "\n  ")
}

// Sections is the result of Parse: selected sections with every marker resolved.
type Sections map[string]map[string]any

// Parse resolves the constants and assembles the selected top-level sections,
// replacing «constant» and [[arg]] markers. A value that consists of exactly
// one marker whose replacement is an integer becomes that integer. Any marker
// left over is reported in a *ResolveError.
func Parse(cfg *Config, selectors []string, args map[string]any) (Sections, error) {
	var unresolved []string

	constants := make(map[string]any)
	for i, batch := range cfg.Constants {
		resolved := make(map[string]any, len(batch))
		for k, v := range batch {
			if s, ok := v.(string); ok {
				v = substitute(s, constantRe, constants)
				if s, ok := v.(string); ok && strings.ContainsAny(s, "«»") {
					unresolved = append(unresolved, fmt.Sprintf("constant batch %d: value for %s not resolved: %s", i+1, k, s))
				}
			}
			resolved[k] = v
		}
		for k, v := range resolved {
			constants[k] = v
		}
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &ResolveError{Unresolved: unresolved}
	}

	var fill func(any) any
	fill = func(data any) any {
		switch v := data.(type) {
		case string:
			out := substitute(v, constantRe, constants)
			if s, ok := out.(string); ok {
				out = substitute(s, argRe, args)
			}
			if s, ok := out.(string); ok && (strings.ContainsAny(s, "«»") || strings.Contains(s, "[[") || strings.Contains(s, "]]")) {
				unresolved = append(unresolved, "value not completely resolved: "+s)
			}
			return out
		case []any:
			out := make([]any, len(v))
			for i, item := range v {
				out[i] = fill(item)
			}
			return out
		case map[string]any:
			out := make(map[string]any, len(v))
			for k, item := range v {
				out[k] = fill(item)
			}
			return out
		}
		return data
	}

	out := make(Sections, len(selectors))
	for _, sel := range selectors {
		section := make(map[string]any)
		if raw, ok := cfg.sections[sel].(map[string]any); ok {
			for k, v := range raw {
				section[k] = fill(v)
			}
		}
		out[sel] = section
	}
	if len(unresolved) > 0 {
		sort.Strings(unresolved)
		return nil, &ResolveError{Unresolved: unresolved}
	}
	return out, nil
}

// Fillin replaces {name} placeholders in strings, recursively through lists
// and maps, with the same integer rule as Parse. Unknown placeholders are kept.
func Fillin(data any, vars map[string]any) any {
	switch v := data.(type) {
	case string:
		return substitute(v, varRe, vars)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Fillin(item, vars)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Fillin(item, vars)
		}
		return out
	}
	return data
}

// substitute replaces the markers matched by re with values from vars.
// Markers without a value are left in place.
func substitute(s string, re *regexp.Regexp, vars map[string]any) any {
	if m := re.FindStringSubmatch(s); m != nil && m[0] == s {
		if v, ok := vars[m[1]]; ok && isInt(v) {
			return v
		}
	}
	return re.ReplaceAllStringFunc(s, func(marker string) string {
		name := re.FindStringSubmatch(marker)[1]
		v, ok := vars[name]
		if !ok {
			return marker
		}
		return stringify(v)
	})
}

func isInt(v any) bool {
	switch v.(type) {
	case int, int64, int32, uint, uint64, uint32:
		return true
	}
	return false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case nil:
		return "None"
	}
	return fmt.Sprint(v)
}

// Truthy reports whether a config value switches something on.
func Truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(x)
		return err == nil && b
	case int:
		return x != 0
	}
	return false
}

// ErrMissingTemplate is returned when a template needed for a scan kind is absent.
var ErrMissingTemplate = errors.New("missing iiif template")
