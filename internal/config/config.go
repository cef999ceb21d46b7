// Package config loads composite-agent rosters from YAML: the composite's
// identity, the completion endpoint, and the persona specifications.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/personalityai/personality/internal/persona"
)

// Roster is the on-disk description of one composite agent.
type Roster struct {
	Name     string        `yaml:"name"`
	Bio      string        `yaml:"bio"`
	Endpoint Endpoint      `yaml:"endpoint"`
	Personas []PersonaSpec `yaml:"personas"`
}

// Endpoint describes the completion service the personas run against.
type Endpoint struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// PersonaSpec is one persona entry of the roster.
type PersonaSpec struct {
	Name          string  `yaml:"name"`
	Directive     string  `yaml:"directive"`
	Model         string  `yaml:"model,omitempty"`
	Temperature   float64 `yaml:"temperature,omitempty"`
	Seed          float64 `yaml:"seed,omitempty"`
	RepeatPenalty float64 `yaml:"repeat_penalty,omitempty"`
}

// Loader handles loading and validating roster configurations.
type Loader struct {
	configPath string
}

// NewLoader creates a loader for the given path.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads, parses and validates the roster file.
func (l *Loader) Load() (*Roster, error) {
	if l.configPath == "" {
		return nil, fmt.Errorf("configuration path is required")
	}
	if _, err := os.Stat(l.configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", l.configPath)
	}

	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return l.LoadFromString(string(data))
}

// LoadFromString parses and validates a roster from YAML text.
func (l *Loader) LoadFromString(yamlContent string) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal([]byte(substituteEnvVars(yamlContent)), &roster); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	if err := roster.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &roster, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substituteEnvVars replaces ${VAR_NAME} placeholders with environment
// variable values. Unset variables become empty strings.
func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Validate checks the roster for the constraints composite construction
// will enforce, so misconfiguration surfaces at load time with file context.
func (r *Roster) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("composite name is required")
	}
	if len(r.Personas) < 3 {
		return fmt.Errorf("at least three personas required, got %d", len(r.Personas))
	}

	hasReferee := false
	for i, p := range r.Personas {
		if p.Name == "" {
			return fmt.Errorf("persona %d: name is required", i)
		}
		if p.Directive == "" {
			return fmt.Errorf("persona %q: directive is required", p.Name)
		}
		if strings.EqualFold(p.Name, "referee") {
			hasReferee = true
		}
	}
	if !hasReferee {
		return fmt.Errorf("missing required persona: referee")
	}
	return nil
}

// Specs converts the roster's persona entries into construction specs.
func (r *Roster) Specs() []persona.Spec {
	specs := make([]persona.Spec, len(r.Personas))
	for i, p := range r.Personas {
		specs[i] = persona.Spec{
			Name:          p.Name,
			Directive:     p.Directive,
			Model:         p.Model,
			Temperature:   p.Temperature,
			Seed:          p.Seed,
			RepeatPenalty: p.RepeatPenalty,
		}
	}
	return specs
}
