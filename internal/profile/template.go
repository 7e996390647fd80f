package profile

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/jonathan/profiler/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed default_template.yaml
var defaultTemplate []byte

// DefaultTemplate returns the built-in student profile template
func DefaultTemplate() types.ProfileConfig {
	cfg, err := ParseTemplate(defaultTemplate)
	if err != nil {
		panic(fmt.Sprintf("embedded profile template is invalid: %v", err))
	}
	return cfg
}

// LoadTemplate reads a profile template from a YAML file
func LoadTemplate(path string) (types.ProfileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ProfileConfig{}, &types.ConfigError{
			Message: fmt.Sprintf("failed to read profile template %s", path),
			Cause:   err,
		}
	}
	return ParseTemplate(data)
}

// ParseTemplate decodes and validates a YAML profile template
func ParseTemplate(data []byte) (types.ProfileConfig, error) {
	var cfg types.ProfileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return types.ProfileConfig{}, &types.ConfigError{Message: "failed to parse profile template", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return types.ProfileConfig{}, err
	}
	return cfg, nil
}
