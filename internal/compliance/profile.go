package compliance

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML rule profile. It names the marker patterns that
// flag restricted content and may disable individual rules.
type Profile struct {
	Name              string   `yaml:"name"`
	Publisher         string   `yaml:"publisher,omitempty"`
	RestrictedMarkers []string `yaml:"restricted_markers"`
	DisabledRules     []string `yaml:"disabled_rules,omitempty"`
}

// DefaultProfile is used when no profile file is supplied.
func DefaultProfile() Profile {
	return Profile{
		Name:              "default",
		RestrictedMarkers: []string{"RESTRICTED_LICENSE*"},
	}
}

// ParseProfile decodes a YAML profile document.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parsing profile: %w", err)
	}
	if p.Name == "" {
		return Profile{}, fmt.Errorf("profile has no name")
	}
	return p, nil
}

// LoadProfile reads a profile from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading profile %s: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) ruleEnabled(rule string) bool {
	for _, d := range p.DisabledRules {
		if d == rule {
			return false
		}
	}
	return true
}
