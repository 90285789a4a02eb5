package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"voxrouter/internal/intent"
)

type Pattern struct {
	Intent  intent.Intent
	Pattern string
}

// LoadPatterns reads a YAML mapping of intent names to pattern lists.
// Unknown intents are rejected; regexps are compiled by the matcher.
func LoadPatterns(path string) ([]Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	return ParsePatterns(data)
}

func ParsePatterns(data []byte) ([]Pattern, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []Pattern
	for _, name := range names {
		i, err := intent.Parse(name)
		if err != nil {
			return nil, err
		}
		for _, p := range raw[name] {
			out = append(out, Pattern{Intent: i, Pattern: p})
		}
	}
	return out, nil
}
