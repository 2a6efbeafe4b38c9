package profile

import (
	"fmt"
	"strings"
)

// ValidateTile returns the problems that would make the tile unusable
// when applying rules or launching commands.
func ValidateTile(t *Tile) []string {
	var problems []string

	label := t.Name
	if label == "" {
		label = "<tile>"
	}

	if t.Width <= 0 || t.Height <= 0 {
		problems = append(problems,
			fmt.Sprintf("tile %q has an invalid size (width and height must be > 0)", label))
	}

	switch t.LaunchMode {
	case LaunchHelper:
		if strings.TrimSpace(t.ShellCommand) == "" {
			problems = append(problems,
				fmt.Sprintf("tile %q uses the terminal helper but has no shell command", label))
		}
		if strings.TrimSpace(t.Command) == "" {
			problems = append(problems,
				fmt.Sprintf("tile %q has no generated helper command", label))
		}
	case LaunchApp:
		if strings.TrimSpace(t.Command) == "" {
			problems = append(problems,
				fmt.Sprintf("tile %q uses application mode but has no command", label))
		}
	}
	// Raw mode runs whatever command is present; an empty command is fine.

	return problems
}

// ValidateProfile validates the profile and all of its tiles, returning
// every problem found rather than stopping at the first.
func ValidateProfile(p *Profile) []string {
	var problems []string

	if strings.TrimSpace(p.Name) == "" {
		problems = append(problems, "profile name is empty")
	}

	seen := make(map[string]bool, len(p.Tiles))
	for _, t := range p.Tiles {
		if t.Name != "" {
			if seen[t.Name] {
				problems = append(problems, fmt.Sprintf("duplicate tile name %q", t.Name))
			}
			seen[t.Name] = true
		}
		problems = append(problems, ValidateTile(t)...)
	}

	return problems
}

// ValidateConfig validates every profile and flags duplicate profile
// names, which would break lookup by name.
func ValidateConfig(c *Config) []string {
	var problems []string

	seen := make(map[string]bool, len(c.Profiles))
	for _, p := range c.Profiles {
		if p.Name != "" {
			if seen[p.Name] {
				problems = append(problems, fmt.Sprintf("duplicate profile name %q", p.Name))
			}
			seen[p.Name] = true
		}
		problems = append(problems, ValidateProfile(p)...)
	}

	return problems
}
