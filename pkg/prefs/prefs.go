// SPDX-License-Identifier: Apache-2.0
package prefs

import (
	"fmt"
	"strings"
)

// Theme is the UI color scheme preference
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme validates a theme name
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("invalid theme %q (must be light or dark)", s)
	}
}

// Label returns the display name of the theme
func (t Theme) Label() string {
	if t == ThemeDark {
		return "Dark"
	}
	return "Light"
}

// Toggle returns the other theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences holds the user's onboarding choices
type Preferences struct {
	Telemetry bool  `json:"telemetry"`
	Theme     Theme `json:"theme"`
}

// Default returns the preferences used when nothing has been stored
func Default() Preferences {
	return Preferences{Telemetry: false, Theme: ThemeLight}
}

// Normalize maps unknown themes to light
func (p Preferences) Normalize() Preferences {
	if p.Theme != ThemeDark {
		p.Theme = ThemeLight
	}
	return p
}

// TelemetryLabel returns "Enabled" or "Disabled"
func (p Preferences) TelemetryLabel() string {
	if p.Telemetry {
		return "Enabled"
	}
	return "Disabled"
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Telemetry *bool
	Theme     *Theme
}

// WithTelemetry returns a patch setting the telemetry flag
func WithTelemetry(enabled bool) Patch {
	return Patch{Telemetry: &enabled}
}

// WithTheme returns a patch setting the theme
func WithTheme(theme Theme) Patch {
	return Patch{Theme: &theme}
}

// Merge applies a patch and returns the result
func (p Preferences) Merge(patch Patch) Preferences {
	if patch.Telemetry != nil {
		p.Telemetry = *patch.Telemetry
	}
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
	return p.Normalize()
}
