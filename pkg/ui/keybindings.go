// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyBinding represents a single key action
type KeyBinding struct {
	Key         string   // Display name: "ENTER", "TAB", "DEL"
	Keys        []string // Actual keys to match: ["enter"], ["tab"], ["delete", "backspace"]
	Description string   // What it does
}

// KeyBindingSet is a collection of related key bindings
type KeyBindingSet struct {
	Bindings []KeyBinding
}

// Contains checks if a key press matches any binding in the set
func (kbs KeyBindingSet) Contains(key string) *KeyBinding {
	for i := range kbs.Bindings {
		for _, k := range kbs.Bindings[i].Keys {
			if k == key {
				return &kbs.Bindings[i]
			}
		}
	}
	return nil
}

// Render formats key bindings for display
// Format: "[KEY] Action  •  [KEY] Action"
func (kbs KeyBindingSet) Render(style lipgloss.Style) string {
	if len(kbs.Bindings) == 0 {
		return ""
	}

	parts := make([]string, len(kbs.Bindings))
	for i, binding := range kbs.Bindings {
		parts[i] = fmt.Sprintf("[%s] %s", binding.Key, binding.Description)
	}

	return style.Render(strings.Join(parts, "  •  "))
}

// RenderInline formats key bindings for inline display (more compact)
// Format: "Key: action | Key: action"
func (kbs KeyBindingSet) RenderInline(style lipgloss.Style) string {
	if len(kbs.Bindings) == 0 {
		return ""
	}

	parts := make([]string, len(kbs.Bindings))
	caser := cases.Title(language.Und, cases.NoLower)
	for i, binding := range kbs.Bindings {
		// Use first key alias for display (e.g., "enter" instead of showing all)
		keyName := caser.String(binding.Keys[0])
		parts[i] = fmt.Sprintf("%s: %s", keyName, strings.ToLower(binding.Description))
	}

	return style.Render(strings.Join(parts, " | "))
}

// Without returns a copy of the binding set minus the bindings whose
// display Key is listed.
func (kbs KeyBindingSet) Without(keys ...string) KeyBindingSet {
	out := KeyBindingSet{}
	for _, b := range kbs.Bindings {
		skip := false
		for _, k := range keys {
			if b.Key == k {
				skip = true
				break
			}
		}
		if !skip {
			out.Bindings = append(out.Bindings, b)
		}
	}
	return out
}

// Key binding sets for the setup wizard

// WizardNavBindings returns the step navigation bindings
func WizardNavBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "←", Keys: []string{"left", "b"}, Description: "Back"},
			{Key: "→", Keys: []string{"right", "n"}, Description: "Next"},
			{Key: "Q", Keys: []string{"q", "ctrl+c"}, Description: "Quit"},
		},
	}
}

// FinishBindings replaces Next on the last step
func FinishBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "←", Keys: []string{"left", "b"}, Description: "Back"},
			{Key: "F", Keys: []string{"f", "enter"}, Description: "Finish"},
			{Key: "Q", Keys: []string{"q", "ctrl+c"}, Description: "Quit"},
		},
	}
}

// WelcomeBindings toggles the two consents
func WelcomeBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "P", Keys: []string{"p"}, Description: "Toggle Privacy Policy"},
			{Key: "C", Keys: []string{"c"}, Description: "Toggle Data Collection"},
		},
	}
}

// RetryNetworkBindings is shown when the network is offline or the check failed
func RetryNetworkBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "R", Keys: []string{"r"}, Description: "Retry Network Check"},
		},
	}
}

// StartDownloadBindings starts the backend download
func StartDownloadBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "S", Keys: []string{"s"}, Description: "Start Download"},
		},
	}
}

// RetryDownloadBindings restarts a failed download
func RetryDownloadBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "R", Keys: []string{"r"}, Description: "Retry Download"},
		},
	}
}

// PreferenceBindings edits telemetry and theme
func PreferenceBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "T", Keys: []string{"t"}, Description: "Toggle Telemetry"},
			{Key: "M", Keys: []string{"m"}, Description: "Switch Theme"},
		},
	}
}

// DismissBindings clears the warning banner
func DismissBindings() KeyBindingSet {
	return KeyBindingSet{
		Bindings: []KeyBinding{
			{Key: "X", Keys: []string{"x"}, Description: "Dismiss"},
		},
	}
}
