// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestKeyBindingSetContains(t *testing.T) {
	nav := WizardNavBindings()

	tests := []struct {
		key  string
		want string
	}{
		{"right", "Next"},
		{"n", "Next"},
		{"left", "Back"},
		{"b", "Back"},
		{"ctrl+c", "Quit"},
		{"f", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := nav.Contains(tt.key)
			if tt.want == "" {
				if got != nil {
					t.Errorf("Contains(%q) = %q, want nil", tt.key, got.Description)
				}
				return
			}
			if got == nil || got.Description != tt.want {
				t.Errorf("Contains(%q) = %v, want %s", tt.key, got, tt.want)
			}
		})
	}
}

func TestFinishReplacesNext(t *testing.T) {
	finish := FinishBindings()
	if finish.Contains("right") != nil {
		t.Error("Finish bindings should not advance with right")
	}
	if b := finish.Contains("enter"); b == nil || b.Description != "Finish" {
		t.Errorf("enter should finish, got %v", b)
	}
}

func TestKeyBindingRender(t *testing.T) {
	style := lipgloss.NewStyle()

	got := WizardNavBindings().Render(style)
	want := "[←] Back  •  [→] Next  •  [Q] Quit"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}

	got = WizardNavBindings().RenderInline(style)
	want = "Left: back | Right: next | Q: quit"
	if got != want {
		t.Errorf("RenderInline() = %q, want %q", got, want)
	}

	if got := (KeyBindingSet{}).Render(style); got != "" {
		t.Errorf("empty Render() = %q", got)
	}
}

func TestWithout(t *testing.T) {
	nav := WizardNavBindings().Without("←")
	if nav.Contains("left") != nil {
		t.Error("Back should be removed")
	}
	if len(nav.Bindings) != 2 {
		t.Errorf("got %d bindings, want 2", len(nav.Bindings))
	}
	if len(WizardNavBindings().Bindings) != 3 {
		t.Error("Without must not modify the original set")
	}
}

func TestTabRowShowsEveryTitle(t *testing.T) {
	tabs := []Tab{
		{Title: "Welcome", State: TabComplete},
		{Title: "System", State: TabActive},
		{Title: "Network", State: TabError},
		{Title: "Download", State: TabPending},
	}

	out := TabRow{Tabs: tabs, Active: 1, Width: 120}.Render()
	for _, tab := range tabs {
		if !strings.Contains(out, tab.Title) {
			t.Errorf("tabs missing %q:\n%s", tab.Title, out)
		}
	}
	if lines := strings.Split(out, "\n"); len(lines) != 3 {
		t.Errorf("tabs rendered %d rows, want 3", len(lines))
	}
	if w := lipgloss.Width(out); w != 120 {
		t.Errorf("tabs width = %d, want 120", w)
	}
}

func TestTabRowShrinksWhenNarrow(t *testing.T) {
	tabs := []Tab{
		{Title: "Welcome", State: TabComplete},
		{Title: "System", State: TabComplete},
		{Title: "Network", State: TabActive},
		{Title: "Download", State: TabPending},
		{Title: "Preferences", State: TabPending},
		{Title: "Complete", State: TabPending},
	}

	out := TabRow{Tabs: tabs, Active: 2, Width: 60}.Render()
	if !strings.Contains(out, "Network") {
		t.Errorf("open tab lost its title:\n%s", out)
	}
	for _, title := range []string{"Welcome", "Preferences"} {
		if strings.Contains(out, title) {
			t.Errorf("narrow row still shows %q:\n%s", title, out)
		}
	}
	if !strings.Contains(out, "5") {
		t.Errorf("narrow row missing step number:\n%s", out)
	}
	if w := lipgloss.Width(out); w != 60 {
		t.Errorf("tabs width = %d, want 60", w)
	}
}
