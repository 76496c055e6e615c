// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestQuitPromptQuickKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want Decision
	}{
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")}, Confirmed},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Y")}, Confirmed},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")}, Declined},
		{tea.KeyMsg{Type: tea.KeyEsc}, Dismissed},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			q := NewQuitPrompt("The backend download")
			q.Init()
			if got, _ := q.Update(tt.key); got != tt.want {
				t.Errorf("Update(%q) = %v, want %v", tt.key.String(), got, tt.want)
			}
		})
	}
}

func TestQuitPromptOverlay(t *testing.T) {
	q := NewQuitPrompt("The backend download")
	q.Init()

	view := q.Overlay(100, 30)
	for _, want := range []string{"Quit setup?", "The backend download is still running"} {
		if !strings.Contains(view, want) {
			t.Errorf("overlay missing %q", want)
		}
	}
	if lines := strings.Count(view, "\n") + 1; lines != 30 {
		t.Errorf("overlay has %d lines, want 30", lines)
	}
}

func TestDataLossTitle(t *testing.T) {
	d := DataLoss{
		Summary: "This will remove ALL onboarding data",
		Items:   []string{"Queued telemetry", "Cache directory"},
		Phrase:  "DELETE",
	}
	title := d.Title()
	for _, want := range []string{"remove ALL onboarding data", "This includes:", "  • Queued telemetry", "Type 'DELETE' to confirm:"} {
		if !strings.Contains(title, want) {
			t.Errorf("title missing %q:\n%s", want, title)
		}
	}

	if strings.Contains(DataLoss{Summary: "Continue?"}.Title(), "This includes") {
		t.Error("an empty item list should not render a heading")
	}
}

func TestDataLossPhrase(t *testing.T) {
	d := DataLoss{Phrase: "DELETE"}
	if err := d.matchPhrase("DELETE"); err != nil {
		t.Errorf("exact phrase rejected: %v", err)
	}
	for _, in := range []string{"", "delete", "DELETE "} {
		if err := d.matchPhrase(in); err == nil {
			t.Errorf("matchPhrase(%q) accepted", in)
		}
	}
}
