// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/Work-Fort/Onboard/pkg/config"
)

// Decision is the outcome of an in-wizard confirmation
type Decision int

const (
	// Pending means the user has not answered yet
	Pending Decision = iota
	Confirmed
	Declined
	// Dismissed means the prompt was closed with esc
	Dismissed
)

const quitKey = "quit"

// QuitPrompt asks whether to leave the wizard while work is still running.
// y and n answer immediately; the arrow keys and enter go through huh.
type QuitPrompt struct {
	form *huh.Form
}

// NewQuitPrompt creates the prompt. running names the work that will be
// stopped, e.g. "The backend download".
func NewQuitPrompt(running string) *QuitPrompt {
	return &QuitPrompt{
		form: huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key(quitKey).
					Title("Quit setup?").
					Description(running + " is still running and will be stopped.").
					Affirmative("Quit").
					Negative("Stay"),
			),
		),
	}
}

func (q *QuitPrompt) Init() tea.Cmd {
	return q.form.Init()
}

// Update feeds msg to the prompt and reports the decision so far
func (q *QuitPrompt) Update(msg tea.Msg) (Decision, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch strings.ToLower(key.String()) {
		case "y":
			return Confirmed, nil
		case "n":
			return Declined, nil
		case "esc":
			return Dismissed, nil
		}
	}

	form, cmd := q.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		q.form = f
	}
	if q.form.State != huh.StateCompleted {
		return Pending, cmd
	}
	if q.form.GetBool(quitKey) {
		return Confirmed, cmd
	}
	return Declined, cmd
}

// Overlay draws the prompt in a bordered box centered over a width x height screen
func (q *QuitPrompt) Overlay(width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(config.CurrentTheme.GetWarningColor()).
		Padding(1, 2).
		Width(min(60, max(width-4, 20))).
		Render(q.form.View())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// DataLoss describes a destructive operation for AskDataLoss
type DataLoss struct {
	// Summary is the headline, e.g. "This will remove ALL onboarding data"
	Summary string
	// Items lists what will be removed
	Items []string
	// Phrase, when set, must be typed exactly to go ahead. Otherwise a
	// yes/no question is asked.
	Phrase string
}

// Title renders the summary and the item list the way the prompt shows them
func (d DataLoss) Title() string {
	var b strings.Builder
	b.WriteString(config.CurrentTheme.WarningIndicator())
	b.WriteString("  ")
	b.WriteString(d.Summary)
	if len(d.Items) > 0 {
		b.WriteString("\n\nThis includes:")
		for _, item := range d.Items {
			b.WriteString("\n  • ")
			b.WriteString(item)
		}
	}
	if d.Phrase != "" {
		fmt.Fprintf(&b, "\n\nType '%s' to confirm:", d.Phrase)
	}
	return b.String()
}

// matchPhrase validates typed input against the required phrase
func (d DataLoss) matchPhrase(s string) error {
	if s != d.Phrase {
		return fmt.Errorf("must type exactly: %s", d.Phrase)
	}
	return nil
}

// AskDataLoss runs the prompt on the terminal and reports whether the
// user agreed
func AskDataLoss(d DataLoss) (bool, error) {
	var (
		confirmed bool
		typed     string
		field     huh.Field
	)
	if d.Phrase == "" {
		field = huh.NewConfirm().
			Title(d.Title()).
			Affirmative("Remove").
			Negative("Keep").
			Value(&confirmed)
	} else {
		field = huh.NewInput().
			Title(d.Title()).
			Placeholder(d.Phrase).
			Value(&typed).
			Validate(d.matchPhrase)
	}

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return false, err
	}
	if d.Phrase != "" {
		return typed == d.Phrase, nil
	}
	return confirmed, nil
}
