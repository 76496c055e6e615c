// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/Work-Fort/Onboard/pkg/config"
)

// TabState is how far the wizard has got with a step
type TabState int

const (
	TabPending TabState = iota
	TabActive
	TabComplete
	TabError
)

// Tab is one step in the tab row
type Tab struct {
	Title string
	State TabState
	// Busy shows the spinner instead of the active dot while work runs
	Busy    bool
	Spinner spinner.Model
}

// TabRow is the row of step tabs sitting on top of the content pane. The
// tab at Active is open towards the pane.
type TabRow struct {
	Tabs   []Tab
	Active int
	Width  int
}

// Render draws the row. When the titles do not fit in Width, every tab
// except the open one shrinks to its step number.
func (r TabRow) Render() string {
	row := r.join(false)
	if r.Width > 0 && lipgloss.Width(row) > r.Width {
		row = r.join(true)
	}
	return r.extend(row)
}

func (r TabRow) join(compact bool) string {
	cells := make([]string, len(r.Tabs))
	for i, tab := range r.Tabs {
		label := tab.Title
		if compact && i != r.Active {
			label = strconv.Itoa(i + 1)
		}
		cells[i] = r.tabStyle(i, tab.State).Render(indicator(tab) + " " + label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func indicator(tab Tab) string {
	theme := config.CurrentTheme
	switch tab.State {
	case TabActive:
		if tab.Busy {
			return tab.Spinner.View()
		}
		return theme.ActiveIndicator()
	case TabComplete:
		return theme.CompleteIndicator()
	case TabError:
		return theme.ErrorIndicator()
	default:
		return theme.PendingIndicator()
	}
}

func stateColor(s TabState) lipgloss.Color {
	theme := config.CurrentTheme
	switch s {
	case TabActive:
		return theme.GetSecondaryColor()
	case TabComplete:
		return theme.GetSuccessColor()
	case TabError:
		return theme.GetErrorColor()
	default:
		return theme.GetMutedColor()
	}
}

// tabStyle picks the bottom edge of tab i. The open tab has no bottom
// edge; the others close onto the pane's top line.
func (r TabRow) tabStyle(i int, s TabState) lipgloss.Style {
	first, last := i == 0, i == len(r.Tabs)-1

	border := lipgloss.RoundedBorder()
	border.BottomLeft, border.Bottom, border.BottomRight = "┴", "─", "┴"
	if i == r.Active {
		border.BottomLeft, border.Bottom, border.BottomRight = "┘", " ", "└"
		if first {
			border.BottomLeft = "│"
		}
	} else if first {
		border.BottomLeft = "├"
	}
	if last && i != r.Active {
		border.BottomRight = "┴"
	}

	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(stateColor(s)).
		Padding(0, 1)
}

// extend pads the row out to Width, drawing the pane's top edge under the
// padding
func (r TabRow) extend(row string) string {
	gap := r.Width - lipgloss.Width(row)
	if gap <= 0 {
		return row
	}
	blank := strings.Repeat(" ", gap)
	edge := lipgloss.NewStyle().
		Foreground(config.CurrentTheme.GetPrimaryColor()).
		Render(strings.Repeat("─", gap-1) + "┐")
	return lipgloss.JoinHorizontal(lipgloss.Top, row, lipgloss.JoinVertical(lipgloss.Left, blank, blank, edge))
}

// Pane draws the step content under the tab row, open at the top
func Pane(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderForeground(config.CurrentTheme.GetPrimaryColor()).
		Width(width).
		Height(height).
		Padding(1, 2).
		Render(content)
}
