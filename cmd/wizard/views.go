// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/netcheck"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/sysinfo"
	"github.com/Work-Fort/Onboard/pkg/ui"
)

const (
	WelcomeText        = "Welcome to the app! Before getting started, please review our privacy policy and provide your consent."
	PrivacyConsentText = "I agree to the Privacy Policy"
	DataConsentText    = "I consent to data collection for improving the app"
	OfflineText        = "An internet connection is required to download backend components."
)

// View implements tea.Model
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	theme := config.CurrentTheme

	header := theme.RenderHeader(m.width, "Setup Wizard", fmt.Sprintf("Step %d of %d", int(m.step)+1, stepCount))
	tabsView := ui.TabRow{Tabs: m.tabs, Active: int(m.step), Width: m.width}.Render()
	log.Debugf("wizard.View: step=%d tabsViewLen=%d w=%d h=%d", m.step, len(tabsView), m.width, m.height)

	body := []string{m.stepView()}
	if banner := m.banner(); banner != "" {
		body = append([]string{banner, ""}, body...)
	}
	body = append(body, "", m.keyHints())

	// Header line plus the three tab rows and the pane's bottom border
	contentHeight := max(m.height-6, 1)
	content := ui.Pane(strings.Join(body, "\n"), m.width-2, contentHeight)

	view := lipgloss.JoinVertical(lipgloss.Left, header, tabsView, content)

	if m.confirm != nil {
		return m.confirm.Overlay(m.width, m.height)
	}
	return view
}

func (m Model) banner() string {
	msg := m.warning
	if msg == "" {
		msg = m.store.Warning()
	}
	if msg == "" {
		return ""
	}
	theme := config.CurrentTheme
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.GetWarningColor()).
		Padding(0, 1).
		Render(theme.WarningMessage(msg) + "  " + theme.SubtleStyle().Render("[X] Dismiss"))
}

func (m Model) stepView() string {
	theme := config.CurrentTheme
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.GetPrimaryColor()).Render(m.step.Label())

	var body string
	switch m.step {
	case StepWelcome:
		body = m.welcomeView()
	case StepSystem:
		body = m.systemView()
	case StepNetwork:
		body = m.networkView()
	case StepDownload:
		body = m.downloadView()
	case StepPreferences:
		body = m.preferencesView()
	case StepComplete:
		body = m.completeView()
	}
	return title + "\n\n" + body
}

func checkbox(checked bool, label string) string {
	if checked {
		return "[x] " + label
	}
	return "[ ] " + label
}

func (m Model) welcomeView() string {
	lines := []string{
		WelcomeText,
		"",
		checkbox(m.privacyAccepted, PrivacyConsentText),
		checkbox(m.store.TelemetryEnabled(), DataConsentText),
	}
	return strings.Join(lines, "\n")
}

func (m Model) systemView() string {
	theme := config.CurrentTheme

	switch m.system.Phase() {
	case PhaseLoading:
		return m.spinner.View() + " Loading system information..."
	case PhaseErrored:
		return theme.ErrorMessage(m.system.Err())
	}

	snap, ok := m.system.Value()
	if !ok {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Operating System: %s\n", snap.OS)
	fmt.Fprintf(&b, "Disk Space: %s %s\n", sysinfo.FormatDisk(snap.Disk), statusIndicator(sysinfo.DiskStatus(snap.Disk)))
	fmt.Fprintf(&b, "Memory: %s %s\n", sysinfo.FormatMemory(snap.Memory), statusIndicator(sysinfo.MemoryStatus(snap.Memory)))
	b.WriteString("\nRequirements:\n")
	for _, r := range sysinfo.Requirements {
		b.WriteString("  • " + r + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusIndicator(s sysinfo.Status) string {
	theme := config.CurrentTheme
	switch s {
	case sysinfo.StatusGood:
		return theme.CompleteIndicator()
	case sysinfo.StatusWarning:
		return theme.WarningIndicator()
	case sysinfo.StatusCritical:
		return theme.ErrorIndicator()
	default:
		return theme.SubtleStyle().Render("?")
	}
}

func (m Model) networkView() string {
	theme := config.CurrentTheme

	if m.network.Loading() {
		return m.spinner.View() + " Checking network status..."
	}

	var lines []string
	switch m.network.Status() {
	case netcheck.Online:
		lines = append(lines, "Status: "+theme.SuccessMessage("Online"))
	case netcheck.Offline:
		lines = append(lines, "Status: "+theme.ErrorMessage("Offline"))
		if m.network.Err() != "" {
			lines = append(lines, "", theme.ErrorMessage(m.network.Err()))
		} else {
			lines = append(lines, "", OfflineText)
		}
	default:
		lines = append(lines, "Status: "+theme.SubtleStyle().Render("Unknown"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) downloadView() string {
	theme := config.CurrentTheme
	lines := []string{"Downloading backend components", ""}

	switch m.download.State() {
	case backend.Idle:
		lines = append(lines, "The backend has not been downloaded yet. Press [S] to Start Download.")

	case backend.Downloading:
		lines = append(lines, m.bar.ViewAs(float64(m.download.Progress())/100))
		status := m.spinner.View() + fmt.Sprintf(" %d%%", m.download.Progress())
		if eta, ok := m.download.ETA(); ok {
			status += fmt.Sprintf("  Est. time: %ds", int(math.Ceil(eta.Seconds())))
		}
		lines = append(lines, status)

	case backend.Complete:
		lines = append(lines, m.bar.ViewAs(1), theme.SuccessMessage("Download complete!"))

	case backend.Failed:
		lines = append(lines,
			m.bar.ViewAs(float64(m.download.Progress())/100),
			theme.ErrorMessage(m.download.Err()),
		)
	}
	return strings.Join(lines, "\n")
}

func (m Model) preferencesView() string {
	p := m.store.Current()
	lines := []string{
		checkbox(p.Telemetry, "Enable telemetry"),
		"",
		"Theme: " + themeSelector(p.Theme),
	}
	return strings.Join(lines, "\n")
}

func themeSelector(current prefs.Theme) string {
	theme := config.CurrentTheme
	var parts []string
	for _, t := range []prefs.Theme{prefs.ThemeLight, prefs.ThemeDark} {
		if t == current {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(theme.GetSecondaryColor()).Render("("+t.Label()+")"))
		} else {
			parts = append(parts, theme.SubtleStyle().Render(" "+t.Label()+" "))
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) completeView() string {
	theme := config.CurrentTheme
	if m.finish.IsLoading() {
		return m.spinner.View() + " Finishing setup..."
	}
	if notice := m.Notice(); notice != "" {
		return theme.SuccessMessage(notice)
	}
	return completionNotice(m.store.Current())
}

// completionNotice renders the summary shown when setup is done
func completionNotice(p prefs.Preferences) string {
	lines := []string{
		"Setup Complete!",
		"",
		"Your Preferences",
		"  Theme: " + p.Theme.Label(),
		"  Telemetry: " + p.TelemetryLabel(),
	}
	return strings.Join(lines, "\n")
}

// compactHintWidth is the terminal width below which key hints use the
// inline format
const compactHintWidth = 100

func (m Model) keyHints() string {
	style := config.CurrentTheme.SubtleStyle()

	var sets []ui.KeyBindingSet
	switch m.step {
	case StepWelcome:
		sets = append(sets, ui.WelcomeBindings())
	case StepNetwork:
		if m.canRetryNetwork() {
			sets = append(sets, ui.RetryNetworkBindings())
		}
	case StepDownload:
		switch m.download.State() {
		case backend.Idle:
			sets = append(sets, ui.StartDownloadBindings())
		case backend.Failed:
			sets = append(sets, ui.RetryDownloadBindings())
		}
	case StepPreferences:
		sets = append(sets, ui.PreferenceBindings())
	}

	nav := ui.WizardNavBindings()
	if m.step.Last() {
		nav = ui.FinishBindings()
	}
	if m.step == StepWelcome {
		nav = nav.Without("←")
	}
	sets = append(sets, nav)

	var lines []string
	for _, s := range sets {
		if m.width < compactHintWidth {
			lines = append(lines, s.RenderInline(style))
		} else {
			lines = append(lines, s.Render(style))
		}
	}
	return strings.Join(lines, "\n")
}
