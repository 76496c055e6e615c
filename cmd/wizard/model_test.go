// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/netcheck"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/ui"
)

func TestNewModel(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	assert.Equal(t, StepWelcome, m.Step())
	require.Len(t, m.tabs, stepCount)
	assert.Equal(t, ui.TabActive, m.tabs[0].State)
	for i := 1; i < stepCount; i++ {
		assert.Equal(t, ui.TabPending, m.tabs[i].State, "tab %d", i)
	}
	assert.Equal(t, prefs.Default(), m.Preferences())
}

func TestViewBeforeWindowSize(t *testing.T) {
	m := NewModel(Options{Host: newFakeHost()})
	assert.Equal(t, "Initializing...", m.View())
}

func TestBackIsNoOpOnFirstStep(t *testing.T) {
	b := &fakeBackend{}
	m := newTestModel(t, newFakeHost(), b)

	m, msgs := press(t, m, "b")
	assert.Equal(t, StepWelcome, m.Step())
	assert.Empty(t, msgs)
	assert.NotContains(t, m.View(), "[←] Back")
	assert.Contains(t, m.View(), "[→] Next")
}

func TestNarrowTerminalUsesInlineHints(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})
	m, _ = update(m, tea.WindowSizeMsg{Width: 80, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Right: next")
	assert.Contains(t, view, "P: toggle privacy policy")
	assert.NotContains(t, view, "[→] Next")
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	m = goToStep(t, m, StepComplete)
	assert.Equal(t, StepComplete, m.Step())
	assert.Contains(t, m.View(), "[F] Finish")
	assert.NotContains(t, m.View(), "[→] Next")

	// Next is replaced by Finish on the last step
	m, _ = press(t, m, "right")
	assert.Equal(t, StepComplete, m.Step())

	m, _ = press(t, m, "left")
	assert.Equal(t, StepPreferences, m.Step())
	assert.Equal(t, ui.TabComplete, m.tabs[StepNetwork].State)
	assert.Equal(t, ui.TabActive, m.tabs[StepPreferences].State)
	assert.Equal(t, ui.TabPending, m.tabs[StepComplete].State)
}

func TestStepChangedReported(t *testing.T) {
	h := newFakeHost()
	h.stored = &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeLight}
	h.online = true
	b := &fakeBackend{}
	m := newTestModel(t, h, b)

	m, _ = press(t, m, "n")
	require.Equal(t, 1, b.count("step_changed"))
	assert.Equal(t, 1, b.details[0]["step"])
	assert.Equal(t, "System Compatibility Check", b.details[0]["label"])
	assert.Equal(t, "test-session", b.details[0]["session_id"])

	_, _ = press(t, m, "b")
	assert.Equal(t, 2, b.count("step_changed"))
}

func TestStepChangedNotReportedWhenTelemetryDisabled(t *testing.T) {
	h := newFakeHost()
	b := &fakeBackend{}
	m := newTestModel(t, h, b)

	_ = goToStep(t, m, StepDownload)
	assert.Empty(t, b.events)
	assert.Empty(t, h.queued)
}

// Fresh load, accept the privacy policy, then the system step shows the
// collected values
func TestScenarioSystemInfoDisplayed(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	m, _ = press(t, m, "p")
	assert.True(t, m.privacyAccepted)
	assert.Contains(t, m.View(), "[x] "+PrivacyConsentText)

	m, _ = press(t, m, "n")
	require.Equal(t, StepSystem, m.Step())

	snap, ok := m.system.Value()
	require.True(t, ok)
	assert.Equal(t, "TestOS x86_64", snap.OS)

	view := m.View()
	assert.Contains(t, view, "TestOS x86_64")
	assert.Contains(t, view, "200.00 GB free / 500.00 GB total")
}

func TestPrivacyConsentDoesNotGateNext(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	m, _ = press(t, m, "n")
	assert.Equal(t, StepSystem, m.Step())
	assert.False(t, m.privacyAccepted)
}

func TestDataConsentWritesThroughToTelemetry(t *testing.T) {
	h := newFakeHost()
	m := newTestModel(t, h, &fakeBackend{})

	m, _ = press(t, m, "c")
	assert.True(t, m.Preferences().Telemetry)
	assert.Contains(t, m.View(), "[x] "+DataConsentText)
	require.Len(t, h.saves, 1)
	assert.True(t, h.saves[0].Telemetry)
}

func TestSystemSnapshotFailureShowsSingleMessage(t *testing.T) {
	h := newFakeHost()
	h.diskFree = 600 * gib // more free than total
	m := newTestModel(t, h, &fakeBackend{})

	m, _ = press(t, m, "n")
	assert.Equal(t, PhaseErrored, m.system.Phase())
	view := m.View()
	assert.Contains(t, view, SystemLoadFailedMessage)
	assert.NotContains(t, view, "TestOS")
}

func TestLeavingSystemStepDiscardsSnapshot(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	m, cmd := update(m, keyMsg("n"))
	require.Equal(t, StepSystem, m.Step())
	assert.True(t, m.system.IsLoading())

	// Leave before the snapshot lands
	m, back := update(m, keyMsg("b"))
	m, _ = drive(t, m, tea.Batch(cmd, back))
	assert.Equal(t, StepWelcome, m.Step())
	assert.Equal(t, PhaseIdle, m.system.Phase())
}

// A failed check is told apart from a clean offline result, and retrying
// issues exactly one more check
func TestScenarioNetworkRetry(t *testing.T) {
	h := newFakeHost()
	h.netErr = errors.New("resolver unavailable")
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepNetwork)
	assert.Equal(t, netcheck.Offline, m.network.Status())
	assert.Contains(t, m.network.Err(), "Failed to check network status")
	view := m.View()
	assert.Contains(t, view, "Failed to check network status")
	assert.Contains(t, view, "Retry Network Check")
	assert.Equal(t, ui.TabError, m.tabs[StepNetwork].State)

	h.set(func(h *fakeHost) {
		h.netErr = nil
		h.online = true
	})
	before := h.networkCalls()

	m, _ = press(t, m, "r")
	assert.Equal(t, netcheck.Online, m.network.Status())
	assert.Empty(t, m.network.Err())
	assert.Contains(t, m.View(), "Online")
	assert.Equal(t, before+1, h.networkCalls())
	assert.Equal(t, ui.TabActive, m.tabs[StepNetwork].State)
}

func TestNetworkOfflineWithoutError(t *testing.T) {
	h := newFakeHost()
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepNetwork)
	assert.Equal(t, netcheck.Offline, m.network.Status())
	assert.Empty(t, m.network.Err())
	view := m.View()
	assert.Contains(t, view, OfflineText)
	assert.Contains(t, view, "Retry Network Check")
}

func TestRetryNotOfferedWhenOnline(t *testing.T) {
	h := newFakeHost()
	h.online = true
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepNetwork)
	before := h.networkCalls()
	m, _ = press(t, m, "r")
	assert.Equal(t, before, h.networkCalls())
	assert.NotContains(t, m.View(), "Retry Network Check")
}

func TestNetworkStepResetOnLeave(t *testing.T) {
	h := newFakeHost()
	h.netErr = errors.New("boom")
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepNetwork)
	require.NotEmpty(t, m.network.Err())

	m, _ = press(t, m, "n")
	assert.Empty(t, m.network.Err())
	assert.Equal(t, netcheck.Unknown, m.network.Status())
	assert.Equal(t, ui.TabComplete, m.tabs[StepNetwork].State)
}

// Progress goes 0, 50, 100 and completion is reported once
func TestScenarioDownloadCompletes(t *testing.T) {
	h := newFakeHost()
	h.stored = &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeLight}
	h.online = true
	h.progress = []int{50, 100}
	b := &fakeBackend{}
	m := newTestModel(t, h, b)

	m = goToStep(t, m, StepDownload)
	assert.Contains(t, m.View(), "Start Download")

	var seen []int
	record := func(m Model) {
		p := m.download.Progress()
		if len(seen) == 0 || seen[len(seen)-1] != p {
			seen = append(seen, p)
		}
	}
	m, _ = press(t, m, "s", record)

	assert.Equal(t, []int{0, 50, 100}, seen)
	assert.Equal(t, backend.Complete, m.download.State())
	assert.False(t, m.download.Downloading())
	assert.False(t, m.download.Active())
	assert.Equal(t, 1, b.count("download_completed"))
	assert.Contains(t, m.View(), "Download complete!")
	assert.NotContains(t, m.View(), "Start Download")
}

func TestDownloadStartFailure(t *testing.T) {
	h := newFakeHost()
	h.startErr = errors.New("disk full")
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepDownload)
	m, _ = press(t, m, "s")

	assert.Equal(t, backend.Failed, m.download.State())
	assert.Contains(t, m.download.Err(), "Failed to start download")
	assert.Zero(t, h.progressCalls)
	assert.Equal(t, ui.TabError, m.tabs[StepDownload].State)
	assert.Contains(t, m.View(), "Retry Download")

	// Retry restarts from scratch
	h.set(func(h *fakeHost) {
		h.startErr = nil
		h.progress = []int{100}
	})
	m, _ = press(t, m, "r")
	assert.Equal(t, backend.Complete, m.download.State())
	assert.Equal(t, 2, h.starts)
}

func TestDownloadPollFailureKeepsProgress(t *testing.T) {
	h := newFakeHost()
	h.progress = []int{40}
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepDownload)
	m, cmd := update(m, keyMsg("s"))

	// Let the first poll land, then fail the next one
	m, _ = drive(t, m, cmd, func(m Model) {
		if m.download.Progress() == 40 {
			h.set(func(h *fakeHost) { h.progressErr = errors.New("connection reset") })
		}
	})

	assert.Equal(t, backend.Failed, m.download.State())
	assert.Equal(t, 40, m.download.Progress())
	assert.Contains(t, m.download.Err(), "Failed to check download progress")
}

func TestLeavingDownloadStepCancelsPolling(t *testing.T) {
	h := newFakeHost()
	h.progress = []int{10, 100}
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepDownload)
	m, start := update(m, keyMsg("s"))
	m, next := update(m, keyMsg("n"))
	require.Equal(t, StepPreferences, m.Step())
	assert.Equal(t, backend.Idle, m.download.State())
	assert.False(t, m.download.Active())

	// The start reply and any poll from the old loop land and are dropped
	m, _ = drive(t, m, tea.Batch(start, next))
	assert.Equal(t, backend.Idle, m.download.State())
	assert.Zero(t, m.download.Progress())
	assert.Zero(t, h.progressCalls, "no poll is issued after leaving the step")
	assert.Equal(t, ui.TabComplete, m.tabs[StepDownload].State)
}

func TestLeavingDownloadStepClearsFailure(t *testing.T) {
	h := newFakeHost()
	h.startErr = errors.New("boom")
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepDownload)
	m, _ = press(t, m, "s")
	require.Equal(t, backend.Failed, m.download.State())
	require.Equal(t, ui.TabError, m.tabs[StepDownload].State)

	m, _ = press(t, m, "n")
	assert.Equal(t, ui.TabComplete, m.tabs[StepDownload].State)

	m, _ = press(t, m, "b")
	require.Equal(t, StepDownload, m.Step())
	assert.Equal(t, backend.Idle, m.download.State())
	assert.Empty(t, m.download.Err())
	assert.NotContains(t, m.View(), "Failed to start download")
}

func TestLeavingDownloadStepKeepsCompletion(t *testing.T) {
	h := newFakeHost()
	h.progress = []int{100}
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepDownload)
	m, _ = press(t, m, "s")
	require.Equal(t, backend.Complete, m.download.State())

	m, _ = press(t, m, "n")
	m, _ = press(t, m, "b")
	assert.Equal(t, backend.Complete, m.download.State())
	assert.Equal(t, 1, h.starts)
}

// Stored preferences show up without any interaction
func TestScenarioStoredPreferencesRendered(t *testing.T) {
	h := newFakeHost()
	h.stored = &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark}
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepPreferences)
	assert.Equal(t, prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark}, m.Preferences())
	view := m.View()
	assert.Contains(t, view, "[x] Enable telemetry")
	assert.Contains(t, view, "(Dark)")
	assert.Equal(t, config.DarkTheme, config.CurrentTheme)
	assert.Empty(t, h.saves, "the initial load is never persisted")
}

// A failed save shows a dismissible banner and keeps the new value
func TestScenarioSaveFailureBanner(t *testing.T) {
	h := newFakeHost()
	h.saveErr = errors.New("read-only file system")
	m := newTestModel(t, h, &fakeBackend{})

	m = goToStep(t, m, StepPreferences)
	m, _ = press(t, m, "t")

	assert.True(t, m.Preferences().Telemetry)
	assert.Contains(t, m.View(), prefs.SaveFailedWarning)

	m, _ = press(t, m, "n")
	assert.Equal(t, StepComplete, m.Step())

	m, _ = press(t, m, "x")
	assert.NotContains(t, m.View(), prefs.SaveFailedWarning)
}

func TestPreferenceChangesCoalesce(t *testing.T) {
	h := newFakeHost()
	m := newTestModel(t, h, &fakeBackend{})
	m = goToStep(t, m, StepPreferences)

	var cmds []tea.Cmd
	for range 3 {
		var cmd tea.Cmd
		m, cmd = update(m, keyMsg("m"))
		cmds = append(cmds, cmd)
	}
	m, _ = drive(t, m, tea.Batch(cmds...))

	require.Len(t, h.saves, 1)
	assert.Equal(t, prefs.ThemeDark, h.saves[0].Theme)
	assert.Equal(t, prefs.ThemeDark, m.Preferences().Theme)
}

func TestPreferenceEventsReported(t *testing.T) {
	h := newFakeHost()
	h.stored = &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeLight}
	h.online = true
	b := &fakeBackend{}
	m := newTestModel(t, h, b)
	m = goToStep(t, m, StepPreferences)

	m, _ = press(t, m, "m")
	assert.Equal(t, 1, b.count("theme_changed"))

	// Turning telemetry off is not reported: the gate is already closed
	_, _ = press(t, m, "t")
	assert.Zero(t, b.count("telemetry_preference_changed"))
}

func TestCompletionReflectsLivePreferences(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})
	m = goToStep(t, m, StepPreferences)

	m, _ = press(t, m, "m")
	m, _ = press(t, m, "t")
	m, _ = press(t, m, "n")

	view := m.View()
	assert.Contains(t, view, "Setup Complete!")
	assert.Contains(t, view, "Your Preferences")
	assert.Contains(t, view, "Theme: Dark")
	assert.Contains(t, view, "Telemetry: Enabled")
}

func TestFinish(t *testing.T) {
	h := newFakeHost()
	h.stored = &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark}
	h.online = true
	b := &fakeBackend{}
	m := newTestModel(t, h, b)
	m = goToStep(t, m, StepComplete)

	m, msgs := press(t, m, "f")

	assert.True(t, m.Finished())
	assert.True(t, hasQuit(msgs))
	assert.Contains(t, m.Notice(), "Setup Complete!")
	assert.NotContains(t, m.Notice(), OnboardingPostFailedMessage)
	require.Len(t, h.onboarded, 1)
	assert.Equal(t, prefs.ThemeDark, h.onboarded[0].Theme)
	require.Len(t, b.onboarded, 1)
	assert.Equal(t, 1, b.count("onboarding_completed"))
	assert.NotEmpty(t, h.saves, "preferences are flushed on finish")
}

func TestFinishPostFailureAddsWarning(t *testing.T) {
	h := newFakeHost()
	b := &fakeBackend{onboardErr: errors.New("connection refused")}
	m := newTestModel(t, h, b)
	m = goToStep(t, m, StepComplete)

	m, msgs := press(t, m, "enter")

	assert.True(t, m.Finished())
	assert.True(t, hasQuit(msgs))
	assert.Contains(t, m.Notice(), OnboardingPostFailedMessage)
	assert.Len(t, h.onboarded, 1)
}

func TestFinishSaveFailureStays(t *testing.T) {
	h := newFakeHost()
	h.onboardErr = errors.New("permission denied")
	m := newTestModel(t, h, &fakeBackend{})
	m = goToStep(t, m, StepComplete)

	m, msgs := press(t, m, "f")

	assert.False(t, m.Finished())
	assert.False(t, hasQuit(msgs))
	assert.Equal(t, PhaseErrored, m.finish.Phase())
	assert.Contains(t, m.View(), OnboardingSaveFailedMessage)

	// Finishing again succeeds once the host recovers
	h.set(func(h *fakeHost) { h.onboardErr = nil })
	m, msgs = press(t, m, "f")
	assert.True(t, m.Finished())
	assert.True(t, hasQuit(msgs))
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, newFakeHost(), &fakeBackend{})

	m, cmd := update(m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}

func TestQuitWhileDownloadingAsksFirst(t *testing.T) {
	h := newFakeHost()
	h.progress = []int{10}
	m := newTestModel(t, h, &fakeBackend{})
	m = goToStep(t, m, StepDownload)
	m, _ = update(m, keyMsg("s"))
	require.True(t, m.download.Downloading())

	m, _ = update(m, keyMsg("q"))
	require.NotNil(t, m.confirm)
	assert.False(t, m.quitting)

	// n keeps the wizard running
	m, _ = update(m, keyMsg("n"))
	assert.Nil(t, m.confirm)
	assert.False(t, m.quitting)
	assert.Equal(t, StepDownload, m.Step())

	m, _ = update(m, keyMsg("q"))
	m, cmd := update(m, keyMsg("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.False(t, m.download.Active(), "the poll loop is cancelled on quit")
}

func TestLoadFailureWarns(t *testing.T) {
	h := newFakeHost()
	h.loadErr = errors.New("corrupt")
	m := newTestModel(t, h, &fakeBackend{})

	assert.Equal(t, prefs.Default(), m.Preferences())
	assert.Contains(t, m.View(), prefs.LoadFailedWarning)
}
