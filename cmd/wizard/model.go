// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/host"
	"github.com/Work-Fort/Onboard/pkg/netcheck"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/sysinfo"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
	"github.com/Work-Fort/Onboard/pkg/ui"
)

const (
	// SystemLoadFailedMessage replaces the snapshot when collection fails as a whole
	SystemLoadFailedMessage = "Failed to load system information"

	// OnboardingSaveFailedMessage is shown when the onboarding marker cannot be written
	OnboardingSaveFailedMessage = "Failed to save onboarding data"

	// OnboardingPostFailedMessage is appended to the completion notice
	OnboardingPostFailedMessage = "Warning: the backend did not receive your onboarding data"

	snapshotTimeout  = 10 * time.Second
	finishTimeout = 15 * time.Second
)

// Backend is the HTTP side of the wizard
type Backend interface {
	telemetry.Sink
	PostOnboarding(ctx context.Context, p prefs.Preferences) error
}

// Options wires the wizard to its collaborators
type Options struct {
	Host    host.Host
	Backend Backend

	Debounce       time.Duration
	PollInterval   time.Duration
	NetworkTimeout time.Duration
	Telemetry      telemetry.Options
	Clock          clockwork.Clock
}

// Model is the setup wizard. One step is shown at a time; entering a step
// starts the work it displays, and every step change is reported.
type Model struct {
	width  int
	height int

	step Step
	tabs []ui.Tab

	host     host.Host
	backend  Backend
	store    *prefs.Store
	relay    *telemetry.Relay
	network  *netcheck.Monitor
	download *backend.Orchestrator

	spinner spinner.Model
	bar     progress.Model

	system   Async[sysinfo.Snapshot]
	snapshotSeq uint64

	privacyAccepted bool
	finish          Async[string]
	warning         string

	confirm  *ui.QuitPrompt
	quitting bool
}

// NewModel creates the wizard on the first step
func NewModel(opts Options) Model {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Telemetry.SessionID == "" {
		opts.Telemetry.SessionID = uuid.NewString()
	}

	store := prefs.NewStore(opts.Host, opts.Debounce)

	var sink telemetry.Sink
	if opts.Backend != nil {
		sink = opts.Backend
	}
	relay := telemetry.NewRelay(store, opts.Host, sink, opts.Telemetry)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(config.CurrentTheme.GetSecondaryColor())

	tabs := make([]ui.Tab, stepCount)
	for i := range tabs {
		tabs[i] = ui.Tab{Title: Step(i).Title(), State: ui.TabPending}
	}

	m := Model{
		tabs:    tabs,
		host:    opts.Host,
		backend: opts.Backend,
		store:   store,
		relay:   relay,
		network: netcheck.NewMonitor(opts.Host, relay, opts.NetworkTimeout),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
	}
	m.download = backend.NewOrchestrator(opts.Host, backend.OrchestratorOptions{
		Interval: opts.PollInterval,
		Clock:    opts.Clock,
		OnComplete: func() tea.Cmd {
			return relay.Cmd("download_completed", map[string]any{"status": "success"})
		},
	})
	m.syncTabs()
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.store.LoadCmd(), m.spinner.Tick)
}

// Step returns the current step
func (m Model) Step() Step { return m.step }

// Preferences returns the live preferences
func (m Model) Preferences() prefs.Preferences { return m.store.Current() }

// Notice is the completion notice once Finish has succeeded
func (m Model) Notice() string {
	notice, _ := m.finish.Value()
	return notice
}

// Finished reports whether onboarding completed
func (m Model) Finished() bool {
	return m.finish.Phase() == PhaseReady
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	log.Debugf("wizard.Update: msg=%T step=%d w=%d h=%d", msg, m.step, m.width, m.height)

	var cmds []tea.Cmd

	// The quit confirmation takes all key input while it is open
	if m.confirm != nil {
		key, isKey := msg.(tea.KeyMsg)
		switch {
		case isKey && key.String() != "ctrl+c":
			decision, cmd := m.confirm.Update(msg)
			switch decision {
			case ui.Pending:
				return m, cmd
			case ui.Confirmed:
				m.confirm = nil
				return m, m.quit()
			default:
				m.confirm = nil
				return m, nil
			}
		case !isKey:
			_, cmd := m.confirm.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-16, 10)
		return m, nil

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case snapshotMsg:
		if msg.seq != m.snapshotSeq || m.step != StepSystem {
			log.Debug("wizard: discarding stale system snapshot", "seq", msg.seq, "current", m.snapshotSeq)
			break
		}
		if msg.err != nil {
			log.Warn("wizard: system snapshot failed", "err", msg.err)
			m.system = Errored[sysinfo.Snapshot](SystemLoadFailedMessage)
		} else {
			m.system = Ready(msg.snapshot)
		}

	case finishedMsg:
		cmds = append(cmds, m.finished(msg))

	case telemetry.ReportedMsg:
		if !msg.Result.Success {
			log.Debug("wizard: telemetry not recorded", "event", msg.Event, "err", msg.Result.Err)
		}
		if msg.Event == "onboarding_completed" && m.Finished() {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Sub-models only act on their own messages
	cmds = append(cmds,
		m.store.Update(msg),
		m.network.Update(msg),
		m.download.Update(msg),
	)
	if _, ok := msg.(prefs.LoadedMsg); ok {
		config.ApplyTheme(string(m.store.Current().Theme))
	}

	m.syncTabs()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return m.quit()
	case "q":
		if m.download.Downloading() {
			m.confirm = ui.NewQuitPrompt("The backend download")
			return m.confirm.Init()
		}
		return m.quit()
	}

	if m.finish.IsLoading() || m.Finished() {
		return nil
	}

	if ui.DismissBindings().Contains(key) != nil {
		m.store.DismissWarning()
		m.warning = ""
		return nil
	}

	nav := ui.WizardNavBindings()
	if m.step.Last() {
		nav = ui.FinishBindings()
	}
	if b := nav.Contains(key); b != nil {
		switch b.Description {
		case "Next":
			return m.Next()
		case "Back":
			return m.Back()
		case "Finish":
			return m.Finish()
		}
	}

	switch m.step {
	case StepWelcome:
		switch key {
		case "p":
			m.privacyAccepted = !m.privacyAccepted
		case "c":
			return m.setTelemetry(!m.store.TelemetryEnabled())
		}

	case StepNetwork:
		if key == "r" && m.canRetryNetwork() {
			return tea.Batch(m.network.Check(true), m.spinner.Tick)
		}

	case StepDownload:
		switch {
		case key == "s" && m.download.State() == backend.Idle:
			return tea.Batch(m.download.Start(), m.spinner.Tick)
		case key == "r" && m.download.State() == backend.Failed:
			return tea.Batch(m.download.Start(), m.spinner.Tick)
		}

	case StepPreferences:
		switch key {
		case "t":
			return m.setTelemetry(!m.store.TelemetryEnabled())
		case "m":
			theme := m.store.Current().Theme.Toggle()
			save := m.store.Set(prefs.WithTheme(theme))
			config.ApplyTheme(string(theme))
			return tea.Batch(save, m.relay.Cmd("theme_changed", map[string]any{"theme": string(theme)}))
		}
	}
	return nil
}

func (m *Model) setTelemetry(enabled bool) tea.Cmd {
	save := m.store.Set(prefs.WithTelemetry(enabled))
	return tea.Batch(save, m.relay.Cmd("telemetry_preference_changed", map[string]any{"enabled": enabled}))
}

func (m Model) canRetryNetwork() bool {
	if m.network.Loading() {
		return false
	}
	return m.network.Err() != "" || m.network.Status() == netcheck.Offline
}

// Next advances one step. It is a no-op on the last step.
func (m *Model) Next() tea.Cmd {
	if m.step.Last() {
		return nil
	}
	return m.goTo(m.step + 1)
}

// Back returns to the previous step. It is a no-op on the first step.
func (m *Model) Back() tea.Cmd {
	if m.step == StepWelcome {
		return nil
	}
	return m.goTo(m.step - 1)
}

func (m *Model) goTo(next Step) tea.Cmd {
	m.leave(m.step)
	m.step = next

	var cmds []tea.Cmd
	switch next {
	case StepSystem:
		cmds = append(cmds, m.loadSnapshot(), m.spinner.Tick)
	case StepNetwork:
		cmds = append(cmds, m.network.Check(false), m.spinner.Tick)
	}
	cmds = append(cmds, m.relay.Cmd("step_changed", map[string]any{
		"step":  int(next),
		"label": next.Label(),
	}))

	m.syncTabs()
	return tea.Batch(cmds...)
}

// leave clears the transient state of a step. System and network
// queries still in flight are not cancelled; their results are discarded
// on arrival. The download poll loop is cancelled.
func (m *Model) leave(s Step) {
	switch s {
	case StepSystem:
		m.snapshotSeq++
		m.system = Async[sysinfo.Snapshot]{}
	case StepNetwork:
		m.network.Reset()
	case StepDownload:
		m.download.Reset()
	case StepComplete:
		m.finish = Async[string]{}
	}
}

func (m *Model) loadSnapshot() tea.Cmd {
	m.snapshotSeq++
	m.system = Loading[sysinfo.Snapshot]()

	seq := m.snapshotSeq
	src := m.host
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()
		snap, err := sysinfo.Collect(ctx, src)
		return snapshotMsg{seq: seq, snapshot: snap, err: err}
	}
}

// Finish persists the preferences, writes the onboarding marker, tells
// the backend and reports completion. The wizard quits once done.
func (m *Model) Finish() tea.Cmd {
	if !m.step.Last() || m.finish.IsLoading() {
		return nil
	}
	m.finish = Loading[string]()
	m.warning = ""

	store := m.store
	h := m.host
	b := m.backend
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
		defer cancel()

		// Persist replaces any pending debounced save
		if err := store.Persist(ctx); err != nil {
			log.Warn("wizard: final preference save failed", "err", err)
		}
		p := store.Current()
		res := finishedMsg{preferences: p}
		if err := h.SaveOnboardingData(ctx, p); err != nil {
			res.saveErr = err
			return res
		}
		if b != nil {
			res.postErr = b.PostOnboarding(ctx, p)
		}
		return res
	})
}

func (m *Model) finished(msg finishedMsg) tea.Cmd {
	if msg.saveErr != nil {
		log.Error("wizard: failed to save onboarding data", "err", msg.saveErr)
		m.finish = Errored[string](OnboardingSaveFailedMessage)
		m.warning = OnboardingSaveFailedMessage
		return nil
	}

	notice := completionNotice(msg.preferences)
	if msg.postErr != nil {
		log.Warn("wizard: onboarding post failed", "err", msg.postErr)
		notice += "\n" + OnboardingPostFailedMessage
	}
	m.finish = Ready(notice)
	m.teardown()

	report := m.relay.Cmd("onboarding_completed", map[string]any{
		"preferences": map[string]any{
			"telemetry": msg.preferences.Telemetry,
			"theme":     string(msg.preferences.Theme),
		},
	})
	if report == nil {
		m.quitting = true
		return tea.Quit
	}
	return report
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.teardown()
	return tea.Quit
}

// teardown stops the poll loop and drops any pending preference save
func (m *Model) teardown() {
	m.download.Reset()
	m.store.Cancel()
}

func (m Model) busy() bool {
	return m.system.IsLoading() ||
		m.network.Loading() ||
		m.download.Downloading() ||
		m.finish.IsLoading()
}

func (m *Model) syncTabs() {
	for i := range m.tabs {
		s := Step(i)
		tab := &m.tabs[i]
		switch {
		case s == StepNetwork && m.network.Err() != "":
			tab.State = ui.TabError
		case s == StepDownload && m.download.State() == backend.Failed:
			tab.State = ui.TabError
		case s == m.step:
			tab.State = ui.TabActive
		case s < m.step:
			tab.State = ui.TabComplete
		default:
			tab.State = ui.TabPending
		}
		tab.Busy = s == m.step && m.busy()
		tab.Spinner = m.spinner
	}
}
