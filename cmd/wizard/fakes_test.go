// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
)

const gib = 1024 * 1024 * 1024

// fakeHost is a scripted host. Every field is guarded by mu.
type fakeHost struct {
	mu sync.Mutex

	osInfo           string
	diskFree, diskTo uint64
	memFree, memTo   uint64

	online   bool
	netErr   error
	netCalls int

	stored  *prefs.Preferences
	loadErr error
	saveErr error
	saves   []prefs.Preferences

	onboardErr error
	onboarded  []prefs.Preferences

	queued []string

	startErr      error
	starts        int
	progress      []int
	progressErr   error
	progressCalls int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		osInfo:   "TestOS x86_64",
		diskFree: 200 * gib,
		diskTo:   500 * gib,
		memFree:  8 * gib,
		memTo:    16 * gib,
	}
}

func (h *fakeHost) OSInfo(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.osInfo, nil
}

func (h *fakeHost) DiskSpace(ctx context.Context) (uint64, uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.diskFree, h.diskTo, nil
}

func (h *fakeHost) MemoryInfo(ctx context.Context) (uint64, uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.memFree, h.memTo, nil
}

func (h *fakeHost) NetworkStatus(ctx context.Context) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.netCalls++
	return h.online, h.netErr
}

func (h *fakeHost) Preferences(ctx context.Context) (*prefs.Preferences, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stored, h.loadErr
}

func (h *fakeHost) SavePreferences(ctx context.Context, p prefs.Preferences) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.saves = append(h.saves, p)
	return nil
}

func (h *fakeHost) SaveOnboardingData(ctx context.Context, p prefs.Preferences) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.onboardErr != nil {
		return h.onboardErr
	}
	h.onboarded = append(h.onboarded, p)
	return nil
}

func (h *fakeHost) StoreTelemetryEvent(ctx context.Context, event string, details map[string]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queued = append(h.queued, event)
	return nil
}

func (h *fakeHost) StartBackendDownload(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	return h.startErr
}

func (h *fakeHost) BackendDownloadProgress(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.progressCalls++
	if h.progressErr != nil {
		return 0, h.progressErr
	}
	if len(h.progress) == 0 {
		return 0, errors.New("no progress scripted")
	}
	p := h.progress[0]
	if len(h.progress) > 1 {
		h.progress = h.progress[1:]
	}
	return p, nil
}

func (h *fakeHost) set(fn func(h *fakeHost)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(h)
}

func (h *fakeHost) networkCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.netCalls
}

// fakeBackend records what reaches the HTTP boundary
type fakeBackend struct {
	mu         sync.Mutex
	events     []string
	details    []map[string]any
	onboarded  []prefs.Preferences
	postErr    error
	onboardErr error
}

func (b *fakeBackend) PostTelemetry(ctx context.Context, event string, details map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.postErr != nil {
		return b.postErr
	}
	b.events = append(b.events, event)
	b.details = append(b.details, details)
	return nil
}

func (b *fakeBackend) PostOnboarding(ctx context.Context, p prefs.Preferences) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.onboardErr != nil {
		return b.onboardErr
	}
	b.onboarded = append(b.onboarded, p)
	return nil
}

func (b *fakeBackend) count(event string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e == event {
			n++
		}
	}
	return n
}

func newTestModel(t *testing.T, h *fakeHost, b *fakeBackend) Model {
	t.Helper()
	t.Cleanup(func() { config.ApplyTheme("light") })

	m := NewModel(Options{
		Host:           h,
		Backend:        b,
		Debounce:       5 * time.Millisecond,
		PollInterval:   time.Millisecond,
		NetworkTimeout: time.Second,
		Telemetry:      telemetry.Options{SessionID: "test-session", Timeout: time.Second},
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 50})
	m, _ = drive(t, m, m.Init())
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// drive runs cmd and everything it leads to, feeding each message back
// into the model in order. Spinner frames are dropped so the loop ends.
// observe is called after every update.
func drive(t *testing.T, m Model, cmd tea.Cmd, observe ...func(Model)) (Model, []tea.Msg) {
	t.Helper()

	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("command chain did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		msg := c()
		switch msg := msg.(type) {
		case nil, spinner.TickMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}

		seen = append(seen, msg)
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}

		var next tea.Cmd
		m, next = update(m, msg)
		for _, fn := range observe {
			fn(m)
		}
		queue = append(queue, next)
	}
	return m, seen
}

// press sends one key and drives the result
func press(t *testing.T, m Model, key string, observe ...func(Model)) (Model, []tea.Msg) {
	t.Helper()
	m, cmd := update(m, keyMsg(key))
	return drive(t, m, cmd, observe...)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// goToStep presses Next until the model is on step s
func goToStep(t *testing.T, m Model, s Step) Model {
	t.Helper()
	for m.Step() < s {
		m, _ = press(t, m, "n")
	}
	return m
}

func hasQuit(msgs []tea.Msg) bool {
	for _, msg := range msgs {
		if _, ok := msg.(tea.QuitMsg); ok {
			return true
		}
	}
	return false
}
