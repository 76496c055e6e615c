// SPDX-License-Identifier: Apache-2.0
package backend

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

// DefaultPollInterval is the delay between progress queries
const DefaultPollInterval = time.Second

// State is the download lifecycle
type State int

const (
	Idle State = iota
	Downloading
	Complete
	Failed
)

func (s State) String() string {
	switch s {
	case Downloading:
		return "downloading"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Commands starts the download and reports its progress
type Commands interface {
	StartBackendDownload(ctx context.Context) error
	BackendDownloadProgress(ctx context.Context) (int, error)
}

// startedMsg reports the outcome of the start command
type startedMsg struct {
	loop uint64
	err  error
}

// progressMsg reports one poll result
type progressMsg struct {
	loop     uint64
	progress int
	err      error
}

// pollMsg fires when the poll interval has elapsed
type pollMsg struct {
	loop uint64
}

// OrchestratorOptions configures an Orchestrator
type OrchestratorOptions struct {
	Interval time.Duration
	Timeout  time.Duration
	Clock    clockwork.Clock
	// OnComplete runs once per successful start
	OnComplete func() tea.Cmd
}

// Orchestrator drives the client side of the backend download: one start
// call, then sequential progress polls until 100 or an error.
//
// The poll loop is identified by a handle. Starting again or cancelling
// moves to a new handle, and any tick or reply carrying an older handle
// is dropped, so at most one loop is ever live.
type Orchestrator struct {
	cmds       Commands
	interval   time.Duration
	timeout    time.Duration
	clock      clockwork.Clock
	onComplete func() tea.Cmd

	state    State
	progress int
	err      string
	loop     uint64
	active   bool

	startedAt time.Time
}

// NewOrchestrator creates an idle orchestrator
func NewOrchestrator(cmds Commands, opts OrchestratorOptions) *Orchestrator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Orchestrator{
		cmds:       cmds,
		interval:   opts.Interval,
		timeout:    opts.Timeout,
		clock:      opts.Clock,
		onComplete: opts.OnComplete,
	}
}

// State returns the lifecycle state
func (o *Orchestrator) State() State { return o.state }

// Progress returns the last known progress in [0,100]
func (o *Orchestrator) Progress() int { return o.progress }

// Downloading reports whether a download is in flight
func (o *Orchestrator) Downloading() bool { return o.state == Downloading }

// Err returns the failure message, or "" when not failed
func (o *Orchestrator) Err() string { return o.err }

// Active reports whether a poll loop is registered
func (o *Orchestrator) Active() bool { return o.active }

// ETA estimates the time left from the observed rate. It returns false
// until there is enough progress to estimate.
func (o *Orchestrator) ETA() (time.Duration, bool) {
	if o.state != Downloading || o.progress <= 0 || o.progress >= 100 {
		return 0, false
	}
	elapsed := o.clock.Since(o.startedAt)
	if elapsed <= 0 {
		return 0, false
	}
	perPercent := elapsed / time.Duration(o.progress)
	return perPercent * time.Duration(100-o.progress), true
}

// Start begins a download. Any loop already running is cancelled first.
func (o *Orchestrator) Start() tea.Cmd {
	o.Cancel()
	o.state = Downloading
	o.progress = 0
	o.err = ""
	o.active = true
	o.startedAt = o.clock.Now()

	loop := o.loop
	cmds := o.cmds
	timeout := o.timeout
	log.Debug("backend: starting download", "loop", loop)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return startedMsg{loop: loop, err: cmds.StartBackendDownload(ctx)}
	}
}

// Cancel stops the current poll loop, if any. Progress and state are
// left as they are.
func (o *Orchestrator) Cancel() {
	o.loop++
	o.active = false
}

// Reset cancels the poll loop and returns a download that is running or
// failed to Idle. A completed download stays Complete.
func (o *Orchestrator) Reset() {
	o.Cancel()
	o.err = ""
	if o.state == Complete {
		return
	}
	if o.state == Downloading {
		log.Debug("backend: poll loop cancelled, download left running on the host")
	}
	o.state = Idle
	o.progress = 0
}

// Update advances the state machine. Other messages are ignored.
func (o *Orchestrator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case startedMsg:
		if !o.current(msg.loop) {
			return nil
		}
		if msg.err != nil {
			o.fail(fmt.Sprintf("Failed to start download: %v", msg.err))
			return nil
		}
		return o.poll()

	case pollMsg:
		if !o.current(msg.loop) {
			return nil
		}
		return o.poll()

	case progressMsg:
		if !o.current(msg.loop) {
			return nil
		}
		if msg.err != nil {
			o.fail(fmt.Sprintf("Failed to check download progress: %v", msg.err))
			return nil
		}

		p := clamp(msg.progress)
		if p < o.progress {
			log.Warn("backend: progress went backwards, keeping previous value", "previous", o.progress, "reported", p)
			p = o.progress
		}
		o.progress = p

		if p >= 100 {
			o.Cancel()
			o.state = Complete
			o.progress = 100
			o.err = ""
			log.Info("backend: download complete")
			if o.onComplete != nil {
				return o.onComplete()
			}
			return nil
		}

		loop := o.loop
		return tea.Tick(o.interval, func(time.Time) tea.Msg {
			return pollMsg{loop: loop}
		})
	}
	return nil
}

func (o *Orchestrator) current(loop uint64) bool {
	if !o.active || loop != o.loop {
		log.Debug("backend: dropping message from stale loop", "loop", loop, "current", o.loop)
		return false
	}
	return true
}

func (o *Orchestrator) poll() tea.Cmd {
	loop := o.loop
	cmds := o.cmds
	timeout := o.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := cmds.BackendDownloadProgress(ctx)
		return progressMsg{loop: loop, progress: p, err: err}
	}
}

func (o *Orchestrator) fail(message string) {
	log.Warn("backend: download failed", "err", message)
	o.Cancel()
	o.state = Failed
	o.err = message
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
