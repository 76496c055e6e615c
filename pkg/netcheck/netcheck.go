// SPDX-License-Identifier: Apache-2.0
package netcheck

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// CheckFailedMessage is shown when the reachability query itself fails
const CheckFailedMessage = "Failed to check network status"

// Status is the tri-state reachability result
type Status int

const (
	Unknown Status = iota
	Online
	Offline
)

func (s Status) String() string {
	switch s {
	case Online:
		return "Online"
	case Offline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// Checker answers whether the network is reachable
type Checker interface {
	NetworkStatus(ctx context.Context) (bool, error)
}

// Reporter emits telemetry from the event loop
type Reporter interface {
	Cmd(event string, details map[string]any) tea.Cmd
}

// ResultMsg carries a finished check back to the monitor
type ResultMsg struct {
	seq    uint64
	retry  bool
	Online bool
	Err    error
}

// Monitor tracks network reachability for the network step.
//
// A failed check reads as Offline but also records an error message, so
// it can be told apart from a clean offline result.
type Monitor struct {
	checker  Checker
	reporter Reporter
	timeout  time.Duration

	status  Status
	err     string
	loading bool
	seq     uint64
}

// NewMonitor creates a monitor. reporter may be nil.
func NewMonitor(checker Checker, reporter Reporter, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Monitor{checker: checker, reporter: reporter, timeout: timeout}
}

// Status returns the current reachability state
func (m *Monitor) Status() Status { return m.status }

// Err returns the error message of the last failed check
func (m *Monitor) Err() string { return m.err }

// Loading reports whether a check is in flight
func (m *Monitor) Loading() bool { return m.loading }

// Reset clears state when the step is left. In-flight results from
// before the reset are ignored.
func (m *Monitor) Reset() {
	m.seq++
	m.status = Unknown
	m.err = ""
	m.loading = false
}

// Check starts a reachability query
func (m *Monitor) Check(isRetry bool) tea.Cmd {
	m.seq++
	m.status = Unknown
	m.err = ""
	m.loading = true

	seq := m.seq
	checker := m.checker
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		online, err := checker.NetworkStatus(ctx)
		return ResultMsg{seq: seq, retry: isRetry, Online: online, Err: err}
	}
}

// Update applies check results. Other messages are ignored.
func (m *Monitor) Update(msg tea.Msg) tea.Cmd {
	res, ok := msg.(ResultMsg)
	if !ok {
		return nil
	}
	if res.seq != m.seq {
		log.Debug("netcheck: discarding stale result", "seq", res.seq, "current", m.seq)
		return nil
	}

	m.loading = false
	var details map[string]any
	if res.Err != nil {
		log.Warn("netcheck: network status check failed", "err", res.Err)
		m.status = Offline
		m.err = fmt.Sprintf("%s: %v", CheckFailedMessage, res.Err)
		details = map[string]any{"success": false, "error": res.Err.Error()}
	} else {
		m.status = Offline
		if res.Online {
			m.status = Online
		}
		details = map[string]any{"success": true, "online": res.Online}
	}

	if res.retry && m.reporter != nil {
		return m.reporter.Cmd("network_retry", details)
	}
	return nil
}
