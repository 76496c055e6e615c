// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 30 * time.Second
	defaultTimeout         = 5 * time.Second
)

// Gate reports whether the user has telemetry enabled
type Gate interface {
	TelemetryEnabled() bool
}

// GateFunc adapts a function to Gate
type GateFunc func() bool

func (f GateFunc) TelemetryEnabled() bool { return f() }

// Host is the local collaborator: reachability and the offline queue
type Host interface {
	NetworkStatus(ctx context.Context) (bool, error)
	StoreTelemetryEvent(ctx context.Context, event string, details map[string]any) error
}

// Sink delivers events to the remote collector
type Sink interface {
	PostTelemetry(ctx context.Context, event string, details map[string]any) error
}

// Result describes what happened to a reported event.
// Success is true when the event was either delivered or queued.
type Result struct {
	Success   bool
	Delivered bool
	Queued    bool
	Skipped   bool
	Err       error
}

// ReportedMsg carries a Result back into the event loop
type ReportedMsg struct {
	Event  string
	Result Result
}

// Options tunes the relay
type Options struct {
	SessionID       string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Relay is the best-effort telemetry pipeline. It never returns an
// error to callers; failures are logged and summarized in Result.
type Relay struct {
	gate    Gate
	host    Host
	sink    Sink
	breaker *gobreaker.CircuitBreaker[struct{}]
	session string
	timeout time.Duration
}

// NewRelay creates a relay. A nil gate disables reporting.
func NewRelay(gate Gate, host Host, sink Sink, opts Options) *Relay {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaultBreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = defaultBreakerCooldown
	}

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "telemetry-sink",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("telemetry circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
		IsExcluded: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	})

	return &Relay{
		gate:    gate,
		host:    host,
		sink:    sink,
		breaker: breaker,
		session: opts.SessionID,
		timeout: opts.Timeout,
	}
}

// Enabled reads the gate
func (r *Relay) Enabled() bool {
	return r.gate != nil && r.gate.TelemetryEnabled()
}

// BreakerState exposes the remote sink breaker state
func (r *Relay) BreakerState() gobreaker.State {
	return r.breaker.State()
}

// Report sends an event. With telemetry disabled nothing is contacted.
// When enabled, the network is checked first; a reachable network tries
// the remote sink, and any delivery failure or an offline result falls
// back to the local queue. A failed reachability check fails the report.
func (r *Relay) Report(ctx context.Context, event string, details map[string]any) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("telemetry report panicked", "event", event, "panic", p)
			res = Result{Err: fmt.Errorf("telemetry report panicked: %v", p)}
		}
	}()

	if !r.Enabled() {
		return Result{Success: true, Skipped: true}
	}

	payload := r.withSession(details)

	online, err := r.host.NetworkStatus(ctx)
	if err != nil {
		log.Debug("telemetry: network status unavailable", "event", event, "err", err)
		return Result{Err: fmt.Errorf("failed to determine network status: %w", err)}
	}

	if online && r.sink != nil {
		err := r.deliver(ctx, event, payload)
		if err == nil {
			log.Debug("telemetry: delivered", "event", event)
			return Result{Success: true, Delivered: true}
		}
		log.Debug("telemetry: remote delivery failed, queueing", "event", event, "err", err)
	}

	if err := r.host.StoreTelemetryEvent(ctx, event, payload); err != nil {
		log.Warn("telemetry: failed to queue event", "event", event, "err", err)
		return Result{Err: fmt.Errorf("failed to queue event: %w", err)}
	}
	log.Debug("telemetry: queued", "event", event, "online", online)
	return Result{Success: true, Queued: true}
}

// Cmd wraps Report for the event loop. The gate is read when the command
// is built, so a disabled relay yields a nil command.
func (r *Relay) Cmd(event string, details map[string]any) tea.Cmd {
	if !r.Enabled() {
		return nil
	}
	timeout := r.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
		defer cancel()
		return ReportedMsg{Event: event, Result: r.Report(ctx, event, details)}
	}
}

// Flush drains the local queue to the remote sink through the breaker.
// Events are removed only once the sink accepts them. The gate is not
// consulted: queued events were recorded while telemetry was enabled.
func (r *Relay) Flush(ctx context.Context, q *Queue, batch int) (int, error) {
	if r.sink == nil {
		return 0, errors.New("no telemetry sink configured")
	}
	if batch <= 0 {
		batch = 100
	}
	total := 0
	for {
		n, err := q.Drain(ctx, sinkFunc(r.deliver), batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < batch {
			return total, nil
		}
	}
}

type sinkFunc func(ctx context.Context, event string, details map[string]any) error

func (f sinkFunc) PostTelemetry(ctx context.Context, event string, details map[string]any) error {
	return f(ctx, event, details)
}

func (r *Relay) deliver(ctx context.Context, event string, details map[string]any) error {
	_, err := r.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return struct{}{}, r.sink.PostTelemetry(ctx, event, details)
	})
	return err
}

func (r *Relay) withSession(details map[string]any) map[string]any {
	out := make(map[string]any, len(details)+1)
	maps.Copy(out, details)
	if r.session != "" {
		if _, ok := out["session_id"]; !ok {
			out["session_id"] = r.session
		}
	}
	return out
}
