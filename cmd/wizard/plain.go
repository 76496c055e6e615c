// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"context"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/config"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/sysinfo"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
)

// Flags are the answers supplied on the command line in non-interactive mode
type Flags struct {
	// Telemetry is nil when the flag was not given
	Telemetry    *bool
	Theme        string
	SkipDownload bool
}

// runPlain walks the same steps as the wizard without a terminal UI and
// prints each result
func runPlain(ctx context.Context, out io.Writer, opts Options, flags Flags) error {
	theme := config.CurrentTheme

	store := prefs.NewStore(opts.Host, opts.Debounce)
	if _, err := store.Load(ctx); err != nil {
		fmt.Fprintln(out, theme.WarningMessage(prefs.LoadFailedWarning))
	}

	var patch prefs.Patch
	patch.Telemetry = flags.Telemetry
	if flags.Theme != "" {
		t, err := prefs.ParseTheme(flags.Theme)
		if err != nil {
			return err
		}
		patch.Theme = &t
	}
	if patch.Telemetry != nil || patch.Theme != nil {
		// The debounce tick is dropped; the final Persist saves the value
		_ = store.Set(patch)
	}
	config.ApplyTheme(string(store.Current().Theme))
	theme = config.CurrentTheme

	var sink telemetry.Sink
	if opts.Backend != nil {
		sink = opts.Backend
	}
	relay := telemetry.NewRelay(store, opts.Host, sink, opts.Telemetry)

	section := func(s Step) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.InfoMessage(s.Label()))
		relay.Report(ctx, "step_changed", map[string]any{"step": int(s), "label": s.Label()})
	}

	// System check
	section(StepSystem)
	snap, err := sysinfo.Collect(ctx, opts.Host)
	if err != nil {
		log.Warn("wizard: system snapshot failed", "err", err)
		fmt.Fprintln(out, theme.ErrorMessage(SystemLoadFailedMessage))
	} else {
		fmt.Fprintf(out, "  Operating System: %s\n", snap.OS)
		fmt.Fprintf(out, "  Disk Space: %s (%s)\n", sysinfo.FormatDisk(snap.Disk), sysinfo.DiskStatus(snap.Disk))
		fmt.Fprintf(out, "  Memory: %s (%s)\n", sysinfo.FormatMemory(snap.Memory), sysinfo.MemoryStatus(snap.Memory))
	}

	// Network
	section(StepNetwork)
	netCtx, cancel := context.WithTimeout(ctx, networkTimeout(opts))
	online, err := opts.Host.NetworkStatus(netCtx)
	cancel()
	switch {
	case err != nil:
		fmt.Fprintln(out, "  Status: Offline")
		fmt.Fprintln(out, theme.ErrorMessage("  Failed to check network status: "+err.Error()))
	case online:
		fmt.Fprintln(out, "  Status: Online")
	default:
		fmt.Fprintln(out, "  Status: Offline")
		fmt.Fprintln(out, "  "+OfflineText)
	}

	// Backend download
	section(StepDownload)
	switch {
	case flags.SkipDownload:
		fmt.Fprintln(out, "  Skipped (--skip-download)")
	case !online:
		fmt.Fprintln(out, "  Skipped: no network connection")
	default:
		downloadPlain(out, opts, relay)
	}

	// Preferences
	section(StepPreferences)
	p := store.Current()
	fmt.Fprintf(out, "  Theme: %s\n", p.Theme.Label())
	fmt.Fprintf(out, "  Telemetry: %s\n", p.TelemetryLabel())

	// Completion
	section(StepComplete)
	if err := store.Persist(ctx); err != nil {
		fmt.Fprintln(out, theme.WarningMessage(prefs.SaveFailedWarning))
	}
	p = store.Current()
	if err := opts.Host.SaveOnboardingData(ctx, p); err != nil {
		return fmt.Errorf("%s: %w", OnboardingSaveFailedMessage, err)
	}
	notice := completionNotice(p)
	if opts.Backend != nil {
		if err := opts.Backend.PostOnboarding(ctx, p); err != nil {
			log.Warn("wizard: onboarding post failed", "err", err)
			notice += "\n" + OnboardingPostFailedMessage
		}
	}
	relay.Report(ctx, "onboarding_completed", map[string]any{
		"preferences": map[string]any{"telemetry": p.Telemetry, "theme": string(p.Theme)},
	})

	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.SuccessMessage(notice))
	return nil
}

// downloadPlain runs the download state machine to completion, executing
// its commands in order instead of through a bubbletea program
func downloadPlain(out io.Writer, opts Options, relay *telemetry.Relay) {
	orch := backend.NewOrchestrator(opts.Host, backend.OrchestratorOptions{
		Interval: opts.PollInterval,
		Clock:    opts.Clock,
		OnComplete: func() tea.Cmd {
			return relay.Cmd("download_completed", map[string]any{"status": "success"})
		},
	})

	last := -1
	queue := []tea.Cmd{orch.Start()}
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		queue = append(queue, orch.Update(msg))

		if p := orch.Progress(); p != last && orch.State() != backend.Failed {
			last = p
			fmt.Fprintf(out, "  Progress: %d%%\n", p)
		}
	}

	switch orch.State() {
	case backend.Complete:
		fmt.Fprintln(out, "  Download complete!")
	case backend.Failed:
		fmt.Fprintln(out, config.CurrentTheme.ErrorMessage("  "+orch.Err()))
	}
}

func networkTimeout(opts Options) time.Duration {
	if opts.NetworkTimeout > 0 {
		return opts.NetworkTimeout
	}
	return 5 * time.Second
}
