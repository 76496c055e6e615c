// SPDX-License-Identifier: Apache-2.0
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/shirou/gopsutil/v3/disk"
	gohost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Work-Fort/Onboard/pkg/backend"
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/telemetry"
)

const (
	PreferencesFile = "preferences.json"
	OnboardingFile  = "onboarding_complete.json"
	QueueFile       = "telemetry.db"

	DefaultCheckHost = "google.com:80"
)

// Resolver looks up host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// LocalOptions configures a Local host
type LocalOptions struct {
	DataDir        string
	CheckHost      string
	NetworkTimeout time.Duration
	Installer      *backend.Installer
	Resolver       Resolver
	Clock          clockwork.Clock
}

// Local runs the host commands against this machine. Preferences and the
// onboarding marker are JSON files in the data directory, and telemetry
// is queued in a SQLite database next to them.
type Local struct {
	dataDir   string
	checkHost string
	timeout   time.Duration
	installer *backend.Installer
	resolver  Resolver
	clock     clockwork.Clock
	queue     *telemetry.Queue

	hostInfo   func(context.Context) (*gohost.InfoStat, error)
	diskUsage  func(context.Context, string) (*disk.UsageStat, error)
	virtualMem func(context.Context) (*mem.VirtualMemoryStat, error)
}

var _ Host = (*Local)(nil)

// NewLocal opens the local host, creating the data directory and the
// telemetry queue if they do not exist
func NewLocal(opts LocalOptions) (*Local, error) {
	if opts.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if opts.CheckHost == "" {
		opts.CheckHost = DefaultCheckHost
	}
	if opts.NetworkTimeout <= 0 {
		opts.NetworkTimeout = 5 * time.Second
	}
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Installer == nil {
		opts.Installer = backend.NewInstaller(backend.InstallerOptions{
			InstallDir: filepath.Join(opts.DataDir, "backend"),
			Clock:      opts.Clock,
		})
	}

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	queue, err := telemetry.OpenQueue(filepath.Join(opts.DataDir, QueueFile), opts.Clock)
	if err != nil {
		return nil, err
	}

	return &Local{
		dataDir:    opts.DataDir,
		checkHost:  opts.CheckHost,
		timeout:    opts.NetworkTimeout,
		installer:  opts.Installer,
		resolver:   opts.Resolver,
		clock:      opts.Clock,
		queue:      queue,
		hostInfo:   gohost.InfoWithContext,
		diskUsage:  disk.UsageWithContext,
		virtualMem: mem.VirtualMemoryWithContext,
	}, nil
}

// Close releases the telemetry queue and stops any running download
func (l *Local) Close() error {
	l.installer.Cancel()
	return l.queue.Close()
}

// Queue is the local telemetry queue
func (l *Local) Queue() *telemetry.Queue { return l.queue }

// Installer is the backend installer behind the download commands
func (l *Local) Installer() *backend.Installer { return l.installer }

// DataDir is where state files live
func (l *Local) DataDir() string { return l.dataDir }

// OSInfo returns "<os> <arch>", e.g. "ubuntu 24.04 x86_64"
func (l *Local) OSInfo(ctx context.Context) (string, error) {
	info, err := l.hostInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to query host info: %w", err)
	}

	name := info.Platform
	if name == "" {
		name = info.OS
	}
	if info.PlatformVersion != "" {
		name += " " + info.PlatformVersion
	}
	arch := info.KernelArch
	if arch == "" {
		arch = backend.HostArch()
	}
	return strings.TrimSpace(name + " " + arch), nil
}

// DiskSpace reports the filesystem holding the data directory
func (l *Local) DiskSpace(ctx context.Context) (uint64, uint64, error) {
	usage, err := l.diskUsage(ctx, l.dataDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query disk usage: %w", err)
	}
	return usage.Free, usage.Total, nil
}

// MemoryInfo reports available and total memory
func (l *Local) MemoryInfo(ctx context.Context) (uint64, uint64, error) {
	vm, err := l.virtualMem(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query memory: %w", err)
	}
	return vm.Available, vm.Total, nil
}

// NetworkStatus resolves the check host. A failed lookup means offline;
// only cancellation of the caller's context is an error.
func (l *Local) NetworkStatus(ctx context.Context) (bool, error) {
	name := l.checkHost
	if h, _, err := net.SplitHostPort(name); err == nil {
		name = h
	}

	lookupCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	addrs, err := l.resolver.LookupHost(lookupCtx, name)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Debug("host: reachability lookup failed", "host", name, "err", err)
		return false, nil
	}
	return len(addrs) > 0, nil
}

// Preferences reads the stored preferences. A missing file is not an
// error and returns nil.
func (l *Local) Preferences(ctx context.Context) (*prefs.Preferences, error) {
	var p prefs.Preferences
	found, err := l.readJSON(PreferencesFile, &p)
	if err != nil || !found {
		return nil, err
	}
	p = p.Normalize()
	return &p, nil
}

// SavePreferences stores the preferences
func (l *Local) SavePreferences(ctx context.Context, p prefs.Preferences) error {
	return l.writeJSON(PreferencesFile, p.Normalize())
}

// SaveOnboardingData writes the completion marker
func (l *Local) SaveOnboardingData(ctx context.Context, p prefs.Preferences) error {
	return l.writeJSON(OnboardingFile, OnboardingRecord{
		Completed:   true,
		Timestamp:   l.clock.Now().UTC().Format(time.RFC3339),
		Preferences: p.Normalize(),
	})
}

// Onboarding returns the completion marker, or nil when onboarding has
// not been finished
func (l *Local) Onboarding(ctx context.Context) (*OnboardingRecord, error) {
	var rec OnboardingRecord
	found, err := l.readJSON(OnboardingFile, &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

// StoreTelemetryEvent queues an event for later delivery
func (l *Local) StoreTelemetryEvent(ctx context.Context, event string, details map[string]any) error {
	return l.queue.Enqueue(ctx, event, details)
}

// StartBackendDownload begins the backend install
func (l *Local) StartBackendDownload(ctx context.Context) error {
	return l.installer.Start(ctx)
}

// BackendDownloadProgress reports install progress in [0,100]
func (l *Local) BackendDownloadProgress(ctx context.Context) (int, error) {
	return l.installer.Progress(ctx)
}

// Reset removes stored preferences, the onboarding marker and queued
// telemetry
func (l *Local) Reset(ctx context.Context) error {
	for _, name := range []string{PreferencesFile, OnboardingFile} {
		if err := os.Remove(filepath.Join(l.dataDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return l.queue.Clear(ctx)
}

func (l *Local) readJSON(name string, v any) (bool, error) {
	data, err := os.ReadFile(filepath.Join(l.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return true, nil
}

// writeJSON replaces the file atomically
func (l *Local) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	path := filepath.Join(l.dataDir, name)
	tmp, err := os.CreateTemp(l.dataDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
