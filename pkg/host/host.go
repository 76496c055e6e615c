// SPDX-License-Identifier: Apache-2.0

// Package host is the command boundary between the wizard and the
// machine it runs on. Every operation the wizard needs from outside its
// own process goes through Host.
package host

import (
	"context"

	"github.com/Work-Fort/Onboard/pkg/prefs"
)

// Host is the set of commands the wizard invokes. A command that reports
// failure returns a non-nil error.
type Host interface {
	OSInfo(ctx context.Context) (string, error)
	DiskSpace(ctx context.Context) (free, total uint64, err error)
	MemoryInfo(ctx context.Context) (free, total uint64, err error)
	NetworkStatus(ctx context.Context) (bool, error)

	// Preferences returns nil when nothing has been stored yet
	Preferences(ctx context.Context) (*prefs.Preferences, error)
	SavePreferences(ctx context.Context, p prefs.Preferences) error
	SaveOnboardingData(ctx context.Context, p prefs.Preferences) error

	StoreTelemetryEvent(ctx context.Context, event string, details map[string]any) error

	StartBackendDownload(ctx context.Context) error
	BackendDownloadProgress(ctx context.Context) (int, error)
}

// OnboardingRecord marks a finished onboarding
type OnboardingRecord struct {
	Completed   bool              `json:"completed"`
	Timestamp   string            `json:"timestamp"`
	Preferences prefs.Preferences `json:"preferences"`
}
