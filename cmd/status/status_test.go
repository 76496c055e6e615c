// SPDX-License-Identifier: Apache-2.0
package status

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Work-Fort/Onboard/pkg/api"
	"github.com/Work-Fort/Onboard/pkg/host"
	"github.com/Work-Fort/Onboard/pkg/prefs"
)

type fakeSource struct {
	online     bool
	stored     *prefs.Preferences
	onboarding *host.OnboardingRecord
}

func (f *fakeSource) OSInfo(ctx context.Context) (string, error) { return "TestOS arm64", nil }
func (f *fakeSource) DiskSpace(ctx context.Context) (uint64, uint64, error) {
	return 100 << 30, 200 << 30, nil
}
func (f *fakeSource) MemoryInfo(ctx context.Context) (uint64, uint64, error) {
	return 4 << 30, 8 << 30, nil
}
func (f *fakeSource) NetworkStatus(ctx context.Context) (bool, error) { return f.online, nil }
func (f *fakeSource) Preferences(ctx context.Context) (*prefs.Preferences, error) {
	return f.stored, nil
}
func (f *fakeSource) SavePreferences(ctx context.Context, p prefs.Preferences) error    { return nil }
func (f *fakeSource) SaveOnboardingData(ctx context.Context, p prefs.Preferences) error { return nil }
func (f *fakeSource) StoreTelemetryEvent(ctx context.Context, event string, details map[string]any) error {
	return nil
}
func (f *fakeSource) StartBackendDownload(ctx context.Context) error          { return nil }
func (f *fakeSource) BackendDownloadProgress(ctx context.Context) (int, error) { return 0, nil }
func (f *fakeSource) Onboarding(ctx context.Context) (*host.OnboardingRecord, error) {
	return f.onboarding, nil
}

type fakeBackend struct{ err error }

func (b fakeBackend) Health(ctx context.Context) (*api.Health, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &api.Health{Status: "ok"}, nil
}

func TestPrintFreshInstall(t *testing.T) {
	var out bytes.Buffer
	err := Print(context.Background(), &out, &fakeSource{}, fakeBackend{err: errors.New("connection refused")})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "TestOS arm64")
	assert.Contains(t, text, "Offline")
	assert.Contains(t, text, "unreachable")
	assert.Contains(t, text, "Light")
	assert.Contains(t, text, "(default)")
	assert.Contains(t, text, "run 'onboard wizard'")
}

func TestPrintOnboarded(t *testing.T) {
	src := &fakeSource{
		online: true,
		stored: &prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark},
		onboarding: &host.OnboardingRecord{
			Completed: true,
			Timestamp: "2026-01-02T03:04:05Z",
		},
	}

	var out bytes.Buffer
	require.NoError(t, Print(context.Background(), &out, src, fakeBackend{}))

	text := out.String()
	assert.Contains(t, text, "Online")
	assert.Contains(t, text, "ok")
	assert.Contains(t, text, "Dark")
	assert.Contains(t, text, "Enabled")
	assert.Contains(t, text, "2026-01-02T03:04:05Z")
	assert.NotContains(t, text, "(default)")
}
