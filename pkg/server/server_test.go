// SPDX-License-Identifier: Apache-2.0
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Work-Fort/Onboard/pkg/api"
	"github.com/Work-Fort/Onboard/pkg/prefs"
)

func newTestServer(t *testing.T) (*Server, *api.Client, string) {
	t.Helper()
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC))
	s := New(dir, clock)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, api.NewClient(srv.URL, time.Second), dir
}

func TestHealth(t *testing.T) {
	_, client, _ := newTestServer(t)

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}

func TestTelemetryAppendsToLog(t *testing.T) {
	_, client, dir := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, client.PostTelemetry(ctx, "step_changed", map[string]any{"step": 1, "label": "System Compatibility Check"}))
	require.NoError(t, client.PostTelemetry(ctx, "network_retry", nil))

	data, err := os.ReadFile(filepath.Join(dir, TelemetryLog))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "step_changed", first["event"])
	assert.Equal(t, "2025-03-01T09:30:00Z", first["received"])
	assert.Equal(t, "System Compatibility Check", first["details"].(map[string]any)["label"])
}

func TestTelemetryRouteBodies(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		want   string
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK, `{"status":"ok"}`},
		{"telemetry", http.MethodPost, "/telemetry", `{"event":"x","details":{}}`, http.StatusOK, `{"status":"received"}`},
		{"telemetry missing event", http.MethodPost, "/telemetry", `{}`, http.StatusBadRequest, `{"message":"event is required","code":400}`},
		{"telemetry bad json", http.MethodPost, "/telemetry", `{`, http.StatusBadRequest, `{"message":"invalid telemetry payload","code":400}`},
		{"preferences default", http.MethodGet, "/preferences", "", http.StatusOK, `{"telemetry":false,"theme":"light"}`},
		{"onboarding", http.MethodPost, "/onboarding", `{"telemetry":true,"theme":"dark"}`, http.StatusOK, `{"status":"saved"}`},
		{"onboarding bad json", http.MethodPost, "/onboarding", `[`, http.StatusBadRequest, `{"message":"invalid onboarding payload","code":400}`},
		{"save preferences", http.MethodPost, "/preferences", `{"telemetry":false,"theme":"light"}`, http.StatusOK, `{"status":"updated"}`},
		{"wrong method", http.MethodDelete, "/health", "", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.want != "" {
				assert.JSONEq(t, tt.want, rec.Body.String())
			}
		})
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	_, client, _ := newTestServer(t)
	ctx := context.Background()

	want := prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark}
	require.NoError(t, client.SavePreferences(ctx, want))

	got, err := client.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestOnboardingStoresPreferences(t *testing.T) {
	s, client, _ := newTestServer(t)
	ctx := context.Background()

	assert.Nil(t, s.Onboarded())
	want := prefs.Preferences{Telemetry: true, Theme: prefs.ThemeDark}
	require.NoError(t, client.PostOnboarding(ctx, want))

	got := s.Onboarded()
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	stored, err := client.Preferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, *stored)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := New(t.TempDir(), nil)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	client := api.NewClient("http://"+l.Addr().String(), time.Second)
	require.Eventually(t, func() bool {
		_, err := client.Health(context.Background())
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
