// SPDX-License-Identifier: Apache-2.0
package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortReleasesBySemver(t *testing.T) {
	releases := []Release{
		{TagName: "v1.2.0"},
		{TagName: "nightly"},
		{TagName: "v1.10.0"},
		{TagName: "v1.9.3"},
	}

	sorted := SortReleasesBySemver(releases)

	got := make([]string, len(sorted))
	for i, r := range sorted {
		got[i] = r.TagName
	}
	assert.Equal(t, []string{"v1.10.0", "v1.9.3", "v1.2.0", "nightly"}, got)
	assert.Equal(t, "v1.2.0", releases[0].TagName, "input must not be reordered")
}

func TestParseRepo(t *testing.T) {
	owner, name, err := ParseRepo("Work-Fort/backend")
	require.NoError(t, err)
	assert.Equal(t, "Work-Fort", owner)
	assert.Equal(t, "backend", name)

	for _, bad := range []string{"", "solo", "a/b/c", "/b"} {
		_, _, err := ParseRepo(bad)
		assert.Error(t, err, bad)
	}
}

func TestLatestReleaseSkipsPrereleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/backend/releases", r.URL.Path)
		assert.Equal(t, "token t0k", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Release{
			{TagName: "v2.0.0-rc1", Prerelease: true},
			{TagName: "v1.4.0", Assets: []Asset{{Name: "onboard-backend-x86_64.xz"}}},
			{TagName: "v1.3.9"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t0k")
	rel, err := c.LatestRelease(context.Background(), "acme", "backend")
	require.NoError(t, err)
	assert.Equal(t, "v1.4.0", rel.TagName)

	asset, ok := rel.FindAsset("onboard-backend-x86_64.xz")
	assert.True(t, ok)
	assert.Equal(t, "onboard-backend-x86_64.xz", asset.Name)

	_, ok = rel.FindAsset("missing")
	assert.False(t, ok)
}

func TestLatestReleaseAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").LatestRelease(context.Background(), "acme", "backend")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
