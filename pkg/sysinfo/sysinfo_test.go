// SPDX-License-Identifier: Apache-2.0
package sysinfo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	os            string
	osErr         error
	diskFree      uint64
	diskTotal     uint64
	diskErr       error
	memFree       uint64
	memTotal      uint64
	memErr        error
	panicOnMemory bool
}

func (f *fakeSource) OSInfo(ctx context.Context) (string, error) {
	return f.os, f.osErr
}

func (f *fakeSource) DiskSpace(ctx context.Context) (uint64, uint64, error) {
	return f.diskFree, f.diskTotal, f.diskErr
}

func (f *fakeSource) MemoryInfo(ctx context.Context) (uint64, uint64, error) {
	if f.panicOnMemory {
		panic("driver exploded")
	}
	return f.memFree, f.memTotal, f.memErr
}

func TestCollectAllSucceed(t *testing.T) {
	src := &fakeSource{
		os:       "TestOS x86_64",
		diskFree: 200 * gib, diskTotal: 500 * gib,
		memFree: 8 * gib, memTotal: 16 * gib,
	}

	snap, err := Collect(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "TestOS x86_64", snap.OS)
	assert.Equal(t, "200.00 GB free / 500.00 GB total", FormatDisk(snap.Disk))
	assert.Equal(t, "8.00 GB free / 16.00 GB total", FormatMemory(snap.Memory))
}

func TestCollectFieldFailuresAreIndependent(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		want Snapshot
	}{
		{
			name: "os fails",
			src:  &fakeSource{osErr: errors.New("x"), diskFree: 1, diskTotal: 2, memFree: 3, memTotal: 4},
			want: Snapshot{OS: UnknownOS, Disk: &Capacity{1, 2}, Memory: &Capacity{3, 4}},
		},
		{
			name: "disk fails",
			src:  &fakeSource{os: "linux", diskErr: errors.New("x"), memFree: 3, memTotal: 4},
			want: Snapshot{OS: "linux", Disk: &Capacity{}, Memory: &Capacity{3, 4}},
		},
		{
			name: "memory fails",
			src:  &fakeSource{os: "linux", diskFree: 1, diskTotal: 2, memErr: errors.New("x")},
			want: Snapshot{OS: "linux", Disk: &Capacity{1, 2}, Memory: &Capacity{}},
		},
		{
			name: "all fail",
			src:  &fakeSource{osErr: errors.New("x"), diskErr: errors.New("y"), memErr: errors.New("z")},
			want: Defaults(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Collect(context.Background(), tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, snap)
		})
	}
}

func TestCollectMalformedResultFailsWhole(t *testing.T) {
	src := &fakeSource{os: "linux", diskFree: 10, diskTotal: 5, memFree: 1, memTotal: 2}

	snap, err := Collect(context.Background(), src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, Defaults(), snap)
}

func TestCollectPanicFailsWhole(t *testing.T) {
	src := &fakeSource{os: "linux", panicOnMemory: true}

	snap, err := Collect(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, Defaults(), snap)
}

func TestFormatMemorySmall(t *testing.T) {
	assert.Equal(t, "256.00 MB free / 512.00 MB total", FormatMemory(&Capacity{Free: 256 * mib, Total: 512 * mib}))
	assert.Equal(t, "Unknown", FormatMemory(nil))
	assert.Equal(t, "Unknown", FormatDisk(nil))
}

func TestStatusThresholds(t *testing.T) {
	tests := []struct {
		name string
		got  Status
		want Status
	}{
		{"disk unknown", DiskStatus(&Capacity{}), StatusUnknown},
		{"disk critical", DiskStatus(&Capacity{Free: 9, Total: 100}), StatusCritical},
		{"disk warning", DiskStatus(&Capacity{Free: 19, Total: 100}), StatusWarning},
		{"disk good", DiskStatus(&Capacity{Free: 20, Total: 100}), StatusGood},
		{"memory critical", MemoryStatus(&Capacity{Free: 14, Total: 100}), StatusCritical},
		{"memory warning", MemoryStatus(&Capacity{Free: 29, Total: 100}), StatusWarning},
		{"memory good", MemoryStatus(&Capacity{Free: 30, Total: 100}), StatusGood},
		{"memory nil", MemoryStatus(nil), StatusUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
			assert.NotEmpty(t, tt.got.String())
		})
	}
}
