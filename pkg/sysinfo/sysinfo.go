// SPDX-License-Identifier: Apache-2.0
package sysinfo

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// UnknownOS is shown when the OS query fails
const UnknownOS = "Unknown OS"

// ErrMalformed is returned when a source reports an impossible capacity
var ErrMalformed = errors.New("malformed system information")

// Capacity is a free/total byte pair
type Capacity struct {
	Free  uint64
	Total uint64
}

// Snapshot is a one-shot view of the host for display
type Snapshot struct {
	OS     string
	Disk   *Capacity
	Memory *Capacity
}

// Source answers the three system queries
type Source interface {
	OSInfo(ctx context.Context) (string, error)
	DiskSpace(ctx context.Context) (free, total uint64, err error)
	MemoryInfo(ctx context.Context) (free, total uint64, err error)
}

// Defaults returns the snapshot used when every query fails
func Defaults() Snapshot {
	return Snapshot{
		OS:     UnknownOS,
		Disk:   &Capacity{},
		Memory: &Capacity{},
	}
}

// Collect runs the three queries concurrently. A failing query is replaced
// by its default and does not affect the others. An error is returned
// only when the results cannot be used at all, in which case the
// returned snapshot holds defaults for every field.
func Collect(ctx context.Context, src Source) (Snapshot, error) {
	snap := Defaults()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(guard("os", func() error {
		name, err := src.OSInfo(ctx)
		if err != nil {
			log.Debug("sysinfo: os query failed", "err", err)
			return nil
		}
		if name != "" {
			snap.OS = name
		}
		return nil
	}))

	g.Go(guard("disk", func() error {
		free, total, err := src.DiskSpace(ctx)
		if err != nil {
			log.Debug("sysinfo: disk query failed", "err", err)
			return nil
		}
		c, err := capacity(free, total)
		if err != nil {
			return fmt.Errorf("disk: %w", err)
		}
		snap.Disk = c
		return nil
	}))

	g.Go(guard("memory", func() error {
		free, total, err := src.MemoryInfo(ctx)
		if err != nil {
			log.Debug("sysinfo: memory query failed", "err", err)
			return nil
		}
		c, err := capacity(free, total)
		if err != nil {
			return fmt.Errorf("memory: %w", err)
		}
		snap.Memory = c
		return nil
	}))

	if err := g.Wait(); err != nil {
		log.Warn("sysinfo: snapshot failed", "err", err)
		return Defaults(), err
	}
	return snap, nil
}

func capacity(free, total uint64) (*Capacity, error) {
	if free > total {
		return nil, fmt.Errorf("%w: free %d exceeds total %d", ErrMalformed, free, total)
	}
	return &Capacity{Free: free, Total: total}, nil
}

// guard turns a panicking query into an orchestration error
func guard(name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("%s query panicked: %v", name, p)
			}
		}()
		return fn()
	}
}
