// SPDX-License-Identifier: Apache-2.0
package wizard

import (
	"github.com/Work-Fort/Onboard/pkg/prefs"
	"github.com/Work-Fort/Onboard/pkg/sysinfo"
)

// snapshotMsg carries a finished system snapshot. seq ties it to one visit of
// the system step.
type snapshotMsg struct {
	seq      uint64
	snapshot sysinfo.Snapshot
	err      error
}

// finishedMsg reports the outcome of the Finish sequence
type finishedMsg struct {
	preferences prefs.Preferences
	// saveErr is fatal to finishing: the onboarding marker was not written
	saveErr error
	// postErr only adds a warning to the completion notice
	postErr error
}
