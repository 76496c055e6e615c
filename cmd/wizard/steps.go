// SPDX-License-Identifier: Apache-2.0
package wizard

// Step is a position in the linear setup sequence
type Step int

const (
	StepWelcome Step = iota
	StepSystem
	StepNetwork
	StepDownload
	StepPreferences
	StepComplete

	stepCount = int(StepComplete) + 1
)

var stepLabels = [stepCount]string{
	"Welcome & Privacy Overview",
	"System Compatibility Check",
	"Network Status",
	"Backend Download",
	"Preferences & Telemetry",
	"Completion & Guided Tour",
}

var stepTitles = [stepCount]string{
	"Welcome",
	"System",
	"Network",
	"Download",
	"Preferences",
	"Complete",
}

// Label is the name reported with step_changed
func (s Step) Label() string {
	if s < 0 || int(s) >= stepCount {
		return ""
	}
	return stepLabels[s]
}

// Title is the short tab title
func (s Step) Title() string {
	if s < 0 || int(s) >= stepCount {
		return ""
	}
	return stepTitles[s]
}

// Last reports whether s is the final step
func (s Step) Last() bool { return s == StepComplete }
