// SPDX-License-Identifier: Apache-2.0
package wizard

// Phase is the lifecycle of a step's asynchronous work
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseErrored
)

// Async holds one step's transient result. Only the fields that make
// sense for the current phase are ever set.
type Async[T any] struct {
	phase Phase
	value T
	err   string
}

// Loading returns the in-flight state
func Loading[T any]() Async[T] {
	return Async[T]{phase: PhaseLoading}
}

// Ready returns a resolved state holding v
func Ready[T any](v T) Async[T] {
	return Async[T]{phase: PhaseReady, value: v}
}

// Errored returns a failed state with a user-facing message
func Errored[T any](message string) Async[T] {
	return Async[T]{phase: PhaseErrored, err: message}
}

func (a Async[T]) Phase() Phase { return a.phase }

func (a Async[T]) IsLoading() bool { return a.phase == PhaseLoading }

// Value returns the resolved value and whether there is one
func (a Async[T]) Value() (T, bool) {
	return a.value, a.phase == PhaseReady
}

// Err returns the error message, or "" outside PhaseErrored
func (a Async[T]) Err() string { return a.err }
