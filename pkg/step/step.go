// pkg/step/step.go

// Package step is the idempotent step-runner at the heart of hostprep. Every
// bootstrap operation is an ordered list of steps, each with a precondition
// (is the desired state already there?), an action (make it so), and a
// postcondition (did the world actually change?). Steps must be idempotent:
// running a list twice leaves the host in the same state, with the second run
// reporting every step as already satisfied.
package step

import (
	"context"
	"time"
)

// Step is one named unit of host mutation.
type Step struct {
	Name string

	// Precondition reports whether the desired state already holds. When it
	// returns true the action is skipped, but the postcondition still runs.
	Precondition func(ctx context.Context) (bool, error)

	// Action mutates the host toward the desired state.
	Action func(ctx context.Context) error

	// Postcondition verifies the desired state after the action (or skip).
	// A nil postcondition means the precondition doubles as verification.
	Postcondition func(ctx context.Context) error
}

// Status describes how a step concluded.
type Status string

const (
	// StatusApplied - the action ran and the postcondition held.
	StatusApplied Status = "applied"
	// StatusSatisfied - the precondition already held, action skipped.
	StatusSatisfied Status = "satisfied"
	// StatusFailed - the step aborted the run.
	StatusFailed Status = "failed"
)

// Result records the outcome of a single step.
type Result struct {
	Name     string
	Status   Status
	Duration time.Duration
	Err      error
}

// Report lists per-step outcomes in execution order. On failure it still
// names every step that completed, so a re-run can resume safely: completed
// steps are idempotent and will report satisfied.
type Report struct {
	Results []Result
}

// Applied returns the number of steps whose action ran.
func (r *Report) Applied() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusApplied {
			n++
		}
	}
	return n
}

// AllSatisfied reports whether every step skipped its action, meaning the
// host already matched the desired state.
func (r *Report) AllSatisfied() bool {
	for _, res := range r.Results {
		if res.Status != StatusSatisfied {
			return false
		}
	}
	return len(r.Results) > 0
}
