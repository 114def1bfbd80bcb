// pkg/step/runner_test.go

package step

import (
	"context"
	"errors"
	"testing"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPre(v bool) func(context.Context) (bool, error) {
	return func(context.Context) (bool, error) { return v, nil }
}

func TestRunnerExecutesInOrder(t *testing.T) {
	var order []string
	steps := []Step{
		{
			Name:         "first",
			Precondition: boolPre(false),
			Action: func(context.Context) error {
				order = append(order, "first")
				return nil
			},
			Postcondition: func(context.Context) error { return nil },
		},
		{
			Name:         "second",
			Precondition: boolPre(false),
			Action: func(context.Context) error {
				order = append(order, "second")
				return nil
			},
			Postcondition: func(context.Context) error { return nil },
		},
	}

	report, err := NewRunner().Run(context.Background(), steps)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, report.Results, 2)
	assert.Equal(t, StatusApplied, report.Results[0].Status)
	assert.Equal(t, StatusApplied, report.Results[1].Status)
	assert.Equal(t, 2, report.Applied())
	assert.False(t, report.AllSatisfied())
}

func TestRunnerSkipsSatisfiedStepsButStillVerifies(t *testing.T) {
	actionRan := false
	verified := false
	steps := []Step{{
		Name:         "already-done",
		Precondition: boolPre(true),
		Action: func(context.Context) error {
			actionRan = true
			return nil
		},
		Postcondition: func(context.Context) error {
			verified = true
			return nil
		},
	}}

	report, err := NewRunner().Run(context.Background(), steps)
	require.NoError(t, err)
	assert.False(t, actionRan, "action must be skipped when precondition holds")
	assert.True(t, verified, "postcondition must run even on the skip path")
	assert.Equal(t, StatusSatisfied, report.Results[0].Status)
	assert.True(t, report.AllSatisfied())
	assert.Equal(t, 0, report.Applied())
}

func TestRunnerAbortsOnPostconditionFailure(t *testing.T) {
	secondRan := false
	steps := []Step{
		{
			Name:         "broken",
			Precondition: boolPre(false),
			Action:       func(context.Context) error { return nil },
			Postcondition: func(context.Context) error {
				return errors.New("world did not change")
			},
		},
		{
			Name:         "never-reached",
			Precondition: boolPre(false),
			Action: func(context.Context) error {
				secondRan = true
				return nil
			},
		},
	}

	report, err := NewRunner().Run(context.Background(), steps)
	require.Error(t, err)
	assert.False(t, secondRan)
	assert.Contains(t, err.Error(), "broken")
	require.Len(t, report.Results, 1)
	assert.Equal(t, StatusFailed, report.Results[0].Status)
	assert.Equal(t, 4, hostprep_err.GetExitCode(err), "postcondition failures map to the verification exit code")
}

func TestRunnerDistinguishesActionFromVerificationFailure(t *testing.T) {
	steps := []Step{{
		Name:         "failing-action",
		Precondition: boolPre(false),
		Action:       func(context.Context) error { return errors.New("exec failed") },
	}}

	_, err := NewRunner().Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, 1, hostprep_err.GetExitCode(err), "plain action failures map to exit 1")
}

func TestRunnerRechecksPreconditionWhenNoPostcondition(t *testing.T) {
	calls := 0
	steps := []Step{{
		Name: "lying-action",
		Precondition: func(context.Context) (bool, error) {
			calls++
			return false, nil // never satisfied, even after the action
		},
		Action: func(context.Context) error { return nil },
	}}

	_, err := NewRunner().Run(context.Background(), steps)
	require.Error(t, err)
	assert.Equal(t, 2, calls, "precondition doubles as verification when no postcondition is set")
	assert.Contains(t, err.Error(), "reported success but the desired state is absent")
}

func TestRunnerPreconditionErrorAborts(t *testing.T) {
	steps := []Step{{
		Name: "unknowable",
		Precondition: func(context.Context) (bool, error) {
			return false, errors.New("cannot assess host")
		},
		Action: func(context.Context) error { return nil },
	}}

	report, err := NewRunner().Run(context.Background(), steps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precondition")
	assert.Equal(t, StatusFailed, report.Results[0].Status)
}
