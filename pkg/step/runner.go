// pkg/step/runner.go

package step

import (
	"context"
	"time"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Runner executes steps strictly in order, fail-fast. There is no rollback:
// the report plus step idempotency make a re-run the recovery path.
type Runner struct{}

// NewRunner returns a step runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the steps in order and stops at the first step whose
// postcondition does not hold. The returned report covers every step that was
// reached, including the failing one.
func (r *Runner) Run(ctx context.Context, steps []Step) (*Report, error) {
	logger := otelzap.Ctx(ctx)
	report := &Report{}

	for _, s := range steps {
		res, err := r.runOne(ctx, s)
		report.Results = append(report.Results, res)
		if err != nil {
			logger.Error("Step failed, aborting run",
				zap.String("step", s.Name),
				zap.Int("steps_completed", len(report.Results)-1),
				zap.Error(err))
			return report, cerr.Wrapf(err, "step %q", s.Name)
		}
	}

	logger.Info("All steps verified",
		zap.Int("steps", len(report.Results)),
		zap.Int("applied", report.Applied()))
	return report, nil
}

func (r *Runner) runOne(ctx context.Context, s Step) (Result, error) {
	logger := otelzap.Ctx(ctx)
	start := time.Now()

	ctx, span := telemetry.Start(ctx, "step."+s.Name)
	defer span.End()

	// ASSESS
	satisfied := false
	if s.Precondition != nil {
		var err error
		satisfied, err = s.Precondition(ctx)
		if err != nil {
			res := Result{Name: s.Name, Status: StatusFailed, Duration: time.Since(start), Err: err}
			return res, cerr.Wrap(err, "precondition")
		}
	}

	// INTERVENE
	if satisfied {
		logger.Info("Step already satisfied", zap.String("step", s.Name))
	} else {
		logger.Info("Applying step", zap.String("step", s.Name))
		if s.Action == nil {
			err := cerr.AssertionFailedf("step %q has no action", s.Name)
			return Result{Name: s.Name, Status: StatusFailed, Duration: time.Since(start), Err: err}, err
		}
		if err := s.Action(ctx); err != nil {
			res := Result{Name: s.Name, Status: StatusFailed, Duration: time.Since(start), Err: err}
			return res, wrapActionErr(err)
		}
	}

	// EVALUATE - the postcondition runs even on the skip path, so a stale
	// precondition cannot hide a drifted host.
	if err := r.verify(ctx, s, satisfied); err != nil {
		res := Result{Name: s.Name, Status: StatusFailed, Duration: time.Since(start), Err: err}
		return res, err
	}

	status := StatusApplied
	if satisfied {
		status = StatusSatisfied
	}
	return Result{Name: s.Name, Status: status, Duration: time.Since(start)}, nil
}

func (r *Runner) verify(ctx context.Context, s Step, satisfied bool) error {
	if s.Postcondition != nil {
		if err := s.Postcondition(ctx); err != nil {
			return hostprep_err.NewVerificationError(
				"postcondition failed for step " + s.Name + ": " + err.Error())
		}
		return nil
	}
	// No explicit postcondition: re-check the precondition after acting.
	if s.Precondition == nil || satisfied {
		return nil
	}
	ok, err := s.Precondition(ctx)
	if err != nil {
		return hostprep_err.NewVerificationError(
			"re-checking precondition for step " + s.Name + ": " + err.Error())
	}
	if !ok {
		return hostprep_err.NewVerificationError(
			"action for step " + s.Name + " reported success but the desired state is absent")
	}
	return nil
}

// wrapActionErr preserves an existing classification, otherwise the failure
// counts as a plain action failure.
func wrapActionErr(err error) error {
	var classified *hostprep_err.ClassifiedError
	if cerr.As(err, &classified) {
		return err
	}
	return hostprep_err.NewActionError(err, "action failed")
}
