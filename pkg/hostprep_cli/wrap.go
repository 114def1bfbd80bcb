// pkg/hostprep_cli/wrap.go

package hostprep_cli

import (
	"context"

	"github.com/probitlabs/hostprep/pkg/hostprep_err"
	"github.com/probitlabs/hostprep/pkg/hostprep_io"
	"github.com/probitlabs/hostprep/pkg/logger"
	cerr "github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Wrap adapts a hostprep handler into a cobra RunE with panic recovery,
// logger initialization, and end-of-run outcome logging.
func Wrap(fn func(rc *hostprep_io.RuntimeContext, cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		logger.L()

		rc := hostprep_io.NewContext(context.Background(), cmd.Name())
		defer rc.End(&err)

		defer func() {
			if r := recover(); r != nil {
				err = cerr.AssertionFailedf("panic: %v", r)
				rc.Log.Error("Panic recovered", zap.Any("panic", r))
			}
		}()

		err = fn(rc, cmd, args)
		if err != nil && !hostprep_err.IsExpectedUserError(err) {
			err = cerr.WithStack(err)
		}
		return err
	}
}
