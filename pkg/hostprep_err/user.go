// pkg/hostprep_err/user.go

package hostprep_err

import (
	"context"
	"errors"
)

// userError marks failures the operator caused and can fix, as opposed to
// hostprep malfunctioning. These log as warnings and exit zero.
type userError struct {
	err error
}

func (u *userError) Error() string { return u.err.Error() }
func (u *userError) Unwrap() error { return u.err }

// NewExpectedError wraps err as an expected, user-correctable failure.
func NewExpectedError(_ context.Context, err error) error {
	if err == nil {
		return nil
	}
	return &userError{err: err}
}

// IsExpectedUserError reports whether err was marked expected.
func IsExpectedUserError(err error) bool {
	var u *userError
	return errors.As(err, &u)
}
