// pkg/hostprep_err/classification.go
//
// Error classification with distinct exit codes so scriptable callers can
// tell why a bootstrap run stopped: bad input, a failed OS mutation, or a
// mutation that reported success while the postcondition stayed false.

package hostprep_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for exit-code mapping.
type ErrorCategory int

const (
	// CategoryAction - an OS call exited non-zero (exit 1)
	CategoryAction ErrorCategory = iota
	// CategoryValidation - bad input before any mutation (exit 2)
	CategoryValidation
	// CategoryInternal - bugs in hostprep itself (exit 3)
	CategoryInternal
	// CategoryVerification - action succeeded but postcondition failed (exit 4)
	CategoryVerification
	// CategoryPermission - insufficient privileges (exit 5)
	CategoryPermission
	// CategoryDownload - transport or non-2xx fetching remote material (exit 1)
	CategoryDownload
	// CategoryService - a service did not reach active state (exit 4)
	CategoryService
)

// ClassifiedError wraps an error with its category and remediation hints.
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

func (e *ClassifiedError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("\n\nCause: %v", e.Cause))
	}
	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}
	return sb.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for this category.
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryValidation:
		return 2
	case CategoryInternal:
		return 3
	case CategoryVerification, CategoryService:
		return 4
	case CategoryPermission:
		return 5
	default:
		return 1
	}
}

// GetExitCode extracts an exit code from any error. Returns 0 for nil, the
// category code for classified errors, and 1 otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}
	if IsExpectedUserError(err) {
		return 0
	}
	return 1
}

// NewValidationError reports input rejected before any mutation was attempted.
func NewValidationError(message string, remediation ...string) error {
	return &ClassifiedError{Category: CategoryValidation, Message: message, Remediation: remediation}
}

// NewConfigError reports configuration content the system's own validator
// rejected, e.g. a sudoers drop-in that fails visudo.
func NewConfigError(cause error, message string, remediation ...string) error {
	return &ClassifiedError{Category: CategoryValidation, Message: message, Cause: cause, Remediation: remediation}
}

// NewActionError reports an OS call that exited non-zero.
func NewActionError(cause error, message string) error {
	return &ClassifiedError{Category: CategoryAction, Message: message, Cause: cause}
}

// NewVerificationError reports a postcondition that stayed false after the
// action reported success.
func NewVerificationError(message string, remediation ...string) error {
	return &ClassifiedError{Category: CategoryVerification, Message: message, Remediation: remediation}
}

// NewPermissionError reports missing privileges.
func NewPermissionError(message string) error {
	return &ClassifiedError{
		Category:    CategoryPermission,
		Message:     message,
		Remediation: []string{"re-run with sudo or as root"},
	}
}

// NewDownloadError reports a transport failure or non-2xx response.
func NewDownloadError(cause error, message string) error {
	return &ClassifiedError{Category: CategoryDownload, Message: message, Cause: cause}
}

// NewServiceError reports a unit that did not reach active state, carrying
// the collected diagnostics verbatim.
func NewServiceError(unit, diagnostics string) error {
	return &ClassifiedError{
		Category: CategoryService,
		Message:  fmt.Sprintf("service %s is not active", unit),
		Remediation: []string{
			fmt.Sprintf("run 'systemctl status %s'", unit),
			fmt.Sprintf("run 'journalctl -u %s -n 50'", unit),
		},
		Cause: errors.New(diagnostics),
	}
}
