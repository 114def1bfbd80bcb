// pkg/execute/execute.go

// Package execute runs external commands with structured logging. Shell
// interpretation is never used; arguments go straight to the process.
package execute

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/probitlabs/hostprep/pkg/telemetry"
	cerr "github.com/cockroachdb/errors"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Options configures a single command invocation.
type Options struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // appended to the parent environment
	Stdin   io.Reader
	Capture bool          // return combined output to the caller
	// Sensitive suppresses argument logging; only the command name appears
	// in logs and spans. Use when arguments embed secret material.
	Sensitive bool
	Timeout time.Duration // defaults to 30s
	Retries int           // total attempts; defaults to 1
	Delay   time.Duration // sleep between attempts
}

// Run executes a command under a context timeout, capturing combined output.
func Run(ctx context.Context, opts Options) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := otelzap.Ctx(ctx)
	cmdStr := opts.Command + " " + strings.Join(opts.Args, " ")
	if opts.Sensitive {
		cmdStr = opts.Command + " [redacted]"
	}

	runCtx, cancel := context.WithTimeout(ctx, defaultTimeout(opts.Timeout))
	defer cancel()

	runCtx, span := telemetry.Start(runCtx, "execute.Run")
	defer span.End()
	span.SetAttributes(attribute.String("command", opts.Command))
	if !opts.Sensitive {
		span.SetAttributes(attribute.String("args", strings.Join(opts.Args, " ")))
	}

	attempts := max(1, opts.Retries)

	var output string
	var err error
	for i := 1; i <= attempts; i++ {
		cmd := exec.CommandContext(runCtx, opts.Command, opts.Args...)
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if opts.Stdin != nil {
			cmd.Stdin = opts.Stdin
		}
		if len(opts.Env) > 0 {
			cmd.Env = append(os.Environ(), opts.Env...)
		}

		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf

		err = cmd.Run()
		output = buf.String()

		if err == nil {
			logger.Debug("Execution succeeded", zap.String("command", cmdStr))
			break
		}

		span.RecordError(err)
		outSummary := tail(output, 4)
		if opts.Sensitive {
			outSummary = "[redacted]"
		}
		logger.Warn("Execution failed",
			zap.Int("attempt", i),
			zap.String("command", cmdStr),
			zap.String("output", outSummary),
			zap.Error(err))

		if i < attempts {
			time.Sleep(opts.Delay)
		}
	}

	if err != nil {
		return output, cerr.Wrapf(err, "command %q failed after %d attempt(s)", opts.Command, attempts)
	}
	if opts.Capture {
		return output, nil
	}
	return "", nil
}

// RunSimple executes a command and discards its output.
func RunSimple(ctx context.Context, command string, args ...string) error {
	_, err := Run(ctx, Options{Command: command, Args: args})
	return err
}

// LookPath reports whether a binary is resolvable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func defaultTimeout(t time.Duration) time.Duration {
	if t > 0 {
		return t
	}
	return 30 * time.Second
}

// tail returns the last n non-empty lines of s, for diagnostic summaries.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}
