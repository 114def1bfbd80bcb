// pkg/execute/execute_test.go

package execute

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	out, err := Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello"},
		Capture: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}

func TestRunDiscardsOutputWithoutCapture(t *testing.T) {
	out, err := Run(context.Background(), Options{
		Command: "echo",
		Args:    []string{"hello"},
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunReturnsErrorForMissingCommand(t *testing.T) {
	_, err := Run(context.Background(), Options{
		Command: "hostprep-no-such-binary",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostprep-no-such-binary")
}

func TestRunHonorsTimeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Options{
		Command: "sleep",
		Args:    []string{"10"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunRetries(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Options{
		Command: "false",
		Retries: 3,
		Delay:   10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRunStdin(t *testing.T) {
	out, err := Run(context.Background(), Options{
		Command: "cat",
		Stdin:   strings.NewReader("piped"),
		Capture: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "piped", out)
}

func TestRunEnv(t *testing.T) {
	out, err := Run(context.Background(), Options{
		Command: "sh",
		Args:    []string{"-c", "printf %s \"$HOSTPREP_TEST_VAR\""},
		Env:     []string{"HOSTPREP_TEST_VAR=wired"},
		Capture: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "wired", out)
}

func TestLookPath(t *testing.T) {
	assert.True(t, LookPath("sh"))
	assert.False(t, LookPath("hostprep-no-such-binary"))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", tail("a", 4))
	assert.Equal(t, "", tail("", 3))
	assert.Equal(t, "a\nb", tail("a\n\n\nb\n", 4), "blank lines are dropped")
}
