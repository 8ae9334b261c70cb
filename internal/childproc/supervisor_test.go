package childproc

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain re-execs this same test binary as the "child" under a dedicated
// env var, the same self-exec trick the production worker mode uses — a
// standard pattern for testing code that shells out to itself (see the
// TestHelperProcess convention in the standard library's os/exec tests).
// Start() copies the parent's environment into the child, so setting these
// vars with os.Setenv before calling Start is enough; no special argv is
// needed since TestMain intercepts before the normal test runner takes over.
func TestMain(m *testing.M) {
	if os.Getenv("CHILDPROC_TEST_HELPER") == "1" {
		runHelperProcess()
		return
	}
	os.Exit(m.Run())
}

func runHelperProcess() {
	switch os.Getenv("CHILDPROC_TEST_MODE") {
	case "success":
		_ = EmitResult(os.Stdout, &Result{Text: "hello", ModelUsed: "small"})
		os.Exit(0)
	case "cancelled":
		_ = EmitCancelled(os.Stdout)
		os.Exit(0)
	case "failure":
		os.Stderr.WriteString("boom\n")
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	default:
		os.Exit(2)
	}
}

func startHelper(t *testing.T, mode string) *Handle {
	t.Helper()
	self, err := os.Executable()
	require.NoError(t, err)

	t.Setenv("CHILDPROC_TEST_HELPER", "1")
	t.Setenv("CHILDPROC_TEST_MODE", mode)

	h, err := Start(context.Background(), self, Args{FilePath: "irrelevant", Model: "small"})
	require.NoError(t, err)
	return h
}

func TestStartAndAwaitSuccessResult(t *testing.T) {
	h := startHelper(t, "success")
	result, err := h.AwaitResult()
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, "small", result.ModelUsed)
}

func TestStartAndAwaitCancelled(t *testing.T) {
	h := startHelper(t, "cancelled")
	result, err := h.AwaitResult()
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, Cancelled, h.Poll())
}

func TestStartAndAwaitFailure(t *testing.T) {
	h := startHelper(t, "failure")
	_, err := h.AwaitResult()
	assert.Error(t, err)
	assert.Equal(t, Exited, h.Poll())
}

func TestKillStopsHangingChild(t *testing.T) {
	h := startHelper(t, "hang")
	assert.Equal(t, Running, h.Poll())

	h.Kill()
	assert.NotEqual(t, Running, h.Poll())
}
