package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"transflow/internal/engine"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	result engine.Result
	err    error
	calls  int
}

func (f *fakeEngine) Transcribe(ctx context.Context, opts engine.Options) (engine.Result, error) {
	f.calls++
	return f.result, f.err
}

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.mp3")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestTranscribeReturnsEngineResultUnaltered(t *testing.T) {
	path := writeTempFile(t, "fake audio bytes")
	want := engine.Result{
		Text:             "hello world",
		DetectedLanguage: "en",
		ModelUsed:        "small",
		Segments: []engine.Segment{
			{Start: 0, End: 1.5, Text: "hello"},
			{Start: 1.5, End: 2.5, Text: "world"},
		},
	}
	eng := &fakeEngine{result: want}

	outcome, err := Transcribe(context.Background(), eng, path, true, "small", 4.2, func() bool { return false })
	require.NoError(t, err)
	require.NotNil(t, outcome.Result)
	assert.False(t, outcome.Cancelled)

	if diff := cmp.Diff(want.Segments, outcome.Result.Segments,
		cmp.Comparer(func(a, b engine.Segment) bool { return a == b })); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, want.Text, outcome.Result.Text)
	assert.Equal(t, 4.2, outcome.Result.FileSizeMB)
}

func TestTranscribeStopsAtCheckpointBeforeInvokingEngine(t *testing.T) {
	path := writeTempFile(t, "fake audio bytes")
	eng := &fakeEngine{result: engine.Result{Text: "should not appear"}}

	outcome, err := Transcribe(context.Background(), eng, path, false, "small", 1.0, func() bool { return true })
	require.NoError(t, err)
	assert.True(t, outcome.Cancelled)
	assert.Nil(t, outcome.Result)
	assert.Equal(t, 0, eng.calls)
}

func TestTranscribeFailsOnMissingFile(t *testing.T) {
	eng := &fakeEngine{}
	_, err := Transcribe(context.Background(), eng, "/nonexistent/gone.mp3", false, "small", 1.0, func() bool { return false })
	assert.Error(t, err)
}
