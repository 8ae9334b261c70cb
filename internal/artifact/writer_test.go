package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"transflow/internal/childproc"
	"transflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteProducesTranscriptAndSubtitle(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)

	job := &models.Job{UserID: 7, FileName: "lecture.mp3"}
	result := &childproc.Result{
		Text: "hello world",
		Segments: []childproc.Segment{
			{Start: 0, End: 1.2, Text: "hello world"},
		},
	}

	transcriptPath, subtitlePath, err := w.Write(job, result)
	require.NoError(t, err)
	require.NotEmpty(t, transcriptPath)
	require.NotEmpty(t, subtitlePath)

	data, err := os.ReadFile(transcriptPath)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	srt, err := os.ReadFile(subtitlePath)
	require.NoError(t, err)
	assert.Contains(t, string(srt), "00:00:00,000 --> 00:00:01,200")

	assert.Equal(t, filepath.Dir(transcriptPath), dir)
}

func TestWriteWithoutSegmentsSkipsSubtitle(t *testing.T) {
	dir := t.TempDir()
	w := New(dir)
	job := &models.Job{UserID: 1, FileName: "voice.ogg"}
	result := &childproc.Result{Text: "hi"}

	transcriptPath, subtitlePath, err := w.Write(job, result)
	require.NoError(t, err)
	assert.NotEmpty(t, transcriptPath)
	assert.Empty(t, subtitlePath)
}
