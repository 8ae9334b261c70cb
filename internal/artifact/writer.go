// Package artifact is the minimal artifact-writer collaborator C4 hands a
// finished result to (§4.4 step 12): it writes the transcript text file
// every job produces, plus an optional SRT subtitle file when the result
// carries timed segments. Richer transcript formatting is out of scope; this
// writer exists only to satisfy the dispatcher's "paths to a transcript text
// file and an optional subtitle file" contract.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transflow/internal/childproc"
	"transflow/internal/models"
	"transflow/internal/sanitize"
)

// Writer persists a finished result under dir, naming artifacts with the
// sanitized base derived from the job's original filename.
type Writer struct {
	Dir string
}

// New builds a Writer rooted at dir (normally config.TranscriptionsDir).
func New(dir string) *Writer {
	return &Writer{Dir: dir}
}

// Write implements dispatcher.ArtifactWriter.
func (w *Writer) Write(job *models.Job, result *childproc.Result) (transcriptPath, subtitlePath string, err error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", "", fmt.Errorf("create transcriptions dir: %w", err)
	}

	base := job.FileName
	if base == "" {
		base = sanitize.VoiceMessageBase
	}
	name := sanitize.ArtifactName(base, job.UserID, time.Now())

	transcriptPath = filepath.Join(w.Dir, name+".txt")
	if err := os.WriteFile(transcriptPath, []byte(result.Text), 0644); err != nil {
		return "", "", fmt.Errorf("write transcript file: %w", err)
	}

	if len(result.Segments) == 0 {
		return transcriptPath, "", nil
	}

	subtitlePath = filepath.Join(w.Dir, name+".srt")
	if err := os.WriteFile(subtitlePath, []byte(renderSRT(result.Segments)), 0644); err != nil {
		// A missing subtitle file is not fatal to the job; the transcript
		// file alone still satisfies the "always produces the artifact
		// file" guarantee.
		return transcriptPath, "", nil
	}
	return transcriptPath, subtitlePath, nil
}

func renderSRT(segments []childproc.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, srtTimestamp(seg.Start), srtTimestamp(seg.End), strings.TrimSpace(seg.Text))
	}
	return b.String()
}

func srtTimestamp(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
