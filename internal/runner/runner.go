// Package runner is the Transcription Runner (C2): a pure function that
// turns a file into a transcript, checking the cancellation probe at the
// three checkpoints the spec names (pre-convert, pre-invoke, post-invoke).
// It runs inside the child OS process C3 spawns, never on the dispatcher's
// own goroutine.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"transflow/internal/engine"
)

// Outcome is the tagged result variant C2 returns in place of raising
// exceptions for control flow: exactly one of Result or Cancelled is set
// when Transcribe's returned error is nil.
type Outcome struct {
	Result    *Result
	Cancelled bool
}

// Result mirrors the structured payload the spec requires from C2.
type Result struct {
	Text             string
	Segments         []engine.Segment
	DetectedLanguage string
	ModelUsed        string
	ProcessingTimeS  float64
	FileSizeMB       float64
}

// CancelledProbe is polled at each checkpoint; returning true at any of them
// aborts the run without invoking the engine further.
type CancelledProbe func() bool

// Transcribe runs the full C2 contract against an already-selected effective
// model. fileSizeMB must be computed by the caller (enqueue time), since by
// the time C2 runs the file may have been re-muxed.
func Transcribe(ctx context.Context, eng engine.Engine, filePath string, conditionOnPreviousText bool, modelName string, fileSizeMB float64, cancelled CancelledProbe) (Outcome, error) {
	info, err := os.Stat(filePath)
	if err != nil || info.Size() == 0 {
		return Outcome{}, fmt.Errorf("input file missing or empty: %s", filePath)
	}

	if cancelled() { // checkpoint 1: pre-convert
		return Outcome{Cancelled: true}, nil
	}

	if cancelled() { // checkpoint 2: pre-invoke
		return Outcome{Cancelled: true}, nil
	}

	start := time.Now()
	res, err := eng.Transcribe(ctx, engine.Options{
		FilePath:                filePath,
		Model:                   modelName,
		ConditionOnPreviousText: conditionOnPreviousText,
		FileSizeMB:              fileSizeMB,
	})
	elapsed := time.Since(start)
	if err != nil {
		return Outcome{}, err
	}

	if cancelled() { // checkpoint 3: post-invoke
		return Outcome{Cancelled: true}, nil
	}

	return Outcome{Result: &Result{
		Text:             res.Text,
		Segments:         res.Segments,
		DetectedLanguage: res.DetectedLanguage,
		ModelUsed:        res.ModelUsed,
		ProcessingTimeS:  elapsed.Seconds(),
		FileSizeMB:       fileSizeMB,
	}}, nil
}
