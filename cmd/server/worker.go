package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"transflow/internal/childproc"
	"transflow/internal/config"
	"transflow/internal/database"
	"transflow/internal/engine/cliengine"
	"transflow/internal/queue"
	"transflow/internal/runner"

	"gorm.io/gorm"
)

// runWorker is the re-exec'd child entrypoint (C2 running inside C3). It
// decodes its job arguments from the environment, runs the transcription,
// and writes exactly one JSON outcome line to stdout before exiting. A
// non-zero exit with stderr detail is the only other signal the parent
// process looks at.
func runWorker(raw string) {
	var args childproc.Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		fmt.Fprintf(os.Stderr, "decode worker args: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := database.Initialize(cfg.DatabasePath); err != nil {
		fmt.Fprintf(os.Stderr, "open store for cancellation probe: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	store := queue.New(database.DB)
	eng := cliengine.New(cfg.EnginePath, os.Getenv("ENGINE_PROJECT_PATH"))

	fileSizeMB := fileSizeMB(database.DB, args.JobID)

	cancelled := func() bool {
		isCancelled, err := store.IsCancelled(args.JobID)
		return err == nil && isCancelled
	}

	ctx, cancel := context.WithTimeout(context.Background(), 6*time.Hour)
	defer cancel()

	outcome, err := runner.Transcribe(ctx, eng, args.FilePath, args.ConditionOnPreviousText, args.Model, fileSizeMB, cancelled)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcription failed: %v\n", err)
		os.Exit(1)
	}

	if outcome.Cancelled {
		if err := childproc.EmitCancelled(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "emit cancellation: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	segments := make([]childproc.Segment, 0, len(outcome.Result.Segments))
	for _, s := range outcome.Result.Segments {
		segments = append(segments, childproc.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	if err := childproc.EmitResult(os.Stdout, &childproc.Result{
		Text:             outcome.Result.Text,
		Segments:         segments,
		DetectedLanguage: outcome.Result.DetectedLanguage,
		ModelUsed:        outcome.Result.ModelUsed,
		ProcessingTimeS:  outcome.Result.ProcessingTimeS,
		FileSizeMB:       outcome.Result.FileSizeMB,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "emit result: %v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

// fileSizeMB re-reads the job row for the size recorded at enqueue time,
// since the child has no other way to recover it.
func fileSizeMB(db *gorm.DB, jobID uint) float64 {
	var size float64
	db.Table("jobs").Select("file_size_mb").Where("id = ?", jobID).Scan(&size)
	return size
}
