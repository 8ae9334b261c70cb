// Package cliengine invokes the actual speech-to-text engine as a
// subprocess through the teacher's "uv run" launcher pattern, the same way
// its WhisperX adapter shells out and then reads a JSON result file back.
package cliengine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"transflow/internal/engine"
)

// engineOptions selects beam width, precision and memory-optimization flags
// from file size and model, the part of §4.4 that's internal to the engine
// rather than the dispatcher's model-selection policy.
func engineOptions(opts engine.Options) []string {
	args := []string{"--model", opts.Model}
	if opts.ConditionOnPreviousText {
		args = append(args, "--condition-on-previous-text")
	}
	if opts.FileSizeMB > 100 {
		// Large inputs: favor memory over beam width.
		args = append(args, "--beam-size", "1", "--compute-type", "int8")
	} else {
		args = append(args, "--beam-size", "5", "--compute-type", "float16")
	}
	return args
}

type resultFile struct {
	Text             string `json:"text"`
	DetectedLanguage string `json:"language"`
	Segments         []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// CLIEngine shells out to launcherPath (normally "uv") to run the bundled
// transcription project.
type CLIEngine struct {
	LauncherPath string
	ProjectPath  string
}

// New builds a CLIEngine that launches via launcherPath, running the Python
// project at projectPath.
func New(launcherPath, projectPath string) *CLIEngine {
	return &CLIEngine{LauncherPath: launcherPath, ProjectPath: projectPath}
}

func (e *CLIEngine) Transcribe(ctx context.Context, opts engine.Options) (engine.Result, error) {
	outputDir, err := os.MkdirTemp("", "transflow-engine-*")
	if err != nil {
		return engine.Result{}, fmt.Errorf("create engine output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	resultPath := filepath.Join(outputDir, "result.json")
	args := append([]string{
		"run", "--project", e.ProjectPath, "transcribe",
		"--input", opts.FilePath,
		"--output", resultPath,
	}, engineOptions(opts)...)

	cmd := exec.CommandContext(ctx, e.LauncherPath, args...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")

	output, err := cmd.CombinedOutput()
	if err != nil {
		return engine.Result{}, fmt.Errorf("engine execution failed: %w (output: %s)", err, string(output))
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return engine.Result{}, fmt.Errorf("read engine result: %w", err)
	}

	var parsed resultFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return engine.Result{}, fmt.Errorf("parse engine result: %w", err)
	}

	segments := make([]engine.Segment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		segments = append(segments, engine.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	return engine.Result{
		Text:             parsed.Text,
		Segments:         segments,
		DetectedLanguage: parsed.DetectedLanguage,
		ModelUsed:        opts.Model,
	}, nil
}
