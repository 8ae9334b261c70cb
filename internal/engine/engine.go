// Package engine defines the black-box transcription callable C2 delegates
// to: something that turns an audio file into text given a model name.
// Engine-specific performance knobs (memory optimizations, precision, beam
// width) are selected internally from file size and model per §4.4 policy;
// callers only ever see Options.
package engine

import "context"

// Options carries the knobs C2 derives from file_size_mb and model_name.
type Options struct {
	FilePath               string
	Model                  string
	ConditionOnPreviousText bool
	FileSizeMB             float64
}

// Segment is one timed span of transcript text.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Result is the engine's structured transcription output.
type Result struct {
	Text             string
	Segments         []Segment
	DetectedLanguage string
	ModelUsed        string
}

// Engine is the minimal black-box contract the runner depends on.
type Engine interface {
	Transcribe(ctx context.Context, opts Options) (Result, error)
}
