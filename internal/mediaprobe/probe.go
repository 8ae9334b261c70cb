// Package mediaprobe wraps ffprobe the way the teacher's unified
// transcription service does: shell out, parse the JSON format block, and
// fall back to a size-based heuristic when ffprobe is missing or the file is
// unreadable.
package mediaprobe

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"transflow/pkg/logger"
)

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the media file's duration per ffprobe's format.duration
// field. The bool result reports whether probing actually succeeded; callers
// fall back to the size-based heuristic in internal/estimate when it's false.
func Duration(ctx context.Context, filePath string) (time.Duration, bool) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath)

	output, err := cmd.Output()
	if err != nil {
		logger.Debug("ffprobe unavailable, falling back to size heuristic", "error", err, "file", filePath)
		return 0, false
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		logger.Debug("failed to parse ffprobe output, falling back to size heuristic", "error", err)
		return 0, false
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
