package estimate

import "time"

// speedFactor is the per-model real-time transcription speed (spec §4.4.1
// examples): small roughly transcribes 3 seconds of audio per second of
// wall-clock compute.
var speedFactor = map[string]float64{
	"tiny":     10.0,
	"base":     6.0,
	"small":    3.0,
	"medium":   2.0,
	"large":    1.0,
	"large-v3": 0.7,
	"turbo":    1.7,
}

// initCost is the per-model fixed startup cost in seconds (model load,
// warmup).
var initCost = map[string]float64{
	"tiny":     1,
	"base":     2,
	"small":    3,
	"medium":   6,
	"large":    10,
	"large-v3": 12,
	"turbo":    4,
}

const defaultSpeedFactor = 3.0
const defaultInitCost = 3.0

// EstimateAudioDurationSeconds falls back to the size-based heuristic when a
// media probe isn't available: 60s/MB for audio, 20-27s/MB for video (a
// video MB carries much less speech per byte than an audio MB).
func EstimateAudioDurationSeconds(fileSizeMB float64, isVideo bool) float64 {
	if isVideo {
		return fileSizeMB * 23.5 // midpoint of the 20-27 range
	}
	return fileSizeMB * 60
}

// EstimateProcessingSeconds implements estimate = ((D/f_M) * p + i_M) * 1.05.
func EstimateProcessingSeconds(durationSeconds, fileSizeMB float64, model string) time.Duration {
	f, ok := speedFactor[model]
	if !ok {
		f = defaultSpeedFactor
	}
	i, ok := initCost[model]
	if !ok {
		i = defaultInitCost
	}

	penalty := 1.0
	if fileSizeMB > 15 {
		penalty = 1 + (fileSizeMB-15)*0.015
	}

	seconds := ((durationSeconds/f)*penalty + i) * 1.05
	return time.Duration(seconds * float64(time.Second))
}

// Progress renders the same percent/bar pair as the original bot:
// percent = min(95, int(elapsed/estimated*100)), bar = filled/empty blocks
// in increments of 5%.
func Progress(elapsed, estimated time.Duration) (percent int, bar string) {
	if estimated <= 0 {
		return 0, progressBar(0)
	}
	percent = int(float64(elapsed) / float64(estimated) * 100)
	if percent > 95 {
		percent = 95
	}
	if percent < 0 {
		percent = 0
	}
	return percent, progressBar(percent)
}

func progressBar(percent int) string {
	filled := percent / 5
	empty := (100 - percent) / 5
	bar := make([]rune, 0, filled+empty)
	for i := 0; i < filled; i++ {
		bar = append(bar, '█')
	}
	for i := 0; i < empty; i++ {
		bar = append(bar, '░')
	}
	return string(bar)
}

// ShouldEmitProgressTick reproduces the original cadence check: no progress
// message before elapsed >= 30s, then roughly every 30 elapsed seconds after
// that, checked on whatever tick interval the caller polls at.
func ShouldEmitProgressTick(elapsed time.Duration) bool {
	s := int(elapsed.Seconds())
	return s > 0 && s%30 < 1
}
