package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsVideoUsesOriginalExtension(t *testing.T) {
	assert.True(t, IsVideo("lecture.mp4"))
	assert.False(t, IsVideo("lecture.mp3"))
	assert.True(t, IsVideo("lecture.MOV"))
}

func TestIsMediaFile(t *testing.T) {
	assert.True(t, IsMediaFile("voice.ogg"))
	assert.True(t, IsMediaFile("clip.webm"))
	assert.False(t, IsMediaFile("notes.txt"))
}

func TestEstimateProcessingSecondsAppliesSizePenalty(t *testing.T) {
	small := EstimateProcessingSeconds(300, 10, "small")
	large := EstimateProcessingSeconds(300, 100, "small")
	assert.Greater(t, large, small)
}

func TestProgressCapsAt95(t *testing.T) {
	pct, bar := Progress(100*time.Second, 10*time.Second)
	assert.Equal(t, 95, pct)
	assert.Len(t, []rune(bar), 20)
}

func TestProgressZeroEstimate(t *testing.T) {
	pct, _ := Progress(5*time.Second, 0)
	assert.Equal(t, 0, pct)
}

func TestShouldEmitProgressTickSuppressesFirstInstant(t *testing.T) {
	assert.False(t, ShouldEmitProgressTick(0))
	assert.False(t, ShouldEmitProgressTick(500*time.Millisecond))
}

func TestShouldEmitProgressTickFiresAtThirtySecondMultiples(t *testing.T) {
	assert.True(t, ShouldEmitProgressTick(30*time.Second))
	assert.True(t, ShouldEmitProgressTick(60*time.Second))
	assert.False(t, ShouldEmitProgressTick(31*time.Second))
}
