package cliengine

import (
	"testing"

	"transflow/internal/engine"

	"github.com/stretchr/testify/assert"
)

func TestEngineOptionsFavorsMemoryOverBeamWidthForLargeFiles(t *testing.T) {
	args := engineOptions(engine.Options{Model: "large-v3", FileSizeMB: 150})
	assert.Contains(t, args, "--beam-size")
	assert.Contains(t, args, "1")
	assert.Contains(t, args, "int8")
}

func TestEngineOptionsUsesWiderBeamForSmallFiles(t *testing.T) {
	args := engineOptions(engine.Options{Model: "small", FileSizeMB: 10})
	assert.Contains(t, args, "5")
	assert.Contains(t, args, "float16")
}

func TestEngineOptionsIncludesConditionFlagWhenRequested(t *testing.T) {
	args := engineOptions(engine.Options{Model: "small", FileSizeMB: 1, ConditionOnPreviousText: true})
	assert.Contains(t, args, "--condition-on-previous-text")
}
