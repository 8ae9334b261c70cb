// Package sanitize derives safe artifact base names from user-submitted
// filenames (spec §6).
package sanitize

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var reservedChars = map[rune]bool{
	'<': true, '>': true, ':': true, '"': true,
	'/': true, '\\': true, '|': true, '?': true, '*': true,
}

const maxBaseLen = 200

// VoiceMessageBase is the literal base name used for voice messages, which
// carry no useful filename of their own.
const VoiceMessageBase = "transcription"

// ArtifactName strips fileName's extension, replaces reserved characters
// with "_", truncates to 200 characters, and appends a
// "_{userID}_{yyyymmdd_hhmmss}" suffix so two jobs never collide on disk.
func ArtifactName(fileName string, userID int64, at time.Time) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = Clean(base)
	if runes := []rune(base); len(runes) > maxBaseLen {
		base = string(runes[:maxBaseLen])
	}
	return fmt.Sprintf("%s_%s_%s", base, strconv.FormatInt(userID, 10), at.Format("20060102_150405"))
}

// Clean replaces every reserved character with "_", leaving length and
// casing untouched.
func Clean(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if reservedChars[r] {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
