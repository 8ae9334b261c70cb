// Package estimate implements the processing-time predictor (spec §4.4.1):
// media-kind classification by original filename extension and the
// estimated-duration/estimated-runtime formulas the dispatcher uses to
// render a progress bar.
package estimate

import (
	"path/filepath"
	"strings"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".ogg": true, ".m4a": true, ".flac": true,
	".aac": true, ".wma": true, ".opus": true, ".amr": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true,
	".flv": true, ".wmv": true, ".m4v": true, ".3gp": true, ".ogv": true,
}

// IsVideo classifies by the original filename's extension, never the on-disk
// path, which may have been re-muxed to a different container by the time
// the dispatcher looks at it.
func IsVideo(originalFileName string) bool {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	return videoExtensions[ext]
}

// IsMediaFile reports whether fileName's extension, compared
// case-insensitively, belongs to the known audio/video set the downloads
// watcher enrolls.
func IsMediaFile(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return audioExtensions[ext] || videoExtensions[ext]
}
