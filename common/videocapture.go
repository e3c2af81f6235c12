package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// VideoMode decides whether a spec's recording is made and kept.
type VideoMode string

// Valid video modes.
const (
	VideoOff             VideoMode = "off"
	VideoOn              VideoMode = "on"
	VideoRetainOnFailure VideoMode = "retain-on-failure"
)

var videoModeToID = map[string]VideoMode{ //nolint:gochecknoglobals
	"off":               VideoOff,
	"on":                VideoOn,
	"retain-on-failure": VideoRetainOnFailure,
}

// ParseVideoMode parses a VIDEO value.
func ParseVideoMode(s string) (VideoMode, error) {
	m, ok := videoModeToID[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid video mode %q: want off, on or retain-on-failure", s)
	}
	return m, nil
}

// Records reports whether pages are recorded at all.
func (m VideoMode) Records() bool { return m == VideoOn || m == VideoRetainOnFailure }

// Keeps reports whether a recording survives a spec with the given outcome.
func (m VideoMode) Keeps(failed bool) bool {
	switch m {
	case VideoOn:
		return true
	case VideoRetainOnFailure:
		return failed
	default:
		return false
	}
}

// VideoCapture applies a VideoMode to the recordings of one spec.
type VideoCapture struct {
	logger *Logger
	mode   VideoMode
	dir    string
}

// NewVideoCapture returns a VideoCapture recording under
// <outputDir>/<slug of name>/videos.
func NewVideoCapture(logger *Logger, mode VideoMode, outputDir, name string) *VideoCapture {
	return &VideoCapture{
		logger: logger,
		mode:   mode,
		dir:    filepath.Join(outputDir, ArtifactSlug(name), "videos"),
	}
}

// Dir is the directory the browser should record into, or "" when recording
// is off.
func (v *VideoCapture) Dir() string {
	if !v.mode.Records() {
		return ""
	}
	return v.dir
}

// Finish removes the recordings unless the mode keeps them for this outcome.
func (v *VideoCapture) Finish(failed bool) error {
	if !v.mode.Records() || v.mode.Keeps(failed) {
		return nil
	}
	err := os.RemoveAll(v.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing video directory %q: %w", v.dir, err)
	}
	v.logger.Debugf("VideoCapture:Finish", "discarded recordings in %q", v.dir)
	return nil
}
