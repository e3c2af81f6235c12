package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ScreenshotMode decides when a spec's final page state is captured.
type ScreenshotMode string

const (
	ScreenshotOff           ScreenshotMode = "off"
	ScreenshotOn            ScreenshotMode = "on"
	ScreenshotOnlyOnFailure ScreenshotMode = "only-on-failure"
)

var screenshotModeToID = map[string]ScreenshotMode{ //nolint:gochecknoglobals
	"off":             ScreenshotOff,
	"on":              ScreenshotOn,
	"only-on-failure": ScreenshotOnlyOnFailure,
}

// ParseScreenshotMode parses a SCREENSHOT value.
func ParseScreenshotMode(s string) (ScreenshotMode, error) {
	m, ok := screenshotModeToID[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid screenshot mode %q: want off, on or only-on-failure", s)
	}
	return m, nil
}

// ShouldCapture reports whether a spec with the given outcome gets a screenshot.
func (m ScreenshotMode) ShouldCapture(failed bool) bool {
	switch m {
	case ScreenshotOn:
		return true
	case ScreenshotOnlyOnFailure:
		return failed
	default:
		return false
	}
}

// ScreenshotPersister defines the interface for persisting a screenshot.
type ScreenshotPersister interface {
	Persist(ctx context.Context, path string, data io.Reader) (err error)
}

// Screenshotter writes end-of-spec screenshots under dir according to mode.
type Screenshotter struct {
	ctx       context.Context
	logger    *Logger
	mode      ScreenshotMode
	dir       string
	persister ScreenshotPersister
}

func NewScreenshotter(ctx context.Context, logger *Logger, mode ScreenshotMode, dir string, persister ScreenshotPersister) *Screenshotter {
	return &Screenshotter{
		ctx:       ctx,
		logger:    logger,
		mode:      mode,
		dir:       dir,
		persister: persister,
	}
}

// Capture takes a screenshot through shoot when the mode asks for one and
// persists it. It returns the written path, or "" when nothing was captured.
func (s *Screenshotter) Capture(name string, failed bool, shoot func() ([]byte, error)) (string, error) {
	if !s.mode.ShouldCapture(failed) {
		return "", nil
	}

	buf, err := shoot()
	if err != nil {
		return "", errors.Wrapf(err, "capturing screenshot of %q", name)
	}

	path := s.Path(name, failed)
	if err := s.persister.Persist(s.ctx, path, bytes.NewReader(buf)); err != nil {
		return "", errors.Wrapf(err, "saving screenshot of %q", name)
	}
	s.logger.Debugf("Screenshotter:Capture", "name:%q path:%q failed:%t", name, path, failed)

	return path, nil
}

// Path is where the screenshot of the named spec is written.
func (s *Screenshotter) Path(name string, failed bool) string {
	suffix := "finished"
	if failed {
		suffix = "failed"
	}
	return filepath.Join(s.dir, ArtifactSlug(name), "test-"+suffix+".png")
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// ArtifactSlug turns a spec name into a directory name safe on every OS.
func ArtifactSlug(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		return "unnamed"
	}
	const maxLen = 80
	if len(slug) > maxLen {
		slug = strings.TrimRight(slug[:maxLen], "-")
	}
	return slug
}
