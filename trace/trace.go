// Package trace decides when Playwright tracing runs for a spec attempt and
// writes the resulting archives.
package trace

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/qa-labs/ecom-e2e/common"
)

// Mode is a TRACE value.
type Mode string

const (
	Off          Mode = "off"
	On           Mode = "on"
	OnFirstRetry Mode = "on-first-retry"
)

var modeToID = map[string]Mode{ //nolint:gochecknoglobals
	"off":            Off,
	"on":             On,
	"on-first-retry": OnFirstRetry,
}

// ParseMode parses a TRACE value.
func ParseMode(s string) (Mode, error) {
	m, ok := modeToID[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("invalid trace mode %q: want off, on or on-first-retry", s)
	}
	return m, nil
}

// Enabled reports whether the given attempt, starting at 1, is traced.
func (m Mode) Enabled(attempt int) bool {
	switch m {
	case On:
		return true
	case OnFirstRetry:
		return attempt == 2
	default:
		return false
	}
}

// Tracer records a Playwright trace of one spec attempt.
type Tracer struct {
	logger  *common.Logger
	tracing playwright.Tracing
	path    string
	active  bool
}

// Start begins tracing bctx when mode enables the attempt. The archive is
// written to <outputDir>/<slug of name>/trace-<attempt>.zip on Stop.
func Start(logger *common.Logger, mode Mode, bctx playwright.BrowserContext, outputDir, name string, attempt int) (*Tracer, error) {
	t := &Tracer{
		logger: logger,
		path:   filepath.Join(outputDir, common.ArtifactSlug(name), fmt.Sprintf("trace-%d.zip", attempt)),
	}
	if !mode.Enabled(attempt) {
		return t, nil
	}

	t.tracing = bctx.Tracing()
	if err := t.tracing.Start(playwright.TracingStartOptions{
		Name:        playwright.String(common.ArtifactSlug(name)),
		Title:       playwright.String(name),
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	}); err != nil {
		return nil, fmt.Errorf("starting trace of %q: %w", name, err)
	}
	t.active = true
	logger.Debugf("trace:Start", "name:%q attempt:%d", name, attempt)

	return t, nil
}

// Active reports whether a trace is being recorded.
func (t *Tracer) Active() bool { return t != nil && t.active }

// Stop ends tracing and writes the archive. It returns the archive path, or ""
// when nothing was recorded.
func (t *Tracer) Stop() (string, error) {
	if !t.Active() {
		return "", nil
	}
	t.active = false
	if err := t.tracing.Stop(t.path); err != nil {
		return "", fmt.Errorf("writing trace %q: %w", t.path, err)
	}
	t.logger.Debugf("trace:Stop", "path:%q", t.path)
	return t.path, nil
}
