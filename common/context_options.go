package common

import (
	"errors"
	"fmt"
)

// Defaults match the "Desktop Chrome" device the suite runs on.
const (
	DefaultLocale         = "en-US"
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// ContextOptions stores the options every driver applies when it opens an
// isolated browser context.
type ContextOptions struct {
	BaseURL           string
	ExtraHTTPHeaders  map[string]string
	IgnoreHTTPSErrors bool
	Locale            string
	// StorageStatePath loads cookies and local storage from a session cache
	// entry. Empty means a fresh, unauthenticated context.
	StorageStatePath string
	UserAgent        string
	VideosPath       string
	Viewport         *Viewport
}

// Viewport is the page viewport size in CSS pixels.
type Viewport struct {
	Width  int64
	Height int64
}

// NewContextOptions creates a default set of browser context options.
func NewContextOptions() *ContextOptions {
	return &ContextOptions{
		ExtraHTTPHeaders: make(map[string]string),
		Locale:           DefaultLocale,
		Viewport:         &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
	}
}

// WithStorageState returns a copy of the options loading the given state file.
func (o *ContextOptions) WithStorageState(path string) *ContextOptions {
	c := *o
	c.StorageStatePath = path
	return &c
}

// Validate validates the browser context options.
func (o *ContextOptions) Validate() error {
	if err := o.Viewport.Validate(); err != nil {
		return fmt.Errorf("validating viewport option: %w", err)
	}
	if o.Locale == "" {
		return errors.New("locale must not be empty")
	}

	return nil
}

// Validate validates the viewport.
func (v *Viewport) Validate() error {
	if v == nil {
		return nil // driver default
	}
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf(`invalid viewport "%dx%d": precondition 0 < WIDTH, 0 < HEIGHT failed`, v.Width, v.Height)
	}

	return nil
}
