// Package chromium launches Chromium through Playwright and adapts it to the
// api capabilities.
package chromium

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
)

// LaunchOptions configure the browser process.
type LaunchOptions struct {
	Headless bool
	// ExecutablePath runs a system Chrome instead of the bundled Chromium.
	ExecutablePath string
	// Install downloads the driver and Chromium before launching.
	Install bool
}

// Browser is a Playwright-driven Chromium.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	logger  *common.Logger
}

var _ api.Browser = (*Browser)(nil)

// Launch starts the Playwright driver and a Chromium instance.
func Launch(ctx context.Context, opts LaunchOptions, logger *common.Logger) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Install {
		logger.Infof("chromium:Launch", "installing playwright driver and chromium")
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("installing playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)}
	if opts.ExecutablePath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecutablePath)
	}
	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("launching chromium: %w", err), pw.Stop())
	}
	logger.Debugf("chromium:Launch", "version:%s headless:%t", b.Version(), opts.Headless)

	return &Browser{pw: pw, browser: b, logger: logger}, nil
}

// Playwright exposes the underlying browser for page objects.
func (b *Browser) Playwright() playwright.Browser { return b.browser }

// NewPlaywrightContext opens a context with the full Playwright API.
func (b *Browser) NewPlaywrightContext(opts *common.ContextOptions) (playwright.BrowserContext, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context options: %w", err)
	}
	bctx, err := b.browser.NewContext(ContextOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	return bctx, nil
}

// NewContext implements api.Browser.
func (b *Browser) NewContext(ctx context.Context, opts *common.ContextOptions) (api.BrowserContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bctx, err := b.NewPlaywrightContext(opts)
	if err != nil {
		return nil, err
	}
	return &browserContext{bctx: bctx}, nil
}

// Close closes the browser and stops the driver.
func (b *Browser) Close() error {
	var errs []error
	if err := b.browser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing chromium: %w", err))
	}
	if err := b.pw.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
	}
	return errors.Join(errs...)
}

// ContextOptions converts options to their Playwright form.
func ContextOptions(opts *common.ContextOptions) playwright.BrowserNewContextOptions {
	o := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.BaseURL != "" {
		o.BaseURL = playwright.String(opts.BaseURL)
	}
	if len(opts.ExtraHTTPHeaders) > 0 {
		o.ExtraHttpHeaders = opts.ExtraHTTPHeaders
	}
	if opts.Locale != "" {
		o.Locale = playwright.String(opts.Locale)
	}
	if opts.UserAgent != "" {
		o.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.StorageStatePath != "" {
		o.StorageStatePath = playwright.String(opts.StorageStatePath)
	}
	if opts.Viewport != nil {
		o.Viewport = &playwright.Size{Width: int(opts.Viewport.Width), Height: int(opts.Viewport.Height)}
	}
	if opts.VideosPath != "" {
		o.RecordVideo = &playwright.RecordVideo{Dir: opts.VideosPath}
		if o.Viewport != nil {
			o.RecordVideo.Size = &playwright.Size{Width: o.Viewport.Width, Height: o.Viewport.Height}
		}
	}
	return o
}

type browserContext struct {
	bctx playwright.BrowserContext
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []api.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.bctx.AddCookies(toOptionalCookies(cookies))
}

func (c *browserContext) NewPage(ctx context.Context) (api.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := c.bctx.NewPage()
	if err != nil {
		return nil, err
	}
	return &page{page: p}, nil
}

func (c *browserContext) StorageState(ctx context.Context) (*api.StorageState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ss, err := c.bctx.StorageState()
	if err != nil {
		return nil, err
	}
	return fromStorageState(ss), nil
}

func (c *browserContext) Close() error { return c.bctx.Close() }

type page struct {
	page playwright.Page
}

func (p *page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded})
	return err
}

func (p *page) Evaluate(ctx context.Context, fn string, arg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Evaluate(fn, arg)
}

func (p *page) Close() error { return p.page.Close() }

func toOptionalCookies(cookies []api.Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
			SameSite: sameSite(c.SameSite),
		}
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		out = append(out, oc)
	}
	return out
}

func sameSite(s string) *playwright.SameSiteAttribute {
	switch s {
	case "Strict":
		return playwright.SameSiteAttributeStrict
	case "None":
		return playwright.SameSiteAttributeNone
	default:
		return playwright.SameSiteAttributeLax
	}
}

func fromStorageState(ss *playwright.StorageState) *api.StorageState {
	out := &api.StorageState{
		Cookies: make([]api.Cookie, 0, len(ss.Cookies)),
		Origins: make([]api.Origin, 0, len(ss.Origins)),
	}
	for _, c := range ss.Cookies {
		ac := api.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: "Lax",
		}
		if c.SameSite != nil {
			ac.SameSite = string(*c.SameSite)
		}
		out.Cookies = append(out.Cookies, ac)
	}
	for _, o := range ss.Origins {
		ao := api.Origin{Origin: o.Origin, LocalStorage: make([]api.NameValue, 0, len(o.LocalStorage))}
		for _, nv := range o.LocalStorage {
			ao.LocalStorage = append(ao.LocalStorage, api.NameValue{Name: nv.Name, Value: nv.Value})
		}
		out.Origins = append(out.Origins, ao)
	}
	return out
}
