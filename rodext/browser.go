// Package rodext drives Chromium with go-rod and adapts it to the api
// capabilities.
package rodext

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/browserprocess"
	"github.com/qa-labs/ecom-e2e/common"
)

// LaunchOptions configure the browser process.
type LaunchOptions struct {
	Headless       bool
	ExecutablePath string
}

// Browser is a rod-driven Chromium.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *common.Logger
	regCtx   context.Context
}

var _ api.Browser = (*Browser)(nil)

// Launch starts a Chromium process and connects to it.
func Launch(ctx context.Context, opts LaunchOptions, logger *common.Logger) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := launcher.New().
		Headless(opts.Headless).
		Set("no-sandbox")
	if opts.ExecutablePath != "" {
		l = l.Bin(opts.ExecutablePath)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching chromium: %w", err)
	}
	browserprocess.Register(ctx, logger, l.PID())

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		browserprocess.Unregister(ctx, l.PID())
		return nil, fmt.Errorf("connecting to chromium: %w", err)
	}
	logger.Debugf("rod:Launch", "pid:%d headless:%t", l.PID(), opts.Headless)

	return &Browser{browser: b, launcher: l, logger: logger, regCtx: ctx}, nil
}

// NewContext implements api.Browser.
func (b *Browser) NewContext(ctx context.Context, opts *common.ContextOptions) (api.BrowserContext, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context options: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inc, err := b.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	c := &browserContext{
		browser: inc,
		opts:    opts,
		local:   make(map[string][]api.NameValue),
	}
	if opts.VideosPath != "" {
		b.logger.Warnf("rod:NewContext", "video recording is not supported by the rod driver")
	}
	if opts.StorageStatePath != "" {
		if err := c.loadStorageState(ctx, opts.StorageStatePath); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}

	return c, nil
}

// Close closes the browser and cleans up its user data dir.
func (b *Browser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	browserprocess.Unregister(b.regCtx, b.launcher.PID())
	if err != nil {
		return fmt.Errorf("closing chromium: %w", err)
	}
	return nil
}

type browserContext struct {
	browser *rod.Browser
	opts    *common.ContextOptions

	mu    sync.Mutex
	seed  string
	local map[string][]api.NameValue
	pages []*page
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []api.Cookie) error {
	return c.browser.Context(ctx).SetCookies(toCookieParams(cookies))
}

func (c *browserContext) NewPage(ctx context.Context) (api.Page, error) {
	rp, err := c.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}

	c.mu.Lock()
	seed := c.seed
	c.mu.Unlock()

	if err := c.emulate(rp, seed); err != nil {
		return nil, errors.Join(fmt.Errorf("preparing page: %w", err), rp.Close())
	}

	p := &page{page: rp, bctx: c}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()

	return p, nil
}

func (c *browserContext) emulate(p *rod.Page, seed string) error {
	o := c.opts
	if v := o.Viewport; v != nil {
		err := proto.EmulationSetDeviceMetricsOverride{
			Width: int(v.Width), Height: int(v.Height), DeviceScaleFactor: 1,
		}.Call(p)
		if err != nil {
			return err
		}
	}
	if o.Locale != "" {
		if err := (proto.EmulationSetLocaleOverride{Locale: o.Locale}).Call(p); err != nil {
			return err
		}
	}
	if o.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: o.UserAgent}); err != nil {
			return err
		}
	}
	if o.IgnoreHTTPSErrors {
		if err := (proto.SecuritySetIgnoreCertificateErrors{Ignore: true}).Call(p); err != nil {
			return err
		}
	}
	if len(o.ExtraHTTPHeaders) > 0 {
		if _, err := p.SetExtraHeaders(flattenHeaders(o.ExtraHTTPHeaders)); err != nil {
			return err
		}
	}
	if seed != "" {
		if _, err := p.EvalOnNewDocument(seed); err != nil {
			return err
		}
	}
	return nil
}

func (c *browserContext) StorageState(ctx context.Context) (*api.StorageState, error) {
	c.mu.Lock()
	open := append([]*page(nil), c.pages...)
	c.mu.Unlock()
	for _, p := range open {
		if err := p.snapshot(ctx); err != nil {
			return nil, err
		}
	}

	cookies, err := c.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	ss := &api.StorageState{Cookies: fromNetworkCookies(cookies), Origins: []api.Origin{}}
	c.mu.Lock()
	defer c.mu.Unlock()
	for origin, entries := range c.local {
		ss.Origins = append(ss.Origins, api.Origin{Origin: origin, LocalStorage: entries})
	}
	sort.Slice(ss.Origins, func(i, j int) bool { return ss.Origins[i].Origin < ss.Origins[j].Origin })

	return ss, nil
}

// Close disposes the incognito browser context with its pages.
func (c *browserContext) Close() error {
	if err := c.browser.Close(); err != nil {
		return fmt.Errorf("closing browser context: %w", err)
	}
	return nil
}

func (c *browserContext) loadStorageState(ctx context.Context, path string) error {
	ss, err := api.ReadStorageState(path)
	if err != nil {
		return err
	}
	if len(ss.Cookies) > 0 {
		if err := c.AddCookies(ctx, ss.Cookies); err != nil {
			return fmt.Errorf("restoring cookies: %w", err)
		}
	}
	seed, err := api.LocalStorageSeedScript(ss.Origins)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed = seed
	for _, o := range ss.Origins {
		c.local[o.Origin] = o.LocalStorage
	}
	return nil
}

func (c *browserContext) remember(origin string, entries []api.NameValue) {
	if origin == "" || origin == "null" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local[origin] = entries
}

func (c *browserContext) forget(p *page) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, q := range c.pages {
		if q == p {
			c.pages = append(c.pages[:i], c.pages[i+1:]...)
			return
		}
	}
}

type page struct {
	page *rod.Page
	bctx *browserContext
}

func (p *page) Goto(ctx context.Context, rawURL string) error {
	u, err := api.ResolveURL(p.bctx.opts.BaseURL, rawURL)
	if err != nil {
		return err
	}
	rp := p.page.Context(ctx)
	if err := rp.Navigate(u); err != nil {
		return fmt.Errorf("navigating to %q: %w", u, err)
	}
	return rp.WaitLoad()
}

func (p *page) Evaluate(ctx context.Context, fn string, arg any) (any, error) {
	res, err := p.page.Context(ctx).Eval(fn, arg)
	if err != nil {
		return nil, err
	}
	return res.Value.Val(), nil
}

func (p *page) Close() error {
	serr := p.snapshot(context.Background())
	p.bctx.forget(p)
	if err := p.page.Close(); err != nil {
		return errors.Join(serr, fmt.Errorf("closing page: %w", err))
	}
	return serr
}

func (p *page) snapshot(ctx context.Context) error {
	rp := p.page.Context(ctx)
	origin, err := rp.Eval(originScript)
	if err != nil {
		return fmt.Errorf("reading page origin: %w", err)
	}
	if o := origin.Value.Str(); o == "" || o == "null" {
		return nil
	}
	res, err := rp.Eval(api.LocalStorageSnapshotScript)
	if err != nil {
		return fmt.Errorf("snapshotting local storage: %w", err)
	}
	entries, err := api.ParseLocalStorageSnapshot(res.Value.Str())
	if err != nil {
		return err
	}
	p.bctx.remember(origin.Value.Str(), entries)
	return nil
}

const originScript = `() => window.location.origin`

func flattenHeaders(h map[string]string) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, 2*len(h))
	for _, k := range keys {
		out = append(out, k, h[k])
	}
	return out
}
