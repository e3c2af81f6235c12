// Package cdp drives Chromium over the DevTools protocol with chromedp and
// adapts it to the api capabilities.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cdptypes "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/security"
	cdpstorage "github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/browserprocess"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/common/js"
)

// LaunchOptions configure the browser process.
type LaunchOptions struct {
	Headless       bool
	ExecutablePath string
}

// Browser is a chromedp-driven Chromium.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *common.Logger
	pid         int
	regCtx      context.Context
}

var _ api.Browser = (*Browser)(nil)

// Launch starts a Chromium process owned by the returned Browser. The
// process lives until Close, independently of ctx.
func Launch(ctx context.Context, opts LaunchOptions, logger *common.Logger) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", opts.Headless))
	if opts.ExecutablePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecutablePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { logger.Debugf("cdp:chromedp", format, args...) }),
		chromedp.WithErrorf(func(format string, args ...any) { logger.Errorf("cdp:chromedp", format, args...) }),
	)

	b := &Browser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel, logger: logger, regCtx: ctx}
	if err := run(ctx, browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}
	if p := chromedp.FromContext(browserCtx).Browser.Process(); p != nil {
		b.pid = p.Pid
		browserprocess.Register(ctx, logger, p.Pid)
	}
	logger.Debugf("cdp:Launch", "pid:%d headless:%t", b.pid, opts.Headless)

	return b, nil
}

// NewContext implements api.Browser.
func (b *Browser) NewContext(ctx context.Context, opts *common.ContextOptions) (api.BrowserContext, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid context options: %w", err)
	}

	cctx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())
	if err := run(ctx, cctx); err != nil {
		cancel()
		return nil, fmt.Errorf("creating browser context: %w", err)
	}
	c := &browserContext{
		ctx:    cctx,
		cancel: cancel,
		id:     chromedp.FromContext(cctx).BrowserContextID,
		opts:   opts,
		local:  make(map[string][]api.NameValue),
		logger: b.logger,
	}
	if opts.VideosPath != "" {
		b.logger.Warnf("cdp:NewContext", "video recording is not supported by the chromedp driver")
	}
	if opts.StorageStatePath != "" {
		if err := c.loadStorageState(ctx, opts.StorageStatePath); err != nil {
			return nil, errors.Join(err, c.Close())
		}
	}

	return c, nil
}

// Close shuts the browser down.
func (b *Browser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	if b.pid != 0 {
		browserprocess.Unregister(b.regCtx, b.pid)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing chromium: %w", err)
	}
	return nil
}

type browserContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	id     cdptypes.BrowserContextID
	opts   *common.ContextOptions
	logger *common.Logger

	mu    sync.Mutex
	seed  string
	local map[string][]api.NameValue
	pages []*page
}

func (c *browserContext) AddCookies(ctx context.Context, cookies []api.Cookie) error {
	params := toCookieParams(cookies)
	return run(ctx, c.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdpstorage.SetCookies(params).WithBrowserContextID(c.id).Do(c.onBrowser(ctx))
	}))
}

func (c *browserContext) NewPage(ctx context.Context) (api.Page, error) {
	pctx, cancel := chromedp.NewContext(c.ctx)

	c.mu.Lock()
	seed := c.seed
	c.mu.Unlock()

	actions := emulate(c.opts)
	if seed != "" {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(seed).Do(ctx)
			return err
		}))
	}
	if err := run(ctx, pctx, actions...); err != nil {
		cancel()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	p := &page{ctx: pctx, cancel: cancel, bctx: c}
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()

	return p, nil
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

	var cookies []*network.Cookie
	err := run(ctx, c.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = cdpstorage.GetCookies().WithBrowserContextID(c.id).Do(c.onBrowser(ctx))
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	ss := &api.StorageState{Cookies: fromNetworkCookies(cookies), Origins: []api.Origin{}}
	c.mu.Lock()
	defer c.mu.Unlock()
	for origin, entries := range c.local {
		ss.Origins = append(ss.Origins, api.Origin{Origin: origin, LocalStorage: entries})
	}
	sortOrigins(ss.Origins)

	return ss, nil
}

func (c *browserContext) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("closing browser context: %w", err)
	}
	return nil
}

// onBrowser retargets ctx to the browser session, which owns the storage
// domain of every browser context.
func (c *browserContext) onBrowser(ctx context.Context) context.Context {
	return cdptypes.WithExecutor(ctx, chromedp.FromContext(ctx).Browser)
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
	ctx    context.Context
	cancel context.CancelFunc
	bctx   *browserContext
}

func (p *page) Goto(ctx context.Context, rawURL string) error {
	u, err := api.ResolveURL(p.bctx.opts.BaseURL, rawURL)
	if err != nil {
		return err
	}
	return run(ctx, p.ctx, chromedp.Navigate(u))
}

func (p *page) Evaluate(ctx context.Context, fn string, arg any) (any, error) {
	expr, err := evaluateExpression(fn, arg)
	if err != nil {
		return nil, err
	}
	var raw string
	if err := run(ctx, p.ctx, chromedp.Evaluate(expr, &raw, awaitPromise)); err != nil {
		return nil, err
	}
	return decodeEvaluateResult(raw)
}

func (p *page) Close() error {
	// a closed tab takes its storage with it unless the context remembers it
	serr := p.snapshot(context.Background())
	p.bctx.forget(p)
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return errors.Join(serr, fmt.Errorf("closing page: %w", err))
	}
	return serr
}

func (p *page) snapshot(ctx context.Context) error {
	var raw string
	if err := run(ctx, p.ctx, chromedp.Evaluate(js.OriginSnapshotScript, &raw)); err != nil {
		return fmt.Errorf("snapshotting local storage: %w", err)
	}
	snap, err := parseOriginSnapshot([]byte(raw))
	if err != nil {
		return err
	}
	p.bctx.remember(snap.Origin, snap.Entries)
	return nil
}

// run executes actions on target and aborts them when ctx is done. target
// must be a chromedp context; cancelling the derived context leaves the tab
// open.
func run(ctx, target context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(target)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func emulate(opts *common.ContextOptions) []chromedp.Action {
	var actions []chromedp.Action
	if v := opts.Viewport; v != nil {
		actions = append(actions, emulation.SetDeviceMetricsOverride(v.Width, v.Height, 1, false))
	}
	if opts.Locale != "" {
		actions = append(actions, emulation.SetLocaleOverride().WithLocale(opts.Locale))
	}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	if opts.IgnoreHTTPSErrors {
		actions = append(actions, security.SetIgnoreCertificateErrors(true))
	}
	if len(opts.ExtraHTTPHeaders) > 0 {
		headers := make(network.Headers, len(opts.ExtraHTTPHeaders))
		for k, v := range opts.ExtraHTTPHeaders {
			headers[k] = v
		}
		actions = append(actions, network.Enable(), network.SetExtraHTTPHeaders(headers))
	}
	return actions
}
