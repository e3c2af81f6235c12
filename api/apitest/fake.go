// Package apitest provides an in-memory api.Browser for tests.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"sync"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
)

// ErrClosed is returned by operations on a closed context or page.
var ErrClosed = errors.New("target closed")

// Browser is a fake api.Browser. Its contexts keep cookies and per-origin
// local storage in memory. Evaluate treats a map[string]string argument as
// local storage writes for the page's origin and answers
// api.LocalStorageSnapshotScript; every other script returns nil.
//
// Fail injects errors by method name: "NewContext", "AddCookies", "NewPage",
// "Goto", "Evaluate", "StorageState", "ClosePage" or "CloseContext".
type Browser struct {
	mu       sync.Mutex
	contexts []*Context
	closed   bool

	Fail map[string]error
}

// NewBrowser returns an empty fake browser.
func NewBrowser() *Browser {
	return &Browser{Fail: make(map[string]error)}
}

func (b *Browser) fail(method string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Fail[method]
}

// NewContext opens a context, seeded from opts.StorageStatePath when set.
func (b *Browser) NewContext(_ context.Context, opts *common.ContextOptions) (api.BrowserContext, error) {
	if err := b.fail("NewContext"); err != nil {
		return nil, err
	}
	c := &Context{browser: b, local: make(map[string]map[string]string)}
	if opts != nil {
		c.Options = *opts
	}
	if opts != nil && opts.StorageStatePath != "" {
		raw, err := os.ReadFile(opts.StorageStatePath)
		if err != nil {
			return nil, fmt.Errorf("reading storage state: %w", err)
		}
		var ss api.StorageState
		if err := json.Unmarshal(raw, &ss); err != nil {
			return nil, fmt.Errorf("decoding storage state: %w", err)
		}
		c.cookies = append(c.cookies, ss.Cookies...)
		for _, o := range ss.Origins {
			for _, nv := range o.LocalStorage {
				c.setLocal(o.Origin, nv.Name, nv.Value)
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.contexts = append(b.contexts, c)
	return c, nil
}

// Close closes the browser.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Contexts returns every context opened so far.
func (b *Browser) Contexts() []*Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Context(nil), b.contexts...)
}

// Context is a fake api.BrowserContext.
type Context struct {
	browser *Browser
	Options common.ContextOptions

	mu      sync.Mutex
	cookies []api.Cookie
	local   map[string]map[string]string
	pages   []*Page
	closed  bool
}

func (c *Context) setLocal(origin, key, value string) {
	if c.local[origin] == nil {
		c.local[origin] = make(map[string]string)
	}
	c.local[origin][key] = value
}

// AddCookies adds cookies to the context.
func (c *Context) AddCookies(_ context.Context, cookies []api.Cookie) error {
	if err := c.browser.fail("AddCookies"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.cookies = append(c.cookies, cookies...)
	return nil
}

// NewPage opens a blank page.
func (c *Context) NewPage(_ context.Context) (api.Page, error) {
	if err := c.browser.fail("NewPage"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	p := &Page{context: c}
	c.pages = append(c.pages, p)
	return p, nil
}

// StorageState returns the cookies and local storage, origins sorted.
func (c *Context) StorageState(_ context.Context) (*api.StorageState, error) {
	if err := c.browser.fail("StorageState"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	ss := &api.StorageState{
		Cookies: append([]api.Cookie{}, c.cookies...),
		Origins: []api.Origin{},
	}
	origins := make([]string, 0, len(c.local))
	for o := range c.local {
		origins = append(origins, o)
	}
	sort.Strings(origins)
	for _, o := range origins {
		keys := make([]string, 0, len(c.local[o]))
		for k := range c.local[o] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ss.SetLocalStorage(o, k, c.local[o][k])
		}
	}
	return ss, nil
}

// Close closes the context.
func (c *Context) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.browser.fail("CloseContext")
}

// Closed reports whether Close was called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Cookies returns the cookies added to the context.
func (c *Context) Cookies() []api.Cookie {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Cookie(nil), c.cookies...)
}

// Pages returns every page opened in the context.
func (c *Context) Pages() []*Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Page(nil), c.pages...)
}

// Page is a fake api.Page.
type Page struct {
	context *Context

	mu     sync.Mutex
	url    string
	closed bool
}

func (p *Page) origin() string {
	u, err := url.Parse(p.url)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Goto records the URL.
func (p *Page) Goto(_ context.Context, rawURL string) error {
	if err := p.context.browser.fail("Goto"); err != nil {
		return err
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return fmt.Errorf("navigating to %q: %w", rawURL, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.url = rawURL
	return nil
}

// Evaluate emulates local storage scripts.
func (p *Page) Evaluate(_ context.Context, fn string, arg any) (any, error) {
	if err := p.context.browser.fail("Evaluate"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	origin, closed := p.origin(), p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if origin == "" {
		return nil, errors.New("local storage is not available on about:blank")
	}

	c := p.context
	c.mu.Lock()
	defer c.mu.Unlock()

	if fn == api.LocalStorageSnapshotScript {
		pairs := [][2]string{}
		for k, v := range c.local[origin] {
			pairs = append(pairs, [2]string{k, v})
		}
		b, err := json.Marshal(pairs)
		return string(b), err
	}
	if writes, ok := arg.(map[string]string); ok {
		for k, v := range writes {
			c.setLocal(origin, k, v)
		}
	}
	return nil, nil
}

// Close closes the page.
func (p *Page) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.context.browser.fail("ClosePage")
}

// URL is the last navigated URL.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// LocalStorage returns a copy of the local storage of origin.
func (c *Context) LocalStorage(origin string) map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.local[origin]))
	for k, v := range c.local[origin] {
		out[k] = v
	}
	return out
}
