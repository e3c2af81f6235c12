// Package api holds the narrow browser capabilities the session cache needs,
// so it does not depend on a particular automation library.
package api

import (
	"context"

	"github.com/qa-labs/ecom-e2e/common"
)

//go:generate mockgen -destination=mock_api/api.go -package=mock_api github.com/qa-labs/ecom-e2e/api Browser,BrowserContext,Page

// Browser is a running browser able to open isolated contexts.
type Browser interface {
	NewContext(ctx context.Context, opts *common.ContextOptions) (BrowserContext, error)
	Close() error
}

// BrowserContext is an isolated browser session with its own cookies and
// storage.
type BrowserContext interface {
	AddCookies(ctx context.Context, cookies []Cookie) error
	NewPage(ctx context.Context) (Page, error)
	StorageState(ctx context.Context) (*StorageState, error)
	Close() error
}

// Page is a single tab within a BrowserContext.
type Page interface {
	Goto(ctx context.Context, url string) error
	// Evaluate runs the JavaScript function expression fn in the page with arg
	// as its single argument and returns the JSON-decoded result.
	Evaluate(ctx context.Context, fn string, arg any) (any, error)
	Close() error
}
