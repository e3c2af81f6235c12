// Package pages holds the page objects the e2e specs drive the shop with.
package pages

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
)

// BasePage is embedded by every page object.
type BasePage struct {
	page    playwright.Page
	env     *env.Environment
	expect  playwright.PlaywrightAssertions
	timeout time.Duration
	logger  *common.Logger
}

// NewBasePage wraps page. timeout bounds every assertion.
func NewBasePage(page playwright.Page, e *env.Environment, timeout time.Duration, logger *common.Logger) *BasePage {
	return &BasePage{
		page:    page,
		env:     e,
		expect:  playwright.NewPlaywrightAssertions(float64(timeout.Milliseconds())),
		timeout: timeout,
		logger:  logger,
	}
}

// Page returns the underlying Playwright page.
func (p *BasePage) Page() playwright.Page { return p.page }

// Expect returns assertions bound to the page object's timeout.
func (p *BasePage) Expect() playwright.PlaywrightAssertions { return p.expect }

// Visit navigates to route, relative to the environment base URL.
func (p *BasePage) Visit(route string) error {
	u := p.env.URL(route)
	p.logger.Debugf("pages:Visit", "url:%s", u)
	if _, err := p.page.Goto(u, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("visiting %s: %w", u, err)
	}
	return nil
}

// WaitForNetworkIdle waits until the page has had no network traffic for a
// while.
func (p *BasePage) WaitForNetworkIdle() error {
	return p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State: playwright.LoadStateNetworkidle,
	})
}

// WaitForAPIResponse runs action and waits for a response whose URL contains
// urlSubstring and whose status is status.
func (p *BasePage) WaitForAPIResponse(urlSubstring string, status int, action func() error) error {
	_, err := p.page.ExpectResponse(func(r playwright.Response) bool {
		return strings.Contains(r.URL(), urlSubstring) && r.Status() == status
	}, action, playwright.PageExpectResponseOptions{
		Timeout: playwright.Float(float64(p.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("waiting for %d response from %q: %w", status, urlSubstring, err)
	}
	return nil
}
