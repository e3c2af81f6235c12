package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// CartPage lists the products in the signed-in user's cart.
type CartPage struct {
	*BasePage

	items    playwright.Locator
	checkout playwright.Locator
}

// NewCartPage builds the cart page object.
func NewCartPage(base *BasePage) *CartPage {
	return &CartPage{
		BasePage: base,
		items:    base.page.Locator(".cartSection h3"),
		checkout: base.page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Checkout"}),
	}
}

// Open visits the cart and waits for it to load.
func (p *CartPage) Open() error {
	if err := p.Visit(p.env.Routes.Cart); err != nil {
		return err
	}
	return p.WaitForNetworkIdle()
}

// ItemTitles returns the product names in the cart.
func (p *CartPage) ItemTitles() ([]string, error) {
	titles, err := p.items.AllInnerTexts()
	if err != nil {
		return nil, fmt.Errorf("reading cart items: %w", err)
	}
	return titles, nil
}

// HasItem asserts a product called title is in the cart.
func (p *CartPage) HasItem(title string) error {
	item := p.items.Filter(playwright.LocatorFilterOptions{HasText: title}).First()
	if err := p.expect.Locator(item).ToBeVisible(); err != nil {
		return fmt.Errorf("cart item %q: %w", title, err)
	}
	return nil
}

// Checkout returns the checkout button.
func (p *CartPage) Checkout() playwright.Locator { return p.checkout }
