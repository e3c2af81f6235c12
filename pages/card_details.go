package pages

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// CardDetailsPage is the detail view of a single product.
type CardDetailsPage struct {
	*BasePage

	section playwright.Locator
	title   playwright.Locator
	price   playwright.Locator
}

// NewCardDetailsPage builds the detail page object.
func NewCardDetailsPage(base *BasePage) *CardDetailsPage {
	section := base.page.Locator(".container")
	return &CardDetailsPage{
		BasePage: base,
		section:  section,
		title:    section.GetByRole("heading", playwright.LocatorGetByRoleOptions{Level: playwright.Int(2)}),
		price:    section.GetByRole("heading", playwright.LocatorGetByRoleOptions{Level: playwright.Int(3)}),
	}
}

// OpenProduct visits the detail route of product id.
func (p *CardDetailsPage) OpenProduct(id string) error {
	return p.Visit(p.env.Routes.ProductDetail(id))
}

// CardDetails reads the title and price shown.
func (p *CardDetailsPage) CardDetails() (CardDetails, error) {
	title, terr := p.title.InnerText()
	price, perr := p.price.InnerText()
	if err := errors.Join(terr, perr); err != nil {
		return CardDetails{}, fmt.Errorf("reading product details: %w", err)
	}
	return CardDetails{Title: title, Price: price}, nil
}

// VerifyCardDetails checks title and price against want. Both are checked
// even when the first fails; every mismatch is returned.
func (p *CardDetailsPage) VerifyCardDetails(want CardDetails) error {
	var errs []error
	if err := p.expect.Locator(p.title).ToHaveText(want.Title); err != nil {
		errs = append(errs, fmt.Errorf("title: %w", err))
	}
	if err := p.expect.Locator(p.price).ToHaveText(want.Price); err != nil {
		errs = append(errs, fmt.Errorf("price: %w", err))
	}
	return errors.Join(errs...)
}
