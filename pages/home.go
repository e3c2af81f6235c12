package pages

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/playwright-community/playwright-go"

	"github.com/qa-labs/ecom-e2e/common"
)

// addToCartAPI is the path fragment of the add-to-cart request.
const addToCartAPI = "/api/ecom/user/add-to-cart"

// Card holds the locators of one product card.
type Card struct {
	Root  playwright.Locator
	Title playwright.Locator
	Price playwright.Locator
	View  playwright.Locator
	Add   playwright.Locator
}

// CardDetails are the texts a card shows.
type CardDetails struct {
	Index int
	Title string
	Price string
}

// HomePage is the product listing.
type HomePage struct {
	*BasePage

	cards playwright.Locator
	pick  func(n int) int
}

// NewHomePage builds the listing page object.
func NewHomePage(base *BasePage) *HomePage {
	return &HomePage{
		BasePage: base,
		cards:    base.page.Locator(".card-body"),
		pick:     rand.IntN,
	}
}

// Open visits the dashboard and waits for the listing to load.
func (p *HomePage) Open() error {
	if err := p.Visit(p.env.Routes.Dashboard); err != nil {
		return err
	}
	return p.WaitForNetworkIdle()
}

// Cards returns the locator matching every product card.
func (p *HomePage) Cards() playwright.Locator { return p.cards }

// CardCount returns the number of cards currently rendered.
func (p *HomePage) CardCount() (int, error) {
	n, err := p.cards.Count()
	if err != nil {
		return 0, fmt.Errorf("counting cards: %w", err)
	}
	return n, nil
}

// Card returns the locators of the card at index.
func (p *HomePage) Card(index int) Card {
	root := p.cards.Nth(index)
	return Card{
		Root:  root,
		Title: root.GetByRole("heading", playwright.LocatorGetByRoleOptions{Level: playwright.Int(5)}),
		Price: root.Locator(".text-muted"),
		View:  root.GetByRole("button", playwright.LocatorGetByRoleOptions{Name: "View"}),
		Add:   root.GetByRole("button", playwright.LocatorGetByRoleOptions{Name: "Add To Cart"}),
	}
}

// CardAt returns the card at index, or a random card when index is nil.
func (p *HomePage) CardAt(index *int) (int, Card, error) {
	count, err := p.CardCount()
	if err != nil {
		return 0, Card{}, err
	}
	i, err := ResolveCardIndex(count, index, p.pick)
	if err != nil {
		return 0, Card{}, err
	}
	return i, p.Card(i), nil
}

// Details reads the title and price of card.
func (p *HomePage) Details(index int, card Card) (CardDetails, error) {
	title, terr := card.Title.InnerText()
	price, perr := card.Price.InnerText()
	if err := errors.Join(terr, perr); err != nil {
		return CardDetails{}, fmt.Errorf("reading card %d: %w", index, err)
	}
	return CardDetails{Index: index, Title: title, Price: price}, nil
}

// OpenRandomCardAndGetDetails picks a random card, reads it and opens its
// detail page.
func (p *HomePage) OpenRandomCardAndGetDetails() (CardDetails, error) {
	i, card, err := p.CardAt(nil)
	if err != nil {
		return CardDetails{}, err
	}
	d, err := p.Details(i, card)
	if err != nil {
		return CardDetails{}, err
	}
	p.logger.Debugf("pages:OpenCard", "index:%d title:%q", i, d.Title)
	if err := card.View.Click(); err != nil {
		return CardDetails{}, fmt.Errorf("opening card %d: %w", i, err)
	}
	return d, nil
}

// AddToCart adds the card at index, or a random card when index is nil, and
// waits for the shop to accept it.
func (p *HomePage) AddToCart(index *int) (CardDetails, error) {
	i, card, err := p.CardAt(index)
	if err != nil {
		return CardDetails{}, err
	}
	d, err := p.Details(i, card)
	if err != nil {
		return CardDetails{}, err
	}
	if err := p.WaitForAPIResponse(addToCartAPI, 200, func() error { return card.Add.Click() }); err != nil {
		return CardDetails{}, fmt.Errorf("adding card %d to cart: %w", i, err)
	}
	return d, nil
}

// ResolveCardIndex validates index against count cards. A nil index picks
// one with pick, which returns a value in [0, n).
func ResolveCardIndex(count int, index *int, pick func(n int) int) (int, error) {
	if count <= 0 {
		return 0, common.NoCardsAvailableError{}
	}
	if index == nil {
		return pick(count), nil
	}
	if *index < 0 || *index >= count {
		return 0, &common.InvalidIndexError{Index: *index, Count: count}
	}
	return *index, nil
}
