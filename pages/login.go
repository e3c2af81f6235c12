package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// LoginPage is the sign-in form.
type LoginPage struct {
	*BasePage

	email    playwright.Locator
	password playwright.Locator
	submit   playwright.Locator
	signOut  playwright.Locator
}

// NewLoginPage builds the login page object.
func NewLoginPage(base *BasePage) *LoginPage {
	return &LoginPage{
		BasePage: base,
		email:    base.page.Locator("#userEmail"),
		password: base.page.Locator("#userPassword"),
		submit:   base.page.Locator("#login"),
		signOut:  base.page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Sign Out"}),
	}
}

// Open visits the login route.
func (p *LoginPage) Open() error {
	return p.Visit(p.env.Routes.Login)
}

// Login fills in the form and submits it.
func (p *LoginPage) Login(email, password string) error {
	p.logger.Debugf("pages:Login", "email:%s", email)
	if err := p.email.Fill(email); err != nil {
		return fmt.Errorf("filling email: %w", err)
	}
	if err := p.password.Fill(password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}
	if err := p.submit.Click(); err != nil {
		return fmt.Errorf("submitting login: %w", err)
	}
	return nil
}

// VerifyLogin asserts the signed-in navigation is shown.
func (p *LoginPage) VerifyLogin() error {
	if err := p.expect.Locator(p.signOut).ToBeVisible(); err != nil {
		return fmt.Errorf("sign out button not visible after login: %w", err)
	}
	return nil
}
