// Package env resolves the target environment: its name, base URL and the
// routes the suite navigates to.
package env

import (
	"fmt"
	"net/url"
	"strings"

	"gopkg.in/guregu/null.v3"

	"github.com/qa-labs/ecom-e2e/common"
)

// Name is an environment name. It selects the default base URL and the
// account data file.
type Name string

const (
	QA  Name = "qa"
	Dev Name = "dev"
)

// DefaultName is used when ENV is not set.
const DefaultName = QA

// Names lists the known environments.
func Names() []Name { return []Name{QA, Dev} }

var defaultBaseURLs = map[Name]string{
	QA:  "https://rahulshettyacademy.com",
	Dev: "https://rahulshettyacademy.com",
}

// ParseName parses an environment name. The empty string maps to DefaultName.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	if n == "" {
		return DefaultName, nil
	}
	if _, ok := defaultBaseURLs[n]; !ok {
		return "", &common.UnknownEnvironmentError{Name: s}
	}
	return n, nil
}

func (n Name) String() string { return string(n) }

// Routes are paths relative to the base URL.
type Routes struct {
	Landing   string
	Login     string
	Dashboard string
	// ProductDetailPattern holds a single %s for the product id.
	ProductDetailPattern string
	Cart                 string
	LoginAPI             string
}

// DefaultRoutes are the hash routes of the hosted shop.
var DefaultRoutes = Routes{
	Landing:              "/client",
	Login:                "/client/#/auth/login",
	Dashboard:            "/client/#/dashboard/dash",
	ProductDetailPattern: "/client/#/dashboard/product-details/%s",
	Cart:                 "/client/#/dashboard/cart",
	LoginAPI:             "/api/ecom/auth/login",
}

// FakeShopRoutes are the path routes served by the in-repo fake shop.
var FakeShopRoutes = Routes{
	Landing:              "/client",
	Login:                "/client",
	Dashboard:            "/client/dashboard",
	ProductDetailPattern: "/client/product/%s",
	Cart:                 "/client/cart",
	LoginAPI:             "/api/ecom/auth/login",
}

// ProductDetail returns the detail route of a product.
func (r Routes) ProductDetail(id string) string {
	return fmt.Sprintf(r.ProductDetailPattern, url.PathEscape(id))
}

// Environment is a resolved target.
type Environment struct {
	Name    Name
	BaseURL string
	Routes  Routes
}

// Resolve returns the environment called name, using override as the base URL
// when it is set.
func Resolve(name Name, override null.String) (*Environment, error) {
	base, ok := defaultBaseURLs[name]
	if !ok {
		return nil, &common.UnknownEnvironmentError{Name: string(name)}
	}
	if override.Valid && strings.TrimSpace(override.String) != "" {
		base = override.String
	}
	base = strings.TrimRight(base, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", base, err)
	}

	return &Environment{Name: name, BaseURL: base, Routes: DefaultRoutes}, nil
}

// URL joins route onto the base URL.
func (e *Environment) URL(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return e.BaseURL + route
}

// Origin returns the scheme and host of the base URL, the key local storage
// is captured under.
func (e *Environment) Origin() string {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return e.BaseURL
	}
	return u.Scheme + "://" + u.Host
}

// WithBaseURL returns a copy of e targeting base with the given routes.
func (e *Environment) WithBaseURL(base string, routes Routes) *Environment {
	c := *e
	c.BaseURL = strings.TrimRight(base, "/")
	c.Routes = routes
	return &c
}
