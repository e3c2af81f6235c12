// Package shopfake is a small stand-in for the demo shop: the login API, a
// cart API and the pages the suite drives. It lets the session cache and the
// page objects run without the hosted site.
package shopfake

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/common"
)

// Product is an item in the catalog.
type Product struct {
	ID          string `json:"_id"`
	Name        string `json:"productName"`
	Category    string `json:"productCategory"`
	Price       int    `json:"productPrice"`
	Description string `json:"productDescription"`
}

// DisplayPrice is the price as the pages render it.
func (p Product) DisplayPrice() string { return fmt.Sprintf("$ %d", p.Price) }

// DefaultCatalog mirrors the products of the hosted shop.
var DefaultCatalog = []Product{ //nolint:gochecknoglobals
	{ID: "6581ca399fd99c85e8ee7f45", Name: "ZARA COAT 3", Category: "fashion", Price: 11500, Description: "Zara coat for Women and girls"},
	{ID: "6581cade9fd99c85e8ee7ff5", Name: "ADIDAS ORIGINAL", Category: "fashion", Price: 11500, Description: "Adidas shoes for Men"},
	{ID: "6581ca979fd99c85e8ee7faf", Name: "IPHONE 13 PRO", Category: "electronics", Price: 55000, Description: "Apple phone"},
}

type user struct {
	id       string
	email    string
	password string
}

// Shop holds the fake's state. It is safe for concurrent use.
type Shop struct {
	logger   *common.Logger
	newToken func() string

	mu       sync.Mutex
	users    map[string]user // by email
	sessions map[string]string
	carts    map[string][]string
	catalog  []Product

	logins atomic.Int64
}

// Option configures a Shop.
type Option func(*Shop)

// WithLogger logs requests to logger.
func WithLogger(logger *common.Logger) Option {
	return func(s *Shop) { s.logger = logger }
}

// WithTokens makes logins hand out tokens from next.
func WithTokens(next func() string) Option {
	return func(s *Shop) { s.newToken = next }
}

// WithCatalog replaces the product catalog.
func WithCatalog(products []Product) Option {
	return func(s *Shop) { s.catalog = append([]Product(nil), products...) }
}

// New returns a shop whose users are the given accounts. User ids are
// assigned in order, so the same accounts always get the same ids.
func New(accts []accounts.Account, opts ...Option) *Shop {
	s := &Shop{
		newToken: randomToken,
		users:    make(map[string]user),
		sessions: make(map[string]string),
		carts:    make(map[string][]string),
		catalog:  append([]Product(nil), DefaultCatalog...),
	}
	for i, a := range accts {
		if _, dup := s.users[a.Email]; dup {
			continue
		}
		s.users[a.Email] = user{id: fmt.Sprintf("%024x", i+1), email: a.Email, password: a.Password}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromUsersFile returns a shop seeded with every account of f, the default
// account included.
func FromUsersFile(f *accounts.UsersFile, opts ...Option) *Shop {
	accts := append([]accounts.Account{f.Default()}, f.Users()...)
	return New(accts, opts...)
}

func randomToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("reading random token: %v", err))
	}
	return hex.EncodeToString(b)
}

// Logins is the number of successful logins served.
func (s *Shop) Logins() int64 { return s.logins.Load() }

// UserID returns the id of the user with the given email.
func (s *Shop) UserID(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return u.id, ok
}

// Catalog returns the products on sale.
func (s *Shop) Catalog() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Product(nil), s.catalog...)
}

func (s *Shop) login(email, password string) (token, userID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[email]
	if !found || u.password != password {
		return "", "", false
	}
	token = s.newToken()
	s.sessions[token] = u.id
	s.logins.Add(1)
	return token, u.id, true
}

func (s *Shop) userForToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	return id, ok
}

func (s *Shop) product(id string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Shop) addToCart(userID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = append(s.carts[userID], productID)
}

// Cart returns the products in the cart of userID, in the order added.
func (s *Shop) Cart(userID string) []Product {
	s.mu.Lock()
	ids := append([]string(nil), s.carts[userID]...)
	s.mu.Unlock()

	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.product(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// Emails lists the known users, sorted.
func (s *Shop) Emails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.users))
	for e := range s.users {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
