package shopfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-labs/ecom-e2e/accounts"
)

var testAccounts = []accounts.Account{
	{Email: "default@example.com", Password: "d-pass"},
	{Email: "one@example.com", Password: "one-pass"},
}

func login(t *testing.T, h http.Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{"userEmail": {email}, "userPassword": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/ecom/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLogin(t *testing.T) {
	t.Parallel()

	shop := New(testAccounts, WithTokens(func() string { return "tok" }))
	h := shop.Handler()

	rec := login(t, h, "one@example.com", "one-pass")
	require.Equal(t, http.StatusOK, rec.Code)

	var body loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body.Token)
	wantID, _ := shop.UserID("one@example.com")
	assert.Equal(t, wantID, body.UserID)
	assert.Equal(t, int64(1), shop.Logins())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, email, password string
	}{
		{name: "wrong_password", email: "one@example.com", password: "nope"},
		{name: "unknown_user", email: "ghost@example.com", password: "one-pass"},
		{name: "missing_fields", email: "", password: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shop := New(testAccounts)
			rec := login(t, shop.Handler(), tt.email, tt.password)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotContains(t, rec.Body.String(), "token")
			assert.Zero(t, shop.Logins())
		})
	}
}

func TestUserIDsAreStable(t *testing.T) {
	t.Parallel()

	a, b := New(testAccounts), New(testAccounts)
	idA, ok := a.UserID("default@example.com")
	require.True(t, ok)
	idB, _ := b.UserID("default@example.com")
	assert.Equal(t, idA, idB)
	assert.Len(t, idA, 24)

	other, _ := a.UserID("one@example.com")
	assert.NotEqual(t, idA, other)
}

func TestCartFlow(t *testing.T) {
	t.Parallel()

	shop := New(testAccounts, WithTokens(func() string { return "tok-1" }))
	h := shop.Handler()
	require.Equal(t, http.StatusOK, login(t, h, "one@example.com", "one-pass").Code)
	userID, _ := shop.UserID("one@example.com")

	do := func(method, target, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodGet, "/api/ecom/user/get-cart-products/"+userID, "tok-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No Product in Cart")

	productID := DefaultCatalog[2].ID
	rec = do(http.MethodPost, "/api/ecom/user/add-to-cart", "tok-1",
		`{"_id":"`+userID+`","product":{"_id":"`+productID+`"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product Added To Cart")

	cart := shop.Cart(userID)
	require.Len(t, cart, 1)
	assert.Equal(t, "IPHONE 13 PRO", cart[0].Name)

	assert.Equal(t, http.StatusUnauthorized, do(http.MethodGet, "/api/ecom/user/get-cart-products/"+userID, "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/api/ecom/user/get-cart-products/someone-else", "tok-1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodPost, "/api/ecom/user/add-to-cart", "tok-1", `{"product":{"_id":"missing"}}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(http.MethodPost, "/api/ecom/user/add-to-cart", "tok-1", `{`).Code)
}

func TestFromUsersFile(t *testing.T) {
	t.Parallel()

	f, err := accounts.LoadEmbedded("qa")
	require.NoError(t, err)

	shop := FromUsersFile(f)
	emails := shop.Emails()
	assert.Contains(t, emails, f.Default().Email)
	for _, u := range f.Users() {
		assert.Contains(t, emails, u.Email)
	}
}
