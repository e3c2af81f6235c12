package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/mccutchen/go-httpbin/v2/httpbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/shopfake"
)

var (
	goodAccount = accounts.Account{Email: "one@example.com", Password: "one-pass"}
	shopUsers   = []accounts.Account{{Email: "default@example.com", Password: "d-pass"}, goodAccount}
)

func newShopServer(t *testing.T, opts ...shopfake.Option) (*shopfake.Shop, *httptest.Server) {
	t.Helper()

	shop := shopfake.New(shopUsers, opts...)
	srv := httptest.NewServer(shop.Handler())
	t.Cleanup(srv.Close)
	return shop, srv
}

func TestAuthenticatorLogin(t *testing.T) {
	t.Parallel()

	shop, srv := newShopServer(t, shopfake.WithTokens(func() string { return "tok-1" }))
	a := NewAuthenticator(5*time.Second, common.NewNullLogger())

	creds, err := a.Login(context.Background(), srv.URL, goodAccount)
	require.NoError(t, err)

	wantID, _ := shop.UserID(goodAccount.Email)
	assert.Equal(t, "tok-1", creds.Token)
	assert.Equal(t, wantID, creds.UserID)

	require.Len(t, creds.Cookies, 1)
	c := creds.Cookies[0]
	assert.Equal(t, shopfake.SessionCookie, c.Name)
	assert.Equal(t, "tok-1", c.Value)
	assert.Equal(t, "127.0.0.1", c.Domain)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, float64(-1), c.Expires)
	assert.True(t, c.HTTPOnly)
	assert.Equal(t, "Lax", c.SameSite)
}

func TestAuthenticatorRejectedCredentials(t *testing.T) {
	t.Parallel()

	_, srv := newShopServer(t)
	a := NewAuthenticator(5*time.Second, nil)

	_, err := a.Login(context.Background(), srv.URL, accounts.Account{Email: goodAccount.Email, Password: "wrong"})

	var aerr *common.AuthenticationError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, http.StatusBadRequest, aerr.Status)
	assert.Contains(t, aerr.Body, "Incorrect email or password.")
}

func TestAuthenticatorAgainstHTTPBin(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(httpbin.New().Handler())
	t.Cleanup(srv.Close)

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantMissing []string
	}{
		{name: "unauthorized", path: "/status/401", wantStatus: http.StatusUnauthorized},
		{name: "server_error", path: "/status/503", wantStatus: http.StatusServiceUnavailable},
		{name: "echo_has_no_token", path: "/anything", wantMissing: []string{"token", "userId"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAuthenticator(5*time.Second, nil).WithLoginPath(tt.path)
			creds, err := a.Login(context.Background(), srv.URL, goodAccount)
			require.Error(t, err)
			assert.Nil(t, creds)

			if tt.wantStatus != 0 {
				var aerr *common.AuthenticationError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, tt.wantStatus, aerr.Status)
				return
			}
			var merr *common.MalformedResponseError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, tt.wantMissing, merr.Missing)
		})
	}
}

func TestAuthenticatorSendsForm(t *testing.T) {
	t.Parallel()

	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ecom/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		got = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc","userId":123,"message":"Login Successfully"}`))
	}))
	t.Cleanup(srv.Close)

	creds, err := NewAuthenticator(5*time.Second, nil).Login(context.Background(), srv.URL+"/", goodAccount)
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.Token)
	assert.Equal(t, "123", creds.UserID, "numeric ids are accepted")
	assert.Empty(t, creds.Cookies)
	assert.Equal(t, goodAccount.Email, got.Get("userEmail"))
	assert.Equal(t, goodAccount.Password, got.Get("userPassword"))
}

func TestAuthenticatorLargeResponseBody(t *testing.T) {
	t.Parallel()

	padding := strings.Repeat("x", 2*maxErrorBody)
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:   "success_read_in_full",
			status: http.StatusOK,
			body:   `{"message":"` + padding + `","token":"abc","userId":"123"}`,
		},
		{
			name:    "failure_body_truncated",
			status:  http.StatusBadRequest,
			body:    padding,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			creds, err := NewAuthenticator(5*time.Second, nil).Login(context.Background(), srv.URL, goodAccount)
			if tt.wantErr {
				var aerr *common.AuthenticationError
				require.ErrorAs(t, err, &aerr)
				assert.Equal(t, tt.status, aerr.Status)
				assert.Len(t, aerr.Body, maxErrorBody)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc", creds.Token)
			assert.Equal(t, "123", creds.UserID)
		})
	}
}

func TestParseLoginResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		wantUserID  string
		wantMissing []string
	}{
		{name: "string_id", body: `{"token":"t","userId":"u"}`, wantUserID: "u"},
		{name: "numeric_id", body: `{"token":"t","userId":42}`, wantUserID: "42"},
		{name: "missing_token", body: `{"userId":"u"}`, wantMissing: []string{"token"}},
		{name: "empty_token", body: `{"token":"","userId":"u"}`, wantMissing: []string{"token"}},
		{name: "null_user", body: `{"token":"t","userId":null}`, wantMissing: []string{"userId"}},
		{name: "not_json", body: `<html>`, wantMissing: []string{"token", "userId"}},
		{name: "array_body", body: `[{"token":"t","userId":"u"}]`, wantMissing: []string{"token", "userId"}},
		{name: "mistyped_token", body: `{"token":42,"userId":"123"}`, wantMissing: []string{"token"}},
		{name: "mistyped_user", body: `{"token":"t","userId":{"id":1}}`, wantMissing: []string{"userId"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creds, err := parseLoginResponse([]byte(tt.body))
			if tt.wantMissing != nil {
				var merr *common.MalformedResponseError
				require.ErrorAs(t, err, &merr)
				assert.Equal(t, tt.wantMissing, merr.Missing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUserID, creds.UserID)
		})
	}
}

func TestCollectCookies(t *testing.T) {
	t.Parallel()

	u, err := url.Parse("https://shop.test/api/ecom/auth/login")
	require.NoError(t, err)
	now := time.Unix(1_700_000_000, 0)

	set := []*http.Cookie{
		{Name: "a", Value: "1", MaxAge: 60, SameSite: http.SameSiteStrictMode, Secure: true},
		{Name: "b", Value: "2", Domain: ".shop.test", Path: "/client", Expires: now.Add(time.Hour)},
		{Name: "gone", Value: "", MaxAge: -1},
	}
	jarred := []*http.Cookie{{Name: "a", Value: "1"}, {Name: "redirected", Value: "3"}}

	got := collectCookies(u, set, jarred, now)
	require.Len(t, got, 3)

	assert.Equal(t, "shop.test", got[0].Domain)
	assert.Equal(t, float64(now.Unix()+60), got[0].Expires)
	assert.Equal(t, "Strict", got[0].SameSite)
	assert.True(t, got[0].Secure)

	assert.Equal(t, ".shop.test", got[1].Domain)
	assert.Equal(t, "/client", got[1].Path)
	assert.Equal(t, float64(now.Add(time.Hour).Unix()), got[1].Expires)

	assert.Equal(t, "redirected", got[2].Name)
	assert.Equal(t, "/", got[2].Path)
	assert.Equal(t, float64(-1), got[2].Expires)
}

func TestAuthenticatorHonorsContext(t *testing.T) {
	t.Parallel()

	_, srv := newShopServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAuthenticator(5*time.Second, nil).Login(ctx, srv.URL, goodAccount)
	assert.ErrorIs(t, err, context.Canceled)
}
