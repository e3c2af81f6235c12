// Package auth turns test accounts into cached, authenticated browser
// sessions.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
)

const maxErrorBody = 64 << 10

// Credentials are what a successful login yields.
type Credentials struct {
	Token   string
	UserID  string
	Cookies []api.Cookie
}

// LoginClient exchanges an account for credentials.
type LoginClient interface {
	Login(ctx context.Context, baseURL string, account accounts.Account) (*Credentials, error)
}

// Authenticator logs in through the shop's HTTP API.
type Authenticator struct {
	timeout   time.Duration
	transport http.RoundTripper
	loginPath string
	logger    *common.Logger
	now       func() time.Time
}

// NewAuthenticator returns an Authenticator whose requests time out after
// timeout. A zero timeout means no client-side limit beyond ctx.
func NewAuthenticator(timeout time.Duration, logger *common.Logger) *Authenticator {
	return &Authenticator{
		timeout:   timeout,
		transport: http.DefaultTransport,
		loginPath: env.DefaultRoutes.LoginAPI,
		logger:    logger,
		now:       time.Now,
	}
}

// WithTransport returns a copy sending requests through rt.
func (a *Authenticator) WithTransport(rt http.RoundTripper) *Authenticator {
	c := *a
	c.transport = rt
	return &c
}

// WithLoginPath returns a copy posting to path instead of the default
// login endpoint.
func (a *Authenticator) WithLoginPath(path string) *Authenticator {
	c := *a
	c.loginPath = path
	return &c
}

// Login posts the account's email and password as a form and returns the
// token, the user id and the cookies the endpoint set. Every login gets its
// own cookie jar. There is no retry.
func (a *Authenticator) Login(ctx context.Context, baseURL string, account accounts.Account) (*Credentials, error) {
	endpoint := strings.TrimRight(baseURL, "/") + a.loginPath
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing login URL %q: %w", endpoint, err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: a.timeout, Transport: a.transport}

	form := url.Values{}
	form.Set("userEmail", account.Email)
	form.Set("userPassword", account.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	a.logger.Debugf("Authenticator:Login", "account:%s url:%q", account, u.Redacted())
	start := a.now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting login for %s: %w", account, err)
	}
	defer func() { _ = resp.Body.Close() }()

	a.logger.Debugf("Authenticator:Login", "status:%d took:%s", resp.StatusCode, a.now().Sub(start))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return nil, fmt.Errorf("reading login response: %w", err)
		}
		return nil, &common.AuthenticationError{Status: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}
	creds, err := parseLoginResponse(body)
	if err != nil {
		return nil, err
	}
	creds.Cookies = collectCookies(u, resp.Cookies(), jar.Cookies(u), a.now())

	return creds, nil
}

// parseLoginResponse decodes each field on its own, so a field of the wrong
// type is reported as missing without hiding the other.
func parseLoginResponse(body []byte) (*Credentials, error) {
	var fields map[string]json.RawMessage
	// a 2xx body that is not an object is treated as missing both fields
	if err := json.Unmarshal(body, &fields); err != nil {
		fields = nil
	}
	var token string
	if err := json.Unmarshal(fields["token"], &token); err != nil {
		token = ""
	}
	userID := rawIDString(fields["userId"])

	var missing []string
	if token == "" {
		missing = append(missing, "token")
	}
	if userID == "" {
		missing = append(missing, "userId")
	}
	if len(missing) > 0 {
		return nil, &common.MalformedResponseError{Missing: missing}
	}

	return &Credentials{Token: token, UserID: userID}, nil
}

// rawIDString accepts an id sent as a JSON string or number.
func rawIDString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

// collectCookies converts the cookies set by the login response to browser
// cookies. Cookies only known to the jar, such as those set during
// redirects, are added with host scope.
func collectCookies(u *url.URL, set, jarred []*http.Cookie, now time.Time) []api.Cookie {
	seen := make(map[string]bool)
	out := make([]api.Cookie, 0, len(set)+len(jarred))
	for _, c := range set {
		if c.MaxAge < 0 {
			continue
		}
		seen[c.Name] = true
		out = append(out, toAPICookie(u, c, now))
	}
	for _, c := range jarred {
		if seen[c.Name] {
			continue
		}
		out = append(out, toAPICookie(u, &http.Cookie{Name: c.Name, Value: c.Value}, now))
	}
	return out
}

func toAPICookie(u *url.URL, c *http.Cookie, now time.Time) api.Cookie {
	ac := api.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  -1,
		HTTPOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: "Lax",
	}
	if ac.Domain == "" {
		ac.Domain = u.Hostname()
	}
	if ac.Path == "" {
		ac.Path = "/"
	}
	switch {
	case c.MaxAge > 0:
		ac.Expires = float64(now.Add(time.Duration(c.MaxAge) * time.Second).Unix())
	case !c.Expires.IsZero():
		ac.Expires = float64(c.Expires.Unix())
	}
	switch c.SameSite {
	case http.SameSiteStrictMode:
		ac.SameSite = "Strict"
	case http.SameSiteNoneMode:
		ac.SameSite = "None"
	}
	return ac
}
