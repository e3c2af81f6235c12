package rodext

import (
	"github.com/go-rod/rod/lib/proto"

	"github.com/qa-labs/ecom-e2e/api"
)

func toCookieParams(cookies []api.Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: toSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(c.Expires)
		}
		out = append(out, p)
	}
	return out
}

func fromNetworkCookies(cookies []*proto.NetworkCookie) []api.Cookie {
	out := make([]api.Cookie, 0, len(cookies))
	for _, c := range cookies {
		ac := api.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: fromSameSite(c.SameSite),
		}
		if c.Session || ac.Expires <= 0 {
			ac.Expires = -1
		}
		out = append(out, ac)
	}
	return out
}

func toSameSite(s string) proto.NetworkCookieSameSite {
	switch s {
	case "Strict":
		return proto.NetworkCookieSameSiteStrict
	case "None":
		return proto.NetworkCookieSameSiteNone
	default:
		return proto.NetworkCookieSameSiteLax
	}
}

func fromSameSite(s proto.NetworkCookieSameSite) string {
	switch s {
	case proto.NetworkCookieSameSiteStrict:
		return "Strict"
	case proto.NetworkCookieSameSiteNone:
		return "None"
	default:
		return "Lax"
	}
}
