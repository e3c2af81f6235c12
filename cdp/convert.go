package cdp

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	cdptypes "github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"

	"github.com/qa-labs/ecom-e2e/api"
)

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func toCookieParams(cookies []api.Cookie) []*network.CookieParam {
	out := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: toSameSite(c.SameSite),
		}
		if c.Expires > 0 {
			sec, frac := math.Modf(c.Expires)
			t := cdptypes.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*float64(time.Second))))
			p.Expires = &t
		}
		out = append(out, p)
	}
	return out
}

func fromNetworkCookies(cookies []*network.Cookie) []api.Cookie {
	out := make([]api.Cookie, 0, len(cookies))
	for _, c := range cookies {
		ac := api.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
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

func toSameSite(s string) network.CookieSameSite {
	switch s {
	case "Strict":
		return network.CookieSameSiteStrict
	case "None":
		return network.CookieSameSiteNone
	default:
		return network.CookieSameSiteLax
	}
}

func fromSameSite(s network.CookieSameSite) string {
	switch s {
	case network.CookieSameSiteStrict:
		return "Strict"
	case network.CookieSameSiteNone:
		return "None"
	default:
		return "Lax"
	}
}

func sortOrigins(origins []api.Origin) {
	sort.Slice(origins, func(i, j int) bool { return origins[i].Origin < origins[j].Origin })
}

// evaluateExpression wraps the function expression fn into a call with arg,
// serializing the result so any JSON value, undefined included, survives the
// round trip.
func evaluateExpression(fn string, arg any) (string, error) {
	a, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("encoding evaluate argument: %w", err)
	}
	return fmt.Sprintf(`(async () => { const r = await (%s)(%s); return JSON.stringify(r === undefined ? null : r); })()`, fn, a), nil
}

func decodeEvaluateResult(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decoding evaluate result: %w", err)
	}
	return v, nil
}

// originSnapshot is the decoded result of js.OriginSnapshotScript.
type originSnapshot struct {
	Origin  string
	Entries []api.NameValue
}

// UnmarshalEasyJSON reads {"origin": "...", "entries": [[name, value], ...]}.
func (s *originSnapshot) UnmarshalEasyJSON(in *jlexer.Lexer) {
	if in.IsNull() {
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "origin":
			s.Origin = in.String()
		case "entries":
			s.Entries = readPairs(in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
}

func readPairs(in *jlexer.Lexer) []api.NameValue {
	entries := []api.NameValue{}
	in.Delim('[')
	for !in.IsDelim(']') {
		var pair [2]string
		in.Delim('[')
		for i := 0; !in.IsDelim(']'); i++ {
			if i < len(pair) {
				pair[i] = in.String()
			} else {
				in.SkipRecursive()
			}
			in.WantComma()
		}
		in.Delim(']')
		entries = append(entries, api.NameValue{Name: pair[0], Value: pair[1]})
		in.WantComma()
	}
	in.Delim(']')
	return entries
}

func parseOriginSnapshot(raw []byte) (*originSnapshot, error) {
	var s originSnapshot
	if err := easyjson.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding local storage snapshot: %w", err)
	}
	return &s, nil
}
