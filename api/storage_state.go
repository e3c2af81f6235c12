package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
)

// StorageState is a snapshot of a browser context's cookies and local storage,
// in the JSON shape Playwright uses for storage-state files.
type StorageState struct {
	Cookies []Cookie `json:"cookies"`
	Origins []Origin `json:"origins"`
}

// Cookie is a browser cookie. Expires is in seconds since the epoch, -1 for
// session cookies.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// Origin holds the local storage entries of one origin.
type Origin struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// NameValue is a single storage entry.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LocalStorageValue looks up key in the local storage of origin.
func (s *StorageState) LocalStorageValue(origin, key string) (string, bool) {
	if s == nil {
		return "", false
	}
	for _, o := range s.Origins {
		if o.Origin != origin {
			continue
		}
		for _, nv := range o.LocalStorage {
			if nv.Name == key {
				return nv.Value, true
			}
		}
	}
	return "", false
}

// SetLocalStorage sets key on origin, adding the origin when it is missing.
func (s *StorageState) SetLocalStorage(origin, key, value string) {
	for i := range s.Origins {
		if s.Origins[i].Origin != origin {
			continue
		}
		for j := range s.Origins[i].LocalStorage {
			if s.Origins[i].LocalStorage[j].Name == key {
				s.Origins[i].LocalStorage[j].Value = value
				return
			}
		}
		s.Origins[i].LocalStorage = append(s.Origins[i].LocalStorage, NameValue{Name: key, Value: value})
		return
	}
	s.Origins = append(s.Origins, Origin{
		Origin:       origin,
		LocalStorage: []NameValue{{Name: key, Value: value}},
	})
}

// LocalStorageSnapshotScript returns all local storage entries of the current
// origin as a JSON string of [name, value] pairs. Drivers without a native
// storage-state capture use it to snapshot pages before they close.
const LocalStorageSnapshotScript = `() => JSON.stringify(Object.entries(window.localStorage))`

// ParseLocalStorageSnapshot decodes the result of LocalStorageSnapshotScript.
func ParseLocalStorageSnapshot(raw string) ([]NameValue, error) {
	var pairs [][2]string
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("decoding local storage snapshot: %w", err)
	}
	entries := make([]NameValue, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, NameValue{Name: p[0], Value: p[1]})
	}
	return entries, nil
}

// ReadStorageState loads a storage-state file.
func ReadStorageState(path string) (*StorageState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading storage state: %w", err)
	}
	var ss StorageState
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, fmt.Errorf("decoding storage state %q: %w", path, err)
	}
	return &ss, nil
}

// ResolveURL resolves ref against base the way a context base URL applies to
// Page.Goto. Absolute refs and an empty base leave ref unchanged.
func ResolveURL(base, ref string) (string, error) {
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", ref, err)
	}
	if r.IsAbs() || base == "" {
		return ref, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base url %q: %w", base, err)
	}
	return b.ResolveReference(r).String(), nil
}
