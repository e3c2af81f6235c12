package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageStateLocalStorage(t *testing.T) {
	t.Parallel()

	var s StorageState
	s.SetLocalStorage("https://shop.test", "token", "abc")
	s.SetLocalStorage("https://shop.test", "userId", "123")
	s.SetLocalStorage("https://shop.test", "token", "def")
	s.SetLocalStorage("https://other.test", "token", "zzz")

	require.Len(t, s.Origins, 2)
	v, ok := s.LocalStorageValue("https://shop.test", "token")
	assert.True(t, ok)
	assert.Equal(t, "def", v)

	v, ok = s.LocalStorageValue("https://shop.test", "userId")
	assert.True(t, ok)
	assert.Equal(t, "123", v)

	_, ok = s.LocalStorageValue("https://shop.test", "missing")
	assert.False(t, ok)

	var nilState *StorageState
	_, ok = nilState.LocalStorageValue("https://shop.test", "token")
	assert.False(t, ok)
}

func TestStorageStateJSONShape(t *testing.T) {
	t.Parallel()

	s := StorageState{
		Cookies: []Cookie{{Name: "sid", Value: "1", Domain: "shop.test", Path: "/", Expires: -1, SameSite: "Lax"}},
		Origins: []Origin{{Origin: "https://shop.test", LocalStorage: []NameValue{{Name: "token", Value: "abc"}}}},
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"cookies": [{"name":"sid","value":"1","domain":"shop.test","path":"/","expires":-1,"httpOnly":false,"secure":false,"sameSite":"Lax"}],
		"origins": [{"origin":"https://shop.test","localStorage":[{"name":"token","value":"abc"}]}]
	}`, string(b))
}

func TestParseLocalStorageSnapshot(t *testing.T) {
	t.Parallel()

	entries, err := ParseLocalStorageSnapshot(`[["token","abc"],["userId","123"]]`)
	require.NoError(t, err)
	assert.Equal(t, []NameValue{{Name: "token", Value: "abc"}, {Name: "userId", Value: "123"}}, entries)

	entries, err = ParseLocalStorageSnapshot(`[]`)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = ParseLocalStorageSnapshot(`{`)
	assert.Error(t, err)
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, base, ref, want string
	}{
		{"relative_hash_route", "https://shop.test", "/client/#/auth/login", "https://shop.test/client/#/auth/login"},
		{"absolute", "https://shop.test", "https://other.test/x", "https://other.test/x"},
		{"no_base", "", "/client", "/client"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveURL(tt.base, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadStorageState(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "0.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cookies":[{"name":"sid","value":"1"}],"origins":[]}`), 0o600))

	ss, err := ReadStorageState(path)
	require.NoError(t, err)
	require.Len(t, ss.Cookies, 1)
	assert.Equal(t, "sid", ss.Cookies[0].Name)

	_, err = ReadStorageState(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
