package fixture

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa-labs/ecom-e2e/api/apitest"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
)

func fakeShopConfig(t *testing.T) *env.Config {
	t.Helper()

	cfg, err := env.ConfigFromLookup(func(k string) (string, bool) {
		v, ok := map[string]string{
			"OUTPUT_DIR":    t.TempDir(),
			"USE_FAKE_SHOP": "true",
		}[k]
		return v, ok
	})
	require.NoError(t, err)
	return cfg
}

func TestWorkerAgainstFakeShop(t *testing.T) {
	t.Parallel()

	cfg := fakeShopConfig(t)
	w, err := newWorker(context.Background(), cfg, 0, common.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	assert.Equal(t, env.FakeShopRoutes, w.Env().Routes)
	assert.True(t, strings.HasPrefix(w.Env().BaseURL, "http://127.0.0.1:"))
	require.NotNil(t, w.Shop())

	resp, err := http.Get(w.Env().URL(w.Env().Routes.Login))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	b := apitest.NewBrowser()
	entry, err := w.Acquire(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, entry, w.Entry())
	assert.Equal(t, w.Store().EntryPath(0), entry)
	assert.Equal(t, int64(1), w.Shop().Logins())

	state, err := w.Store().Load(0)
	require.NoError(t, err)
	wantID, ok := w.Shop().UserID(w.Account().Email)
	require.True(t, ok)
	assert.Equal(t, wantID, state.UserID)
	v, ok := state.LocalStorageValue(w.Env().Origin(), "token")
	require.True(t, ok)
	assert.Equal(t, state.Token, v)

	_, err = w.Acquire(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.Shop().Logins(), "the entry is reused")
}

func TestWorkerDropsStaleFakeShopEntry(t *testing.T) {
	t.Parallel()

	cfg := fakeShopConfig(t)
	first, err := newWorker(context.Background(), cfg, 1, common.NewNullLogger())
	require.NoError(t, err)
	_, err = first.Acquire(context.Background(), apitest.NewBrowser())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := newWorker(context.Background(), cfg, 1, common.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, second.Close()) })

	ok, err := second.Store().Exists(1)
	require.NoError(t, err)
	assert.False(t, ok, "an entry of a stopped fake shop is useless")
}

func TestWorkerRejectsNegativeID(t *testing.T) {
	t.Parallel()

	_, err := newWorker(context.Background(), fakeShopConfig(t), -1, nil)
	var werr *common.InvalidWorkerError
	require.ErrorAs(t, err, &werr)
}

func TestWorkerContextOptions(t *testing.T) {
	t.Parallel()

	cfg := fakeShopConfig(t)
	w, err := newWorker(context.Background(), cfg, 2, common.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, w.Close()) })

	signedIn := w.contextOptions("out/.auth/2.json", "out/spec/videos")
	assert.Equal(t, "out/.auth/2.json", signedIn.StorageStatePath)
	assert.Equal(t, "out/spec/videos", signedIn.VideosPath)
	assert.Equal(t, w.Env().BaseURL, signedIn.BaseURL)
	require.NoError(t, signedIn.Validate())

	anonymous := w.contextOptions("", "")
	assert.Empty(t, anonymous.StorageStatePath)
	assert.Empty(t, anonymous.VideosPath)

	_, err = w.NewPage(context.Background(), "needs an entry", 1)
	assert.Error(t, err, "NewPage needs a cache entry")
}

func TestWorkerCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	w, err := newWorker(context.Background(), fakeShopConfig(t), 0, common.NewNullLogger())
	require.NoError(t, err)
	base := w.Env().BaseURL

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = http.Get(base + "/client")
	assert.Error(t, err, "the fake shop is stopped")
}
