package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gopkg.in/guregu/null.v3"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/api/apitest"
	"github.com/qa-labs/ecom-e2e/api/mock_api"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/common/js"
	"github.com/qa-labs/ecom-e2e/env"
)

func testEnv(t *testing.T, base string) *env.Environment {
	t.Helper()

	e, err := env.Resolve(env.QA, null.StringFrom(base))
	require.NoError(t, err)
	return e
}

var testCreds = &Credentials{
	Token:   "abc",
	UserID:  "123",
	Cookies: []api.Cookie{{Name: "shop_session", Value: "abc", Domain: "shop.test", Path: "/", Expires: -1, SameSite: "Lax"}},
}

func TestMaterializeSeedsLocalStorage(t *testing.T) {
	t.Parallel()

	b := apitest.NewBrowser()
	m := NewMaterializer(testEnv(t, "https://shop.test"), common.NewNullLogger())

	state, err := m.Materialize(context.Background(), b, testCreds)
	require.NoError(t, err)

	assert.Equal(t, "abc", state.Token)
	assert.Equal(t, "123", state.UserID)
	assert.Equal(t, testCreds.Cookies, state.Cookies)
	v, ok := state.LocalStorageValue("https://shop.test", "token")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
	v, ok = state.LocalStorageValue("https://shop.test", "userId")
	require.True(t, ok)
	assert.Equal(t, "123", v)

	contexts := b.Contexts()
	require.Len(t, contexts, 1)
	bctx := contexts[0]
	assert.True(t, bctx.Closed())
	assert.Empty(t, bctx.Options.StorageStatePath, "materializing starts from an empty session")
	assert.Equal(t, "https://shop.test", bctx.Options.BaseURL)

	pages := bctx.Pages()
	require.Len(t, pages, 1)
	assert.True(t, pages[0].Closed())
	assert.Equal(t, "https://shop.test/client", pages[0].URL())
}

func TestMaterializeCallOrder(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	b := mock_api.NewMockBrowser(ctrl)
	bctx := mock_api.NewMockBrowserContext(ctrl)
	page := mock_api.NewMockPage(ctrl)

	snapshot := &api.StorageState{Cookies: testCreds.Cookies}
	gomock.InOrder(
		b.EXPECT().NewContext(gomock.Any(), gomock.Any()).Return(bctx, nil),
		bctx.EXPECT().AddCookies(gomock.Any(), testCreds.Cookies).Return(nil),
		bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil),
		page.EXPECT().Goto(gomock.Any(), "https://shop.test/client").Return(nil),
		page.EXPECT().Evaluate(gomock.Any(), js.SeedSessionScript, map[string]string{"token": "abc", "userId": "123"}).Return(nil, nil),
		page.EXPECT().Close().Return(nil),
		bctx.EXPECT().StorageState(gomock.Any()).Return(snapshot, nil),
		bctx.EXPECT().Close().Return(nil),
	)

	m := NewMaterializer(testEnv(t, "https://shop.test"), nil)
	state, err := m.Materialize(context.Background(), b, testCreds)
	require.NoError(t, err)
	assert.Equal(t, "abc", state.Token)
	assert.Equal(t, "123", state.UserID)
}

func TestMaterializeClosesContextOnFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name   string
		expect func(bctx *mock_api.MockBrowserContext, page *mock_api.MockPage)
	}{
		{
			name: "add_cookies",
			expect: func(bctx *mock_api.MockBrowserContext, _ *mock_api.MockPage) {
				bctx.EXPECT().AddCookies(gomock.Any(), gomock.Any()).Return(boom)
			},
		},
		{
			name: "new_page",
			expect: func(bctx *mock_api.MockBrowserContext, _ *mock_api.MockPage) {
				bctx.EXPECT().AddCookies(gomock.Any(), gomock.Any()).Return(nil)
				bctx.EXPECT().NewPage(gomock.Any()).Return(nil, boom)
			},
		},
		{
			name: "goto",
			expect: func(bctx *mock_api.MockBrowserContext, page *mock_api.MockPage) {
				bctx.EXPECT().AddCookies(gomock.Any(), gomock.Any()).Return(nil)
				bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil)
				page.EXPECT().Goto(gomock.Any(), gomock.Any()).Return(boom)
				page.EXPECT().Close().Return(nil)
			},
		},
		{
			name: "evaluate",
			expect: func(bctx *mock_api.MockBrowserContext, page *mock_api.MockPage) {
				bctx.EXPECT().AddCookies(gomock.Any(), gomock.Any()).Return(nil)
				bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil)
				page.EXPECT().Goto(gomock.Any(), gomock.Any()).Return(nil)
				page.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)
				page.EXPECT().Close().Return(nil)
			},
		},
		{
			name: "storage_state",
			expect: func(bctx *mock_api.MockBrowserContext, page *mock_api.MockPage) {
				bctx.EXPECT().AddCookies(gomock.Any(), gomock.Any()).Return(nil)
				bctx.EXPECT().NewPage(gomock.Any()).Return(page, nil)
				page.EXPECT().Goto(gomock.Any(), gomock.Any()).Return(nil)
				page.EXPECT().Evaluate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
				page.EXPECT().Close().Return(nil)
				bctx.EXPECT().StorageState(gomock.Any()).Return(nil, boom)
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			b := mock_api.NewMockBrowser(ctrl)
			bctx := mock_api.NewMockBrowserContext(ctrl)
			page := mock_api.NewMockPage(ctrl)

			b.EXPECT().NewContext(gomock.Any(), gomock.Any()).Return(bctx, nil)
			tt.expect(bctx, page)
			bctx.EXPECT().Close().Return(nil).Times(1)

			m := NewMaterializer(testEnv(t, "https://shop.test"), nil)
			state, err := m.Materialize(context.Background(), b, testCreds)
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, state)
		})
	}
}

func TestMaterializeJoinsCloseErrors(t *testing.T) {
	t.Parallel()

	b := apitest.NewBrowser()
	gotoErr, closeErr := errors.New("goto failed"), errors.New("close failed")
	b.Fail["Goto"] = gotoErr
	b.Fail["CloseContext"] = closeErr

	m := NewMaterializer(testEnv(t, "https://shop.test"), nil)
	_, err := m.Materialize(context.Background(), b, testCreds)
	assert.ErrorIs(t, err, gotoErr)
	assert.ErrorIs(t, err, closeErr)
}

func TestMaterializeNewContextFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	b := mock_api.NewMockBrowser(ctrl)
	boom := errors.New("no browser")
	b.EXPECT().NewContext(gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := NewMaterializer(testEnv(t, "https://shop.test"), nil).Materialize(context.Background(), b, testCreds)
	assert.ErrorIs(t, err, boom)
}

func TestMaterializeWithoutCookies(t *testing.T) {
	t.Parallel()

	b := apitest.NewBrowser()
	b.Fail["AddCookies"] = errors.New("must not be called")

	creds := &Credentials{Token: "abc", UserID: "123"}
	state, err := NewMaterializer(testEnv(t, "https://shop.test"), nil).Materialize(context.Background(), b, creds)
	require.NoError(t, err)
	assert.Empty(t, state.Cookies)
}
