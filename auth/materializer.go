package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/common/js"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/storage"
)

// Materializer turns credentials into a browser session.
type Materializer struct {
	logger  *common.Logger
	landing string
	opts    *common.ContextOptions
}

// NewMaterializer returns a Materializer seeding sessions on the landing
// route of e.
func NewMaterializer(e *env.Environment, logger *common.Logger) *Materializer {
	opts := common.NewContextOptions()
	opts.BaseURL = e.BaseURL
	return &Materializer{
		logger:  logger,
		landing: e.URL(e.Routes.Landing),
		opts:    opts,
	}
}

// Materialize opens a fresh isolated context, installs the login cookies,
// seeds local storage on the landing page and captures the resulting state.
// The returned state carries the token and user id at the top level as well.
// The context is closed on every path.
func (m *Materializer) Materialize(ctx context.Context, b api.Browser, creds *Credentials) (_ *storage.SessionState, err error) {
	bctx, err := b.NewContext(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("opening browser context: %w", err)
	}
	defer func() {
		if cerr := bctx.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing browser context: %w", cerr))
		}
	}()

	if len(creds.Cookies) > 0 {
		if err := bctx.AddCookies(ctx, creds.Cookies); err != nil {
			return nil, fmt.Errorf("adding login cookies: %w", err)
		}
	}
	if err := m.seed(ctx, bctx, creds); err != nil {
		return nil, err
	}

	ss, err := bctx.StorageState(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing storage state: %w", err)
	}
	m.logger.Debugf("Materializer:Materialize", "cookies:%d origins:%d", len(ss.Cookies), len(ss.Origins))

	return &storage.SessionState{
		StorageState: *ss,
		Token:        creds.Token,
		UserID:       creds.UserID,
	}, nil
}

func (m *Materializer) seed(ctx context.Context, bctx api.BrowserContext, creds *Credentials) (err error) {
	page, err := bctx.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing page: %w", cerr))
		}
	}()

	if err := page.Goto(ctx, m.landing); err != nil {
		return fmt.Errorf("navigating to %q: %w", m.landing, err)
	}
	arg := map[string]string{"token": creds.Token, "userId": creds.UserID}
	if _, err := page.Evaluate(ctx, js.SeedSessionScript, arg); err != nil {
		return fmt.Errorf("seeding local storage: %w", err)
	}

	return nil
}
