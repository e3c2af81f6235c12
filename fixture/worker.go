// Package fixture wires a worker lane: browser, session cache entry and the
// per-spec pages opened from it.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/auth"
	"github.com/qa-labs/ecom-e2e/browser"
	"github.com/qa-labs/ecom-e2e/chromium"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/shopfake"
	"github.com/qa-labs/ecom-e2e/storage"
)

// Worker is the state shared by every spec of one worker lane.
type Worker struct {
	cfg    *env.Config
	id     int
	env    *env.Environment
	users  *accounts.UsersFile
	store  *storage.SessionStore
	gate   *auth.Gate
	logger *common.Logger

	persister storage.FilePersister
	browser   *chromium.Browser
	entry     string

	shop     *shopfake.Shop
	stopShop context.CancelFunc
	shopDone chan error

	closeOnce sync.Once
}

// SetupWorker prepares lane workerID: it resolves the environment, starts
// the fake shop when configured, launches Chromium for the specs and runs the
// cache gate through the configured driver.
func SetupWorker(ctx context.Context, cfg *env.Config, workerID int, logger *common.Logger) (_ *Worker, err error) {
	w, err := newWorker(ctx, cfg, workerID, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, w.Close())
		}
	}()

	w.browser, err = chromium.Launch(ctx, chromium.LaunchOptions{
		Headless:       cfg.Headless,
		ExecutablePath: cfg.ChromiumExecutable,
		Install:        cfg.InstallBrowsers,
	}, w.logger)
	if err != nil {
		return nil, err
	}

	gateBrowser := api.Browser(w.browser)
	if cfg.Driver != env.DriverPlaywright {
		if gateBrowser, err = browser.Launch(ctx, cfg, w.logger); err != nil {
			return nil, err
		}
		defer func() {
			if cerr := gateBrowser.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("closing %s browser: %w", cfg.Driver, cerr))
			}
		}()
	}

	if _, err := w.Acquire(ctx, gateBrowser); err != nil {
		return nil, err
	}
	return w, nil
}

func newWorker(ctx context.Context, cfg *env.Config, workerID int, logger *common.Logger) (_ *Worker, err error) {
	if workerID < 0 {
		return nil, &common.InvalidWorkerError{WorkerID: workerID}
	}
	e, err := cfg.Environment()
	if err != nil {
		return nil, err
	}
	users, err := accounts.LoadDir(cfg.AccountsDir, cfg.Env)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		cfg:       cfg,
		id:        workerID,
		env:       e,
		users:     users,
		store:     storage.NewSessionStore(cfg.AuthDir(), nil),
		logger:    logger.With(common.WithWorkerID(ctx, workerID)),
		persister: &storage.LocalFilePersister{},
	}
	if cfg.UseFakeShop {
		if err := w.startShop(); err != nil {
			return nil, err
		}
		// entries of an earlier run point at another port and at tokens
		// the new shop never issued
		if err := w.store.Remove(workerID); err != nil {
			return nil, errors.Join(err, w.Close())
		}
	}
	w.gate = auth.NewGate(w.env, w.store, users, auth.NewAuthenticator(cfg.RequestTimeout, w.logger), w.logger)

	return w, nil
}

func (w *Worker) startShop() error {
	w.shop = shopfake.FromUsersFile(w.users, shopfake.WithLogger(w.logger))
	srv, err := w.shop.Listen("127.0.0.1:0")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.stopShop = cancel
	w.shopDone = make(chan error, 1)
	go func() { w.shopDone <- srv.Serve(ctx) }()

	w.env = w.env.WithBaseURL(srv.URL(), env.FakeShopRoutes)
	w.logger.Infof("fixture:startShop", "fake shop listening on %s", srv.URL())
	return nil
}

// Acquire runs the cache gate for the lane with b and records the entry.
func (w *Worker) Acquire(ctx context.Context, b api.Browser) (string, error) {
	entry, err := w.gate.Acquire(ctx, b, w.id)
	if err != nil {
		return "", err
	}
	w.entry = entry
	return entry, nil
}

// ID is the worker lane.
func (w *Worker) ID() int { return w.id }

// Entry is the session cache entry path of the lane.
func (w *Worker) Entry() string { return w.entry }

// Env is the resolved target, pointing at the fake shop when one runs.
func (w *Worker) Env() *env.Environment { return w.env }

// Config is the run configuration.
func (w *Worker) Config() *env.Config { return w.cfg }

// Users is the account data of the environment.
func (w *Worker) Users() *accounts.UsersFile { return w.users }

// Account is the account the lane is signed in as.
func (w *Worker) Account() accounts.Account { return w.users.Resolve(w.id) }

// Store is the session cache.
func (w *Worker) Store() *storage.SessionStore { return w.store }

// Gate is the lane's cache gate.
func (w *Worker) Gate() *auth.Gate { return w.gate }

// Shop is the fake shop, or nil when the run targets a real site.
func (w *Worker) Shop() *shopfake.Shop { return w.shop }

// Browser is the Chromium the specs run in.
func (w *Worker) Browser() *chromium.Browser { return w.browser }

// Logger is the lane logger.
func (w *Worker) Logger() *common.Logger { return w.logger }

// Close closes the browser and stops the fake shop.
func (w *Worker) Close() error {
	var errs []error
	w.closeOnce.Do(func() {
		if w.browser != nil {
			if err := w.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if w.stopShop != nil {
			w.stopShop()
			if err := <-w.shopDone; err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
