package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/qa-labs/ecom-e2e/accounts"
	"github.com/qa-labs/ecom-e2e/auth"
	"github.com/qa-labs/ecom-e2e/browser"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/shopfake"
	"github.com/qa-labs/ecom-e2e/storage"
)

func runAuth(ctx context.Context, cfg *env.Config, logger *common.Logger, args []string, out io.Writer) (err error) {
	fs := newFlagSet("auth")
	n := fs.IntP("workers", "w", 0, "number of worker lanes to warm (default: configured workers)")
	force := fs.Bool("force", false, "drop existing entries before logging in")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}
	if cfg.UseFakeShop {
		return errors.New("USE_FAKE_SHOP is set; fake shop entries do not outlive the suite run")
	}
	lanes, err := workers(cfg, *n)
	if err != nil {
		return err
	}

	e, err := cfg.Environment()
	if err != nil {
		return err
	}
	users, err := accounts.LoadDir(cfg.AccountsDir, cfg.Env)
	if err != nil {
		return err
	}
	store := storage.NewSessionStore(cfg.AuthDir(), nil)
	if *force {
		for id := range lanes {
			if err := store.Remove(id); err != nil {
				return err
			}
		}
	}

	done := make(chan struct{})
	defer close(done)
	// ctx is canceled by the same signal; keep only its run id
	browser.KillOnInterrupt(context.WithoutCancel(ctx), logger, done)

	b, err := browser.Launch(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing browser: %w", cerr))
		}
	}()

	gate := auth.NewGate(e, store, users, auth.NewAuthenticator(cfg.RequestTimeout, logger), logger)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lanes)
	for id := range lanes {
		g.Go(func() error {
			entry, err := gate.Acquire(gctx, b, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failf(out, "worker %d: %v", id, err)
				return err
			}
			okf(out, "worker %d %s -> %s", id, users.Resolve(id), entry)
			return nil
		})
	}
	return g.Wait()
}

func runClean(_ context.Context, cfg *env.Config, logger *common.Logger, args []string, out io.Writer) error {
	if err := parse(newFlagSet("clean"), cfg, args); err != nil {
		return err
	}
	store := storage.NewSessionStore(cfg.AuthDir(), nil)
	if err := store.Clear(); err != nil {
		return err
	}
	logger.Debugf("cmd:clean", "removed %q", store.Dir())
	okf(out, "removed %s", store.Dir())
	return nil
}

func runAccounts(_ context.Context, cfg *env.Config, _ *common.Logger, args []string, out io.Writer) error {
	fs := newFlagSet("accounts")
	n := fs.IntP("workers", "w", 0, "number of worker lanes to show (default: configured workers)")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}
	lanes, err := workers(cfg, *n)
	if err != nil {
		return err
	}
	users, err := accounts.LoadDir(cfg.AccountsDir, cfg.Env)
	if err != nil {
		return err
	}
	store := storage.NewSessionStore(cfg.AuthDir(), nil)

	for id := range lanes {
		cached, err := store.Exists(id)
		if err != nil {
			return err
		}
		state := "miss"
		if cached {
			state = "cached"
		}
		fmt.Fprintf(out, "worker %d\t%s\t%s\n", id, users.Resolve(id), state)
	}
	return nil
}

func runServe(ctx context.Context, cfg *env.Config, logger *common.Logger, args []string, out io.Writer) error {
	fs := newFlagSet("serve")
	addr := fs.String("addr", "127.0.0.1:8080", "address to listen on")
	if err := parse(fs, cfg, args); err != nil {
		return err
	}
	users, err := accounts.LoadDir(cfg.AccountsDir, cfg.Env)
	if err != nil {
		return err
	}

	shop := shopfake.FromUsersFile(users, shopfake.WithLogger(logger))
	srv, err := shop.Listen(*addr)
	if err != nil {
		return err
	}
	okf(out, "fake shop on %s", srv.URL())
	for _, email := range shop.Emails() {
		fmt.Fprintf(out, "  account %s\n", email)
	}
	return srv.Serve(ctx)
}
