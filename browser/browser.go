// Package browser launches the browser driver a run is configured with.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/qa-labs/ecom-e2e/api"
	"github.com/qa-labs/ecom-e2e/browserprocess"
	"github.com/qa-labs/ecom-e2e/cdp"
	"github.com/qa-labs/ecom-e2e/chromium"
	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
	"github.com/qa-labs/ecom-e2e/rodext"
)

// LaunchFunc starts a browser for cfg.
type LaunchFunc func(ctx context.Context, cfg *env.Config, logger *common.Logger) (api.Browser, error)

var launchers = map[env.Driver]LaunchFunc{ //nolint:gochecknoglobals
	env.DriverPlaywright: func(ctx context.Context, cfg *env.Config, logger *common.Logger) (api.Browser, error) {
		return chromium.Launch(ctx, chromium.LaunchOptions{
			Headless:       cfg.Headless,
			ExecutablePath: cfg.ChromiumExecutable,
			Install:        cfg.InstallBrowsers,
		}, logger)
	},
	env.DriverChromedp: func(ctx context.Context, cfg *env.Config, logger *common.Logger) (api.Browser, error) {
		return cdp.Launch(ctx, cdp.LaunchOptions{
			Headless:       cfg.Headless,
			ExecutablePath: cfg.ChromiumExecutable,
		}, logger)
	},
	env.DriverRod: func(ctx context.Context, cfg *env.Config, logger *common.Logger) (api.Browser, error) {
		return rodext.Launch(ctx, rodext.LaunchOptions{
			Headless:       cfg.Headless,
			ExecutablePath: cfg.ChromiumExecutable,
		}, logger)
	},
}

// Launch starts the browser selected by cfg.Driver.
func Launch(ctx context.Context, cfg *env.Config, logger *common.Logger) (api.Browser, error) {
	return LaunchDriver(ctx, cfg.Driver, cfg, logger)
}

// LaunchDriver starts the browser of driver d, whatever cfg.Driver says.
func LaunchDriver(ctx context.Context, d env.Driver, cfg *env.Config, logger *common.Logger) (api.Browser, error) {
	launch, ok := launchers[d]
	if !ok {
		return nil, fmt.Errorf("unknown browser driver %q", d)
	}
	logger.Debugf("browser:Launch", "driver:%s headless:%t", d, cfg.Headless)

	b, err := launch(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("launching %s browser: %w", d, err)
	}
	return b, nil
}

// KillOnInterrupt force-kills the browsers registered for the run in ctx
// when the process receives SIGINT or SIGTERM before done is closed.
// Browsers started by a driver would otherwise outlive an interrupted run.
func KillOnInterrupt(ctx context.Context, logger *common.Logger, done <-chan struct{}) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	ctx = contextWithDoneChan(ctx, done)
	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logger.Warnf("browser:KillOnInterrupt", "received %s, killing browsers", sig)
			browserprocess.ForceProcessShutdown(ctx)
		case <-ctx.Done():
		}
	}()
}
