// Command ecom-e2e manages the session cache and the fake shop the browser
// suites run against.
//
//	ecom-e2e auth [--workers N] [--force]   warm the session cache
//	ecom-e2e clean                          drop every cache entry
//	ecom-e2e accounts [--workers N]         show the account of each lane
//	ecom-e2e serve [--addr HOST:PORT]       run the fake shop
//
// Configuration comes from the environment and the nearest .env file. Every
// command also takes --env, --base-url, --output-dir and --driver, which
// override the matching variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/env"
)

type command func(ctx context.Context, cfg *env.Config, logger *common.Logger, args []string, out io.Writer) error

var commands = map[string]command{ //nolint:gochecknoglobals
	"auth":     runAuth,
	"clean":    runClean,
	"accounts": runAccounts,
	"serve":    runServe,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	cfg, err := env.LoadConfig()
	if err != nil {
		failf(stderr, "%v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithRunID(ctx, strconv.Itoa(os.Getpid()))

	logger, err := cfg.Logger(ctx, stderr)
	if err != nil {
		failf(stderr, "%v", err)
		return 1
	}

	if err := cmd(ctx, cfg, logger, args[1:], stdout); err != nil {
		failf(stderr, "%s: %v", args[0], err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: ecom-e2e <auth|clean|accounts|serve> [flags]")
}

func okf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("ok"), fmt.Sprintf(format, args...))
}

func failf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.RedString("FAIL"), fmt.Sprintf(format, args...))
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

// workers resolves the --workers flag, falling back to the configured lane
// count.
func workers(cfg *env.Config, flag int) (int, error) {
	if flag < 0 {
		return 0, fmt.Errorf("--workers must be >= 1, got %d", flag)
	}
	if flag == 0 {
		return cfg.EffectiveWorkers(), nil
	}
	return flag, nil
}

type configFlags struct {
	env, baseURL, outputDir, driver *string
}

func addConfigFlags(fs *pflag.FlagSet) *configFlags {
	return &configFlags{
		env:       fs.String("env", "", "target environment (ENV)"),
		baseURL:   fs.String("base-url", "", "base URL override (BASE_URL)"),
		outputDir: fs.String("output-dir", "", "artifact and cache root (OUTPUT_DIR)"),
		driver:    fs.String("driver", "", "browser driver (BROWSER_DRIVER)"),
	}
}

// apply copies the flags the user set onto cfg.
func (f *configFlags) apply(fs *pflag.FlagSet, cfg *env.Config) error {
	if fs.Changed("env") {
		name, err := env.ParseName(*f.env)
		if err != nil {
			return err
		}
		cfg.Env = name
	}
	if fs.Changed("base-url") {
		cfg.BaseURL = null.StringFrom(*f.baseURL)
	}
	if fs.Changed("output-dir") {
		if *f.outputDir == "" {
			return errors.New("--output-dir must not be empty")
		}
		cfg.OutputDir = *f.outputDir
	}
	if fs.Changed("driver") {
		d, err := env.ParseDriver(*f.driver)
		if err != nil {
			return err
		}
		cfg.Driver = d
	}
	return nil
}

// parse parses args into fs, including the config override flags.
func parse(fs *pflag.FlagSet, cfg *env.Config, args []string) error {
	cf := addConfigFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cf.apply(fs, cfg)
}
