package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/trace"
)

// Driver names a browser automation backend.
type Driver string

const (
	DriverPlaywright Driver = "playwright"
	DriverChromedp   Driver = "chromedp"
	DriverRod        Driver = "rod"
)

// Drivers lists the supported drivers.
func Drivers() []Driver { return []Driver{DriverPlaywright, DriverChromedp, DriverRod} }

var driverToID = map[string]Driver{ //nolint:gochecknoglobals
	"playwright": DriverPlaywright,
	"chromedp":   DriverChromedp,
	"rod":        DriverRod,
}

// ParseDriver parses a driver name. The empty string maps to DriverPlaywright.
func ParseDriver(s string) (Driver, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DriverPlaywright, nil
	}
	d, ok := driverToID[s]
	if !ok {
		return "", fmt.Errorf("unknown browser driver %q", s)
	}
	return d, nil
}

// Defaults.
const (
	DefaultOutputDir      = "test-results"
	DefaultRequestTimeout = 30 * time.Second
	DefaultTestTimeout    = 30 * time.Second
	DefaultExpectTimeout  = 5 * time.Second
	DefaultLogLevel       = "info"

	authDirName = ".auth"
	envFileName = ".env"
)

// Config is the run configuration, read from the process environment.
type Config struct {
	Env            Name
	BaseURL        null.String
	OutputDir      string
	AccountsDir    string
	RequestTimeout time.Duration
	TestTimeout    time.Duration
	ExpectTimeout  time.Duration
	CI             bool
	Retries        null.Int
	Workers        null.Int
	Headless       bool
	Driver         Driver
	// ChromiumExecutable points every driver at a system Chrome.
	ChromiumExecutable string
	// InstallBrowsers downloads the Playwright driver and Chromium on launch.
	InstallBrowsers bool
	UseFakeShop     bool
	Screenshot      common.ScreenshotMode
	Video           common.VideoMode
	Trace           trace.Mode
	LogLevel        string
	LogCategory     string
}

// LoadConfig reads the configuration from the environment, after seeding it
// from the nearest .env file. Variables already set take precedence over the
// file. Every invalid value is reported in the returned error.
func LoadConfig() (*Config, error) {
	loadEnvFile()
	return ConfigFromLookup(os.LookupEnv)
}

// ConfigFromLookup builds a Config from lookup without touching .env files.
func ConfigFromLookup(lookup func(string) (string, bool)) (*Config, error) {
	r := reader{lookup: lookup}

	c := &Config{
		OutputDir:          r.str("OUTPUT_DIR", DefaultOutputDir),
		AccountsDir:        r.str("ACCOUNTS_DIR", ""),
		RequestTimeout:     r.duration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		TestTimeout:        r.duration("TEST_TIMEOUT", DefaultTestTimeout),
		ExpectTimeout:      r.duration("EXPECT_TIMEOUT", DefaultExpectTimeout),
		CI:                 r.boolean("CI", false),
		Retries:            r.nullInt("RETRIES"),
		Workers:            r.nullInt("WORKERS"),
		Headless:           r.boolean("HEADLESS", true),
		ChromiumExecutable: r.str("PLAYWRIGHT_CHROMIUM_EXECUTABLE_PATH", ""),
		InstallBrowsers:    r.boolean("PLAYWRIGHT_INSTALL", false),
		UseFakeShop:        r.boolean("USE_FAKE_SHOP", false),
		LogLevel:           r.str("LOG_LEVEL", DefaultLogLevel),
		LogCategory:        r.str("LOG_CATEGORY", ""),
	}
	if v, ok := r.value("BASE_URL"); ok {
		c.BaseURL = null.StringFrom(v)
	}

	var err error
	if c.Env, err = ParseName(r.str("ENV", "")); err != nil {
		r.fail(err)
	}
	if c.Driver, err = ParseDriver(r.str("BROWSER_DRIVER", "")); err != nil {
		r.fail(err)
	}

	videoDefault, traceDefault := common.VideoRetainOnFailure, trace.Off
	if c.CI {
		videoDefault, traceDefault = common.VideoOff, trace.OnFirstRetry
	}
	if c.Screenshot, err = common.ParseScreenshotMode(r.str("SCREENSHOT", string(common.ScreenshotOnlyOnFailure))); err != nil {
		r.fail(err)
	}
	if c.Video, err = common.ParseVideoMode(r.str("VIDEO", string(videoDefault))); err != nil {
		r.fail(err)
	}
	if c.Trace, err = trace.ParseMode(r.str("TRACE", string(traceDefault))); err != nil {
		r.fail(err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		r.fail(fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogCategory != "" {
		if _, err := regexp.Compile(c.LogCategory); err != nil {
			r.fail(fmt.Errorf("LOG_CATEGORY: %w", err))
		}
	}
	if c.Retries.Valid && c.Retries.Int64 < 0 {
		r.fail(fmt.Errorf("RETRIES must be >= 0, got %d", c.Retries.Int64))
	}
	if c.Workers.Valid && c.Workers.Int64 < 1 {
		r.fail(fmt.Errorf("WORKERS must be >= 1, got %d", c.Workers.Int64))
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		r.fail(errors.New("OUTPUT_DIR must not be empty"))
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(r.errs...))
	}
	return c, nil
}

// AuthDir is the directory holding session cache entries.
func (c *Config) AuthDir() string {
	return filepath.Join(c.OutputDir, authDirName)
}

// EffectiveRetries is the number of retries per spec: RETRIES when set,
// otherwise one on CI and none locally.
func (c *Config) EffectiveRetries() int {
	if c.Retries.Valid {
		return int(c.Retries.Int64)
	}
	if c.CI {
		return 1
	}
	return 0
}

// EffectiveWorkers is the number of parallel lanes: WORKERS when set,
// otherwise two on CI and half the CPUs locally.
func (c *Config) EffectiveWorkers() int {
	if c.Workers.Valid {
		return int(c.Workers.Int64)
	}
	if c.CI {
		return 2
	}
	return max(1, runtime.NumCPU()/2)
}

// Environment resolves the configured environment.
func (c *Config) Environment() (*Environment, error) {
	return Resolve(c.Env, c.BaseURL)
}

// Logger builds the run logger writing to out.
func (c *Config) Logger(ctx context.Context, out io.Writer) (*common.Logger, error) {
	ll := logrus.New()
	ll.SetOutput(out)
	ll.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	ll.SetLevel(level)

	var filter *regexp.Regexp
	if c.LogCategory != "" {
		if filter, err = regexp.Compile(c.LogCategory); err != nil {
			return nil, fmt.Errorf("compiling log category filter: %w", err)
		}
	}
	return common.NewLogger(ctx, ll, false, filter), nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) value(key string) (string, bool) {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (r *reader) fail(err error) { r.errs = append(r.errs, err) }

func (r *reader) str(key, def string) string {
	if v, ok := r.value(key); ok {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	if d <= 0 {
		r.fail(fmt.Errorf("%s must be positive, got %s", key, d))
		return def
	}
	return d
}

func (r *reader) boolean(key string, def bool) bool {
	v, ok := r.value(key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func (r *reader) nullInt(key string) null.Int {
	v, ok := r.value(key)
	if !ok {
		return null.Int{}
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(fmt.Errorf("%s: %w", key, err))
		return null.Int{}
	}
	return null.IntFrom(i)
}

// loadEnvFile loads the first .env file found walking up from the working
// directory. A missing file is fine; CI sets variables directly.
func loadEnvFile() {
	path, ok := findEnvFile()
	if !ok {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", path, err)
	}
}

func findEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		p := filepath.Join(dir, envFileName)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
		// stop at the module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
