package fixture

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/qa-labs/ecom-e2e/common"
	"github.com/qa-labs/ecom-e2e/pages"
	"github.com/qa-labs/ecom-e2e/trace"
)

// Spec is the isolated browser context and page of one spec attempt.
type Spec struct {
	Name    string
	Attempt int
	Context playwright.BrowserContext
	Page    playwright.Page
	Base    *pages.BasePage

	worker      *Worker
	screenshots *common.Screenshotter
	video       *common.VideoCapture
	tracer      *trace.Tracer
}

// NewPage opens a context signed in from the lane's cache entry. Finish may
// run after ctx is done; artifacts are still written.
func (w *Worker) NewPage(ctx context.Context, name string, attempt int) (*Spec, error) {
	if w.entry == "" {
		return nil, errors.New("worker has no session cache entry; call SetupWorker first")
	}
	return w.newSpec(ctx, name, attempt, w.entry)
}

// NewAnonymousPage opens a context without a session, for specs exercising
// the login form.
func (w *Worker) NewAnonymousPage(ctx context.Context, name string, attempt int) (*Spec, error) {
	return w.newSpec(ctx, name, attempt, "")
}

func (w *Worker) newSpec(ctx context.Context, name string, attempt int, entry string) (_ *Spec, err error) {
	s := &Spec{
		Name:        name,
		Attempt:     attempt,
		worker:      w,
		screenshots: common.NewScreenshotter(context.WithoutCancel(ctx), w.logger, w.cfg.Screenshot, w.cfg.OutputDir, w.persister),
		video:       common.NewVideoCapture(w.logger, w.cfg.Video, w.cfg.OutputDir, name),
	}

	opts := w.contextOptions(entry, s.video.Dir())
	if s.Context, err = w.browser.NewPlaywrightContext(opts); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, s.abandon())
		}
	}()
	s.Context.SetDefaultTimeout(float64(w.cfg.TestTimeout.Milliseconds()))
	s.Context.SetDefaultNavigationTimeout(float64(w.cfg.RequestTimeout.Milliseconds()))

	if s.tracer, err = trace.Start(w.logger, w.cfg.Trace, s.Context, w.cfg.OutputDir, name, attempt); err != nil {
		return nil, err
	}
	if s.Page, err = s.Context.NewPage(); err != nil {
		return nil, fmt.Errorf("opening page for %q: %w", name, err)
	}
	s.Base = pages.NewBasePage(s.Page, w.env, w.cfg.ExpectTimeout, w.logger)

	return s, nil
}

func (w *Worker) contextOptions(entry, videoDir string) *common.ContextOptions {
	opts := common.NewContextOptions()
	opts.BaseURL = w.env.BaseURL
	opts.VideosPath = videoDir
	if entry != "" {
		opts = opts.WithStorageState(entry)
	}
	return opts
}

// abandon releases a spec that failed to open. A running trace is stopped
// before its context is closed.
func (s *Spec) abandon() error {
	_, terr := s.tracer.Stop()
	if err := s.Context.Close(); err != nil {
		return errors.Join(terr, fmt.Errorf("closing context of %q: %w", s.Name, err))
	}
	return terr
}

// Login returns the login page object of the spec.
func (s *Spec) Login() *pages.LoginPage { return pages.NewLoginPage(s.Base) }

// Home returns the product listing page object of the spec.
func (s *Spec) Home() *pages.HomePage { return pages.NewHomePage(s.Base) }

// CardDetails returns the product detail page object of the spec.
func (s *Spec) CardDetails() *pages.CardDetailsPage { return pages.NewCardDetailsPage(s.Base) }

// Cart returns the cart page object of the spec.
func (s *Spec) Cart() *pages.CartPage { return pages.NewCartPage(s.Base) }

// Finish applies the artifact policies for the outcome and closes the
// context. Recordings are only complete once the context is closed.
func (s *Spec) Finish(failed bool) error {
	var errs []error
	if _, err := s.screenshots.Capture(s.Name, failed, func() ([]byte, error) {
		return s.Page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
	}); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.tracer.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := s.Context.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing context of %q: %w", s.Name, err))
	}
	if err := s.video.Finish(failed); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
