package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/3000Studios/vite-react/internal/common"
)

// ErrHTTPStatus is returned by Navigate when the document response is not 2xx/3xx.
var ErrHTTPStatus = errors.New("non-success HTTP status")

// Options configures a browser session.
type Options struct {
	Headless bool
	// RemoteURL attaches to an already running Chrome (ws:// debugger URL or
	// http:// DevTools endpoint) instead of launching one.
	RemoteURL       string
	Viewport        Viewport
	PageLoadTimeout time.Duration
	// UserAgentSuffix is appended to the browser's own user agent so requests
	// can be told apart in the target's access logs.
	UserAgentSuffix string
	Logger          *common.Logger
}

// DefaultOptions returns headless desktop defaults.
func DefaultOptions() Options {
	return Options{
		Headless:        true,
		Viewport:        Viewport{Width: 1280, Height: 800},
		PageLoadTimeout: 15 * time.Second,
		Logger:          common.NewSilentLogger(),
	}
}

// Session is one browser tab driven through chromedp. It is valid between
// Open and Close and must not be shared between concurrent flows.
type Session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     Options
	jsErrors *JSErrorCollector
	once     sync.Once
}

// Open launches (or attaches to) Chrome and opens a tab. The caller owns the
// session and must Close it. ctx is only checked before launching; the browser
// outlives it.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = common.NewSilentLogger()
	}
	if opts.Viewport.IsZero() {
		opts.Viewport = DefaultOptions().Viewport
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = DefaultOptions().PageLoadTimeout
	}

	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if opts.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(int(opts.Viewport.Width), int(opts.Viewport.Height)),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), execOpts...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:  tabCtx,
		opts: opts,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}
	s.jsErrors = NewJSErrorCollector(tabCtx)

	if err := ctx.Err(); err != nil {
		s.cancel()
		return nil, err
	}

	// The first Run allocates the browser and its lifetime follows the context
	// it is given, so it must be the tab context itself, not a derived one.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(opts.Viewport.Width, opts.Viewport.Height)); err != nil {
		s.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	if opts.UserAgentSuffix != "" {
		if err := chromedp.Run(tabCtx, overrideUserAgent(opts.UserAgentSuffix)); err != nil {
			s.cancel()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	opts.Logger.Debug().
		Bool("headless", opts.Headless).
		Str("remote_url", opts.RemoteURL).
		Str("viewport", opts.Viewport.String()).
		Msg("browser session opened")

	return s, nil
}

// overrideUserAgent reads the browser's user agent and re-sends it with suffix
// appended. It applies to the tab, so it works for launched and remote browsers.
func overrideUserAgent(suffix string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		_, _, _, ua, _, err := cdpbrowser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		return emulation.SetUserAgentOverride(withSuffix(ua, suffix)).Do(ctx)
	})
}

func withSuffix(ua, suffix string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return suffix
	}
	if strings.HasSuffix(ua, suffix) {
		return ua
	}
	return ua + " " + suffix
}

// bind derives a context carrying the tab from s.ctx and the deadline and
// cancellation of ctx.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(s.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		bound, cancelDeadline = context.WithDeadline(bound, deadline)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// Navigate loads url and waits for the body. It returns the HTTP status of the
// document response, or 0 when the navigation produced none (same-document).
func (s *Session) Navigate(ctx context.Context, url string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.PageLoadTimeout)
	defer cancel()
	bctx, done := s.bind(ctx)
	defer done()

	s.jsErrors.Reset()

	resp, err := chromedp.RunResponse(bctx, chromedp.Navigate(url))
	if err != nil {
		return 0, fmt.Errorf("navigate %s: %w", url, err)
	}

	status := 0
	if resp != nil {
		status = int(resp.Status)
	}
	if status >= 400 {
		return status, fmt.Errorf("navigate %s: %w: %d", url, ErrHTTPStatus, status)
	}

	if err := chromedp.Run(bctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return status, fmt.Errorf("wait for body %s: %w", url, err)
	}
	return status, nil
}

// WaitVisible blocks until the first match of loc is visible or ctx expires.
func (s *Session) WaitVisible(ctx context.Context, loc Locator) error {
	sel, opts, err := loc.query()
	if err != nil {
		return err
	}
	bctx, done := s.bind(ctx)
	defer done()
	return chromedp.Run(bctx, chromedp.WaitVisible(sel, opts...))
}

// Click waits for the first match of loc to be visible and clicks it.
func (s *Session) Click(ctx context.Context, loc Locator) error {
	sel, opts, err := loc.query()
	if err != nil {
		return err
	}
	bctx, done := s.bind(ctx)
	defer done()
	return chromedp.Run(bctx,
		chromedp.WaitVisible(sel, opts...),
		chromedp.Click(sel, opts...),
	)
}

// SetViewport resizes the emulated viewport. The current page re-renders in
// place; no navigation happens.
func (s *Session) SetViewport(ctx context.Context, vp Viewport) error {
	bctx, done := s.bind(ctx)
	defer done()
	return chromedp.Run(bctx, chromedp.EmulateViewport(vp.Width, vp.Height))
}

type attrResult struct {
	Found bool   `json:"found"`
	Value string `json:"value"`
}

// Attribute returns the named attribute of the first match of loc. ok is false
// when no element matches or the attribute is absent.
func (s *Session) Attribute(ctx context.Context, loc Locator, name string) (string, bool, error) {
	els, err := loc.jsElements()
	if err != nil {
		return "", false, err
	}
	var res attrResult
	err = s.evaluate(ctx, fmt.Sprintf(`
		(() => {
			const els = %s;
			if (!els.length || !els[0].hasAttribute('%s')) return { found: false, value: '' };
			return { found: true, value: els[0].getAttribute('%s') };
		})()
	`, els, escJS(name), escJS(name)), &res)
	return res.Value, res.Found, err
}

// Text returns the trimmed text content of the first match of loc.
func (s *Session) Text(ctx context.Context, loc Locator) (string, bool, error) {
	els, err := loc.jsElements()
	if err != nil {
		return "", false, err
	}
	var res attrResult
	err = s.evaluate(ctx, fmt.Sprintf(`
		(() => {
			const els = %s;
			if (!els.length) return { found: false, value: '' };
			return { found: true, value: els[0].textContent.trim() };
		})()
	`, els), &res)
	return res.Value, res.Found, err
}

// Visible reports whether the first match of loc is rendered.
func (s *Session) Visible(ctx context.Context, loc Locator) (bool, error) {
	els, err := loc.jsElements()
	if err != nil {
		return false, err
	}
	var visible bool
	err = s.evaluate(ctx, fmt.Sprintf(`
		(() => {
			const els = %s;
			if (!els.length) return false;
			const style = getComputedStyle(els[0]);
			if (style.display === 'none' || style.visibility === 'hidden') return false;
			return els[0].getClientRects().length > 0;
		})()
	`, els), &visible)
	return visible, err
}

// Count returns how many elements match loc.
func (s *Session) Count(ctx context.Context, loc Locator) (int, error) {
	els, err := loc.jsElements()
	if err != nil {
		return 0, err
	}
	var count int
	err = s.evaluate(ctx, fmt.Sprintf(`(%s).length`, els), &count)
	return count, err
}

// Title returns the document title.
func (s *Session) Title(ctx context.Context) (string, error) {
	bctx, done := s.bind(ctx)
	defer done()
	var title string
	err := chromedp.Run(bctx, chromedp.Title(&title))
	return title, err
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	bctx, done := s.bind(ctx)
	defer done()
	var loc string
	err := chromedp.Run(bctx, chromedp.Location(&loc))
	return loc, err
}

// JSErrors returns JS errors collected since the last navigation.
func (s *Session) JSErrors() []string {
	return s.jsErrors.Errors()
}

// Screenshot writes a full-page PNG to path, creating parent directories.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	bctx, done := s.bind(ctx)
	defer done()

	var buf []byte
	// Quality 100 selects PNG encoding.
	if err := chromedp.Run(bctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0644)
}

// Close shuts the tab and the browser (or detaches from a remote one). It is
// safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.cancel()
		s.opts.Logger.Debug().Msg("browser session closed")
	})
	return nil
}

func (s *Session) evaluate(ctx context.Context, expr string, res interface{}) error {
	bctx, done := s.bind(ctx)
	defer done()
	return chromedp.Run(bctx, chromedp.Evaluate(expr, res))
}
