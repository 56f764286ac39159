package scenario

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/3000Studios/vite-react/internal/artifacts"
	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/common"
)

// Options configures a Runner.
type Options struct {
	// WaitTimeout bounds every wait-for-condition: clicks, wait_for and checks.
	WaitTimeout  time.Duration
	PollInterval time.Duration
	// Store receives screenshots; nil disables them.
	Store  *artifacts.Store
	Out    io.Writer
	Logger *common.Logger
}

// DefaultOptions returns a 5s wait bound polled every 100ms, reporting to stdout.
func DefaultOptions() Options {
	return Options{
		WaitTimeout:  5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		Out:          os.Stdout,
		Logger:       common.NewSilentLogger(),
	}
}

// Runner interprets scenarios against a browser session.
type Runner struct {
	open Opener
	opts Options
}

// NewRunner returns a Runner acquiring a session through open for every run.
func NewRunner(open Opener, opts Options) *Runner {
	def := DefaultOptions()
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = def.WaitTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	return &Runner{open: open, opts: opts}
}

// Run executes sc against baseURL in a single session. The session is closed
// on every path. Per-check mismatches are reported and never returned as an
// error; navigation failures, critical wait timeouts and engine errors abort
// the remaining steps and are returned (wrapping ErrNavigation, ErrWaitTimeout
// or ErrEngine). The outcome is non-nil whenever sc is valid.
func (r *Runner) Run(ctx context.Context, baseURL string, sc Scenario) (*Outcome, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	out := &Outcome{
		RunID:     uuid.NewString(),
		Scenario:  sc.Name,
		BaseURL:   strings.TrimRight(baseURL, "/"),
		StartedAt: time.Now(),
	}
	rn := &run{
		Runner: r,
		sc:     sc,
		out:    out,
		log:    r.opts.Logger.WithCorrelationId(out.RunID),
	}
	rn.transition(StateNotStarted)

	return out, rn.execute(ctx)
}

// run holds the state of one Runner.Run call.
type run struct {
	*Runner
	sc   Scenario
	sess Session
	out  *Outcome
	log  *common.Logger

	// pageLoaded is true while the current step has a rendered page to look at.
	pageLoaded bool
}

func (rn *run) execute(ctx context.Context) error {
	rn.printf("== %s (%s)\n", rn.sc.Name, rn.out.BaseURL)
	rn.log.Info().
		Str("scenario", rn.sc.Name).
		Str("base_url", rn.out.BaseURL).
		Int("steps", len(rn.sc.Steps)).
		Msg("scenario started")

	sess, err := rn.open(ctx)
	if err != nil {
		err = fmt.Errorf("%w: open session: %w", ErrEngine, err)
		rn.abort("", err, rn.sc.Steps)
		rn.transition(StateSessionClosed)
		rn.out.Duration = time.Since(rn.out.StartedAt)
		return err
	}
	rn.sess = sess
	rn.transition(StateSessionOpen)

	defer func() {
		if cerr := sess.Close(); cerr != nil {
			rn.log.Warn().Err(cerr).Msg("session close failed")
		}
		rn.transition(StateSessionClosed)
		rn.out.Duration = time.Since(rn.out.StartedAt)
		rn.printf("%d/%d checks passed\n", rn.out.Passed(), len(rn.out.Results))
		rn.log.Info().
			Str("scenario", rn.sc.Name).
			Int("passed", rn.out.Passed()).
			Int("failed", rn.out.Failed()).
			Bool("aborted", rn.out.Aborted).
			Dur("duration", rn.out.Duration).
			Msg("scenario finished")
	}()

	for i, st := range rn.sc.Steps {
		rn.transition(StateStepRunning)
		if err := rn.runStep(ctx, st); err != nil {
			rn.captureOnAbort(ctx, st)
			rn.abort(st.Name, err, rn.sc.Steps[i+1:])
			return err
		}
	}
	return nil
}

func (rn *run) runStep(ctx context.Context, st Step) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: step %s: %w", ErrEngine, st.Name, err)
	}
	rn.log.Debug().Str("step", st.Name).Str("path", st.Path).Msg("step started")

	if st.Viewport != "" {
		vp, err := browser.ParseViewport(st.Viewport)
		if err != nil {
			return fmt.Errorf("%w: step %s: %w", ErrInvalidScenario, st.Name, err)
		}
		if err := rn.sess.SetViewport(ctx, vp); err != nil {
			return fmt.Errorf("%w: step %s: set viewport %s: %w", ErrEngine, st.Name, vp, err)
		}
		rn.printf("Viewport set to %s\n", vp)
	}

	if st.Path != "" {
		target := rn.out.BaseURL + st.Path
		rn.printf("Navigating to %s...\n", target)
		rn.pageLoaded = false
		status, err := rn.sess.Navigate(ctx, target)
		if err != nil {
			rn.fail(st, st.label(), err.Error())
			return fmt.Errorf("%w: step %s: %w", ErrNavigation, st.Name, err)
		}
		rn.log.Info().Str("step", st.Name).Str("url", target).Int("status", status).Msg("page loaded")
	}
	rn.pageLoaded = true

	if !st.Click.IsZero() {
		label := "Click " + st.Click.String()
		err := rn.waitAction(ctx, st, label, "passed", func(wctx context.Context) error {
			return rn.sess.Click(wctx, st.Click)
		})
		if err != nil {
			return err
		}
	}

	if !st.WaitFor.IsZero() {
		err := rn.waitAction(ctx, st, st.waitLabel(), "found", func(wctx context.Context) error {
			return rn.sess.WaitVisible(wctx, st.WaitFor)
		})
		if err != nil {
			return err
		}
	}

	for _, c := range st.Checks {
		if err := rn.check(ctx, st, c); err != nil {
			return err
		}
	}

	if !st.SkipScreenshot {
		rn.screenshot(ctx, st, rn.opts.Store.ClaimScreenshot)
	}
	return nil
}

// waitAction runs a bounded action. A timeout is a reported mismatch, or an
// abort for critical steps; any other error is an engine error.
func (rn *run) waitAction(ctx context.Context, st Step, label, verb string, action func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, rn.opts.WaitTimeout)
	defer cancel()

	err := action(wctx)
	switch {
	case err == nil:
		rn.pass(st, label, verb)
		return nil
	case timedOut(ctx, wctx, err):
		rn.fail(st, label, fmt.Sprintf("not visible after %s", rn.opts.WaitTimeout))
		if st.Critical {
			return fmt.Errorf("%w: step %s: %s", ErrWaitTimeout, st.Name, label)
		}
		return nil
	default:
		rn.fail(st, label, err.Error())
		return fmt.Errorf("%w: step %s: %s: %w", ErrEngine, st.Name, label, err)
	}
}

// check polls the observation until it matches or the wait bound elapses.
func (rn *run) check(ctx context.Context, st Step, c Check) error {
	label := c.DisplayLabel()

	wctx, cancel := context.WithTimeout(ctx, rn.opts.WaitTimeout)
	defer cancel()

	var last observation
	cond := func(pctx context.Context) (bool, error) {
		obs, err := rn.observe(pctx, c)
		if err != nil {
			return false, err
		}
		last = obs
		return obs.matched, nil
	}

	var err error
	if c.Kind == KindNoJSErrors {
		// Collected errors never go away; polling would only delay the report.
		var ok bool
		if ok, err = cond(wctx); err == nil && !ok {
			err = context.DeadlineExceeded
		}
	} else {
		err = pollUntil(wctx, rn.opts.PollInterval, cond)
	}

	switch {
	case err == nil:
		rn.pass(st, label, c.successVerb())
		return nil
	case timedOut(ctx, wctx, err):
		detail := last.detail
		if detail == "" {
			detail = fmt.Sprintf("no observation within %s", rn.opts.WaitTimeout)
		}
		rn.fail(st, label, detail)
		return nil
	default:
		rn.fail(st, label, err.Error())
		return fmt.Errorf("%w: step %s: check %s: %w", ErrEngine, st.Name, label, err)
	}
}

type observation struct {
	matched bool
	detail  string
}

func (rn *run) observe(ctx context.Context, c Check) (observation, error) {
	switch c.Kind {
	case KindVisible:
		visible, err := rn.sess.Visible(ctx, c.Target)
		return observation{matched: visible, detail: fmt.Sprintf("%s not visible", c.Target)}, err

	case KindHidden:
		visible, err := rn.sess.Visible(ctx, c.Target)
		return observation{matched: !visible, detail: fmt.Sprintf("%s still visible", c.Target)}, err

	case KindAttribute:
		value, ok, err := rn.sess.Attribute(ctx, c.Target, c.Attribute)
		if err != nil {
			return observation{}, err
		}
		if !ok {
			return observation{detail: fmt.Sprintf("expected %s %q, got <missing>", c.Attribute, c.Expected)}, nil
		}
		return observation{
			matched: value == c.Expected,
			detail:  fmt.Sprintf("expected %s %q, got %q", c.Attribute, c.Expected, value),
		}, nil

	case KindText:
		text, ok, err := rn.sess.Text(ctx, c.Target)
		if err != nil {
			return observation{}, err
		}
		if !ok {
			return observation{detail: fmt.Sprintf("expected text containing %q, %s not found", c.Expected, c.Target)}, nil
		}
		return observation{
			matched: strings.Contains(text, c.Expected),
			detail:  fmt.Sprintf("expected text containing %q, got %q", c.Expected, truncate(text, 80)),
		}, nil

	case KindCount:
		op, n, err := parseCountExpr(c.Expected)
		if err != nil {
			return observation{}, err
		}
		count, err := rn.sess.Count(ctx, c.Target)
		return observation{
			matched: evalCount(op, n, count),
			detail:  fmt.Sprintf("expected count %s%d, got %d", op, n, count),
		}, err

	case KindTitle:
		title, err := rn.sess.Title(ctx)
		return observation{
			matched: title == c.Expected,
			detail:  fmt.Sprintf("expected title %q, got %q", c.Expected, title),
		}, err

	case KindURL:
		loc, err := rn.sess.Location(ctx)
		return observation{
			matched: urlMatches(loc, c.Expected),
			detail:  fmt.Sprintf("expected url %q, got %q", c.Expected, loc),
		}, err

	case KindNoJSErrors:
		errs := rn.sess.JSErrors()
		return observation{
			matched: len(errs) == 0,
			detail:  strings.Join(errs, "; "),
		}, nil

	default:
		return observation{}, fmt.Errorf("unknown check kind %q", c.Kind)
	}
}

// urlMatches accepts the full URL, its path, or its path with query.
func urlMatches(location, expected string) bool {
	if location == expected {
		return true
	}
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return u.Path == expected || u.RequestURI() == expected
}

// screenshot saves the step's PNG; failures are logged, never fatal.
func (rn *run) screenshot(ctx context.Context, st Step, claim func(scenarioName, step string) (string, error)) {
	if rn.opts.Store == nil {
		return
	}
	path, err := claim(rn.sc.Name, st.Name)
	if err != nil {
		rn.log.Warn().Err(err).Str("step", st.Name).Msg("screenshot skipped")
		return
	}
	if err := rn.sess.Screenshot(ctx, path); err != nil {
		rn.printf("Screenshot failed: %v\n", err)
		rn.log.Warn().Err(err).Str("step", st.Name).Msg("screenshot failed")
		return
	}
	rn.out.Screenshots = append(rn.out.Screenshots, path)
	rn.printf("Screenshot saved to %s\n", path)
}

// captureOnAbort takes the aborting step's screenshot on a best-effort basis:
// the declared step screenshot when its page loaded, otherwise <step>_FAIL.
func (rn *run) captureOnAbort(ctx context.Context, st Step) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if rn.pageLoaded && !st.SkipScreenshot {
		rn.screenshot(cctx, st, rn.opts.Store.ClaimScreenshot)
		return
	}
	rn.screenshot(cctx, st, rn.opts.Store.ClaimFailureScreenshot)
}

func (rn *run) abort(step string, err error, skipped []Step) {
	rn.out.Aborted = true
	rn.out.AbortReason = err.Error()
	rn.out.AbortedAt = step
	for _, s := range skipped {
		rn.out.Skipped = append(rn.out.Skipped, s.Name)
	}
	rn.transition(StateAborted)

	rn.printf("ABORTED: %v\n", err)
	rn.log.Error().
		Err(err).
		Str("scenario", rn.sc.Name).
		Str("step", step).
		Int("skipped_steps", len(skipped)).
		Msg("scenario aborted")
}

func (rn *run) transition(s State) {
	rn.out.State = s
	rn.out.Transitions = append(rn.out.Transitions, s)
	rn.log.Debug().Str("state", s.String()).Msg("runner state")
}

func (rn *run) pass(st Step, label, verb string) {
	msg := fmt.Sprintf("%s %s", label, verb)
	rn.out.Results = append(rn.out.Results, Result{Step: st.Name, Label: label, Passed: true, Message: msg})
	rn.printf("%s\n", msg)
}

func (rn *run) fail(st Step, label, detail string) {
	msg := fmt.Sprintf("%s FAILED: %s", label, detail)
	rn.out.Results = append(rn.out.Results, Result{Step: st.Name, Label: label, Passed: false, Message: msg})
	rn.printf("%s\n", msg)
	rn.log.Warn().Str("step", st.Name).Str("check", label).Str("detail", detail).Msg("check failed")
}

func (rn *run) printf(format string, args ...interface{}) {
	fmt.Fprintf(rn.opts.Out, format, args...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
