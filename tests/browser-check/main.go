// tests/browser-check/main.go
//
// Ad-hoc browser check of a single URL, run through the scenario runner.
// Useful right after a deploy, before a scenario is worth writing down.
//
// Usage:
//   go run ./tests/browser-check -url http://localhost:5173/
//   go run ./tests/browser-check -url http://localhost:5173/ -check 'role=link:Planner|attr:href=/planner'
//   go run ./tests/browser-check -url http://localhost:5173/ -viewport 375x812 -click '#mobileToggle' -check '.mobile-menu.active|visible'
//   go run ./tests/browser-check -url http://localhost:5173/project-planner.html -wait-for 'text=Cajun Project Console' -check '.site-nav.filigree-shell|count=0'
//   go run ./tests/browser-check -url http://localhost:5173/ -out /tmp/verification

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/3000Studios/vite-react/internal/artifacts"
	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/scenario"
)

// multiFlag allows repeated -check or -click flags.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var (
		target   string
		viewport string
		outDir   string
		waitFor  string
		remote   string
		waitSecs int
		checks   multiFlag
		clicks   multiFlag
	)

	flag.StringVar(&target, "url", "", "URL to test (required)")
	flag.StringVar(&viewport, "viewport", "", "Viewport as WxH, e.g. 375x812")
	flag.StringVar(&outDir, "out", "", "Save screenshots to this directory")
	flag.StringVar(&waitFor, "wait-for", "", "Locator that must become visible after load (aborts if not)")
	flag.StringVar(&remote, "remote", os.Getenv("SMOKE_BROWSER_REMOTE_URL"), "DevTools URL of a running browser")
	flag.IntVar(&waitSecs, "wait", 5, "Seconds to wait for each condition")
	flag.Var(&checks, "check", "locator|state  (state: visible, hidden, text=X, count>N, attr:NAME=VALUE)")
	flag.Var(&clicks, "click", "Locator to click (in order, before -check)")
	flag.Parse()

	if target == "" {
		fmt.Fprintln(os.Stderr, "ERROR: -url is required")
		flag.Usage()
		os.Exit(2)
	}

	base, sc, err := buildScenario(target, viewport, waitFor, clicks, checks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(2)
	}

	opts := browser.DefaultOptions()
	opts.RemoteURL = remote
	opts.Logger = common.NewSilentLogger()

	runOpts := scenario.Options{
		WaitTimeout:  time.Duration(waitSecs) * time.Second,
		PollInterval: 100 * time.Millisecond,
		Out:          os.Stdout,
		Logger:       common.NewLogger("warn"),
	}
	if outDir != "" {
		store, err := artifacts.NewStore(outDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(2)
		}
		runOpts.Store = store
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	outcome, err := scenario.NewRunner(scenario.BrowserOpener(opts), runOpts).Run(ctx, base, sc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
	}
	os.Exit(scenario.ExitCode([]*scenario.Outcome{outcome}, true))
}

// buildScenario turns the flags into a scenario: one navigation step, then one
// step per click. Checks run after the last click.
func buildScenario(target, viewport, waitFor string, clicks, checks []string) (string, scenario.Scenario, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", scenario.Scenario{}, fmt.Errorf("-url %q is not an absolute URL", target)
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	base := u.Scheme + "://" + u.Host

	load := scenario.Step{Name: "page", Path: path, Viewport: viewport}
	if waitFor != "" {
		loc, err := parseLocator(waitFor)
		if err != nil {
			return "", scenario.Scenario{}, fmt.Errorf("-wait-for: %w", err)
		}
		load.WaitFor = loc
		load.Critical = true
	}
	steps := []scenario.Step{load}

	for i, c := range clicks {
		loc, err := parseLocator(c)
		if err != nil {
			return "", scenario.Scenario{}, fmt.Errorf("-click %q: %w", c, err)
		}
		steps = append(steps, scenario.Step{Name: fmt.Sprintf("click_%d", i+1), Click: loc, Critical: true})
	}

	last := &steps[len(steps)-1]
	last.Checks = append(last.Checks, scenario.Check{Label: "js-errors", Kind: scenario.KindNoJSErrors})
	for _, c := range checks {
		check, err := parseCheck(c)
		if err != nil {
			return "", scenario.Scenario{}, fmt.Errorf("-check %q: %w", c, err)
		}
		last.Checks = append(last.Checks, check)
	}

	sc := scenario.Scenario{Name: "browser-check", Description: target, Steps: steps}
	return base, sc, sc.Validate()
}

// parseLocator accepts role=ROLE[:NAME], text=TEXT, or a CSS selector.
func parseLocator(s string) (browser.Locator, error) {
	var loc browser.Locator
	switch {
	case strings.HasPrefix(s, "role="):
		role, name, _ := strings.Cut(strings.TrimPrefix(s, "role="), ":")
		loc = browser.Role(role, name)
	case strings.HasPrefix(s, "text="):
		loc = browser.Text(strings.TrimPrefix(s, "text="))
	default:
		loc = browser.CSS(s)
	}
	return loc, loc.Validate()
}

// parseCheck parses locator|state.
func parseCheck(s string) (scenario.Check, error) {
	sel, state, ok := strings.Cut(s, "|")
	if !ok {
		return scenario.Check{}, errors.New("bad format, need locator|state")
	}
	loc, err := parseLocator(sel)
	if err != nil {
		return scenario.Check{}, err
	}

	c := scenario.Check{Label: fmt.Sprintf("check(%s)", s), Target: loc}
	switch {
	case state == "visible":
		c.Kind = scenario.KindVisible
	case state == "hidden":
		c.Kind = scenario.KindHidden
	case strings.HasPrefix(state, "text="):
		c.Kind = scenario.KindText
		c.Expected = strings.TrimPrefix(state, "text=")
	case strings.HasPrefix(state, "count"):
		c.Kind = scenario.KindCount
		c.Expected = state
	case strings.HasPrefix(state, "attr:"):
		name, value, ok := strings.Cut(strings.TrimPrefix(state, "attr:"), "=")
		if !ok || name == "" {
			return scenario.Check{}, errors.New("attr state needs attr:NAME=VALUE")
		}
		c.Kind = scenario.KindAttribute
		c.Attribute = name
		c.Expected = value
	default:
		return scenario.Check{}, fmt.Errorf("unknown state: %s", state)
	}
	return c, c.Validate()
}
