package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/catalog"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/config"
	"github.com/3000Studios/vite-react/internal/scenario"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Artifacts.Dir = filepath.Join(t.TempDir(), "verification")
	cfg.Browser.WaitTimeoutSecs = 1
	return cfg
}

var errNoBrowser = errors.New("no browser")

func failingOpener(calls *int) scenario.Opener {
	return func(ctx context.Context) (scenario.Session, error) {
		*calls++
		return nil, errNoBrowser
	}
}

// okSession is a Session on which every page loads and every element exists.
type okSession struct{}

func (okSession) Navigate(ctx context.Context, url string) (int, error) { return 200, nil }
func (okSession) WaitVisible(ctx context.Context, loc browser.Locator) error { return nil }
func (okSession) Click(ctx context.Context, loc browser.Locator) error { return nil }
func (okSession) SetViewport(ctx context.Context, vp browser.Viewport) error { return nil }
func (okSession) Attribute(ctx context.Context, loc browser.Locator, name string) (string, bool, error) {
	return "/planner", true, nil
}
func (okSession) Text(ctx context.Context, loc browser.Locator) (string, bool, error) {
	return "", true, nil
}
func (okSession) Visible(ctx context.Context, loc browser.Locator) (bool, error) { return true, nil }
func (okSession) Count(ctx context.Context, loc browser.Locator) (int, error) { return 0, nil }
func (okSession) Title(ctx context.Context) (string, error) { return "", nil }
func (okSession) Location(ctx context.Context) (string, error) { return "", nil }
func (okSession) JSErrors() []string { return nil }
func (okSession) Close() error { return nil }
func (okSession) Screenshot(ctx context.Context, path string) error {
	return os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644)
}

func okOpener(ctx context.Context) (scenario.Session, error) { return okSession{}, nil }

func TestNewWithOpener(t *testing.T) {
	cfg := testConfig(t)
	var calls int
	a, err := NewWithOpener(cfg, common.NewSilentLogger(), &bytes.Buffer{}, failingOpener(&calls))
	if err != nil {
		t.Fatalf("NewWithOpener: %v", err)
	}

	if _, err := os.Stat(cfg.Artifacts.Dir); err != nil {
		t.Errorf("artifacts dir not created: %v", err)
	}
	if len(a.Catalog.Names()) != len(catalog.Builtin()) {
		t.Errorf("catalog names = %v", a.Catalog.Names())
	}
}

func TestNewWithOpener_BadScenarioFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Run.ScenarioFiles = []string{filepath.Join(t.TempDir(), "missing.toml")}
	var calls int
	if _, err := NewWithOpener(cfg, common.NewSilentLogger(), nil, failingOpener(&calls)); err == nil {
		t.Error("expected error for missing scenario file")
	}
}

func TestRun_EveryScenarioAttemptedAndSummarized(t *testing.T) {
	cfg := testConfig(t)
	var calls int
	var out bytes.Buffer
	a, err := NewWithOpener(cfg, common.NewSilentLogger(), &out, failingOpener(&calls))
	if err != nil {
		t.Fatalf("NewWithOpener: %v", err)
	}

	outcomes, err := a.Run(context.Background(), nil, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != len(catalog.Builtin()) || calls != len(outcomes) {
		t.Fatalf("outcomes = %d, opener calls = %d", len(outcomes), calls)
	}
	for _, o := range outcomes {
		if !o.Aborted || o.BaseURL != "http://localhost:5173" {
			t.Errorf("outcome %s: aborted=%v base=%s", o.Scenario, o.Aborted, o.BaseURL)
		}
	}
	if scenario.ExitCode(outcomes, false) != 1 {
		t.Error("aborted runs must exit 1")
	}

	summary, err := os.ReadFile(filepath.Join(cfg.Artifacts.Dir, "summary.md"))
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.Contains(string(summary), "ABORTED") || !strings.Contains(string(summary), "planner-link") {
		t.Errorf("summary:\n%s", summary)
	}
}

func TestRun_SelectedScenarioAndBaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Artifacts.Summary = false
	var calls int
	a, err := NewWithOpener(cfg, common.NewSilentLogger(), nil, failingOpener(&calls))
	if err != nil {
		t.Fatalf("NewWithOpener: %v", err)
	}

	outcomes, err := a.Run(context.Background(), []string{"mobile-nav"}, "https://staging.example.com/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Scenario != "mobile-nav" {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	if outcomes[0].BaseURL != "https://staging.example.com" {
		t.Errorf("BaseURL = %q", outcomes[0].BaseURL)
	}
	if _, err := os.Stat(filepath.Join(cfg.Artifacts.Dir, "summary.md")); !os.IsNotExist(err) {
		t.Error("summary should not be written when disabled")
	}
}

func TestRun_UnknownScenario(t *testing.T) {
	cfg := testConfig(t)
	var calls int
	a, err := NewWithOpener(cfg, common.NewSilentLogger(), nil, failingOpener(&calls))
	if err != nil {
		t.Fatalf("NewWithOpener: %v", err)
	}

	_, err = a.Run(context.Background(), []string{"nope"}, "")
	if !errors.Is(err, catalog.ErrUnknownScenario) {
		t.Errorf("err = %v, want ErrUnknownScenario", err)
	}
	if calls != 0 {
		t.Error("no session should open for an unknown scenario")
	}
}

func TestBrowserOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Browser.Viewport = "375x812"
	cfg.Browser.RemoteURL = "ws://chrome:9222"

	opts, err := BrowserOptions(cfg, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("BrowserOptions: %v", err)
	}
	if opts.Viewport.Width != 375 || opts.Viewport.Height != 812 {
		t.Errorf("viewport = %v", opts.Viewport)
	}
	if opts.RemoteURL != "ws://chrome:9222" || opts.PageLoadTimeout != cfg.Browser.PageLoadTimeout() {
		t.Errorf("opts = %+v", opts)
	}

	if opts.UserAgentSuffix != config.UserAgentSuffix() {
		t.Errorf("UserAgentSuffix = %q", opts.UserAgentSuffix)
	}

	cfg.Browser.Viewport = "huge"
	if _, err := BrowserOptions(cfg, common.NewSilentLogger()); err == nil {
		t.Error("expected viewport error")
	}
}

func TestRun_StepNameSharedWithBuiltinGetsItsOwnScreenshot(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(t.TempDir(), "scenarios.toml")
	if err := os.WriteFile(file, []byte(`
[[scenarios]]
name = "my-home"

[[scenarios.steps]]
name = "home_page"
path = "/"
`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Run.ScenarioFiles = []string{file}

	a, err := NewWithOpener(cfg, common.NewSilentLogger(), nil, okOpener)
	if err != nil {
		t.Fatalf("NewWithOpener: %v", err)
	}

	outcomes, err := a.Run(context.Background(), []string{"deployment", "my-home"}, "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, o := range outcomes {
		if o.Aborted {
			t.Fatalf("%s aborted: %s", o.Scenario, o.AbortReason)
		}
	}

	mine := outcomes[1]
	want := filepath.Join(cfg.Artifacts.Dir, "my-home", "home_page.png")
	if len(mine.Screenshots) != 1 || mine.Screenshots[0] != want {
		t.Fatalf("my-home screenshots = %v, want [%s]", mine.Screenshots, want)
	}
	for _, path := range []string{
		want,
		filepath.Join(cfg.Artifacts.Dir, "deployment", "home_page.png"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing screenshot: %v", err)
		}
	}
}
