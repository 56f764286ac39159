package smoke

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/3000Studios/vite-react/internal/artifacts"
	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/catalog"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/scenario"
	testcommon "github.com/3000Studios/vite-react/tests/common"
)

func TestMain(m *testing.M) {
	code := m.Run()
	testcommon.StopEnvironment()
	os.Exit(code)
}

type target struct {
	siteURL string
	opts    browser.Options
}

func setup(t *testing.T) target {
	t.Helper()
	env := testcommon.StartEnvironment(t)

	opts := browser.DefaultOptions()
	opts.PageLoadTimeout = 20 * time.Second
	opts.Logger = common.NewSilentLogger()

	if env == nil {
		opts.RemoteURL = testcommon.GetRemoteURL()
		return target{siteURL: testcommon.GetTestURL(), opts: opts}
	}
	opts.RemoteURL = env.RemoteURL()
	return target{siteURL: env.SiteURL(), opts: opts}
}

func newRunner(t *testing.T, tg target, out *bytes.Buffer) (*scenario.Runner, *artifacts.Store) {
	t.Helper()
	store, err := artifacts.NewStore(filepath.Join(testcommon.GetResultsDir(), t.Name()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	r := scenario.NewRunner(scenario.BrowserOpener(tg.opts), scenario.Options{
		WaitTimeout:  5 * time.Second,
		PollInterval: 100 * time.Millisecond,
		Store:        store,
		Out:          out,
		Logger:       common.NewSilentLogger(),
	})
	return r, store
}

func TestBuiltinScenariosPassAgainstFixtureSite(t *testing.T) {
	tg := setup(t)

	for _, sc := range catalog.Builtin() {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			var out bytes.Buffer
			r, store := newRunner(t, tg, &out)

			ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
			defer cancel()

			o, err := r.Run(ctx, tg.siteURL, sc)
			t.Log("\n" + out.String())
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if !o.OK() {
				t.Fatalf("failures: %v", o.Failures())
			}

			for _, st := range sc.Steps {
				path := filepath.Join(store.Dir(), artifacts.SafeName(sc.Name), artifacts.SafeName(st.Name)+".png")
				info, err := os.Stat(path)
				if err != nil || info.Size() == 0 {
					t.Errorf("screenshot for %s missing: %v", st.Name, err)
				}
			}
		})
	}
}

func TestWrongPlannerHrefIsReported(t *testing.T) {
	tg := setup(t)
	sc, _ := catalog.New().Get("planner-link")
	sc.Steps = sc.Steps[:1]

	var out bytes.Buffer
	r, _ := newRunner(t, tg, &out)
	o, err := r.Run(context.Background(), tg.siteURL+"/broken", sc)
	if err != nil {
		t.Fatalf("a wrong href must not abort: %v", err)
	}
	if o.OK() {
		t.Fatal("expected a failed check")
	}
	want := `expected href "/planner", got "/project-planner.html"`
	if !strings.Contains(out.String(), want) {
		t.Errorf("report missing %q:\n%s", want, out.String())
	}
}

func TestJSErrorsAreCollected(t *testing.T) {
	tg := setup(t)
	sc := scenario.Scenario{Name: "js", Steps: []scenario.Step{{
		Name:   "broken_home",
		Path:   "/broken/",
		Checks: []scenario.Check{{Kind: scenario.KindNoJSErrors}},
	}}}

	var out bytes.Buffer
	r, _ := newRunner(t, tg, &out)
	o, err := r.Run(context.Background(), tg.siteURL, sc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if o.Failed() != 1 || !strings.Contains(o.Failures()[0], "planner bundle failed to load") {
		t.Errorf("failures: %v", o.Failures())
	}
}

func TestMissingPageAborts(t *testing.T) {
	tg := setup(t)
	sc := scenario.Scenario{Name: "missing", Steps: []scenario.Step{
		{Name: "missing_page", Path: "/does-not-exist.html"},
		{Name: "never_runs", Path: "/"},
	}}

	var out bytes.Buffer
	r, store := newRunner(t, tg, &out)
	o, err := r.Run(context.Background(), tg.siteURL, sc)
	if !errors.Is(err, scenario.ErrNavigation) || !errors.Is(err, browser.ErrHTTPStatus) {
		t.Fatalf("err = %v, want a navigation error for the 404", err)
	}
	if !o.Aborted || len(o.Skipped) != 1 {
		t.Errorf("aborted = %v, skipped = %v", o.Aborted, o.Skipped)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "missing", "never_runs.png")); !os.IsNotExist(err) {
		t.Error("no screenshot may be taken after an abort")
	}
	if scenario.ExitCode([]*scenario.Outcome{o}, false) != 1 {
		t.Error("expected exit code 1")
	}
}

func TestUnreachableTargetAborts(t *testing.T) {
	tg := setup(t)
	sc, _ := catalog.New().Get("planner-link")

	var out bytes.Buffer
	r, store := newRunner(t, tg, &out)
	o, err := r.Run(context.Background(), "http://nothing-listens-here.invalid", sc)
	if !errors.Is(err, scenario.ErrNavigation) {
		t.Fatalf("err = %v, want ErrNavigation", err)
	}
	if len(o.Skipped) != len(sc.Steps)-1 {
		t.Errorf("skipped = %v", o.Skipped)
	}
	entries, _ := os.ReadDir(filepath.Join(store.Dir(), sc.Name))
	for _, e := range entries {
		if e.Name() != "home_planner_link_FAIL.png" {
			t.Errorf("unexpected artifact %s", e.Name())
		}
	}
}
