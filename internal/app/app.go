package app

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/3000Studios/vite-react/internal/artifacts"
	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/catalog"
	"github.com/3000Studios/vite-react/internal/common"
	"github.com/3000Studios/vite-react/internal/config"
	"github.com/3000Studios/vite-react/internal/scenario"
)

// App holds all application components and dependencies.
type App struct {
	Config  *config.Config
	Logger  *common.Logger
	Catalog *catalog.Catalog
	Store   *artifacts.Store
	Runner  *scenario.Runner

	// mu serializes runs so one browser flow never overlaps another.
	mu sync.Mutex
}

// New initializes the application with a Chrome-backed runner. Report lines
// are written to out.
func New(cfg *config.Config, logger *common.Logger, out io.Writer) (*App, error) {
	opts, err := BrowserOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewWithOpener(cfg, logger, out, scenario.BrowserOpener(opts))
}

// NewWithOpener initializes the application with a custom session opener.
func NewWithOpener(cfg *config.Config, logger *common.Logger, out io.Writer, open scenario.Opener) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Catalog: catalog.New(),
	}

	if err := a.Catalog.Load(cfg.Run.ScenarioFiles...); err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	store, err := artifacts.NewStore(cfg.Artifacts.Dir)
	if err != nil {
		return nil, err
	}
	a.Store = store

	a.Runner = scenario.NewRunner(open, scenario.Options{
		WaitTimeout:  cfg.Browser.WaitTimeout(),
		PollInterval: cfg.Browser.PollInterval(),
		Store:        store,
		Out:          out,
		Logger:       logger,
	})

	logger.Info().
		Int("scenarios", len(a.Catalog.Names())).
		Str("artifacts_dir", store.Dir()).
		Msg("application initialization complete")

	return a, nil
}

// BrowserOptions maps the browser config section onto session options.
func BrowserOptions(cfg *config.Config, logger *common.Logger) (browser.Options, error) {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.RemoteURL = cfg.Browser.RemoteURL
	opts.PageLoadTimeout = cfg.Browser.PageLoadTimeout()
	opts.UserAgentSuffix = config.UserAgentSuffix()
	opts.Logger = logger

	if cfg.Browser.Viewport != "" {
		vp, err := browser.ParseViewport(cfg.Browser.Viewport)
		if err != nil {
			return opts, fmt.Errorf("browser.viewport: %w", err)
		}
		opts.Viewport = vp
	}
	return opts, nil
}

// Run executes the named scenarios (all when names is empty) against baseURL,
// falling back to the configured target. Each scenario gets its own session
// bounded by the browser timeout. A failing scenario does not stop the next.
// The returned error covers selection and summary problems only; per-run
// failures are in the outcomes.
func (a *App) Run(ctx context.Context, names []string, baseURL string) ([]*scenario.Outcome, error) {
	scenarios, err := a.Catalog.Select(names)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = a.Config.BaseURL()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.Store.Reset()

	outcomes := make([]*scenario.Outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		outcomes = append(outcomes, a.runOne(ctx, baseURL, sc))
	}

	if a.Config.Artifacts.Summary {
		summaries := make([]artifacts.Summary, 0, len(outcomes))
		for _, o := range outcomes {
			if o != nil {
				summaries = append(summaries, o.Summary())
			}
		}
		path, err := a.Store.WriteSummaries(summaries)
		if err != nil {
			return outcomes, fmt.Errorf("failed to write summary: %w", err)
		}
		a.Logger.Info().Str("path", path).Msg("summary written")
	}

	return outcomes, nil
}

func (a *App) runOne(ctx context.Context, baseURL string, sc scenario.Scenario) *scenario.Outcome {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Browser.Timeout())
	defer cancel()

	out, err := a.Runner.Run(ctx, baseURL, sc)
	if err != nil {
		a.Logger.Error().
			Str("scenario", sc.Name).
			Str("error", err.Error()).
			Msg("scenario run failed")
	}
	return out
}
