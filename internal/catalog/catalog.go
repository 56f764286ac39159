// Package catalog holds the built-in smoke scenarios and merges scenario
// files on top of them.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/3000Studios/vite-react/internal/browser"
	"github.com/3000Studios/vite-react/internal/scenario"
)

// ErrUnknownScenario is returned by Select for names the catalog does not hold.
var ErrUnknownScenario = errors.New("unknown scenario")

const (
	plannerPath     = "/planner"
	plannerHTML     = "/project-planner.html"
	plannerTitle    = "The Cajun Menu | Project Planning Hub"
	consoleHeader   = "Cajun Project Console"
	brand           = "THE CAJUN MENU"
	cateringPage    = "/catering.html"
	cateringPlanner = "a.filigree-link.filigree-planner"
	legacyNav       = ".site-nav.filigree-shell"
)

var (
	plannerLink = browser.Role("link", "Planner")
	mobileMenu  = browser.CSS(".mobile-menu.active")
)

func plannerHref(label string, target browser.Locator) scenario.Check {
	return scenario.Check{
		Label:     label,
		Kind:      scenario.KindAttribute,
		Target:    target,
		Attribute: "href",
		Expected:  plannerPath,
	}
}

// Builtin returns the scenarios shipped with the binary.
func Builtin() []scenario.Scenario {
	return []scenario.Scenario{
		{
			Name:        "planner-link",
			Description: "Planner links on the React home and static catering pages point at /planner",
			Steps: []scenario.Step{
				{
					Name:        "home_planner_link",
					Description: "Home",
					Path:        "/",
					WaitFor:     plannerLink,
					WaitLabel:   "Planner link",
					Critical:    true,
					Checks:      []scenario.Check{plannerHref("Home Planner link href", plannerLink)},
				},
				{
					Name:        "catering_planner_link",
					Description: "Catering",
					Path:        cateringPage,
					Checks: []scenario.Check{
						plannerHref("Catering Planner link href", browser.CSS(cateringPlanner)),
					},
				},
				{
					Name:        "project_planner_loaded",
					Description: "Project Planner",
					Path:        plannerHTML,
					Checks: []scenario.Check{
						{Label: "Project Planner title", Kind: scenario.KindTitle, Expected: plannerTitle},
					},
				},
			},
		},
		{
			Name:        "planner-view",
			Description: "The planner app replaces the legacy static navigation",
			Steps: []scenario.Step{
				{
					Name:      "planner_view",
					Path:      plannerHTML,
					WaitFor:   browser.Text(consoleHeader),
					WaitLabel: "React app header: " + consoleHeader,
					Checks: []scenario.Check{
						{Label: "Static nav removed", Kind: scenario.KindCount, Target: browser.CSS(legacyNav), Expected: "=0"},
					},
				},
				{
					Name: "main_app_link",
					Path: "/",
					Checks: []scenario.Check{
						{Label: "Planner link", Kind: scenario.KindVisible, Target: plannerLink},
						plannerHref("Planner link href", plannerLink),
					},
				},
			},
		},
		{
			Name:        "deployment",
			Description: "Post-deploy check of the home page and the planner app",
			Steps: []scenario.Step{
				{
					Name:      "home_page",
					Path:      "/",
					WaitFor:   browser.Text(brand),
					WaitLabel: "Brand " + brand,
					Critical:  true,
					Checks: []scenario.Check{
						plannerHref("Planner link href", plannerLink),
						{Kind: scenario.KindNoJSErrors},
					},
				},
				{
					Name:      "planner_page",
					Path:      plannerHTML,
					WaitFor:   browser.Text(consoleHeader),
					WaitLabel: "Planner app",
				},
			},
		},
		{
			Name:        "mobile-nav",
			Description: "The mobile menu toggles open and the desktop links return at full width",
			Steps: []scenario.Step{
				{
					Name:      "mobile_menu",
					Path:      "/",
					Viewport:  "375x812",
					Click:     browser.CSS("#mobileToggle"),
					WaitFor:   mobileMenu,
					WaitLabel: "Mobile menu",
					Checks: []scenario.Check{
						{Label: "Mobile Planner link", Kind: scenario.KindVisible, Target: browser.CSS(".mobile-menu.active a[href='" + plannerPath + "']")},
					},
				},
				{
					Name:     "desktop_nav",
					Viewport: "1280x800",
					Checks: []scenario.Check{
						{Label: "Desktop nav links", Kind: scenario.KindVisible, Target: browser.CSS(".crescent-nav-links")},
					},
				},
			},
		},
	}
}

// Catalog is a name-indexed set of scenarios that keeps insertion order.
type Catalog struct {
	order  []string
	byName map[string]scenario.Scenario
}

// New returns a catalog holding the built-in scenarios.
func New() *Catalog {
	c := &Catalog{byName: make(map[string]scenario.Scenario)}
	for _, sc := range Builtin() {
		c.Put(sc)
	}
	return c
}

// Put adds sc, replacing any scenario with the same name in place.
func (c *Catalog) Put(sc scenario.Scenario) {
	if _, ok := c.byName[sc.Name]; !ok {
		c.order = append(c.order, sc.Name)
	}
	c.byName[sc.Name] = sc
}

// Load reads scenario files and puts their scenarios into the catalog. A file
// scenario with a built-in name overrides the built-in.
func (c *Catalog) Load(paths ...string) error {
	scenarios, err := scenario.LoadFiles(paths...)
	if err != nil {
		return err
	}
	for _, sc := range scenarios {
		c.Put(sc)
	}
	return nil
}

// Get returns the named scenario.
func (c *Catalog) Get(name string) (scenario.Scenario, bool) {
	sc, ok := c.byName[name]
	return sc, ok
}

// Names returns scenario names in insertion order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Select returns the named scenarios in the order given, or every scenario
// when names is empty.
func (c *Catalog) Select(names []string) ([]scenario.Scenario, error) {
	if len(names) == 0 {
		names = c.order
	}
	var unknown []string
	out := make([]scenario.Scenario, 0, len(names))
	for _, name := range names {
		sc, ok := c.byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		out = append(out, sc)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %v (available: %v)", ErrUnknownScenario, unknown, c.order)
	}
	return out, nil
}
