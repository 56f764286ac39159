package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/3000Studios/vite-react/internal/artifacts"
	"github.com/3000Studios/vite-react/internal/browser"
)

// CheckKind selects what a Check observes.
type CheckKind string

const (
	KindVisible    CheckKind = "visible"
	KindHidden     CheckKind = "hidden"
	KindAttribute  CheckKind = "attribute"
	KindText       CheckKind = "text"
	KindCount      CheckKind = "count"
	KindTitle      CheckKind = "title"
	KindURL        CheckKind = "url"
	KindNoJSErrors CheckKind = "no-js-errors"
)

// Check is one assertion about the current page.
type Check struct {
	Label     string          `toml:"label"`
	Kind      CheckKind       `toml:"kind"`
	Target    browser.Locator `toml:"target"`
	Attribute string          `toml:"attribute,omitempty"`
	// Expected is the attribute value, title or URL path compared by equality,
	// the substring for text checks, or a count expression such as "=0" or ">2".
	Expected string `toml:"expected,omitempty"`
}

// DisplayLabel is the label used in report lines.
func (c Check) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	switch c.Kind {
	case KindTitle, KindURL, KindNoJSErrors:
		return string(c.Kind)
	case KindAttribute:
		return fmt.Sprintf("%s %s", c.Target, c.Attribute)
	default:
		return fmt.Sprintf("%s %s", c.Kind, c.Target)
	}
}

// successVerb is "found" for presence checks and "passed" otherwise.
func (c Check) successVerb() string {
	switch c.Kind {
	case KindVisible, KindText:
		return "found"
	default:
		return "passed"
	}
}

// Validate checks the fields each kind needs.
func (c Check) Validate() error {
	needsTarget := false
	switch c.Kind {
	case KindVisible, KindHidden:
		needsTarget = true
	case KindAttribute:
		needsTarget = true
		if c.Attribute == "" {
			return fmt.Errorf("check %q: attribute is required", c.DisplayLabel())
		}
	case KindText:
		needsTarget = true
		if c.Expected == "" {
			return fmt.Errorf("check %q: expected text is required", c.DisplayLabel())
		}
	case KindCount:
		needsTarget = true
		if _, _, err := parseCountExpr(c.Expected); err != nil {
			return fmt.Errorf("check %q: %w", c.DisplayLabel(), err)
		}
	case KindTitle, KindURL:
		if c.Expected == "" {
			return fmt.Errorf("check %q: expected is required", c.DisplayLabel())
		}
	case KindNoJSErrors:
	default:
		return fmt.Errorf("check %q: unknown kind %q", c.DisplayLabel(), c.Kind)
	}
	if needsTarget {
		if err := c.Target.Validate(); err != nil {
			return fmt.Errorf("check %q target: %w", c.DisplayLabel(), err)
		}
	}
	return nil
}

// Step is one navigate-and-assert unit. Steps run in order against the page
// the previous step left behind.
type Step struct {
	// Name identifies the step and names its screenshot.
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	// Path is appended to the base URL. Empty stays on the current page.
	Path string `toml:"path,omitempty"`
	// Viewport ("WxH") is applied before anything else; it re-renders the
	// current page without navigating.
	Viewport  string          `toml:"viewport,omitempty"`
	Click     browser.Locator `toml:"click,omitempty"`
	WaitFor   browser.Locator `toml:"wait_for,omitempty"`
	WaitLabel string          `toml:"wait_label,omitempty"`
	// Critical turns a click or wait failure into an abort.
	Critical       bool    `toml:"critical,omitempty"`
	SkipScreenshot bool    `toml:"skip_screenshot,omitempty"`
	Checks         []Check `toml:"checks"`
}

func (s Step) label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}

func (s Step) waitLabel() string {
	if s.WaitLabel != "" {
		return s.WaitLabel
	}
	return s.WaitFor.String()
}

// Scenario is an ordered list of steps run against one session.
type Scenario struct {
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	Steps       []Step `toml:"steps"`
}

// Validate reports the first structural problem with the scenario.
func (sc Scenario) Validate() error {
	if strings.TrimSpace(sc.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: %s has no steps", ErrInvalidScenario, sc.Name)
	}
	if sc.Steps[0].Path == "" {
		return fmt.Errorf("%w: %s: first step %q must navigate", ErrInvalidScenario, sc.Name, sc.Steps[0].Name)
	}

	seen := make(map[string]bool, len(sc.Steps))
	for _, st := range sc.Steps {
		if strings.TrimSpace(st.Name) == "" {
			return fmt.Errorf("%w: %s: step name is required", ErrInvalidScenario, sc.Name)
		}
		key := artifacts.SafeName(st.Name)
		if seen[key] {
			return fmt.Errorf("%w: %s: duplicate step name %q", ErrInvalidScenario, sc.Name, st.Name)
		}
		seen[key] = true

		if st.Path != "" && !strings.HasPrefix(st.Path, "/") {
			return fmt.Errorf("%w: %s/%s: path %q must start with /", ErrInvalidScenario, sc.Name, st.Name, st.Path)
		}
		if st.Viewport != "" {
			if _, err := browser.ParseViewport(st.Viewport); err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidScenario, sc.Name, st.Name, err)
			}
		}
		if !st.Click.IsZero() {
			if err := st.Click.Validate(); err != nil {
				return fmt.Errorf("%w: %s/%s click: %v", ErrInvalidScenario, sc.Name, st.Name, err)
			}
		}
		if !st.WaitFor.IsZero() {
			if err := st.WaitFor.Validate(); err != nil {
				return fmt.Errorf("%w: %s/%s wait_for: %v", ErrInvalidScenario, sc.Name, st.Name, err)
			}
		}
		for _, c := range st.Checks {
			if err := c.Validate(); err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidScenario, sc.Name, st.Name, err)
			}
		}
	}
	return nil
}

// parseCountExpr accepts =N, >N, >=N, <N, <=N.
func parseCountExpr(expr string) (string, int, error) {
	expr = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(expr), "count"))
	for _, op := range []string{">=", "<=", "=", ">", "<"} {
		if strings.HasPrefix(expr, op) {
			n, err := strconv.Atoi(strings.TrimSpace(expr[len(op):]))
			if err != nil || n < 0 {
				return "", 0, fmt.Errorf("bad count expression %q", expr)
			}
			return op, n, nil
		}
	}
	return "", 0, fmt.Errorf("bad count expression %q, want =N, >N, >=N, <N or <=N", expr)
}

func evalCount(op string, n, actual int) bool {
	switch op {
	case ">=":
		return actual >= n
	case "<=":
		return actual <= n
	case ">":
		return actual > n
	case "<":
		return actual < n
	default:
		return actual == n
	}
}
