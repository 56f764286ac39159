package scenario

import (
	"errors"
	"strings"
	"testing"

	"github.com/3000Studios/vite-react/internal/browser"
)

func TestScenarioValidate(t *testing.T) {
	ok := Step{Name: "home", Path: "/"}

	tests := []struct {
		name    string
		sc      Scenario
		wantErr string
	}{
		{"valid", Scenario{Name: "s", Steps: []Step{ok}}, ""},
		{"missing name", Scenario{Steps: []Step{ok}}, "name is required"},
		{"no steps", Scenario{Name: "s"}, "has no steps"},
		{"first step without path", Scenario{Name: "s", Steps: []Step{{Name: "a"}}}, "must navigate"},
		{"unnamed step", Scenario{Name: "s", Steps: []Step{ok, {Path: "/"}}}, "step name is required"},
		{"duplicate step", Scenario{Name: "s", Steps: []Step{ok, {Name: "home"}}}, "duplicate step name"},
		{"duplicate after sanitizing", Scenario{Name: "s", Steps: []Step{{Name: "a b", Path: "/"}, {Name: "a_b"}}}, "duplicate step name"},
		{"relative path", Scenario{Name: "s", Steps: []Step{{Name: "a", Path: "planner"}}}, "must start with /"},
		{"bad viewport", Scenario{Name: "s", Steps: []Step{{Name: "a", Path: "/", Viewport: "wide"}}}, "viewport"},
		{"bad click", Scenario{Name: "s", Steps: []Step{{Name: "a", Path: "/", Click: browser.Locator{CSS: "a", Text: "b"}}}}, "click"},
		{"bad wait_for", Scenario{Name: "s", Steps: []Step{{Name: "a", Path: "/", WaitFor: browser.Role("row", "")}}}, "wait_for"},
		{"bad check", Scenario{Name: "s", Steps: []Step{{Name: "a", Path: "/", Checks: []Check{{Kind: "smell"}}}}}, "unknown kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sc.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("error should wrap ErrInvalidScenario: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestCheckValidate(t *testing.T) {
	link := browser.Role("link", "Planner")

	tests := []struct {
		name  string
		check Check
		ok    bool
	}{
		{"visible", Check{Kind: KindVisible, Target: link}, true},
		{"visible without target", Check{Kind: KindVisible}, false},
		{"hidden", Check{Kind: KindHidden, Target: browser.CSS(".mobile-menu")}, true},
		{"attribute", Check{Kind: KindAttribute, Target: link, Attribute: "href", Expected: "/planner"}, true},
		{"attribute without name", Check{Kind: KindAttribute, Target: link}, false},
		{"text", Check{Kind: KindText, Target: browser.Text("Cajun"), Expected: "Cajun"}, true},
		{"text without expected", Check{Kind: KindText, Target: browser.Text("Cajun")}, false},
		{"count", Check{Kind: KindCount, Target: browser.CSS("nav"), Expected: ">=1"}, true},
		{"count bad expr", Check{Kind: KindCount, Target: browser.CSS("nav"), Expected: "lots"}, false},
		{"title", Check{Kind: KindTitle, Expected: "The Cajun Menu"}, true},
		{"title without expected", Check{Kind: KindTitle}, false},
		{"url", Check{Kind: KindURL, Expected: "/planner"}, true},
		{"no-js-errors", Check{Kind: KindNoJSErrors}, true},
		{"unknown", Check{Kind: "glow"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestCheckDisplayLabel(t *testing.T) {
	link := browser.Role("link", "Planner")
	tests := []struct {
		check Check
		want  string
	}{
		{Check{Label: "Planner link href", Kind: KindAttribute, Target: link, Attribute: "href"}, "Planner link href"},
		{Check{Kind: KindAttribute, Target: link, Attribute: "href"}, `role=link[name="Planner"] href`},
		{Check{Kind: KindVisible, Target: browser.CSS("nav")}, "visible css=nav"},
		{Check{Kind: KindTitle, Expected: "x"}, "title"},
		{Check{Kind: KindNoJSErrors}, "no-js-errors"},
	}
	for _, tt := range tests {
		if got := tt.check.DisplayLabel(); got != tt.want {
			t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
		}
	}
}

func TestCheckSuccessVerb(t *testing.T) {
	if got := (Check{Kind: KindVisible}).successVerb(); got != "found" {
		t.Errorf("visible verb = %q", got)
	}
	if got := (Check{Kind: KindText}).successVerb(); got != "found" {
		t.Errorf("text verb = %q", got)
	}
	if got := (Check{Kind: KindAttribute}).successVerb(); got != "passed" {
		t.Errorf("attribute verb = %q", got)
	}
}

func TestStepLabels(t *testing.T) {
	st := Step{Name: "home_planner_link", WaitFor: browser.Role("link", "Planner")}
	if st.label() != "home_planner_link" {
		t.Errorf("label() = %q", st.label())
	}
	if st.waitLabel() != `role=link[name="Planner"]` {
		t.Errorf("waitLabel() = %q", st.waitLabel())
	}

	st.Description = "Home page"
	st.WaitLabel = "Planner link"
	if st.label() != "Home page" || st.waitLabel() != "Planner link" {
		t.Errorf("labels = %q, %q", st.label(), st.waitLabel())
	}
}

func TestParseCountExpr(t *testing.T) {
	tests := []struct {
		expr   string
		op     string
		n      int
		hasErr bool
	}{
		{"=0", "=", 0, false},
		{">2", ">", 2, false},
		{">=1", ">=", 1, false},
		{"<3", "<", 3, false},
		{"<=10", "<=", 10, false},
		{"count=0", "=", 0, false},
		{" count >= 4 ", ">=", 4, false},
		{"", "", 0, true},
		{"5", "", 0, true},
		{"=-1", "", 0, true},
		{">x", "", 0, true},
	}
	for _, tt := range tests {
		op, n, err := parseCountExpr(tt.expr)
		if tt.hasErr {
			if err == nil {
				t.Errorf("parseCountExpr(%q) expected error", tt.expr)
			}
			continue
		}
		if err != nil || op != tt.op || n != tt.n {
			t.Errorf("parseCountExpr(%q) = %q, %d, %v; want %q, %d", tt.expr, op, n, err, tt.op, tt.n)
		}
	}
}

func TestEvalCount(t *testing.T) {
	tests := []struct {
		op     string
		n      int
		actual int
		want   bool
	}{
		{"=", 0, 0, true},
		{"=", 0, 1, false},
		{">", 1, 2, true},
		{">", 2, 2, false},
		{">=", 2, 2, true},
		{"<", 2, 1, true},
		{"<", 1, 1, false},
		{"<=", 1, 1, true},
	}
	for _, tt := range tests {
		if got := evalCount(tt.op, tt.n, tt.actual); got != tt.want {
			t.Errorf("evalCount(%q, %d, %d) = %v", tt.op, tt.n, tt.actual, got)
		}
	}
}
