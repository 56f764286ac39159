package main

import (
	"fmt"
	"strings"

	"github.com/3000Studios/vite-react/internal/catalog"
	"github.com/3000Studios/vite-react/internal/scenario"
)

func formatScenarioList(c *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString("# Smoke Scenarios\n\n")
	for _, name := range c.Names() {
		sc, _ := c.Get(name)
		sb.WriteString(fmt.Sprintf("## %s\n\n", sc.Name))
		if sc.Description != "" {
			sb.WriteString(sc.Description + "\n\n")
		}
		for i, st := range sc.Steps {
			where := st.Path
			if where == "" {
				where = "(current page)"
			}
			sb.WriteString(fmt.Sprintf("%d. `%s` %s", i+1, st.Name, where))
			if st.Viewport != "" {
				sb.WriteString(" @ " + st.Viewport)
			}
			sb.WriteString(fmt.Sprintf(", %d checks\n", len(st.Checks)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatOutcome(o *scenario.Outcome) string {
	status := o.Summary().Status()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s: %s\n\n", o.Scenario, status))
	sb.WriteString(fmt.Sprintf("**Run:** %s\n", o.RunID))
	sb.WriteString(fmt.Sprintf("**Base URL:** %s\n", o.BaseURL))
	sb.WriteString(fmt.Sprintf("**Duration:** %.2fs\n", o.Duration.Seconds()))
	sb.WriteString(fmt.Sprintf("**Checks:** %d/%d passed\n\n", o.Passed(), len(o.Results)))

	if o.Aborted {
		sb.WriteString(fmt.Sprintf("**Aborted at %s:** %s\n", stepOrSession(o.AbortedAt), o.AbortReason))
		if len(o.Skipped) > 0 {
			sb.WriteString(fmt.Sprintf("**Skipped:** %s\n", strings.Join(o.Skipped, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(o.Results) > 0 {
		sb.WriteString("## Results\n\n")
		for _, r := range o.Results {
			mark := "PASS"
			if !r.Passed {
				mark = "FAIL"
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", mark, r.Step, r.Message))
		}
		sb.WriteString("\n")
	}

	if len(o.Screenshots) > 0 {
		sb.WriteString("## Screenshots\n\n")
		for _, s := range o.Screenshots {
			sb.WriteString("- " + s + "\n")
		}
	}
	return sb.String()
}

func stepOrSession(step string) string {
	if step == "" {
		return "session open"
	}
	return step
}
