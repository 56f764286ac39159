package scenario

import (
	"time"

	"github.com/3000Studios/vite-react/internal/artifacts"
)

// Result is one reported line of a run.
type Result struct {
	Step    string
	Label   string
	Passed  bool
	Message string
}

// Outcome summarizes one scenario run.
type Outcome struct {
	RunID       string
	Scenario    string
	BaseURL     string
	StartedAt   time.Time
	Duration    time.Duration
	Results     []Result
	Screenshots []string

	Aborted     bool
	AbortReason string
	// AbortedAt names the step that aborted the run; Skipped lists the steps
	// that never ran because of it.
	AbortedAt string
	Skipped   []string

	State       State
	Transitions []State
}

// Passed counts passing results.
func (o *Outcome) Passed() int {
	n := 0
	for _, r := range o.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed counts failing results.
func (o *Outcome) Failed() int {
	return len(o.Results) - o.Passed()
}

// Failures returns the messages of failing results.
func (o *Outcome) Failures() []string {
	var out []string
	for _, r := range o.Results {
		if !r.Passed {
			out = append(out, r.Message)
		}
	}
	return out
}

// OK reports whether the run completed with every check passing.
func (o *Outcome) OK() bool {
	return !o.Aborted && o.Failed() == 0
}

// Summary converts the outcome for the artifacts summary file.
func (o *Outcome) Summary() artifacts.Summary {
	return artifacts.Summary{
		RunID:       o.RunID,
		Scenario:    o.Scenario,
		BaseURL:     o.BaseURL,
		StartedAt:   o.StartedAt,
		Duration:    o.Duration,
		Passed:      o.Passed(),
		Failed:      o.Failed(),
		Aborted:     o.Aborted,
		AbortReason: o.AbortReason,
		Failures:    o.Failures(),
		Screenshots: o.Screenshots,
	}
}

// ExitCode maps outcomes to a process exit status. Aborted runs always fail;
// failed checks only fail the process when strict is set.
func ExitCode(outcomes []*Outcome, strict bool) int {
	for _, o := range outcomes {
		if o == nil || o.Aborted {
			return 1
		}
		if strict && o.Failed() > 0 {
			return 1
		}
	}
	return 0
}
