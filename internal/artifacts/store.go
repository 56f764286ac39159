// Package artifacts manages the verification-artifacts directory: one PNG per
// step, failure screenshots, and a markdown summary per run.
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrDuplicateArtifact is returned when a screenshot name is claimed twice.
var ErrDuplicateArtifact = errors.New("artifact already written")

// Store hands out write-once artifact paths inside Dir.
type Store struct {
	dir string

	mu      sync.Mutex
	claimed map[string]bool
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifacts dir %s: %w", dir, err)
	}
	return &Store{dir: dir, claimed: make(map[string]bool)}, nil
}

// Dir returns the artifacts directory.
func (s *Store) Dir() string {
	return s.dir
}

// ClaimScreenshot reserves <scenario>/<step>.png and creates the scenario's
// directory. A second claim for the same path fails with ErrDuplicateArtifact,
// so steps of different scenarios never overwrite each other.
func (s *Store) ClaimScreenshot(scenarioName, step string) (string, error) {
	return s.claim(scenarioName, SafeName(step)+".png")
}

// ClaimFailureScreenshot reserves <scenario>/<step>_FAIL.png.
func (s *Store) ClaimFailureScreenshot(scenarioName, step string) (string, error) {
	return s.claim(scenarioName, SafeName(step)+"_FAIL.png")
}

func (s *Store) claim(scenarioName, file string) (string, error) {
	rel := filepath.Join(SafeName(scenarioName), file)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[rel] {
		return "", fmt.Errorf("%w: %s", ErrDuplicateArtifact, rel)
	}
	dir := filepath.Join(s.dir, filepath.Dir(rel))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir %s: %w", dir, err)
	}
	s.claimed[rel] = true
	return filepath.Join(s.dir, rel), nil
}

// Reset forgets claims so the same store can serve another run.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = make(map[string]bool)
}

// SafeName maps a step name to a file-system friendly stem.
func SafeName(name string) string {
	name = strings.TrimSpace(name)
	r := strings.NewReplacer(" ", "_", "/", "_", `\`, "_", ":", "_")
	name = r.Replace(name)
	if name == "." || name == ".." {
		return "_"
	}
	return name
}

// Summary is the per-run record written to summary.md.
type Summary struct {
	RunID       string
	Scenario    string
	BaseURL     string
	StartedAt   time.Time
	Duration    time.Duration
	Passed      int
	Failed      int
	Aborted     bool
	AbortReason string
	Failures    []string
	Screenshots []string
}

// Status returns PASS, FAIL or ABORTED.
func (s Summary) Status() string {
	switch {
	case s.Aborted:
		return "ABORTED"
	case s.Failed > 0:
		return "FAIL"
	default:
		return "PASS"
	}
}

// WriteSummaries writes summary.md for one or more scenario runs and returns its path.
func (s *Store) WriteSummaries(summaries []Summary) (string, error) {
	summaryPath := filepath.Join(s.dir, "summary.md")

	// Builder writes cannot fail; WriteFile reports the only error.
	var b strings.Builder

	overall := "PASS"
	for _, sum := range summaries {
		if st := sum.Status(); st == "ABORTED" || (st == "FAIL" && overall == "PASS") {
			overall = st
		}
	}

	fmt.Fprintf(&b, "# Smoke Check Summary\n\n")
	fmt.Fprintf(&b, "**Status:** %s\n", overall)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "| Scenario | Status | Passed | Failed | Duration |\n")
	fmt.Fprintf(&b, "|----------|--------|--------|--------|----------|\n")
	for _, sum := range summaries {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %.2fs |\n",
			sum.Scenario, sum.Status(), sum.Passed, sum.Failed, sum.Duration.Seconds())
	}
	fmt.Fprintf(&b, "\n")

	for _, sum := range summaries {
		fmt.Fprintf(&b, "## %s\n\n", sum.Scenario)
		fmt.Fprintf(&b, "- Run: `%s`\n", sum.RunID)
		fmt.Fprintf(&b, "- Base URL: %s\n", sum.BaseURL)
		fmt.Fprintf(&b, "- Started: %s\n", sum.StartedAt.Format("2006-01-02 15:04:05"))
		if sum.Aborted {
			fmt.Fprintf(&b, "- Aborted: %s\n", sum.AbortReason)
		}
		fmt.Fprintf(&b, "\n")

		if len(sum.Screenshots) > 0 {
			shots := append([]string(nil), sum.Screenshots...)
			sort.Strings(shots)
			fmt.Fprintf(&b, "### Screenshots\n\n")
			for _, shot := range shots {
				fmt.Fprintf(&b, "- `%s`\n", s.relative(shot))
			}
			fmt.Fprintf(&b, "\n")
		}

		if len(sum.Failures) > 0 {
			fmt.Fprintf(&b, "### Failures\n\n")
			for _, failure := range sum.Failures {
				fmt.Fprintf(&b, "- %s\n", failure)
			}
			fmt.Fprintf(&b, "\n")
		}
	}

	if err := os.WriteFile(summaryPath, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return summaryPath, nil
}

// relative returns path relative to the artifacts dir, or its base name when
// it lies outside.
func (s *Store) relative(path string) string {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
