package scenario

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// file is the on-disk layout of a scenario file:
//
//	[[scenarios]]
//	name = "planner-link"
//
//	[[scenarios.steps]]
//	name = "home_planner_link"
//	path = "/"
//	wait_for = { role = "link", name = "Planner" }
//
//	[[scenarios.steps.checks]]
//	label = "Planner link href"
//	kind = "attribute"
//	target = { role = "link", name = "Planner" }
//	attribute = "href"
//	expected = "/planner"
type file struct {
	Scenarios []Scenario `toml:"scenarios"`
}

// Parse decodes and validates the scenarios in a TOML document. Unknown keys
// are rejected so a typo cannot silently drop an assertion.
func Parse(data []byte) ([]Scenario, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: no [[scenarios]] defined", ErrInvalidScenario)
	}
	for _, sc := range f.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Scenarios, nil
}

// LoadFiles reads scenarios from each path in order.
func LoadFiles(paths ...string) ([]Scenario, error) {
	var all []Scenario
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
		}
		scenarios, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("scenario file %s: %w", path, err)
		}
		all = append(all, scenarios...)
	}
	return all, nil
}
