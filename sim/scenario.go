package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/propfirm/risk"
)

// Scenario is a scripted equity path for one challenge.
type Scenario struct {
	Name           string    `yaml:"name"`
	InitialBalance float64   `yaml:"initial_balance"`
	Plan           risk.Plan `yaml:"plan"`
	Start          time.Time `yaml:"start"`
	Steps          []Step    `yaml:"steps"`
}

// Step is one equity reading. Either At or After may be set; After is
// relative to the previous step (or Start).
type Step struct {
	Equity float64   `yaml:"equity"`
	At     time.Time `yaml:"at,omitempty"`
	After  string    `yaml:"after,omitempty"` // e.g. "4h", "24h"
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scenario has no steps")
	}
	return &s, nil
}

// times resolves the timestamp of every step.
func (s *Scenario) times() ([]time.Time, error) {
	out := make([]time.Time, len(s.Steps))
	prev := s.Start
	for i, st := range s.Steps {
		switch {
		case !st.At.IsZero():
			out[i] = st.At
		case st.After != "":
			d, err := time.ParseDuration(st.After)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			out[i] = prev.Add(d)
		default:
			out[i] = prev
		}
		if out[i].Before(prev) {
			return nil, fmt.Errorf("step %d: time %s goes backwards", i, out[i].Format(time.RFC3339))
		}
		prev = out[i]
	}
	return out, nil
}
